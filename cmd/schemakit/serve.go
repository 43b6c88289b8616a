package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skjelbred/schemakit/internal/mcpserver"
)

const serverVersion = "1.0.0"

var serveLogLevel string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the schema tools over MCP stdio",
	Long: `Serve exposes every schema operation (schema_to_sql, create_database,
extract_schema, validate_schema, merge_schemas, compare_models) as MCP
tools over stdin/stdout, for use by an AI agent. Logs go to stderr so
they never corrupt the protocol stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		s := mcpserver.NewServer("schemakit", serverVersion, logger)
		return s.ServeStdio()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level: debug, info, warn, or error (default: info)")
	_ = viper.BindPFlag("log.level", serveCmd.Flags().Lookup("log-level"))
}

// newLogger builds a stderr-only zap logger; stdout belongs to the
// MCP protocol.
func newLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if raw := viper.GetString("log.level"); raw != "" {
		if err := level.Set(raw); err != nil {
			return nil, err
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
