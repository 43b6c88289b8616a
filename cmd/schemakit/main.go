// Command schemakit converts JSON database schemas to SQL and back,
// validates and merges them, creates SQLite databases with seed data,
// compares GORM models against a schema, and serves the whole tool
// set over MCP stdio.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "schemakit",
	Short: "JSON schema to SQL toolkit",
	Long: `SchemaKit works with declarative JSON database schemas: generate SQL DDL
for SQLite, PostgreSQL, or MySQL, extract a schema back out of a live
database or raw DDL, validate and merge schema fragments, materialize a
SQLite database file with seed data, and detect drift against GORM model
source files.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./schemakit.yaml)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(serveCmd)
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("schemakit")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SCHEMAKIT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
