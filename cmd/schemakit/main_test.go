package main

import (
	"testing"
)

func TestSplitTables(t *testing.T) {
	tests := []struct {
		name       string
		tablesStr  string
		wantTables []string
	}{
		{
			name:       "single table",
			tablesStr:  "users",
			wantTables: []string{"users"},
		},
		{
			name:       "multiple tables",
			tablesStr:  "users,posts,comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "tables with spaces",
			tablesStr:  "users, posts, comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "empty string",
			tablesStr:  "",
			wantTables: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTables := splitTables(tt.tablesStr)

			if len(gotTables) != len(tt.wantTables) {
				t.Errorf("splitTables() returned %d tables, want %d", len(gotTables), len(tt.wantTables))
				return
			}

			for i, table := range gotTables {
				if table != tt.wantTables[i] {
					t.Errorf("splitTables() table[%d] = %s, want %s", i, table, tt.wantTables[i])
				}
			}
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"generate": false,
		"extract":  false,
		"validate": false,
		"merge":    false,
		"create":   false,
		"compare":  false,
		"serve":    false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
