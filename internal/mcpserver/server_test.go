package mcpserver

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

func TestNewServer(t *testing.T) {
	logger := zap.NewNop()
	s := NewServer("schemakit", "1.0.0", logger)

	if s == nil {
		t.Fatal("expected non-nil server")
	}
	if s.mcp == nil {
		t.Fatal("expected non-nil mcp server")
	}
	if s.logger != logger {
		t.Error("expected logger to be set")
	}
}

func TestServer_MCP(t *testing.T) {
	s := NewServer("schemakit", "1.0.0", zap.NewNop())

	if s.MCP() == nil {
		t.Fatal("expected non-nil mcp server from MCP()")
	}
	if s.MCP() != s.mcp {
		t.Error("expected MCP() to return the internal mcp server")
	}
}

func TestErrorResult(t *testing.T) {
	result := errorResult("invalid_schema", "bad JSON")
	if !result.IsError {
		t.Error("expected IsError to be set")
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}

	var resp errorResponse
	if err := json.Unmarshal([]byte(text.Text), &resp); err != nil {
		t.Fatalf("error payload is not JSON: %v", err)
	}
	if !resp.Error || resp.Code != "invalid_schema" || resp.Message != "bad JSON" {
		t.Errorf("unexpected error payload: %+v", resp)
	}
}

func TestJSONResult(t *testing.T) {
	result := jsonResult(map[string]int{"tables": 3})
	if result.IsError {
		t.Error("expected success result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	if !strings.Contains(text.Text, `"tables": 3`) {
		t.Errorf("unexpected payload: %s", text.Text)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"users", 1},
		{"users, orders ,items", 3},
		{" , ", 0},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); len(got) != tt.want {
			t.Errorf("splitList(%q) = %v, want %d entries", tt.in, got, tt.want)
		}
	}
}
