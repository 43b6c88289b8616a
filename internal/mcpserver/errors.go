package mcpserver

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// errorResponse is the structured error shape returned inside tool
// results, so the calling agent sees the details instead of the MCP
// client swallowing them.
type errorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResult creates a tool result containing a structured error.
// Used for recoverable problems the agent can act on (bad schema
// JSON, merge conflicts); system failures still return Go errors.
func errorResult(code, message string) *mcp.CallToolResult {
	resp := errorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// jsonResult renders any value as an indented JSON tool result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("encoding_failed", err.Error())
	}
	return mcp.NewToolResultText(string(data))
}
