package domain

import (
	"context"

	"github.com/louisbranch/demoscope/internal/services/inspector/domain/handle"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DecodeHandleInput carries a raw handle value.
type DecodeHandleInput struct {
	Handle uint32 `json:"handle" jsonschema:"raw 32-bit entity handle"`
}

// DecodeHandleResult splits a handle into its parts.
type DecodeHandleResult struct {
	Valid  bool   `json:"valid" jsonschema:"false for the invalid-handle sentinel"`
	Index  *int32 `json:"index,omitempty" jsonschema:"entity index, omitted for invalid handles"`
	Serial uint32 `json:"serial" jsonschema:"serial bits above the index"`
}

// DecodeHandleTool defines decode_handle.
func DecodeHandleTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "decode_handle",
		Description: "Decodes a 32-bit entity handle into validity, entity index and serial. Needs no open recording.",
	}
}

// DecodeHandleHandler decodes a handle.
func DecodeHandleHandler() mcp.ToolHandlerFor[DecodeHandleInput, DecodeHandleResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input DecodeHandleInput) (*mcp.CallToolResult, DecodeHandleResult, error) {
		result := DecodeHandleResult{Valid: handle.IsValid(input.Handle), Serial: handle.Serial(input.Handle)}
		if result.Valid {
			index := handle.ToIndex(input.Handle)
			result.Index = &index
		}
		return nil, result, nil
	}
}
