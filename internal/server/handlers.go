package server

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "ocr_recognize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "ocr_recognize":
		return s.handleRecognize(ctx, args)
	case "ocr_prepare":
		return s.handlePrepare(args)
	case "ocr_scale":
		return s.handleScale(args)
	case "ocr_languages":
		return s.handleLanguages(args)
	case "ocr_memory":
		return s.Memory(), nil
	case "ocr_info":
		return s.Info(), nil
	case "ocr_reset":
		return s.handleReset(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments; absent arguments decode as empty.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

type recognizeArgs struct {
	Target
	Language string `json:"language"`
}

func (s *Server) handleRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a recognizeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.Recognize(ctx, a.Target, a.Language)
}

type prepareArgs struct {
	Target
	OutputPath   string `json:"output_path"`
	IncludeImage bool   `json:"include_image"`
}

func (s *Server) handlePrepare(args json.RawMessage) (interface{}, error) {
	var a prepareArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.Prepare(a.Target, a.OutputPath, a.IncludeImage)
}

func (s *Server) handleScale(args json.RawMessage) (interface{}, error) {
	var a Target
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.Scale(a)
}

type tessdataArgs struct {
	TessdataPath string `json:"tessdata_path"`
}

func (s *Server) handleLanguages(args json.RawMessage) (interface{}, error) {
	var a tessdataArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.Languages(a.TessdataPath), nil
}

func (s *Server) handleReset(args json.RawMessage) (interface{}, error) {
	var a tessdataArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.Reset(a.TessdataPath), nil
}
