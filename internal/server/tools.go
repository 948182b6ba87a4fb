package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Regions accepted by the region argument.
var Regions = []string{"top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center"}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func regionProperties(props map[string]interface{}) map[string]interface{} {
	props["region"] = map[string]interface{}{
		"type":        "string",
		"enum":        Regions,
		"description": "Optional named region to restrict the operation to",
	}
	props["box"] = map[string]interface{}{
		"type":        "object",
		"description": "Optional rectangle (x1,y1 inclusive; x2,y2 exclusive). Ignored when region is set",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer"},
			"y1": map[string]interface{}{"type": "integer"},
			"x2": map[string]interface{}{"type": "integer"},
			"y2": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
	props["reload"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Decode the file again instead of using the cached image. Set when a capture was rewritten under the same path",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "ocr_recognize",
			Description: "Recognize the text in a screen capture. The image is converted to grayscale and upscaled to about 500 DPI before recognition. Returns the trimmed text, or an error message when nothing was recognized.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": regionProperties(map[string]interface{}{
					"path": pathProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code (e.g., 'eng', 'deu', 'chi_sim'). Defaults to the configured language",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_prepare",
			Description: "Run the recognition preprocessing (grayscale, upscaling) on an image without recognizing it. Writes the result as PNG to output_path, or returns it as base64 when include_image is set.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": regionProperties(map[string]interface{}{
					"path": pathProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the prepared PNG to",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the prepared image as base64 PNG. Default false",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_scale",
			Description: "Explain the upscaling decision for an image: preferred factor from its density, the geometry and memory bounds, and the factor that would be applied.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": regionProperties(map[string]interface{}{
					"path": pathProperty(),
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_languages",
			Description: "List the recognition languages installed in the tessdata directory.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tessdata_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory to scan. Defaults to the configured tessdata path",
					},
				},
			},
		},
		{
			Name:        "ocr_memory",
			Description: "Report the free memory the upscaling bound is computed from.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "ocr_info",
			Description: "Report the OCR engine version, tessdata location, installed languages and preprocessing settings.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "ocr_reset",
			Description: "Close all loaded recognition engines and forget cached results, optionally switching to another tessdata directory.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"tessdata_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional new tessdata directory. Defaults to the current one",
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
