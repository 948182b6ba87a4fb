// Package server implements the MCP (Model Context Protocol) server for screen text recognition.
//
// This package provides a JSON-RPC 2.0 server that exposes the OCR pipeline
// through the MCP protocol, so MCP clients can read the text in screen
// captures and inspect how captures are prepared for recognition.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Recognition:
//   - ocr_recognize: Extract the text of an image or a region of it
//
// Pipeline inspection:
//   - ocr_prepare: Grayscale and upscale an image, optionally saving the PNG
//   - ocr_scale: Explain the upscaling factor and its bounds
//   - ocr_memory: Free memory the memory bound is computed from
//
// Engine management:
//   - ocr_languages: Installed recognition languages
//   - ocr_info: Engine version and pipeline settings
//   - ocr_reset: Close engines, optionally switching tessdata directory
//
// Tools that take a path also accept a named region (quadrants, halves,
// center) or a box to restrict the operation to part of the image.
//
// # Recognition Worker
//
// Recognition runs on a single worker goroutine that owns one engine per
// language. Each request is a new generation, so engines for languages the
// latest request did not use are closed. Identical captures are answered
// from the worker's result cache.
//
// # Image Caching
//
// Loaded images are cached by path together with their pixel density.
// Files without density metadata get the configured default density.
// ocr_reset clears the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A recognition that produces no text is not a tool failure: the result
// carries an empty text and the error message instead.
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(cfg, server.WithLogger(log))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("server failed")
//	}
package server
