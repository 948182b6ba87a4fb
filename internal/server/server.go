package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ironsheep/screen-ocr-mcp/internal/config"
	"github.com/ironsheep/screen-ocr-mcp/internal/imaging"
	"github.com/ironsheep/screen-ocr-mcp/internal/memprobe"
	"github.com/ironsheep/screen-ocr-mcp/internal/ocr"
	"github.com/ironsheep/screen-ocr-mcp/internal/worker"
)

// Server handles MCP protocol communication
type Server struct {
	cfg     *config.Config
	cache   *imaging.ImageCache
	probe   memprobe.Probe
	prep    *imaging.Preprocessor
	worker  *worker.Worker
	factory ocr.EngineFactory
	log     zerolog.Logger
	version string

	// recognition runs on the worker goroutine, one task at a time
	submitMu   sync.Mutex
	tasks      chan *worker.Task
	finished   chan *worker.Task
	generation worker.Generation
	nextID     uint64
	startOnce  sync.Once
	stop       context.CancelFunc
	done       chan struct{}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithEngineFactory replaces the Tesseract engine factory.
func WithEngineFactory(f ocr.EngineFactory) Option {
	return func(s *Server) { s.factory = f }
}

// WithProbe replaces the memory probe chosen from the configuration.
func WithProbe(p memprobe.Probe) Option {
	return func(s *Server) { s.probe = p }
}

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithVersion sets the version reported by initialize.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a new MCP server instance. A nil cfg uses config.Default.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      zerolog.Nop(),
		version:  "dev",
		tasks:    make(chan *worker.Task),
		finished: make(chan *worker.Task),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		s.factory = ocr.NewTesseractFactory()
	}
	if s.probe == nil {
		s.probe = NewProbe(cfg.Preprocess)
	}

	s.cache = imaging.NewImageCache(cfg.Preprocess.DefaultDensity)
	s.prep = NewPreprocessor(cfg.Preprocess, s.probe, s.log)
	s.worker = worker.New(worker.Config{
		TessdataPath:    cfg.Tesseract.TessdataPath,
		MaxEntries:      cfg.Worker.MaxEntries,
		MaxHashDistance: cfg.Worker.MaxHashDistance,
	}, s.factory, worker.WithLogger(s.log), worker.WithPreprocessor(s.prep))
	return s
}

// NewProbe returns the configured memory limit as a fixed probe, or the
// system probe when no limit is set.
func NewProbe(cfg config.PreprocessConfig) memprobe.Probe {
	if cfg.MemoryLimit > 0 {
		return memprobe.Fixed(cfg.MemoryLimit)
	}
	return memprobe.NewSystem()
}

// NewPreprocessor builds the image pipeline described by cfg.
func NewPreprocessor(cfg config.PreprocessConfig, probe memprobe.Probe, log zerolog.Logger) *imaging.Preprocessor {
	arena := imaging.NewArena()
	calc := imaging.NewScaleCalculator(probe)
	if cfg.TargetDensity > 0 {
		calc.TargetDensity = cfg.TargetDensity
	}
	if cfg.MemoryMargin > 0 {
		calc.MemoryMargin = cfg.MemoryMargin
	}
	return imaging.NewPreprocessor(probe,
		imaging.WithArena(arena),
		imaging.WithCalculator(calc),
		imaging.WithScaler(imaging.NewInterpolatingScaler(arena, imaging.Interpolators[cfg.Interpolation])),
		imaging.WithLogger(log),
	)
}

// start launches the recognition worker on first use.
func (s *Server) start() {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.stop = cancel
		go func() {
			defer close(s.done)
			if err := s.worker.Run(ctx, s.tasks, s.finished); err != nil && err != context.Canceled {
				s.log.Error().Err(err).Msg("worker stopped")
			}
		}()
	})
}

// submit hands task to the worker and waits for it to finish.
func (s *Server) submit(ctx context.Context, task *worker.Task) (*worker.Task, error) {
	s.start()
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	s.nextID++
	s.generation++
	task.ID, task.Generation = s.nextID, s.generation

	select {
	case s.tasks <- task:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, fmt.Errorf("recognition worker stopped")
	}
	select {
	case done := <-s.finished:
		return done, nil
	case <-s.done:
		return nil, fmt.Errorf("recognition worker stopped")
	}
}

// Close stops the worker and releases all sessions.
func (s *Server) Close() {
	s.startOnce.Do(func() { close(s.done) })
	if s.stop != nil {
		s.stop()
	}
	<-s.done
	s.worker.Close()
}

// Run serves MCP on stdin and stdout until stdin closes or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from in and writes responses
// to out.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	defer s.Close()

	scanner := bufio.NewScanner(in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn().Err(err).Msg("failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error().Err(err).Msg("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.Debug().Str("method", req.Method).Interface("id", req.ID).Msg("request")
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "screen-ocr-mcp",
				"version": s.version,
			},
		},
	}
}
