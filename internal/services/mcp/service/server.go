package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	platformgrpc "github.com/louisbranch/demoscope/internal/platform/grpc"
	"github.com/louisbranch/demoscope/internal/services/inspector/recording"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage"
	"github.com/louisbranch/demoscope/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "demoscope"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"

	defaultHTTPAddr   = "localhost:8081"
	defaultHealthAddr = "localhost:8082"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs streamable MCP over HTTP.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport  TransportKind
	HTTPAddr   string // defaults to localhost:8081
	HealthAddr string // gRPC health listener in HTTP mode, defaults to localhost:8082

	// Library backs open_recording by name and the library tools. Optional.
	Library storage.RecordingStore

	// RecordingPath is loaded before serving when set.
	RecordingPath string
	SeekToEnd     bool
}

// Server hosts the MCP server and the inspector workspace behind it.
type Server struct {
	mcpServer *mcp.Server
	workspace *domain.Workspace
}

// New creates a configured MCP server. onChange, when set, observes whether a
// recording is loaded.
func New(cfg Config, onChange func(loaded bool)) (*Server, error) {
	server, err := newServer(cfg.Library, onChange)
	if err != nil {
		return nil, err
	}
	if path := strings.TrimSpace(cfg.RecordingPath); path != "" {
		if err := server.preload(context.Background(), path, cfg.SeekToEnd); err != nil {
			_ = server.Close()
			return nil, err
		}
	}
	return server, nil
}

// newServer builds tool and resource bindings once over a fresh workspace.
func newServer(library storage.RecordingStore, onChange func(bool)) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler:  completionHandler,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	workspace := domain.NewWorkspace(domain.WorkspaceConfig{
		Opener:   recording.Open,
		Library:  library,
		OnChange: onChange,
	})
	server := &Server{mcpServer: mcpServer, workspace: workspace}

	resourceNotifier := func(ctx context.Context, uri string) {
		if strings.TrimSpace(uri) == "" {
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Printf("mcp resource updated notify failed: uri=%s err=%v", uri, err)
		}
	}

	for _, module := range newMCPRegistrationModules(workspace, resourceNotifier) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	return server, nil
}

func (s *Server) preload(ctx context.Context, path string, seekToEnd bool) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read recording: %w", err)
	}
	if _, err := s.workspace.Load(ctx, path, data, seekToEnd); err != nil {
		return fmt.Errorf("load recording %s: %w", path, err)
	}
	log.Printf("loaded recording %s", path)
	return nil
}

// completionHandler answers completion requests with no suggestions.
func completionHandler(context.Context, *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// resourceSubscribeHandler accepts subscriptions to the published resources.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil {
		return fmt.Errorf("resource uri is required")
	}
	return checkResourceURI(req.Params.URI)
}

// resourceUnsubscribeHandler accepts unsubscriptions from the published resources.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil {
		return fmt.Errorf("resource uri is required")
	}
	return checkResourceURI(req.Params.URI)
}

func checkResourceURI(uri string) error {
	switch strings.TrimSpace(uri) {
	case "":
		return fmt.Errorf("resource uri is required")
	case domain.SessionResourceURI, domain.EntitiesResourceURI:
		return nil
	default:
		return fmt.Errorf("unknown resource %q", uri)
	}
}

// Run is the service entrypoint for MCP and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		server, err := New(cfg, nil)
		if err != nil {
			return err
		}
		return server.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return runWithHTTPTransport(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// runWithHTTPTransport serves MCP over HTTP next to a gRPC health server that
// reports SERVING while a recording is loaded.
func runWithHTTPTransport(ctx context.Context, cfg Config) error {
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}
	healthAddr := cfg.HealthAddr
	if healthAddr == "" {
		healthAddr = defaultHealthAddr
	}

	health := platformgrpc.NewHealthServer()
	server, err := New(cfg, health.SetServing)
	if err != nil {
		return err
	}
	defer server.Close()

	lis, err := net.Listen("tcp", healthAddr)
	if err != nil {
		return fmt.Errorf("listen health on %s: %w", healthAddr, err)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	healthErr := make(chan error, 1)
	go func() {
		log.Printf("health server listening on %s", lis.Addr())
		healthErr <- health.Serve(ctx, lis)
	}()

	httpErr := NewHTTPTransport(httpAddr, server.mcpServer).Start(ctx)
	cancel()
	if err := <-healthErr; err != nil && httpErr == nil {
		return fmt.Errorf("health server: %w", err)
	}
	return httpErr
}

// Serve runs the MCP server on stdio until it stops or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Close releases the open recording.
func (s *Server) Close() error {
	if s == nil || s.workspace == nil {
		return nil
	}
	return s.workspace.Close()
}

// serveWithTransport runs the MCP server on transport. The workspace is
// closed on every exit path.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close workspace: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close workspace: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
