// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	entrypoint "github.com/louisbranch/demoscope/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/demoscope/internal/platform/grpc"
	"github.com/louisbranch/demoscope/internal/platform/timeouts"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage"
	"github.com/louisbranch/demoscope/internal/services/inspector/storage/sqlite"
	"github.com/louisbranch/demoscope/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	Transport     string `env:"DEMOSCOPE_MCP_TRANSPORT"   envDefault:"stdio"`
	HTTPAddr      string `env:"DEMOSCOPE_MCP_HTTP_ADDR"   envDefault:"localhost:8081"`
	HealthAddr    string `env:"DEMOSCOPE_MCP_HEALTH_ADDR" envDefault:"localhost:8082"`
	LibraryPath   string `env:"DEMOSCOPE_LIBRARY"`
	RecordingPath string `env:"DEMOSCOPE_RECORDING"`
	SeekToEnd     bool   `env:"DEMOSCOPE_SEEK_TO_END"`
	HealthCheck   bool   `env:"-"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health server address (for HTTP transport)")
	fs.StringVar(&cfg.LibraryPath, "library", cfg.LibraryPath, "SQLite recording library path")
	fs.StringVar(&cfg.RecordingPath, "recording", cfg.RecordingPath, "recording to open at startup")
	fs.BoolVar(&cfg.SeekToEnd, "seek-to-end", cfg.SeekToEnd, "position the startup recording at its last tick")
	fs.BoolVar(&cfg.HealthCheck, "health-check", false, "probe -health-addr and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter, or probes a running one when
// HealthCheck is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.HealthCheck {
		return platformgrpc.Probe(ctx, cfg.HealthAddr, timeouts.HealthProbe, log.Printf)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		var library storage.RecordingStore
		if path := strings.TrimSpace(cfg.LibraryPath); path != "" {
			store, err := sqlite.Open(ctx, path)
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer store.Close()
			library = store
		}
		return service.Run(ctx, service.Config{
			Transport:     service.TransportKind(cfg.Transport),
			HTTPAddr:      cfg.HTTPAddr,
			HealthAddr:    cfg.HealthAddr,
			Library:       library,
			RecordingPath: cfg.RecordingPath,
			SeekToEnd:     cfg.SeekToEnd,
		})
	})
}
