// Package timeouts defines shared timeout constants used across binaries.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the health endpoint.
const GRPCDial = 2 * time.Second

// HealthProbe caps how long a health probe waits for SERVING.
const HealthProbe = 10 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers and exporters wait to drain during
// graceful shutdown.
const Shutdown = 5 * time.Second

// ToolCall caps a single MCP tool invocation. Seeking a long recording from
// the start is the slowest call.
const ToolCall = 30 * time.Second
