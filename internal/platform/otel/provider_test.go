package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/demoscope/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("DEMOSCOPE_OTEL_ENDPOINT", "")

	shutdown, err := otel.Setup(context.Background(), "inspect")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("DEMOSCOPE_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("DEMOSCOPE_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "inspect")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_RejectsBadEnv(t *testing.T) {
	t.Setenv("DEMOSCOPE_OTEL_ENABLED", "maybe")

	if _, err := otel.Setup(context.Background(), "inspect"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSetupWithConfig_RejectsSampleRatio(t *testing.T) {
	cfg := otel.Config{Endpoint: "http://192.0.2.1:4318", Enabled: true, SampleRatio: 1.5}
	if _, err := otel.SetupWithConfig(context.Background(), "inspect", cfg); err == nil {
		t.Fatal("expected sample ratio error")
	}
}

func TestSetupWithConfig_CreatesProvider(t *testing.T) {
	// Non-routable address: nothing is exported.
	cfg := otel.Config{Endpoint: "http://192.0.2.1:4318", Enabled: true, SampleRatio: 0.5}
	shutdown, err := otel.SetupWithConfig(context.Background(), "mcp", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
