package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Library string `env:"DEMOSCOPE_CMD_TEST_LIBRARY" envDefault:"demoscope.db"`
	View    string `env:"DEMOSCOPE_CMD_TEST_VIEW"    envDefault:"entities"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("DEMOSCOPE_CMD_TEST_LIBRARY", "env.db")
	t.Setenv("DEMOSCOPE_CMD_TEST_VIEW", "tables")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.Library, "library", cfg.Library, "library")
	fs.StringVar(&cfg.View, "view", cfg.View, "view")

	if err := ParseArgs(fs, []string{"-library", "flag.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.Library != "flag.db" {
		t.Fatalf("expected flag value for library, got %q", cfg.Library)
	}
	if cfg.View != "tables" {
		t.Fatalf("expected env view, got %q", cfg.View)
	}
}

func TestParseConfigFromArgsReadsEnvAndFlags(t *testing.T) {
	t.Setenv("DEMOSCOPE_CMD_TEST_VIEW", "fields")

	cfg := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfg.Library, "library", "", "library")
	fs.StringVar(&cfg.View, "view", "", "view")
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-library", "flag.db"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.Library != "flag.db" {
		t.Fatalf("expected parsed flag library, got %q", cfg.Library)
	}
	if cfg.View != "fields" {
		t.Fatalf("expected env view, got %q", cfg.View)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRunsAndPropagatesError(t *testing.T) {
	t.Setenv("DEMOSCOPE_OTEL_ENDPOINT", "")
	want := errors.New("boom")
	called := false
	err := RunWithTelemetry(context.Background(), ServiceInspect, func(context.Context) error {
		called = true
		return want
	})
	if !called {
		t.Fatal("expected run function to be called")
	}
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceMCP, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestLogPrefix(t *testing.T) {
	if got := LogPrefix(ServiceMCP); got != "[MCP] " {
		t.Fatalf("LogPrefix = %q", got)
	}
	if got := LogPrefix(ServiceInspect); got != "[INSPECT] " {
		t.Fatalf("LogPrefix = %q", got)
	}
}
