// Package main prints views of a recording from the command line.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	inspectcmd "github.com/louisbranch/demoscope/internal/cmd/inspect"
	entrypoint "github.com/louisbranch/demoscope/internal/platform/cmd"
)

func main() {
	cfg, err := inspectcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceInspect))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := inspectcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("inspect: %v", err)
	}
}
