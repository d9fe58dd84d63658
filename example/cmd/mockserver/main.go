// Standalone sandbox pricing API for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	apiwrapper session pricing/v1.0 -c example/api.yaml \
//	    -p country=UK -p currency=GBP -p locale=en-GB \
//	    -p originplace=EDI -p destinationplace=LHR -p outbounddate=2026-11-01
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/apiwrapper/internal/server"
	"github.com/jpalmerr/apiwrapper/internal/store"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	apiKey := flag.String("api-key", "demo-key", "required apiKey parameter (empty disables the check)")
	pending := flag.Int("pending", 3, "polls answered UpdatesPending before a session completes")
	throttle := flag.Float64("throttle", 0.1, "fraction of polls answered 429")
	empty := flag.Float64("empty", 0.1, "fraction of polls answered with an empty body")
	latency := flag.Duration("latency", 150*time.Millisecond, "delay added to every poll")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(store.NewMemoryStore(), *addr, server.Config{
		APIKey:       *apiKey,
		PendingPolls: *pending,
		ThrottleRate: *throttle,
		EmptyRate:    *empty,
		Latency:      *latency,
	}, logger)
	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Sandbox pricing API listening on %s\n", srv.URL())
	fmt.Printf("Sessions complete after %d pending polls\n", *pending)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	<-ctx.Done()
	// give the shutdown goroutine its grace period
	time.Sleep(100 * time.Millisecond)
}
