package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/apiwrapper"
	"github.com/jpalmerr/apiwrapper/internal/server"
	"github.com/jpalmerr/apiwrapper/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start the sandbox pricing API on a free port; a quarter of the polls
	// are throttled or empty
	sandbox := server.NewServer(store.NewMemoryStore(), "127.0.0.1:0", server.Config{
		APIKey:       "demo-key",
		PendingPolls: 3,
		ThrottleRate: 0.15,
		EmptyRate:    0.10,
		Latency:      100 * time.Millisecond,
	}, logger)
	if err := sandbox.Start(ctx); err != nil {
		slog.Error("failed to start sandbox", "error", err)
		os.Exit(1)
	}

	client, err := apiwrapper.New(
		apiwrapper.WithLogger(logger),
		apiwrapper.WithTimeout(10*time.Second),
		apiwrapper.WithRateLimit(20, 1),
	)
	if err != nil {
		slog.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	svc, err := apiwrapper.NewService(client, sandbox.URL(),
		apiwrapper.WithServiceParam("apiKey", "demo-key"),
	)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// single request in strict mode
	countries, err := svc.Get(ctx, "reference/v1.0/countries/en-GB")
	if err != nil {
		slog.Error("reference request failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("reference data: %d bytes\n", len(countries.Response.Body))

	// a session request with a missing field reports every validation message
	_, err = svc.CreateSession(ctx, "pricing/v1.0", map[string]any{"country": "UK"})
	if he, ok := apiwrapper.AsHTTPError(err); ok {
		fmt.Printf("validation failed with %d messages:\n", len(he.Messages))
		for _, msg := range he.Messages {
			fmt.Printf("  - %s\n", msg)
		}
	}

	// create a session and poll it; graceful mode rides through 429s and
	// empty polls
	result, err := svc.Search(ctx, "pricing/v1.0",
		map[string]any{
			"country":          "UK",
			"currency":         "GBP",
			"locale":           "en-GB",
			"originplace":      "EDI",
			"destinationplace": "LHR",
			"outbounddate":     time.Now().AddDate(0, 1, 0),
			"adults":           1,
		},
		apiwrapper.WithInitialDelay(500*time.Millisecond),
		apiwrapper.WithDelay(250*time.Millisecond),
		apiwrapper.WithMaxTries(20),
		apiwrapper.WithPollErrorMode("graceful"),
	)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		slog.Error("search failed", "error", err)
		os.Exit(1)
	}

	status, _ := result.Status()
	fmt.Printf("search finished with status %v\n", status)
	fmt.Println(string(result.Response.Body))
}
