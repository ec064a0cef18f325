// Package main runs the simulation server: the tick loop, the websocket
// feed, the periodic summary and the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"token-pulse/internal/config"
	"token-pulse/internal/factory"
	"token-pulse/internal/feed"
	"token-pulse/internal/market"
	"token-pulse/internal/randsrc"
	"token-pulse/internal/session"
	"token-pulse/internal/storage/memory"
	"token-pulse/internal/summary"
)

// Server holds all components of the simulation service.
type Server struct {
	cfg    *config.Config
	logger *log.Logger

	session  *session.Session
	hub      *feed.Hub
	reporter *summary.Reporter // nil when disabled

	startedAt time.Time
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", os.Getenv("TOKEN_PULSE_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	paused := flag.Bool("paused", false, "Seed the token set without starting the tick loop")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create server: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = server.Run(ctx, !*paused)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// NewServer wires the session, feed hub and reporter from cfg.
func NewServer(cfg *config.Config, logger *log.Logger) (*Server, error) {
	seed := cfg.Simulation.Seed
	engineSeed := uint64(0)
	if seed != 0 {
		engineSeed = seed + 1
	}

	params := cfg.MarketParams()
	engine := market.NewEngine(market.Options{
		Source: randsrc.New(engineSeed),
		Params: &params,
		Mode:   market.Mode(cfg.Simulation.TickMode),
	})
	f := factory.New(factory.Options{
		Source:         randsrc.New(seed),
		TrendThreshold: cfg.Market.CreationTrendThreshold,
		ImageBaseURL:   cfg.Simulation.ImageBaseURL,
	})

	sess := session.New(session.Options{
		Store:        memory.NewTokenStore(),
		Factory:      f,
		Engine:       engine,
		TokenCount:   cfg.Simulation.TokenCount,
		TickInterval: cfg.Simulation.TickInterval,
		Logger:       log.New(logger.Writer(), "[session] ", logger.Flags()),
	})

	hubCfg := feed.HubConfig{
		WriteTimeout: cfg.Feed.WriteTimeout,
		ReadTimeout:  cfg.Feed.ReadTimeout,
		PingInterval: cfg.Feed.PingInterval,
		SendBuffer:   cfg.Feed.SendBuffer,
	}
	hub := feed.NewHub(feed.HubOptions{
		Source: sess,
		Config: &hubCfg,
		Logger: log.New(logger.Writer(), "[feed] ", logger.Flags()),
	})

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		session: sess,
		hub:     hub,
	}

	if !cfg.Summary.Disabled {
		reporter, err := summary.NewReporter(summary.Options{
			Source:   sess,
			Schedule: cfg.Summary.Schedule,
			TopN:     cfg.Summary.TopN,
			Logger:   log.New(logger.Writer(), "[summary] ", logger.Flags()),
		})
		if err != nil {
			return nil, err
		}
		s.reporter = reporter
	}

	return s, nil
}

// Run starts every component and blocks until ctx is cancelled. With
// tick false the token set is seeded but only advances through /step.
func (s *Server) Run(ctx context.Context, tick bool) error {
	s.startedAt = time.Now()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.hub.Run(ctx)
	}()

	if tick {
		if err := s.session.Start(ctx); err != nil {
			return err
		}
	} else if err := s.session.Reset(ctx); err != nil {
		return err
	}
	s.logger.Printf("Session %s started with %d tokens (mode=%s, tick=%s, ticking=%t)",
		s.session.ID(), s.cfg.Simulation.TokenCount, s.cfg.Simulation.TickMode, s.cfg.Simulation.TickInterval, tick)

	if s.reporter != nil {
		s.reporter.Start()
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	httpErr := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting HTTP server on %s", s.cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err, ok := <-httpErr:
		if ok {
			runErr = err
		}
	}

	s.logger.Println("Stopping components...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Printf("HTTP shutdown error: %v", err)
	}

	if s.reporter != nil {
		s.reporter.Stop()
	}
	s.session.Stop()
	wg.Wait()

	return runErr
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
