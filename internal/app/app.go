package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	server "arena-brawl/server"
	"arena-brawl/server/logging"
	loggingSinks "arena-brawl/server/logging/sinks"
)

type Config struct {
	Addr     string
	TickRate int
	Logging  logging.Config
}

// loadConfig reads an optional .env and the process environment. A
// missing .env is fine; world tuning stays in compiled constants.
func loadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:     ":8080",
		TickRate: 0,
		Logging:  logging.DefaultConfig(),
	}

	if addr := os.Getenv("ARENA_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if raw := os.Getenv("ARENA_TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TickRate = value
		} else {
			log.Printf("invalid ARENA_TICK_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("ARENA_LOG_SINKS"); raw != "" {
		cfg.Logging.EnabledSinks = strings.Split(raw, ",")
	}
	if path := os.Getenv("ARENA_LOG_JSON_PATH"); path != "" {
		cfg.Logging.JSON.FilePath = path
	}

	return cfg
}

func buildSinks(cfg Config) ([]logging.NamedSink, func(), error) {
	var sinks []logging.NamedSink
	var closers []func()

	if cfg.Logging.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout)})
	}
	if cfg.Logging.HasSink("json") && cfg.Logging.JSON.FilePath != "" {
		file, err := os.OpenFile(cfg.Logging.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open json log: %w", err)
		}
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSONSink(file, cfg.Logging.JSON.FlushInterval)})
		closers = append(closers, func() { file.Close() })
	}

	cleanup := func() {
		for _, fn := range closers {
			fn()
		}
	}
	return sinks, cleanup, nil
}

func Run(ctx context.Context) error {
	cfg := loadConfig()

	sinks, cleanup, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	events := logging.NewRouter(nil, cfg.Logging, sinks)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := events.Close(closeCtx); cerr != nil {
			log.Printf("failed to close logging router: %v", cerr)
		}
	}()

	hub := server.NewHub(
		server.WithTickRate(cfg.TickRate),
		server.WithPublisher(events),
	)
	defer hub.Shutdown()

	router := mux.NewRouter()
	router.HandleFunc("/join", hub.HandleJoin).Methods(http.MethodPost)
	router.HandleFunc("/ws", hub.HandleWS)
	router.HandleFunc("/health", hub.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/diagnostics", hub.HandleDiagnostics).Methods(http.MethodGet)

	srv := &http.Server{Addr: cfg.Addr, Handler: router}

	errc := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}
