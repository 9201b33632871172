// bb84d serves the BB84 simulation REST API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/qkdlab/bb84sim/internal/config"
	"github.com/qkdlab/bb84sim/internal/server"
)

var (
	configPath = flag.String("config", "",
		"Path to a YAML config file. Built-in defaults apply when omitted.")
	addr = flag.String("addr", "",
		"Listen address, overriding the config file.")
	backend = flag.String("backend", "",
		"Default qubit backend (simulated or circuit), overriding the config file.")
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Read(*configPath); err != nil {
			log.Fatalf("Loading config: %v", err)
		}
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *backend != "" {
		cfg.Backend = *backend
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(cfg),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("[bb84d] listening on %s (backend: %s)", cfg.ListenAddr, cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Serving: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[bb84d] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[bb84d] shutdown: %v", err)
	}
}
