// Package main provides the CLI wrapper for the motion capture server.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/motionlab/dtwcapture/internal/appctx"
	"github.com/motionlab/dtwcapture/internal/config"
	"github.com/motionlab/dtwcapture/pkg/capture"
	"github.com/motionlab/dtwcapture/pkg/httpapi"
	"github.com/motionlab/dtwcapture/pkg/store"
	"github.com/motionlab/dtwcapture/pkg/transport"
)

var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to TOML configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	verbose := flag.Bool("verbose", false, "Enable verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "motioncapture - clinical motion-assessment capture server\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run with default settings\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -config config.toml      # Run with custom config\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -addr :9090              # Override listen address\n", os.Args[0])
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("motioncapture version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}

	if err := os.MkdirAll(cfg.Storage.RecordingsDir, 0755); err != nil {
		log.Fatalf("Failed to create recordings directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Storage.TemplatesDir, 0755); err != nil {
		log.Fatalf("Failed to create templates directory: %v", err)
	}

	if *verbose {
		log.Printf("Configuration:")
		log.Printf("  Server: address=%s", cfg.Server.Address)
		log.Printf("  Storage: db=%s, recordings=%s, templates=%s",
			cfg.Storage.DBPath, cfg.Storage.RecordingsDir, cfg.Storage.TemplatesDir)
		log.Printf("  Capture: use_z=%v, smoothing=%.2f, workers=%d",
			cfg.Capture.UseZ, cfg.Capture.DisplaySmoothingFactor, cfg.Capture.WorkerPoolSize)
		log.Printf("  DTW: sakoe_band=%s", cfg.DTW.SakoeBand)
	}

	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	app := appctx.New(cfg, st)

	pool := transport.NewWorkerPool(cfg.Capture.WorkerPoolSize)
	wsHandler := transport.NewHandler(app, capture.NullDetector{}, pool)

	mux := http.NewServeMux()
	mux.Handle("/ws/capture", wsHandler)

	apiServer := &httpapi.Server{
		Store:         st,
		RecordingsDir: cfg.Storage.RecordingsDir,
		Backend:       "dtwcapture",
		ModelDefault:  "pose",
	}
	apiServer.Routes(mux)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		log.Printf("Listening on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down...", sig)
	srv.Close()
}
