// ABOUTME: Entry point for the drift dashboard server
// ABOUTME: Parses CLI flags and starts the upload, report feed and metrics server
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
	"github.com/mbakholdina/srt-drift-tracer/internal/config"
	"github.com/mbakholdina/srt-drift-tracer/internal/metrics"
	"github.com/mbakholdina/srt-drift-tracer/internal/server"
)

var (
	configPath = flag.String("config", "", "YAML config file (default: "+config.DefaultPath+" if present)")
	port       = flag.Int("port", 0, "HTTP port (default from config: 8050)")
	name       = flag.String("name", "", "Dashboard friendly name (default: hostname-drift-dashboard)")
	logFile    = flag.String("log-file", "drift-dashboard.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	useTUI     = flag.Bool("tui", false, "Show the status TUI instead of streaming logs")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Dashboard.Port = *port
	}
	if *noMDNS {
		cfg.Dashboard.EnableMDNS = false
	}
	if *useTUI {
		cfg.Dashboard.UseTUI = true
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = *logFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// TUI mode logs only to the file, otherwise to both file and stdout
	var stdout io.Writer = os.Stdout
	if cfg.Dashboard.UseTUI {
		stdout = nil
	}
	closer, err := cfg.Log.Setup(stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	// Determine server name
	serverName := *name
	if serverName == "" {
		serverName = cfg.Dashboard.Name
		if serverName == config.Default().Dashboard.Name {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "unknown"
			}
			serverName = fmt.Sprintf("%s-%s", hostname, serverName)
		}
	}

	readTimeout, writeTimeout, err := cfg.Dashboard.Timeouts()
	if err != nil {
		log.Fatalf("Invalid dashboard config: %v", err)
	}

	log.Infof("Starting drift dashboard: %s on port %d", serverName, cfg.Dashboard.Port)
	log.Debugf("Debug logging enabled")
	log.Infof("Logging to: %s", cfg.Log.File)
	log.Infof("Press Ctrl-C to stop")

	m := metrics.New()
	analyzer := analysis.New(cfg.Engine, m)
	analyzer.SetParallelism(cfg.Dashboard.Parallelism)

	srv := server.New(server.Config{
		Port:           cfg.Dashboard.Port,
		Name:           serverName,
		EnableMDNS:     cfg.Dashboard.EnableMDNS,
		Debug:          *debug,
		UseTUI:         cfg.Dashboard.UseTUI,
		MaxReports:     cfg.Dashboard.MaxReports,
		MaxUploadBytes: cfg.Dashboard.MaxUploadMB << 20,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
	}, analyzer, m)

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Infof("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Infof("Server stopped")
}
