// ABOUTME: Entry point for the drift-tracer CLI
// ABOUTME: Analyzes one SRT log, prints statistics and optionally plots or uploads it
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/mbakholdina/srt-drift-tracer/internal/analysis"
	"github.com/mbakholdina/srt-drift-tracer/internal/chart"
	"github.com/mbakholdina/srt-drift-tracer/internal/client"
	"github.com/mbakholdina/srt-drift-tracer/internal/config"
	"github.com/mbakholdina/srt-drift-tracer/internal/discovery"
	"github.com/mbakholdina/srt-drift-tracer/internal/protocol"
	"github.com/mbakholdina/srt-drift-tracer/internal/ui"
	"github.com/mbakholdina/srt-drift-tracer/internal/version"
	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

var (
	configPath     = flag.String("config", "", "YAML config file (default: "+config.DefaultPath+" if present)")
	localSys       = flag.Bool("local-sys", false, "Use the SYSTEM clock for the local side (default STEADY)")
	remoteSys      = flag.Bool("remote-sys", false, "Use the SYSTEM clock for the remote side (default STEADY)")
	com            = flag.Float64("com", drift.DefaultCenterOfMass, "EWMA center of mass")
	window         = flag.Int("window", drift.DefaultBlockWindowSize, "SRT model window size in samples")
	clampOverdrift = flag.Bool("clamp-overdrift", false, "Clamp the SRT model drift to the configured maximum")
	htmlPath       = flag.String("html", "", "Write figures to this HTML file")
	noTUI          = flag.Bool("no-tui", false, "Print statistics only, do not open the viewer")
	upload         = flag.Bool("upload", false, "Upload the log to a drift dashboard")
	serverAddr     = flag.String("server", "", "Dashboard address host:port (skip mDNS)")
	logLevel       = flag.String("log-level", "", "Log level (default from config: info)")
	logFile        = flag.String("log-file", "", "Log file path")
	showVersion    = flag.Bool("version", false, "Print version and exit")
)

const discoveryTimeout = 10 * time.Second

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <log.csv>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	useTUI := !*noTUI

	// TUI mode logs only to the file
	var stdout io.Writer = os.Stderr
	if useTUI {
		stdout = nil
	}
	closer, err := cfg.Log.Setup(stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	analyzer := analysis.New(cfg.Engine, nil)
	report, err := analyzer.Analyze(ctx, analysis.Request{
		Name:        filepath.Base(path),
		Data:        data,
		LocalClock:  cfg.Engine.LocalClock,
		RemoteClock: cfg.Engine.RemoteClock,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := report.Print(os.Stdout); err != nil {
		log.Fatalf("Failed to print report: %v", err)
	}

	if *htmlPath != "" {
		if err := writeHTML(*htmlPath, report); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Figures written to %s\n", *htmlPath)
	}

	if !useTUI {
		if *upload {
			if err := uploadLog(ctx, report.Name, data, cfg.Engine, func(ui.StatusMsg) {}); err != nil {
				fmt.Fprintf(os.Stderr, "upload failed: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	prog := ui.NewProgram(ui.NewModel(report))
	if *upload {
		go func() {
			if err := uploadLog(ctx, report.Name, data, cfg.Engine, func(msg ui.StatusMsg) { prog.Send(msg) }); err != nil {
				log.Errorf("Upload failed: %v", err)
				prog.Send(ui.StatusMsg{Upload: fmt.Sprintf("failed: %v", err)})
			}
		}()
	}
	go func() {
		<-ctx.Done()
		prog.Send(tea.Quit())
	}()
	if _, err := prog.Run(); err != nil {
		log.Fatalf("TUI error: %v", err)
	}
}

// applyFlags overrides config values with explicitly set flags
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "local-sys":
			cfg.Engine.LocalClock = clockFor(*localSys)
		case "remote-sys":
			cfg.Engine.RemoteClock = clockFor(*remoteSys)
		case "com":
			cfg.Engine.EWMACenterOfMass = *com
		case "window":
			cfg.Engine.BlockWindowSize = *window
		case "clamp-overdrift":
			cfg.Engine.EnableOverdriftClamp = *clampOverdrift
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-file":
			cfg.Log.File = *logFile
		}
	})
}

func clockFor(system bool) drift.Clock {
	if system {
		return drift.System
	}
	return drift.Steady
}

func writeHTML(path string, report *analysis.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := chart.WriteHTML(f, report.Page()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// uploadLog sends the log to a dashboard found by -server or mDNS
func uploadLog(ctx context.Context, name string, data []byte, engine drift.Config, status func(ui.StatusMsg)) error {
	addr := *serverAddr
	if addr == "" {
		status(ui.StatusMsg{Upload: "discovering dashboard..."})
		findCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
		defer cancel()
		info, err := discovery.Find(findCtx)
		if err != nil {
			return err
		}
		addr = info.Addr()
		log.Infof("Discovered dashboard %s at %s", info.Name, addr)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	c := client.NewClient(client.Config{
		ServerAddr: addr,
		Name:       fmt.Sprintf("%s-drift-tracer", hostname),
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	})
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()

	connected := true
	status(ui.StatusMsg{Connected: &connected, ServerName: addr, Upload: "uploading " + name})

	report, err := c.Analyze(ctx, name, data, engine.LocalClock, engine.RemoteClock)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("stored as %s on %s", report.ID, addr)
	log.Infof("Upload complete: %s", msg)
	status(ui.StatusMsg{Upload: msg})
	if *noTUI {
		fmt.Printf("Uploaded %s: %s\n", name, msg)
	}
	return nil
}
