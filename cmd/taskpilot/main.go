// TaskPilot is a task-processing agent service.
//
// Clients submit natural-language tasks over HTTP; the agent decides
// which of its built-in tools to run, executes them, and returns the
// final answer together with a step-by-step execution trace. Results
// are persisted to SQLite and can be streamed live over SSE.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	taskpilot serve              Start the API server
//	taskpilot init [dir]         Initialize a working directory with defaults
//	taskpilot version            Print version and build information
//	taskpilot -o json version    Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/taskpilot-ai/taskpilot/internal/agent"
	"github.com/taskpilot-ai/taskpilot/internal/api"
	"github.com/taskpilot-ai/taskpilot/internal/buildinfo"
	"github.com/taskpilot-ai/taskpilot/internal/config"
	"github.com/taskpilot-ai/taskpilot/internal/events"
	"github.com/taskpilot-ai/taskpilot/internal/history"
	"github.com/taskpilot-ai/taskpilot/internal/llm"
	"github.com/taskpilot-ai/taskpilot/internal/tools"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run], keeping
// os.Exit, os.Stdout, and os.Args out of the application logic so the
// full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the taskpilot command. All OS-level
// dependencies are injected as parameters; run returns nil on clean
// shutdown and a non-nil error for any failure.
//
// Arguments are parsed by hand. The flag package relies on package-level
// globals (flag.CommandLine), which makes it impossible to call run()
// concurrently from tests, and our argument surface is small enough that
// manual parsing is clearer than bringing in a CLI framework.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runServe boots the full service: config, history store, gateway
// client, tool registry, agent runner, and the HTTP API. It blocks
// until ctx is cancelled, then shuts the server down gracefully.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting TaskPilot",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"branch", buildinfo.GitBranch,
		"built", buildinfo.BuildTime,
	)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Reconfigure the logger now that we know the desired level. The
	// initial Info-level logger only covers the startup banner.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"model", cfg.Gateway.Model,
		"max_iterations", cfg.Agent.MaxIterations,
	)

	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
		}
	}

	dbPath := cfg.DatabasePath()
	store, err := history.New(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open history database %s: %w", dbPath, err)
	}
	defer store.Close()
	logger.Info("history database opened", "path", dbPath)

	gateway := llm.NewOpenAIClient(cfg.Gateway.APIKey, cfg.Gateway.BaseURL, cfg.Gateway.Model, logger)

	// A failed ping is a warning, not a startup failure: the gateway may
	// come up after us, and each request reports its own errors anyway.
	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := gateway.Ping(pingCtx); err != nil {
		logger.Warn("gateway not reachable at startup", "error", err)
	} else {
		logger.Info("gateway reachable", "model", cfg.Gateway.Model)
	}
	pingCancel()

	bus := events.New()
	registry := tools.NewRegistry()
	runner := agent.NewRunner(gateway, registry, cfg.Agent.MaxIterations, bus, logger)
	logger.Info("agent ready", "tools", registry.Names())

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, runner, store, bus, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	return nil
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	// Print fields in a stable order for human readability.
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "TaskPilot - Task Processing Agent")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: taskpilot [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  init [dir]   Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./taskpilot.yaml, ~/.config/taskpilot/taskpilot.yaml, /etc/taskpilot/taskpilot.yaml")
	return nil
}

// newLogger creates a structured text logger writing to w at the given
// level. All log output goes through slog; this helper standardizes the
// handler configuration across subcommands.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

// loadConfig locates and parses the YAML configuration file. If explicit
// is non-empty, that exact path is used (and must exist). Otherwise,
// [config.FindConfig] searches the default locations.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}
