package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nachoal/sse-chat-go/backend"
	"github.com/nachoal/sse-chat-go/config"
	"github.com/nachoal/sse-chat-go/session"
	"github.com/nachoal/sse-chat-go/tui"
)

var (
	// Flags
	backendURL string
	configPath string
	verbose    bool
	openID     int64

	// Set up by the persistent pre-run
	cfg       *config.Manager
	logger    = slog.New(slog.DiscardHandler)
	traceFile *os.File

	// Root command
	rootCmd = &cobra.Command{
		Use:               "sse-chat",
		Short:             "Terminal client for a streaming chat backend",
		Long:              "sse-chat talks to a chat backend that streams answers as server-sent events, with a history sidebar, tool call markers and thinking traces.",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
		RunE:              runTUI,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL (default http://localhost:3417)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.sse-chat/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write a debug trace to ~/.sse-chat/traces")

	// TUI-specific flags
	rootCmd.Flags().Int64Var(&openID, "id", 0, "Open a stored conversation on start")

	rootCmd.AddCommand(askCmd, historyCmd, showCmd, saveCmd, archiveAllCmd, configureCmd)
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration, binds the global flags to it and opens the
// trace log when asked to.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.NewManager(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	if err := cfg.BindFlag(config.KeyBackendURL, cmd.Flags().Lookup("backend")); err != nil {
		return err
	}
	if err := cfg.BindFlag(config.KeyDebug, cmd.Flags().Lookup("verbose")); err != nil {
		return err
	}

	if cfg.Debug() || isTraceEnabled() {
		initTraceLogger(cfg.Dir())
	}
	logger.Debug("config loaded",
		slog.String("path", cfg.Path()),
		slog.String("backend", cfg.BackendURL()),
		slog.String("command", cmd.Name()),
	)
	return nil
}

func teardown(*cobra.Command, []string) {
	closeTraceLogger()
}

func isTraceEnabled() bool {
	v := os.Getenv("SSE_CHAT_TRACE")
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// initTraceLogger points the package logger at a fresh file under
// <dir>/traces. Failures leave logging disabled.
func initTraceLogger(dir string) {
	if traceFile != nil {
		return
	}
	traceDir := filepath.Join(dir, "traces")
	if err := os.MkdirAll(traceDir, 0o755); err != nil {
		return
	}

	name := fmt.Sprintf("trace_%s_%d.log", time.Now().Format("20060102_150405"), os.Getpid())
	path := filepath.Join(traceDir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}

	traceFile = f
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("trace_start", slog.Int("pid", os.Getpid()))
	fmt.Fprintf(os.Stderr, "[Trace] Logging to %s\n", path)
}

func closeTraceLogger() {
	if traceFile == nil {
		return
	}
	logger.Info("trace_stop")
	_ = traceFile.Close()
	traceFile = nil
	logger = slog.New(slog.DiscardHandler)
}

func newClient() (*backend.Client, error) {
	client, err := backend.NewClient(
		backend.WithBaseURL(cfg.BackendURL()),
		backend.WithTimeout(cfg.RequestTimeout()),
		backend.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return client, nil
}

func sessionOptions() []session.Option {
	return []session.Option{
		session.WithKeepAliveInterval(cfg.KeepAliveInterval()),
		session.WithLogger(logger),
	}
}

func runTUI(cmd *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	return tui.Run(cmd.Context(), client, tui.Options{
		Theme:          cfg.Theme(),
		RenderMarkdown: cfg.RenderMarkdown(),
		OpenID:         openID,
		Logger:         logger,
	}, sessionOptions()...)
}
