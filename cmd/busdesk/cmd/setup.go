package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xetiic/busdesk/internal/adapter/outbound/audit"
	"github.com/xetiic/busdesk/internal/adapter/outbound/authapi"
	"github.com/xetiic/busdesk/internal/adapter/outbound/local"
	"github.com/xetiic/busdesk/internal/adapter/outbound/memory"
	"github.com/xetiic/busdesk/internal/adapter/outbound/sqlite"
	"github.com/xetiic/busdesk/internal/adapter/outbound/state"
	"github.com/xetiic/busdesk/internal/config"
	"github.com/xetiic/busdesk/internal/domain/auth"
	"github.com/xetiic/busdesk/internal/domain/session"
)

// app bundles the wired runtime shared by all commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	manager *session.Manager

	cleanups []func()
}

// newApp loads config and wires the session manager. extraSinks are fanned
// in alongside the configured audit sink (e.g. metrics in watch mode).
// The returned app is initialized: the persisted session is already restored.
func newApp(ctx context.Context, extraSinks ...session.EventSink) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.LogLevel)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Debug("loaded config", "file", configFile)
	}

	a := &app{cfg: cfg, logger: logger}

	authn, err := a.buildAuthenticator(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	sink, err := a.buildSink(extraSinks)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.manager = session.NewManager(session.Config{
		Store:         a.buildStateStore(),
		Authenticator: authn,
		Logger:        logger,
		Sink:          sink,
	})
	a.manager.Initialize()
	return a, nil
}

// Close releases wired resources in reverse order.
func (a *app) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
}

func (a *app) onClose(fn func()) {
	a.cleanups = append(a.cleanups, fn)
}

// buildStateStore returns the session blob store: file-backed when a path
// is configured, otherwise in-memory (session lost on exit).
func (a *app) buildStateStore() session.StateStore {
	if a.cfg.State.Path == "" {
		a.logger.Warn("no state path configured, session will not persist")
		return memory.NewStateStore()
	}
	return state.NewFileStore(a.cfg.State.Path, a.logger)
}

// buildAuthenticator wires the configured auth backend.
func (a *app) buildAuthenticator(ctx context.Context) (auth.Authenticator, error) {
	if a.cfg.Auth.Mode == "remote" {
		return authapi.NewClient(authapi.Config{
			BaseURL: a.cfg.API.BaseURL,
			Timeout: a.cfg.APITimeoutDuration(),
		}, a.logger), nil
	}

	dir, err := sqlite.Open(a.cfg.Auth.AccountsPath)
	if err != nil {
		return nil, fmt.Errorf("open account directory: %w", err)
	}
	a.onClose(func() { _ = dir.Close() })

	seed := local.DefaultSeed()
	if a.cfg.Auth.SeedPath != "" {
		if seed, err = local.LoadSeedFile(a.cfg.Auth.SeedPath); err != nil {
			return nil, err
		}
	}
	if err := local.Seed(ctx, dir, seed); err != nil {
		return nil, fmt.Errorf("seed accounts: %w", err)
	}

	limiter := memory.NewRateLimiter()
	limiter.StartCleanup(ctx)
	a.onClose(limiter.Stop)

	latency := a.cfg.LoginLatencyDuration()
	if latency == 0 {
		latency = -1 // configured "0" means no artificial delay
	}
	return local.New(dir, limiter, local.Config{Latency: latency}, a.logger), nil
}

// buildSink wires the audit output plus any extra sinks.
func (a *app) buildSink(extra []session.EventSink) (session.EventSink, error) {
	var base session.EventSink
	switch {
	case a.cfg.Audit.Output == "stdout":
		base = audit.NewStdoutEventLog(a.logger)
	case strings.HasPrefix(a.cfg.Audit.Output, "file://"):
		path := strings.TrimPrefix(a.cfg.Audit.Output, "file://")
		log, err := audit.NewFileEventLog(path, a.logger)
		if err != nil {
			return nil, err
		}
		a.onClose(func() { _ = log.Close() })
		base = log
	default:
		return nil, fmt.Errorf("invalid audit output: %s (must be 'stdout' or 'file://path')", a.cfg.Audit.Output)
	}

	if len(extra) == 0 {
		return base, nil
	}
	return append(session.MultiSink{base}, extra...), nil
}

// newLogger builds the process logger writing to stderr, keeping stdout
// clean for command output.
func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
