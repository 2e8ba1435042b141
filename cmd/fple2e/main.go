package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/damongreen123/fpl-ccd-configuration/internal/api"
	"github.com/damongreen123/fpl-ccd-configuration/internal/browser"
	"github.com/damongreen123/fpl-ccd-configuration/internal/caseapi"
	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/controller"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/netutil"
	"github.com/damongreen123/fpl-ccd-configuration/internal/notify"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
	"github.com/damongreen123/fpl-ccd-configuration/internal/report"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
	"github.com/damongreen123/fpl-ccd-configuration/internal/suites"
)

const (
	modeRun   = "run"
	modeServe = "serve"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mode := flag.String("mode", modeRun, "run: execute once and exit non-zero on failure | serve: HTTP API")
	features := flag.String("features", "", "comma separated feature names (default all)")
	tags := flag.String("tags", "", "comma separated scenario tags (default all)")
	flag.Parse()

	if *mode != modeRun && *mode != modeServe {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		return 1
	}

	slog.Info("fple2e config loaded",
		"mode", *mode,
		"url", cfg.BaseURL,
		"case_service_url", cfg.CaseServiceURL,
		"idam_api_url", cfg.IDAMAPIURL,
		"parallel", cfg.Parallel,
		"scenario_timeout_ms", cfg.ScenarioTimeoutMS,
		"poll_interval_ms", cfg.PollIntervalMS,
		"poll_max_wait_ms", cfg.PollMaxWaitMS,
		"remote_browser", cfg.RemoteBrowser,
		"headless", cfg.Headless,
		"output_dir", cfg.OutputDir,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, closeBrowser, err := openBrowser(ctx, cfg)
	if err != nil {
		slog.Error("failed to open browser", "error", err)
		return 1
	}
	defer closeBrowser()

	events := report.NewEventLog(filepath.Join(cfg.OutputDir, "events"), 256, 50)
	defer func() {
		if err := events.Close(); err != nil {
			slog.Debug("event log close failed", "error", err)
		}
	}()
	store, err := report.NewStore(filepath.Join(cfg.OutputDir, "runs"), report.WithEventLog(events))
	if err != nil {
		slog.Error("failed to create report store", "dir", cfg.OutputDir, "error", err)
		return 1
	}

	runner, err := scenario.NewRunner(cfg, scenario.ChromeSessions(b), caseapi.FromConfig(cfg, slog.Default()), slog.Default(),
		scenario.WithRecorder(store))
	if err != nil {
		slog.Error("failed to create runner", "error", err)
		return 1
	}

	reg, err := suites.Registry()
	if err != nil {
		slog.Error("failed to register features", "error", err)
		return 1
	}

	var opts []controller.Option
	if cfg.NotifyURL != "" {
		opts = append(opts, controller.WithNotifier(func(ctx context.Context, run *scenario.Run) error {
			return notify.SendSummary(ctx, nil, cfg.NotifyURL, run)
		}))
	}
	svc := controller.NewService(reg, runner, store, opts...)

	if *mode == modeServe {
		return serve(ctx, cfg, svc)
	}
	return runOnce(ctx, svc, scenario.Filter{Features: splitList(*features), Tags: splitList(*tags)})
}

// openBrowser connects to a browser on the CDP port when remote browsing is
// on, launching one there if none answers, and otherwise starts a private one.
func openBrowser(ctx context.Context, cfg *config.Config) (*driver.Browser, func(), error) {
	bcfg := driver.BrowserConfig{Headless: cfg.Headless, EvalTimeout: cfg.EvalTimeout()}
	var launcher *browser.Launcher

	if cfg.RemoteBrowser {
		poller, err := poll.New(cfg.PollInterval(), cfg.PollMaxWait())
		if err != nil {
			return nil, nil, err
		}
		launcher = browser.NewLauncher(browser.FromConfig(cfg), poller, slog.Default())
		if err := launcher.Launch(ctx); err != nil {
			return nil, nil, err
		}
		bcfg.RemoteURL = launcher.CDPURL()
	}

	b, err := driver.Connect(ctx, bcfg, slog.Default())
	if err != nil {
		if launcher != nil {
			launcher.Stop()
		}
		return nil, nil, err
	}
	return b, func() {
		b.Close()
		if launcher != nil && launcher.Running() {
			launcher.Stop()
		}
	}, nil
}

func runOnce(ctx context.Context, svc *controller.Service, filter scenario.Filter) int {
	run, err := svc.Run(ctx, filter)
	if run == nil {
		slog.Error("run failed", "error", err)
		return 1
	}
	for _, res := range run.Results {
		if res.Status == scenario.StatusFailed {
			slog.Error("scenario failed",
				"feature", res.Feature,
				"scenario", res.Scenario,
				"code", res.Code,
				"case_id", res.CaseID,
				"screenshot", res.Screenshot,
				"error", res.Error,
			)
		}
	}
	slog.Info("run complete", "run_id", run.ID, "passed", run.Passed, "failed", run.Failed)
	if err != nil || run.Failed > 0 {
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config, svc *controller.Service) int {
	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		return 1
	}
	addr := ln.Addr().String()

	srv := &http.Server{Handler: api.NewServer(svc), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("fple2e listening", "addr", addr, "docs", "http://"+addr+"/docs")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		slog.Error("fple2e server failed", "error", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("fple2e shutdown failed", "error", err)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		slog.Warn("run still in progress at shutdown", "error", err)
	}
	return 0
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
