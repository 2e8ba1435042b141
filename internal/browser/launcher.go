// Package browser starts a local Chromium with remote debugging so the suite
// can attach to it as a remote browser. A browser left running by a previous
// run is reused.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
)

// Config holds browser launch configuration.
type Config struct {
	CDPAddress string
	CDPPort    int
	ProfileDir string
	Headless   bool
	WindowSize string
}

// FromConfig derives the launch configuration from the suite configuration.
func FromConfig(cfg *config.Config) Config {
	return Config{
		CDPAddress: cfg.CDPAddress,
		CDPPort:    cfg.CDPPort,
		ProfileDir: cfg.OutputDir + "/chromium-profile",
		Headless:   cfg.Headless,
	}
}

// Launcher manages the lifecycle of a browser process.
type Launcher struct {
	cfg     Config
	poller  *poll.Poller
	cmd     *exec.Cmd
	running bool
	logger  *slog.Logger
	lookup  func() (string, error)
}

// NewLauncher creates a launcher that waits for the CDP endpoint with poller.
func NewLauncher(cfg Config, poller *poll.Poller, logger *slog.Logger) *Launcher {
	if cfg.WindowSize == "" {
		cfg.WindowSize = "1920,1080"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{cfg: cfg, poller: poller, logger: logger, lookup: detectBrowser}
}

// CDPURL is the HTTP endpoint a remote allocator connects to.
func (l *Launcher) CDPURL() string {
	return "http://" + net.JoinHostPort(l.cfg.CDPAddress, strconv.Itoa(l.cfg.CDPPort))
}

// detectBrowser finds an available Chrome/Chromium binary.
func detectBrowser() (string, error) {
	candidates := []string{"chromium-browser", "chromium", "google-chrome"}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if runtime.GOOS == "darwin" {
		macPath := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		if _, err := os.Stat(macPath); err == nil {
			return macPath, nil
		}
	}
	return "", fmt.Errorf("no supported browser found (tried chromium-browser, chromium, google-chrome)")
}

func (l *Launcher) portInUse() bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(l.cfg.CDPAddress, strconv.Itoa(l.cfg.CDPPort)), time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Launch starts the browser process unless the CDP port is already in use,
// then waits for the CDP endpoint to answer.
func (l *Launcher) Launch(ctx context.Context) error {
	if l.portInUse() {
		l.logger.Info("browser already running, skipping launch",
			"address", l.cfg.CDPAddress, "port", l.cfg.CDPPort)
		return l.waitForCDP(ctx)
	}

	browserPath, err := l.lookup()
	if err != nil {
		return err
	}
	l.logger.Info("detected browser", "path", browserPath)

	if err := os.MkdirAll(l.cfg.ProfileDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", l.cfg.CDPPort),
		fmt.Sprintf("--remote-debugging-address=%s", l.cfg.CDPAddress),
		fmt.Sprintf("--user-data-dir=%s", l.cfg.ProfileDir),
		"--no-first-run",
		"--disable-dev-shm-usage",
		"--disable-breakpad",
		"--ignore-certificate-errors",
		fmt.Sprintf("--window-size=%s", l.cfg.WindowSize),
	}
	if l.cfg.Headless {
		args = append(args, "--headless=new")
	}
	args = append(args, "about:blank")

	l.cmd = exec.Command(browserPath, args...)
	l.cmd.Stdout = os.Stdout
	l.cmd.Stderr = os.Stderr

	if err := l.cmd.Start(); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	l.running = true
	l.logger.Info("browser process started", "pid", l.cmd.Process.Pid)

	if err := l.waitForCDP(ctx); err != nil {
		l.Stop()
		return fmt.Errorf("waiting for CDP: %w", err)
	}
	l.logger.Info("CDP endpoint ready", "url", l.CDPURL())
	return nil
}

func (l *Launcher) waitForCDP(ctx context.Context) error {
	url := l.CDPURL() + "/json/version"
	client := &http.Client{Timeout: time.Second}
	return l.poller.Check(ctx, poll.Condition{
		Description: "CDP endpoint " + url + " answers",
		Check: func(ctx context.Context) (bool, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return false, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return false, err
			}
			_ = resp.Body.Close()
			return resp.StatusCode == http.StatusOK, nil
		},
	})
}

// Running reports whether this launcher spawned a browser process.
func (l *Launcher) Running() bool {
	return l.running
}

// Stop terminates the browser process with SIGTERM, falling back to SIGKILL.
func (l *Launcher) Stop() {
	if l.cmd == nil || l.cmd.Process == nil {
		return
	}
	l.logger.Info("stopping browser", "pid", l.cmd.Process.Pid)
	_ = l.cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = l.cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("browser stopped gracefully")
	case <-time.After(5 * time.Second):
		l.logger.Warn("browser did not exit, sending SIGKILL")
		_ = l.cmd.Process.Kill()
		<-done
	}
	l.running = false
}
