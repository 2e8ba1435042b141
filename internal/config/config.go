package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything a suite run needs, read once at start.
type Config struct {
	// Environment under test
	BaseURL        string
	CaseServiceURL string
	IDAMAPIURL     string
	DMStoreURL     string
	MockedPayments bool
	CTSCEmail      string
	OutputDir      string
	Users          Users

	// Browser
	CDPAddress    string
	CDPPort       int
	RemoteBrowser bool
	Headless      bool
	EvalTimeoutMS int

	// Runner
	Parallel          int
	ScenarioTimeoutMS int
	PollIntervalMS    int
	PollMaxWaitMS     int
	NotifyURL         string

	// API
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BaseURL:        strings.TrimRight(getEnvOrDefault("URL", "http://localhost:3333"), "/"),
		CaseServiceURL: strings.TrimRight(getEnvOrDefault("CASE_SERVICE_URL", "http://localhost:4000"), "/"),
		IDAMAPIURL:     strings.TrimRight(getEnvOrDefault("IDAM_API_URL", "http://localhost:5000"), "/"),
		DMStoreURL:     strings.TrimRight(getEnvOrDefault("DM_STORE_URL", "http://dm-store:8080"), "/"),
		MockedPayments: getEnvBoolOrDefault("MOCKED_PAYMENTS", true),
		CTSCEmail:      getEnvOrDefault("CTSC_EMAIL", "FamilyPublicLaw+ctsc@gmail.com"),
		OutputDir:      getEnvOrDefault("E2E_OUTPUT_DIR", "./output"),
		Users:          loadUsers(),

		CDPAddress:    getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:       getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),
		RemoteBrowser: getEnvBoolOrDefault("E2E_REMOTE_BROWSER", false),
		Headless:      getEnvBoolOrDefault("E2E_HEADLESS", true),
		EvalTimeoutMS: getEnvIntOrDefault("E2E_EVAL_TIMEOUT_MS", 15000),

		Parallel:          getEnvIntOrDefault("E2E_PARALLEL", 2),
		ScenarioTimeoutMS: getEnvIntOrDefault("E2E_SCENARIO_TIMEOUT_MS", 10*60*1000),
		PollIntervalMS:    getEnvIntOrDefault("E2E_POLL_INTERVAL_MS", 1000),
		PollMaxWaitMS:     getEnvIntOrDefault("E2E_POLL_MAX_WAIT_MS", 30000),
		NotifyURL:         getEnvOrDefault("E2E_NOTIFY_URL", ""),

		BindAddr:         getEnvOrDefault("E2E_BIND_ADDR", "127.0.0.1:8190"),
		PortCandidates:   getEnvListOrDefault("E2E_PORT_CANDIDATES", []string{"127.0.0.1:8191", "127.0.0.1:8192"}),
		PortAutoFallback: getEnvBoolOrDefault("E2E_PORT_AUTO_FALLBACK", true),

		LogLevel: strings.ToLower(getEnvOrDefault("E2E_LOG_LEVEL", "info")),
		LogFile:  getEnvOrDefault("E2E_LOG_FILE", "logs/fple2e.log"),
	}

	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	if cfg.PollIntervalMS <= 0 {
		return nil, fmt.Errorf("E2E_POLL_INTERVAL_MS must be positive, got %d", cfg.PollIntervalMS)
	}
	if cfg.PollMaxWaitMS <= cfg.PollIntervalMS {
		return nil, fmt.Errorf("E2E_POLL_MAX_WAIT_MS (%d) must exceed E2E_POLL_INTERVAL_MS (%d)", cfg.PollMaxWaitMS, cfg.PollIntervalMS)
	}
	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint used by the chromedp remote allocator.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c *Config) PollMaxWait() time.Duration {
	return time.Duration(c.PollMaxWaitMS) * time.Millisecond
}

func (c *Config) ScenarioTimeout() time.Duration {
	return time.Duration(c.ScenarioTimeoutMS) * time.Millisecond
}

func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.EvalTimeoutMS) * time.Millisecond
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
