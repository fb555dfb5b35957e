package configs

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/changeset-demo/changeset-demo/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfigs struct {
	Env                    string
	Addr                   string
	BackendURL             string        // Base URL of the email backend used by the proxy routes
	PublicBackendURL       string        // Base URL of the email backend the home page checks directly
	EmailSubject           string        // Fixed subject line of every proxied email
	BackendTimeout         time.Duration // Timeout of a single outbound call to the backend
	PollInterval           time.Duration // How often the home page refreshes backend health and stats
	ClockTickInterval      time.Duration // Tick of the status indicator clock, display only
	SessionIdleTimeout     time.Duration // A page session without requests for this long is unmounted
	SessionSweepInterval   time.Duration
	MaxSessions            int // Beyond this many open pages the least recently used one is unmounted
	MetricsEnabled         bool
	ActivityLog            ActivityLogConfig
	JobsIntervals          JobsIntervals
	ServerConfig           ServerConfig // Configuration for the server, including timeouts
}

type ActivityLogConfig struct {
	Enabled   bool
	DbPath    string        // Empty means the per-user data directory of the OS
	Retention time.Duration // Records older than this are removed by the cleanup job
}

type JobsIntervals struct {
	ActivityCleanupMs      int64 // Interval for removing activity records past retention
	DbOptimizationMs       int64 // Interval for running PRAGMA optimize on the activity database
	BackendHealthMetricsMs int64 // Interval for exporting the backend health gauge
}

type ServerConfig struct {
	Timeouts ServerTimeouts
}

type ServerTimeouts struct {
	Handle     time.Duration
	Write      time.Duration
	Read       time.Duration
	ReadHeader time.Duration
	Idle       time.Duration
}

// NewAppConfig reads the configuration from the process environment, after loading a .env file if one exists.
func NewAppConfig() (*AppConfigs, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", common.LocalEnv)
	v.SetDefault("addr", "localhost:3000")
	v.SetDefault("go_backend_url", common.DefaultBackendURL)
	v.SetDefault("next_public_go_backend_url", common.DefaultBackendURL)
	v.SetDefault("email_subject", common.DefaultEmailSubject)
	v.SetDefault("backend_timeout", "10s")
	v.SetDefault("poll_interval", "30s")
	v.SetDefault("clock_tick_interval", "1s")
	v.SetDefault("session_idle_timeout", "2m") // the page polls its status every second while open
	v.SetDefault("session_sweep_interval", "30s")
	v.SetDefault("max_sessions", 100)
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("activity_log_enabled", true)
	v.SetDefault("activity_db_path", "")
	v.SetDefault("activity_retention", "168h") // 7 days
}

func fromViper(v *viper.Viper) (*AppConfigs, error) {
	env := v.GetString("env")
	if !common.SupportedEnvs[env] {
		return nil, fmt.Errorf("unsupported env %q", env)
	}

	backendURL, err := normalizeBaseURL(v.GetString("go_backend_url"))
	if err != nil {
		return nil, fmt.Errorf("GO_BACKEND_URL: %w", err)
	}
	publicBackendURL, err := normalizeBaseURL(v.GetString("next_public_go_backend_url"))
	if err != nil {
		return nil, fmt.Errorf("NEXT_PUBLIC_GO_BACKEND_URL: %w", err)
	}

	pollInterval := v.GetDuration("poll_interval")
	if pollInterval <= 0 {
		return nil, errors.New("POLL_INTERVAL must be > 0")
	}
	clockTick := v.GetDuration("clock_tick_interval")
	if clockTick <= 0 {
		return nil, errors.New("CLOCK_TICK_INTERVAL must be > 0")
	}

	sessionIdleTimeout := v.GetDuration("session_idle_timeout")
	if sessionIdleTimeout <= 0 {
		return nil, errors.New("SESSION_IDLE_TIMEOUT must be > 0")
	}
	sessionSweepInterval := v.GetDuration("session_sweep_interval")
	if sessionSweepInterval <= 0 {
		return nil, errors.New("SESSION_SWEEP_INTERVAL must be > 0")
	}
	maxSessions := v.GetInt("max_sessions")
	if maxSessions <= 0 {
		return nil, errors.New("MAX_SESSIONS must be > 0")
	}

	backendTimeout := v.GetDuration("backend_timeout")
	if backendTimeout <= 0 {
		return nil, errors.New("BACKEND_TIMEOUT must be > 0")
	}

	return &AppConfigs{
		Env:                    env,
		Addr:                   v.GetString("addr"),
		BackendURL:             backendURL,
		PublicBackendURL:       publicBackendURL,
		EmailSubject:           v.GetString("email_subject"),
		BackendTimeout:         backendTimeout,
		PollInterval:           pollInterval,
		ClockTickInterval:      clockTick,
		SessionIdleTimeout:     sessionIdleTimeout,
		SessionSweepInterval:   sessionSweepInterval,
		MaxSessions:            maxSessions,
		MetricsEnabled:         v.GetBool("metrics_enabled"),
		ActivityLog: ActivityLogConfig{
			Enabled:   v.GetBool("activity_log_enabled"),
			DbPath:    v.GetString("activity_db_path"),
			Retention: v.GetDuration("activity_retention"),
		},
		JobsIntervals: JobsIntervals{
			ActivityCleanupMs:      10 * 60 * 1000, // 10 minutes
			DbOptimizationMs:       60 * 60 * 1000, // 1 hour
			BackendHealthMetricsMs: 30 * 1000,      // 30 seconds
		},
		ServerConfig: ServerConfig{
			Timeouts: ServerTimeouts{
				Handle:     backendTimeout*2 + 5*time.Second, // status proxy does two backend calls + buffer
				Write:      backendTimeout*2 + 10*time.Second,
				Read:       15 * time.Second,
				ReadHeader: 10 * time.Second, // 10s - headers shouldn't take long
				Idle:       5 * time.Minute,  // 5m - keep connections alive
			},
		},
	}, nil
}

// normalizeBaseURL validates an absolute http(s) URL and strips the trailing slash,
// so that endpoint paths can be appended as-is.
func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("host is required")
	}
	return strings.TrimRight(raw, "/"), nil
}
