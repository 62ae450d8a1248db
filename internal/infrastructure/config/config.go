package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Database Database `koanf:"database"`
	Redis    Redis    `koanf:"redis"`

	Evaluation   Evaluation   `koanf:"evaluation"`
	Notification Notification `koanf:"notification"`
	Ticketing    Ticketing    `koanf:"ticketing"`

	Telemetry Telemetry `koanf:"telemetry"`
	Metrics   Metrics   `koanf:"metrics"`
}

type Database struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxConns        int           `koanf:"max_conns" validate:"gte=1"`
	MinConns        int           `koanf:"min_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type Redis struct {
	URL      string `koanf:"url"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	// PreferenceTTL bounds staleness of cached notification preferences
	PreferenceTTL time.Duration `koanf:"preference_ttl"`
}

type Evaluation struct {
	// WindowDays is the default scoring lookback
	WindowDays int `koanf:"window_days" validate:"gte=1,lte=365"`
	// Interval between scheduled evaluation runs
	Interval time.Duration `koanf:"interval" validate:"required"`
	// Jitter spreads scheduled runs
	Jitter time.Duration `koanf:"jitter"`
	// FetchTimeout bounds each event log query
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	// SendTimeout bounds each channel send
	SendTimeout time.Duration `koanf:"send_timeout"`
	// TicketTimeout bounds each tracker call
	TicketTimeout time.Duration `koanf:"ticket_timeout"`
}

type Notification struct {
	Email   Email   `koanf:"email"`
	SMS     SMS     `koanf:"sms"`
	InApp   InApp   `koanf:"in_app"`
	Webhook Webhook `koanf:"webhook"`
}

type Email struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	From    string        `koanf:"from"`
	Timeout time.Duration `koanf:"timeout"`
}

type SMS struct {
	Enabled      bool          `koanf:"enabled"`
	BaseURL      string        `koanf:"base_url"`
	APIKey       string        `koanf:"api_key"`
	From         string        `koanf:"from"`
	RateLimitRPS int           `koanf:"rate_limit_rps"`
	Timeout      time.Duration `koanf:"timeout"`
}

type InApp struct {
	Enabled        bool          `koanf:"enabled"`
	ListenAddr     string        `koanf:"listen_addr"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	SendBufferSize int           `koanf:"send_buffer_size"`
}

type Webhook struct {
	Enabled       bool          `koanf:"enabled"`
	SigningSecret string        `koanf:"signing_secret"`
	Timeout       time.Duration `koanf:"timeout"`
	RateLimitRPS  int           `koanf:"rate_limit_rps"`
}

type Ticketing struct {
	Jira     Jira      `koanf:"jira"`
	Trackers []Tracker `koanf:"trackers"`
}

type Jira struct {
	Enabled    bool          `koanf:"enabled"`
	BaseURL    string        `koanf:"base_url"`
	ProjectKey string        `koanf:"project_key"`
	Email      string        `koanf:"email"`
	APIToken   string        `koanf:"api_token"`
	IssueType  string        `koanf:"issue_type"`
	Timeout    time.Duration `koanf:"timeout"`
}

// Tracker is a generic REST issue tracker integration
type Tracker struct {
	Name      string        `koanf:"name"`
	URL       string        `koanf:"url"`
	AuthToken string        `koanf:"auth_token"`
	Timeout   time.Duration `koanf:"timeout"`
}

type Telemetry struct {
	Enabled       bool          `koanf:"enabled"`
	OTLPEndpoint  string        `koanf:"otlp_endpoint"`
	SamplingRate  float64       `koanf:"sampling_rate" validate:"gte=0,lte=1"`
	ExportTimeout time.Duration `koanf:"export_timeout"`
	BatchTimeout  time.Duration `koanf:"batch_timeout"`
}

type Metrics struct {
	Enabled    bool   `koanf:"enabled"`
	ListenAddr string `koanf:"listen_addr"`
}

// Load reads configuration from defaults, an optional YAML file, and CRP_*
// environment variables, in that order of increasing precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Database: Database{
			MaxConns:        10,
			MinConns:        2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: Redis{
			DB:            0,
			PreferenceTTL: 5 * time.Minute,
		},
		Evaluation: Evaluation{
			WindowDays:    30,
			Interval:      1 * time.Hour,
			Jitter:        30 * time.Second,
			FetchTimeout:  10 * time.Second,
			SendTimeout:   10 * time.Second,
			TicketTimeout: 15 * time.Second,
		},
		Notification: Notification{
			Email:   Email{Timeout: 10 * time.Second},
			SMS:     SMS{RateLimitRPS: 5, Timeout: 10 * time.Second},
			InApp:   InApp{ListenAddr: ":8081", WriteTimeout: 10 * time.Second, SendBufferSize: 256},
			Webhook: Webhook{Timeout: 10 * time.Second, RateLimitRPS: 10},
		},
		Ticketing: Ticketing{
			Jira: Jira{IssueType: "Task", Timeout: 15 * time.Second},
		},
		Telemetry: Telemetry{
			OTLPEndpoint:  "localhost:4317",
			SamplingRate:  1.0,
			ExportTimeout: 30 * time.Second,
			BatchTimeout:  5 * time.Second,
		},
		Metrics: Metrics{
			Enabled:    true,
			ListenAddr: ":9091",
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = "configs/config.yaml"
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// Config file is optional; env vars and defaults may be enough.
	}

	if err := k.Load(env.Provider("CRP_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "CRP_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
