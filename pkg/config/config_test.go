package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		App:  AppConfig{Name: "scheduler-svc"},
		GRPC: GRPCConfig{Port: 50061},
		Log:  LogConfig{Level: "info"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:    "missing app name",
			mutate:  func(c *Config) { c.App.Name = "" },
			wantErr: "app.name",
		},
		{
			name:    "grpc port zero",
			mutate:  func(c *Config) { c.GRPC.Port = 0 },
			wantErr: "grpc.port",
		},
		{
			name:    "grpc port too high",
			mutate:  func(c *Config) { c.GRPC.Port = 70000 },
			wantErr: "grpc.port",
		},
		{
			name:    "http port checked only when enabled",
			mutate:  func(c *Config) { c.HTTP = HTTPConfig{Enabled: true, Port: -1} },
			wantErr: "http.port",
		},
		{
			name:   "disabled http ignores port",
			mutate: func(c *Config) { c.HTTP = HTTPConfig{Enabled: false, Port: -1} },
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "log.level",
		},
		{
			name:   "empty log level defaults to info",
			mutate: func(c *Config) { c.Log.Level = "" },
		},
		{
			name: "rate limit window required when enabled",
			mutate: func(c *Config) {
				c.RateLimit = RateLimitConfig{Enabled: true, Requests: 10, Strategy: "sliding_window", Backend: "memory"}
			},
			wantErr: "rate_limit.requests",
		},
		{
			name: "unknown rate limit strategy",
			mutate: func(c *Config) {
				c.RateLimit = RateLimitConfig{Enabled: true, Requests: 10, Window: 1e9, Strategy: "leaky", Backend: "memory"}
			},
			wantErr: "rate_limit.strategy",
		},
		{
			name:    "auth needs a secret or keys",
			mutate:  func(c *Config) { c.Auth = AuthConfig{Enabled: true} },
			wantErr: "auth.jwt_secret or auth.api_keys",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Auth = AuthConfig{Enabled: true, JWTSecret: "short"} },
			wantErr: "at least 16 bytes",
		},
		{
			name:   "api keys alone are enough",
			mutate: func(c *Config) { c.Auth = AuthConfig{Enabled: true, APIKeys: []string{"$argon2id$..."}} },
		},
		{
			name:    "unknown cache driver",
			mutate:  func(c *Config) { c.Cache = CacheConfig{Enabled: true, Driver: "memcached"} },
			wantErr: "cache.driver",
		},
		{
			name:    "negative horizon",
			mutate:  func(c *Config) { c.Schedule.Horizon = -3 },
			wantErr: "schedule.horizon",
		},
		{
			name:    "negative max iterations",
			mutate:  func(c *Config) { c.Schedule.MaxIterations = -1 },
			wantErr: "schedule.max_iterations",
		},
		{
			name:    "unknown report format",
			mutate:  func(c *Config) { c.Report.DefaultFormat = "docx" },
			wantErr: "report.default_format",
		},
		{
			name:    "invalid page size",
			mutate:  func(c *Config) { c.Report.PDF.PageSize = "B5" },
			wantErr: "report.pdf.page_size",
		},
		{
			name:    "invalid orientation",
			mutate:  func(c *Config) { c.Report.PDF.Orientation = "diagonal" },
			wantErr: "report.pdf.orientation",
		},
		{
			name: "valid report config",
			mutate: func(c *Config) {
				c.Report = ReportConfig{DefaultFormat: "xlsx", PDF: PDFConfig{PageSize: "Letter", Orientation: "portrait"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_AggregatesErrors(t *testing.T) {
	cfg := Config{Log: LogConfig{Level: "nope"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"app.name", "grpc.port", "log.level"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q should mention %s", err, key)
		}
	}
}

func TestConfig_Environment(t *testing.T) {
	tests := []struct {
		env       string
		dev, prod bool
	}{
		{"development", true, false},
		{"dev", true, false},
		{"production", false, true},
		{"prod", false, true},
		{"staging", false, false},
	}
	for _, tt := range tests {
		cfg := Config{App: AppConfig{Environment: tt.env}}
		if cfg.IsDevelopment() != tt.dev || cfg.IsProduction() != tt.prod {
			t.Errorf("%s: IsDevelopment=%v IsProduction=%v", tt.env, cfg.IsDevelopment(), cfg.IsProduction())
		}
	}
}

func TestCacheConfig_Address(t *testing.T) {
	cfg := CacheConfig{Host: "redis.local", Port: 6379}
	if got := cfg.Address(); got != "redis.local:6379" {
		t.Errorf("Address() = %s", got)
	}
}
