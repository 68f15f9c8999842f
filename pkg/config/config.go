// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App       AppConfig       `koanf:"app"`
	GRPC      GRPCConfig      `koanf:"grpc"`
	HTTP      HTTPConfig      `koanf:"http"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Auth      AuthConfig      `koanf:"auth"`
	Client    ClientConfig    `koanf:"client"`
	Schedule  ScheduleConfig  `koanf:"schedule"`
	Report    ReportConfig    `koanf:"report"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// GRPCConfig - настройки gRPC сервера
type GRPCConfig struct {
	Port              int             `koanf:"port"`
	MaxRecvMsgSize    int             `koanf:"max_recv_msg_size"` // bytes
	MaxSendMsgSize    int             `koanf:"max_send_msg_size"` // bytes
	MaxConcurrentConn int             `koanf:"max_concurrent_conn"`
	KeepAlive         KeepAliveConfig `koanf:"keepalive"`
}

// KeepAliveConfig - настройки keep-alive
type KeepAliveConfig struct {
	MaxConnectionIdle     time.Duration `koanf:"max_connection_idle"`
	MaxConnectionAge      time.Duration `koanf:"max_connection_age"`
	MaxConnectionAgeGrace time.Duration `koanf:"max_connection_age_grace"`
	Time                  time.Duration `koanf:"time"`
	Timeout               time.Duration `koanf:"timeout"`
}

// HTTPConfig - настройки HTTP (Connect) шлюза
type HTTPConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Docs            bool          `koanf:"docs"` // Swagger UI на /swagger/
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`  // debug, info, warn, error
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"` // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"` // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CacheConfig - настройки кэша результатов
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RateLimitConfig - ограничение частоты Allocate на клиента
type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
	Strategy string        `koanf:"strategy"` // sliding_window, token_bucket
	Backend  string        `koanf:"backend"`  // memory, redis
}

// AuthConfig - проверка bearer токенов (JWT или API ключ)
type AuthConfig struct {
	Enabled   bool          `koanf:"enabled"`
	JWTSecret string        `koanf:"jwt_secret"`
	Issuer    string        `koanf:"issuer"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
	// APIKeys - argon2id хэши статических ключей
	APIKeys []string `koanf:"api_keys"`
}

// ClientConfig - подключение CLI к удалённому планировщику
type ClientConfig struct {
	Address      string        `koanf:"address"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	// Token is sent as "authorization: bearer <token>" when set.
	Token string `koanf:"token"`
}

// ScheduleConfig - параметры планировщика
type ScheduleConfig struct {
	// Horizon - число ночей в горизонте планирования; 0 берёт число строк матрицы
	Horizon       int           `koanf:"horizon"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxIterations int           `koanf:"max_iterations"`
	CheckInterval int           `koanf:"check_interval"`
	Verify        bool          `koanf:"verify"`
}

// ReportConfig - параметры отчётов
type ReportConfig struct {
	DefaultFormat string    `koanf:"default_format"` // csv, markdown, xlsx, pdf
	Author        string    `koanf:"author"`
	CompanyName   string    `koanf:"company_name"`
	PDF           PDFConfig `koanf:"pdf"`
}

// PDFConfig - конфигурация PDF генератора
type PDFConfig struct {
	PageSize    string  `koanf:"page_size"`   // A4, Letter, Legal, A3
	Orientation string  `koanf:"orientation"` // portrait, landscape
	Margin      float64 `koanf:"margin"`      // mm
	FontSize    float64 `koanf:"font_size"`   // pt
}

var (
	validLevels       = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validDrivers      = map[string]bool{"memory": true, "redis": true}
	validStrategies   = map[string]bool{"sliding_window": true, "token_bucket": true}
	validFormats      = map[string]bool{"csv": true, "markdown": true, "md": true, "xlsx": true, "pdf": true}
	validPageSizes    = map[string]bool{"A4": true, "Letter": true, "Legal": true, "A3": true}
	validOrientations = map[string]bool{"portrait": true, "landscape": true}
)

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		errs = append(errs, fmt.Sprintf("grpc.port must be between 1 and 65535, got %d", c.GRPC.Port))
	}
	if c.HTTP.Enabled && (c.HTTP.Port <= 0 || c.HTTP.Port > 65535) {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Cache.Enabled && !validDrivers[c.Cache.Driver] {
		errs = append(errs, fmt.Sprintf("cache.driver must be one of: memory, redis, got %s", c.Cache.Driver))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			errs = append(errs, "rate_limit.requests and rate_limit.window must be positive")
		}
		if !validStrategies[c.RateLimit.Strategy] {
			errs = append(errs, fmt.Sprintf("rate_limit.strategy must be one of: sliding_window, token_bucket, got %s", c.RateLimit.Strategy))
		}
		if !validDrivers[c.RateLimit.Backend] {
			errs = append(errs, fmt.Sprintf("rate_limit.backend must be one of: memory, redis, got %s", c.RateLimit.Backend))
		}
	}

	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" && len(c.Auth.APIKeys) == 0 {
			errs = append(errs, "auth.jwt_secret or auth.api_keys is required when auth is enabled")
		}
		if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
			errs = append(errs, "auth.jwt_secret must be at least 16 bytes")
		}
	}

	// Планировщик
	if c.Schedule.Horizon < 0 {
		errs = append(errs, fmt.Sprintf("schedule.horizon must be non-negative, got %d", c.Schedule.Horizon))
	}
	if c.Schedule.MaxIterations < 0 {
		errs = append(errs, "schedule.max_iterations must be non-negative")
	}
	if c.Schedule.Timeout < 0 {
		errs = append(errs, "schedule.timeout must be non-negative")
	}

	// Отчёты
	if c.Report.DefaultFormat != "" && !validFormats[c.Report.DefaultFormat] {
		errs = append(errs, fmt.Sprintf("report.default_format must be one of: csv, markdown, xlsx, pdf, got %s", c.Report.DefaultFormat))
	}
	if c.Report.PDF.PageSize != "" && !validPageSizes[c.Report.PDF.PageSize] {
		errs = append(errs, fmt.Sprintf("report.pdf.page_size must be one of: A4, Letter, Legal, A3, got %s", c.Report.PDF.PageSize))
	}
	if c.Report.PDF.Orientation != "" && !validOrientations[c.Report.PDF.Orientation] {
		errs = append(errs, fmt.Sprintf("report.pdf.orientation must be one of: portrait, landscape, got %s", c.Report.PDF.Orientation))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
