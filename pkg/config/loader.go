package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "ROSTERING_"
	configEnvVar = "CONFIG_PATH"

	// DefaultHorizon - горизонт планирования по умолчанию (ночей в месяце)
	DefaultHorizon = 30
)

// Loader загружает конфигурацию из разных источников
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// LoaderOption - опция для конфигурации загрузчика
type LoaderOption func(*Loader)

// NewLoader создаёт новый загрузчик конфигурации
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/rostering/config.yaml",
		},
		envPrefix: envPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithConfigPaths устанавливает пути поиска конфигурации
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix устанавливает префикс переменных окружения
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load загружает конфигурацию с приоритетом:
// 1. Defaults (самый низкий)
// 2. Config file (yaml)
// 3. Environment variables (самый высокий)
func (l *Loader) Load() (*Config, error) {
	if err := l.k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Файл не обязателен
	if _, err := l.loadConfigFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Defaults возвращает значения по умолчанию в плоском виде
func Defaults() map[string]any {
	return map[string]any{
		// App
		"app.name":        "scheduler-svc",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// GRPC
		"grpc.port":                               50061,
		"grpc.max_recv_msg_size":                  16 * 1024 * 1024,
		"grpc.max_send_msg_size":                  16 * 1024 * 1024,
		"grpc.max_concurrent_conn":                1000,
		"grpc.keepalive.max_connection_idle":      15 * time.Minute,
		"grpc.keepalive.max_connection_age":       30 * time.Minute,
		"grpc.keepalive.max_connection_age_grace": 5 * time.Minute,
		"grpc.keepalive.time":                     5 * time.Minute,
		"grpc.keepalive.timeout":                  20 * time.Second,

		// HTTP
		"http.enabled":          true,
		"http.port":             8080,
		"http.read_timeout":     30 * time.Second,
		"http.write_timeout":    30 * time.Second,
		"http.shutdown_timeout": 10 * time.Second,
		"http.docs":             true,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "rostering",
		"metrics.subsystem": "scheduler",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "scheduler-svc",
		"tracing.sample_rate":  0.1,

		// Cache
		"cache.enabled":     true,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 10 * time.Minute,
		"cache.max_entries": 1000,

		// Rate limit
		"rate_limit.enabled":  true,
		"rate_limit.requests": 120,
		"rate_limit.window":   time.Minute,
		"rate_limit.burst":    10,
		"rate_limit.strategy": "sliding_window",
		"rate_limit.backend":  "memory",

		// Auth
		"auth.enabled":   false,
		"auth.issuer":    "scheduler-svc",
		"auth.token_ttl": 24 * time.Hour,

		// Client
		"client.address":       "localhost:50061",
		"client.timeout":       30 * time.Second,
		"client.max_retries":   3,
		"client.retry_backoff": 100 * time.Millisecond,

		// Schedule
		"schedule.horizon":        DefaultHorizon,
		"schedule.timeout":        30 * time.Second,
		"schedule.max_iterations": 0,
		"schedule.check_interval": 1,
		"schedule.verify":         true,

		// Report
		"report.default_format":  "markdown",
		"report.author":          "scheduler-svc",
		"report.company_name":    "Night Shift Rota",
		"report.pdf.page_size":   "A4",
		"report.pdf.orientation": "landscape",
		"report.pdf.margin":      10.0,
		"report.pdf.font_size":   8.0,
	}
}

// loadConfigFile загружает конфигурацию из файла; возвращает путь к файлу
func (l *Loader) loadConfigFile() (string, error) {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return absPath, l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return "", os.ErrNotExist
}

// loadEnv загружает конфигурацию из переменных окружения
func (l *Loader) loadEnv() error {
	return l.k.Load(env.ProviderWithValue(l.envPrefix, ".", func(envKey string, value string) (string, interface{}) {
		key := strings.ToLower(strings.TrimPrefix(envKey, l.envPrefix))

		// Поля с подчёркиванием в имени маппим явно
		if mappedKey, ok := envKeyMappings[key]; ok {
			return mappedKey, value
		}
		return strings.ReplaceAll(key, "_", "."), value
	}), nil)
}

// envKeyMappings - маппинг переменных окружения на ключи конфига
var envKeyMappings = map[string]string{
	// GRPC
	"grpc_max_recv_msg_size":                  "grpc.max_recv_msg_size",
	"grpc_max_send_msg_size":                  "grpc.max_send_msg_size",
	"grpc_max_concurrent_conn":                "grpc.max_concurrent_conn",
	"grpc_keepalive_max_connection_idle":      "grpc.keepalive.max_connection_idle",
	"grpc_keepalive_max_connection_age":       "grpc.keepalive.max_connection_age",
	"grpc_keepalive_max_connection_age_grace": "grpc.keepalive.max_connection_age_grace",

	// HTTP
	"http_read_timeout":     "http.read_timeout",
	"http_write_timeout":    "http.write_timeout",
	"http_shutdown_timeout": "http.shutdown_timeout",

	// Log
	"log_file_path":   "log.file_path",
	"log_max_size":    "log.max_size",
	"log_max_backups": "log.max_backups",
	"log_max_age":     "log.max_age",

	// Tracing
	"tracing_service_name": "tracing.service_name",
	"tracing_sample_rate":  "tracing.sample_rate",

	// Cache
	"cache_default_ttl": "cache.default_ttl",
	"cache_max_entries": "cache.max_entries",

	// Rate limit
	"rate_limit_enabled":  "rate_limit.enabled",
	"rate_limit_requests": "rate_limit.requests",
	"rate_limit_window":   "rate_limit.window",
	"rate_limit_burst":    "rate_limit.burst",
	"rate_limit_strategy": "rate_limit.strategy",
	"rate_limit_backend":  "rate_limit.backend",

	// Auth
	"auth_jwt_secret": "auth.jwt_secret",
	"auth_token_ttl":  "auth.token_ttl",
	"auth_api_keys":   "auth.api_keys",

	// Client
	"client_max_retries":   "client.max_retries",
	"client_retry_backoff": "client.retry_backoff",

	// Schedule
	"schedule_max_iterations": "schedule.max_iterations",
	"schedule_check_interval": "schedule.check_interval",

	// Report
	"report_default_format":  "report.default_format",
	"report_company_name":    "report.company_name",
	"report_pdf_page_size":   "report.pdf.page_size",
	"report_pdf_orientation": "report.pdf.orientation",
	"report_pdf_font_size":   "report.pdf.font_size",
}

// MustLoad загружает конфигурацию или паникует
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load - загрузка с настройками по умолчанию
func Load() (*Config, error) {
	return NewLoader().Load()
}
