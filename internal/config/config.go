package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Logging   LoggingConfig   `json:"logging"`
	Site      SiteConfig      `json:"site"`
	RateLimit RateLimitConfig `json:"rateLimit"`
	Cache     CacheConfig     `json:"cache"`
	Metrics   MetricsConfig   `json:"metrics"`
	Alerting  AlertingConfig  `json:"alerting"`
	Admin     AdminConfig     `json:"admin"`
}

type ServerConfig struct {
	BindAddr string `json:"bindAddr"`
	Mode     string `json:"mode"` // "development" or "production"
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type LoggingConfig struct {
	Level string `json:"level"`
}

// SiteConfig carries pass-through values for the public site. All optional;
// a missing value degrades the matching feature without failing startup.
type SiteConfig struct {
	URL                  string `json:"url"`
	AnalyticsID          string `json:"analyticsId"`
	AdsenseClientID      string `json:"adsenseClientId"`
	SEOVerificationToken string `json:"seoVerificationToken"`
}

type RateLimitConfig struct {
	PublicWindow  string `json:"publicWindow"`
	PublicMax     int    `json:"publicMax"`
	AdminWindow   string `json:"adminWindow"`
	AdminMax      int    `json:"adminMax"`
	SweepInterval string `json:"sweepInterval"`
}

type CacheConfig struct {
	RedisAddr     string `json:"redisAddr"` // optional second tier; empty means in-memory only
	SweepInterval string `json:"sweepInterval"`
	DefaultTTL    string `json:"defaultTTL"`
}

type MetricsConfig struct {
	SnapshotInterval   string `json:"snapshotInterval"`
	SamplesPerMetric   int    `json:"samplesPerMetric"`
	MonitoringEndpoint string `json:"monitoringEndpoint"` // optional external sink
}

type AlertingConfig struct {
	WebhookURL       string `json:"webhookURL"`
	AdminNotifyEmail string `json:"adminNotifyEmail"`
	RulesConfigFile  string `json:"rulesConfigFile"`
	HistoryLimit     int    `json:"historyLimit"`
}

type AdminConfig struct {
	APIToken string `json:"apiToken"`
}

func Load() (*Config, error) {
	configFile := flag.String("f", "", "Path to configuration file")
	flag.Parse()

	cfg := &Config{
		Server: ServerConfig{
			BindAddr: getEnv("SERVER_BIND_ADDR", "0.0.0.0:8080"),
			Mode:     getEnv("SERVER_MODE", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "airdropshunter"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "debug"),
		},
		Site: SiteConfig{
			URL:                  getEnv("SITE_URL", ""),
			AnalyticsID:          getEnv("ANALYTICS_MEASUREMENT_ID", ""),
			AdsenseClientID:      getEnv("ADSENSE_CLIENT_ID", ""),
			SEOVerificationToken: getEnv("SEO_VERIFICATION_TOKEN", ""),
		},
		RateLimit: RateLimitConfig{
			PublicWindow:  getEnv("RATELIMIT_PUBLIC_WINDOW", "1m"),
			PublicMax:     getEnvInt("RATELIMIT_PUBLIC_MAX", 120),
			AdminWindow:   getEnv("RATELIMIT_ADMIN_WINDOW", "1m"),
			AdminMax:      getEnvInt("RATELIMIT_ADMIN_MAX", 30),
			SweepInterval: getEnv("RATELIMIT_SWEEP_INTERVAL", "1m"),
		},
		Cache: CacheConfig{
			RedisAddr:     getEnv("CACHE_REDIS_ADDR", ""),
			SweepInterval: getEnv("CACHE_SWEEP_INTERVAL", "1m"),
			DefaultTTL:    getEnv("CACHE_DEFAULT_TTL", "5m"),
		},
		Metrics: MetricsConfig{
			SnapshotInterval:   getEnv("METRICS_SNAPSHOT_INTERVAL", "1m"),
			SamplesPerMetric:   getEnvInt("METRICS_SAMPLES_PER_METRIC", 1000),
			MonitoringEndpoint: getEnv("MONITORING_ENDPOINT_URL", ""),
		},
		Alerting: AlertingConfig{
			WebhookURL:       getEnv("ALERT_WEBHOOK_URL", ""),
			AdminNotifyEmail: getEnv("ADMIN_NOTIFY_EMAIL", ""),
			RulesConfigFile:  getEnv("ALERT_RULES_CONFIG_FILE", ""),
			HistoryLimit:     getEnvInt("ALERT_HISTORY_LIMIT", 100),
		},
		Admin: AdminConfig{
			APIToken: getEnv("ADMIN_API_TOKEN", ""),
		},
	}

	if *configFile != "" {
		if err := loadFromFile(cfg, *configFile); err != nil {
			log.Err(err)
			return nil, err
		}
	}

	// fill reasonable defaults when fields omitted in file
	if cfg.Server.BindAddr == "" {
		cfg.Server.BindAddr = "0.0.0.0:8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.RateLimit.PublicMax == 0 {
		cfg.RateLimit.PublicMax = 120
	}
	if cfg.RateLimit.AdminMax == 0 {
		cfg.RateLimit.AdminMax = 30
	}
	if cfg.Metrics.SamplesPerMetric == 0 {
		cfg.Metrics.SamplesPerMetric = 1000
	}
	if cfg.Alerting.HistoryLimit == 0 {
		cfg.Alerting.HistoryLimit = 100
	}

	warnMissing(cfg)
	return cfg, nil
}

// warnMissing reports absent-but-expected settings. None are fatal: the
// server starts and the matching feature degrades (no alert webhook, no
// monitoring forwarding, admin API rejects every request).
func warnMissing(cfg *Config) {
	if os.Getenv("DB_HOST") == "" {
		log.Warn().Msg("DB_HOST not set, using localhost")
	}
	if os.Getenv("REDIS_ADDR") == "" {
		log.Warn().Msg("REDIS_ADDR not set, using localhost:6379")
	}
	if cfg.Admin.APIToken == "" {
		log.Warn().Msg("ADMIN_API_TOKEN not set, admin API disabled")
	}
	if cfg.Alerting.WebhookURL == "" {
		log.Warn().Msg("ALERT_WEBHOOK_URL not set, alert webhook delivery disabled")
	}
	if cfg.Metrics.MonitoringEndpoint == "" {
		log.Warn().Msg("MONITORING_ENDPOINT_URL not set, metrics forwarding disabled")
	}
}

func loadFromFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

// ParseDuration parses s, falling back to d on empty or malformed input.
func ParseDuration(s string, d time.Duration) time.Duration {
	if s == "" {
		return d
	}
	if v, err := time.ParseDuration(s); err == nil {
		return v
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
