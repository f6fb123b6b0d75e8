package config

import (
	"log"
	"os"
	"time"

	"AidLink/pkg/cache"
	"AidLink/pkg/logger"
	stores "AidLink/pkg/storage"
	"AidLink/pkg/util"
)

// Config 进程配置，全部来自环境变量（.env 文件兜底）
type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`
	Log       logger.LogConfig

	MatchRadiusMeters float64 `env:"MATCH_RADIUS_METERS"`
	MatchLimit        int     `env:"MATCH_LIMIT"`

	GeoResyncSchedule    string `env:"GEO_RESYNC_SCHEDULE"`
	OverdueSweepSchedule string `env:"OVERDUE_SWEEP_SCHEDULE"`

	Cache           cache.Config
	SummaryCacheTTL time.Duration `env:"SUMMARY_CACHE_TTL_SECONDS"`

	RateLimit     string   `env:"RATE_LIMIT"`
	TrustedCIDRs  []string `env:"RATE_LIMIT_WHITELIST"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS"`
	KafkaTopic    string   `env:"KAFKA_TOPIC_MATCHES"`
	Minio         stores.MinioConfig
	SSEEnabled    bool          `env:"SSE_ENABLED"`
	SSEPing       time.Duration `env:"SSE_PING_SECONDS"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE_SECONDS"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = FromEnv()
	return nil
}

// FromEnv 只读取当前环境变量，不加载 .env
func FromEnv() *Config {
	return &Config{
		Addr:      util.GetEnvOr("ADDR", ":8080"),
		Mode:      util.GetEnvOr("MODE", "release"),
		APIPrefix: util.GetEnvOr("API_PREFIX", "/api"),
		DBDriver:  util.GetEnvOr("DB_DRIVER", "sqlite"),
		DSN:       util.GetEnvOr("DSN", "file:aidlink.db"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Format:     util.GetEnv("LOG_FORMAT"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		MatchRadiusMeters:    util.GetFloatEnvOr("MATCH_RADIUS_METERS", 10000),
		MatchLimit:           int(util.GetIntEnvOr("MATCH_LIMIT", 20)),
		GeoResyncSchedule:    util.GetEnvOr("GEO_RESYNC_SCHEDULE", "@every 1m"),
		OverdueSweepSchedule: util.GetEnvOr("OVERDUE_SWEEP_SCHEDULE", "@every 5m"),
		Cache: cache.Config{
			Type: util.GetEnvOr("CACHE_TYPE", "lru"),
			Local: cache.LocalConfig{
				MaxSize:           int(util.GetIntEnvOr("LOCAL_CACHE_MAX_SIZE", 10000)),
				DefaultExpiration: time.Duration(util.GetIntEnvOr("LOCAL_CACHE_TTL_SECONDS", 60)) * time.Second,
			},
			Redis: cache.RedisConfig{
				Addr:         util.GetEnvOr("REDIS_ADDR", "localhost:6379"),
				Password:     util.GetEnv("REDIS_PASSWORD"),
				DB:           int(util.GetIntEnv("REDIS_DB")),
				PoolSize:     int(util.GetIntEnvOr("REDIS_POOL_SIZE", 10)),
				MinIdleConns: int(util.GetIntEnvOr("REDIS_MIN_IDLE_CONNS", 2)),
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
				Prefix:       util.GetEnvOr("REDIS_PREFIX", "aidlink:"),
			},
		},
		SummaryCacheTTL: time.Duration(util.GetIntEnvOr("SUMMARY_CACHE_TTL_SECONDS", 300)) * time.Second,
		RateLimit:       util.GetEnvOr("RATE_LIMIT", "300-M"),
		TrustedCIDRs:    util.GetListEnv("RATE_LIMIT_WHITELIST"),
		KafkaBrokers:    util.GetListEnv("KAFKA_BROKERS"),
		KafkaTopic:      util.GetEnvOr("KAFKA_TOPIC_MATCHES", "aidlink.matches"),
		Minio: stores.MinioConfig{
			Endpoint:  util.GetEnv("MINIO_ENDPOINT"),
			AccessKey: util.GetEnv("MINIO_ACCESS_KEY"),
			SecretKey: util.GetEnv("MINIO_SECRET_KEY"),
			Bucket:    util.GetEnvOr("MINIO_BUCKET", "aidlink"),
			UseSSL:    util.GetBoolEnv("MINIO_USE_SSL"),
			BaseURL:   util.GetEnv("MINIO_PUBLIC_URL"),
		},
		SSEEnabled:    util.GetEnvOr("SSE_ENABLED", "true") != "false",
		SSEPing:       time.Duration(util.GetIntEnvOr("SSE_PING_SECONDS", 25)) * time.Second,
		ShutdownGrace: time.Duration(util.GetIntEnvOr("SHUTDOWN_GRACE_SECONDS", 10)) * time.Second,
	}
}
