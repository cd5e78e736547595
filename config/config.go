package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 汇总服务端全部配置（env 优先，支持可选 config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mood     MoodConfig     `mapstructure:"mood"`
	Log      LogConfig      `mapstructure:"log"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	OTEL     OTELConfig     `mapstructure:"otel"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Mode         string        `mapstructure:"mode"` // debug|release|test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres|sqlite
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MoodConfig 提交与统计相关策略
type MoodConfig struct {
	Timezone         string        `mapstructure:"timezone"`           // 本地日界用时区
	RateLimit        int64         `mapstructure:"rate_limit"`         // 每窗口最大提交尝试数
	RateWindow       time.Duration `mapstructure:"rate_window"`        // 滑动窗口长度
	CounterTTL       time.Duration `mapstructure:"counter_ttl"`        // 计数器缓存 TTL
	MinSampleCountry int64         `mapstructure:"min_sample_country"` // 排行榜最小样本量
	JWTSecret        string        `mapstructure:"jwt_secret"`
	SSEHeartbeat     time.Duration `mapstructure:"sse_heartbeat"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type OTELConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

// Load 读取配置：默认值 < config.yaml < MOODA_* 环境变量
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 0) // SSE 需要无写超时
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "mooda.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mood.timezone", "Asia/Tashkent")
	v.SetDefault("mood.rate_limit", 5)
	v.SetDefault("mood.rate_window", time.Minute)
	v.SetDefault("mood.counter_ttl", 48*time.Hour)
	v.SetDefault("mood.min_sample_country", 100)
	v.SetDefault("mood.jwt_secret", "dev-secret-change-me")
	v.SetDefault("mood.sse_heartbeat", 25*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4318")
	v.SetDefault("otel.service", "mooda-backend")

	v.SetEnvPrefix("MOODA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
