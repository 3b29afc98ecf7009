package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Environment string
	AdminToken  string
	Server      Server
	Log         LogConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Notify      NotifyConfig
	Scheduler   SchedulerConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	MaxBodyBytes    int64
}

type LogConfig struct {
	Format string // json | text
	Level  string
}

// DatabaseConfig selects Postgres when URL is set; otherwise stores live in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables the cross-replica run lock when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers           string
	Acks              string
	Retries           int
	DeliveryTimeout   time.Duration
	NotificationTopic string
}

// NotifyConfig selects the delivery channel for expiration notices.
type NotifyConfig struct {
	Channel          string // log | kafka | email
	ResendAPIKey     string
	FromEmail        string
	FromName         string
	SendTimeout      time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

type SchedulerConfig struct {
	Enabled          bool
	NotificationCron string
	StatusSweepCron  string
	Timezone         string
	Parallelism      int
	LockTTL          time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// Unparseable values fall back to their defaults.
func FromEnv() Config {
	return Config{
		Environment: getString("ENVIRONMENT", "dev"),
		AdminToken:  os.Getenv("ADMIN_API_TOKEN"),
		Server: Server{
			Addr:            getString("LEASEKEEPER_ADDR", ":8080"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
			MaxBodyBytes:    int64(getInt("MAX_BODY_BYTES", 1<<20)),
		},
		Log: LogConfig{
			Format: strings.ToLower(getString("LOG_FORMAT", "json")),
			Level:  strings.ToLower(getString("LOG_LEVEL", "info")),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           os.Getenv("KAFKA_BROKERS"),
			Acks:              getString("KAFKA_ACKS", "all"),
			Retries:           getInt("KAFKA_RETRIES", 3),
			DeliveryTimeout:   getDuration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
			NotificationTopic: getString("KAFKA_NOTIFICATION_TOPIC", "lease.notifications"),
		},
		Notify: NotifyConfig{
			Channel:          strings.ToLower(getString("NOTIFY_CHANNEL", "log")),
			ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
			FromEmail:        os.Getenv("NOTIFY_FROM_EMAIL"),
			FromName:         getString("NOTIFY_FROM_NAME", "Lease Reminders"),
			SendTimeout:      getDuration("SEND_TIMEOUT", 0),
			BreakerThreshold: getInt("DELIVERY_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getDuration("DELIVERY_BREAKER_COOLDOWN", time.Minute),
		},
		Scheduler: SchedulerConfig{
			Enabled:          getBool("SCHEDULER_ENABLED", true),
			NotificationCron: getString("NOTIFICATION_CRON", "0 9 * * *"),
			StatusSweepCron:  getString("STATUS_SWEEP_CRON", "0 1 * * *"),
			Timezone:         getString("SCHEDULER_TIMEZONE", "Asia/Jerusalem"),
			Parallelism:      getInt("SCHEDULER_PARALLELISM", 1),
			LockTTL:          getDuration("SCHEDULER_LOCK_TTL", 30*time.Minute),
		},
	}
}

// Location resolves the scheduler time zone, falling back to UTC.
func (s SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
