package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Auth          AuthConfig          `yaml:"auth"`
	Reviews       ReviewsConfig       `yaml:"reviews"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Log           LogConfig           `yaml:"log"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	SwaggerFile     string        `yaml:"swagger_file"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	// Driver selects the storage backend: postgres or memory.
	Driver   string `yaml:"driver"`
	DSNValue string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

// DSN prefers an explicit dsn over the individual fields.
func (d DatabaseConfig) DSN() string {
	if d.DSNValue != "" {
		return d.DSNValue
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr              string        `yaml:"addr"`
	Password          string        `yaml:"password"`
	DB                int           `yaml:"db"`
	UnreadTTL         time.Duration `yaml:"unread_ttl"`
	DeliveryDedupeTTL time.Duration `yaml:"delivery_dedupe_ttl"`
}

// Enabled is false when no address is configured; the unread cache is then
// skipped.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
}

type ReviewsConfig struct {
	Window time.Duration `yaml:"window"`
}

type NotificationsConfig struct {
	QueueSize    int           `yaml:"queue_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			SwaggerFile:     "api/swagger/openapi.json",
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{Driver: DriverPostgres, Port: 5432, SSLMode: "disable", MaxConns: 10},
		Redis:    RedisConfig{UnreadTTL: 5 * time.Minute, DeliveryDedupeTTL: 24 * time.Hour},
		Kafka:    KafkaConfig{NotificationsTopic: "notifications", GroupID: "notification-delivery"},
		Auth:     AuthConfig{Audience: "authenticated"},
		Reviews:  ReviewsConfig{Window: 14 * 24 * time.Hour},
		Notifications: NotificationsConfig{
			QueueSize:    256,
			MaxAttempts:  3,
			RetryBackoff: 200 * time.Millisecond,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setStringFromEnv(&c.Auth.JWTSecret, "JWT_SECRET")
	setStringFromEnv(&c.Database.DSNValue, "DATABASE_DSN")
	setStringFromEnv(&c.Database.Driver, "DATABASE_DRIVER")
	setStringFromEnv(&c.Redis.Addr, "REDIS_ADDR")
	setStringFromEnv(&c.HTTP.Address, "HTTP_ADDR")
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitAndTrim(brokers)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Address == "" {
		errs = append(errs, errors.New("http.address is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required"))
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.DSNValue == "" && c.Database.Host == "" {
			errs = append(errs, errors.New("database.dsn (DATABASE_DSN) or database.host is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver))
	}
	if c.Reviews.Window <= 0 {
		errs = append(errs, errors.New("reviews.window must be > 0"))
	}
	if c.Notifications.QueueSize <= 0 {
		errs = append(errs, errors.New("notifications.queue_size must be > 0"))
	}
	if c.Notifications.MaxAttempts <= 0 {
		errs = append(errs, errors.New("notifications.max_attempts must be > 0"))
	}
	if c.Kafka.Enabled() && c.Kafka.NotificationsTopic == "" {
		errs = append(errs, errors.New("kafka.notifications_topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
