package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env       string          `mapstructure:"env" env:"APP_ENV" envDefault:"development"`
	Server    ServerConfig    `mapstructure:"http_server" envPrefix:"HTTP_"`
	Database  DatabaseConfig  `mapstructure:"database" envPrefix:"DATABASE_"`
	Security  SecurityConfig  `mapstructure:"security" envPrefix:"SECURITY_"`
	Storage   StorageConfig   `mapstructure:"storage" envPrefix:"STORAGE_"`
	Mail      MailConfig      `mapstructure:"mail" envPrefix:"MAIL_"`
	Kafka     KafkaConfig     `mapstructure:"kafka" envPrefix:"KAFKA_"`
	Redis     RedisConfig     `mapstructure:"redis" envPrefix:"REDIS_"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" envPrefix:"RATE_LIMIT_"`
	OAuth     OAuthConfig     `mapstructure:"oauth" envPrefix:"OAUTH_"`
	Logging   LoggingConfig   `mapstructure:"logging" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"PORT" envDefault:"8080"`
	BaseURL           string        `mapstructure:"base_url" env:"BASE_URL" envDefault:"http://localhost:8080"`
	OpenAPIPath       string        `mapstructure:"openapi_path" env:"OPENAPI_PATH" envDefault:"./api/openapi.yml"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"IDLE_TIMEOUT" envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"WRITE_TIMEOUT" envDefault:"30s"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME" envDefault:"5m"`
	Source          string        `mapstructure:"source" env:"SOURCE"`
}

type SecurityConfig struct {
	// SessionSecrets signs cookies with the first entry and accepts any entry on read.
	SessionSecrets  []string      `mapstructure:"session_secrets" env:"SESSION_SECRETS" envSeparator:","`
	SessionDuration time.Duration `mapstructure:"session_duration" env:"SESSION_DURATION" envDefault:"720h"`
	BCryptCost      int           `mapstructure:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"10"`
}

type StorageConfig struct {
	Root        string `mapstructure:"root" env:"ROOT" envDefault:"./data/blobs"`
	Container   string `mapstructure:"container" env:"CONTAINER" envDefault:"staff"`
	MaxFileSize int64  `mapstructure:"max_file_size" env:"MAX_FILE_SIZE" envDefault:"3145728"`
}

type MailConfig struct {
	// Transport is "smtp" for direct delivery or "kafka" to queue for the mail worker.
	Transport string `mapstructure:"transport" env:"TRANSPORT" envDefault:"smtp"`
	Host      string `mapstructure:"host" env:"HOST"`
	Port      int    `mapstructure:"port" env:"PORT" envDefault:"587"`
	Login     string `mapstructure:"login" env:"LOGIN"`
	Password  string `mapstructure:"password" env:"PASSWORD"`
	From      string `mapstructure:"from" env:"FROM"`
	FromName  string `mapstructure:"from_name" env:"FROM_NAME" envDefault:"Staff Portal"`
}

type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers" env:"BROKERS" envSeparator:","`
	MailTopic  string   `mapstructure:"mail_topic" env:"MAIL_TOPIC" envDefault:"staff.mail"`
	ConsumerID string   `mapstructure:"consumer_id" env:"CONSUMER_ID" envDefault:"staff-mail-worker"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" env:"ADDR"`
	Password string `mapstructure:"password" env:"PASSWORD"`
	DB       int    `mapstructure:"db" env:"DB"`
}

type RateLimitConfig struct {
	Window      time.Duration `mapstructure:"window" env:"WINDOW" envDefault:"1m"`
	LoginLimit  int           `mapstructure:"login_limit" env:"LOGIN_LIMIT" envDefault:"10"`
	VerifyLimit int           `mapstructure:"verify_limit" env:"VERIFY_LIMIT" envDefault:"5"`
}

// OAuthConfig is parsed so deployments can keep one env file; no provider flow reads it yet.
type OAuthConfig struct {
	Microsoft OAuthProvider `mapstructure:"microsoft" envPrefix:"MICROSOFT_"`
	Google    OAuthProvider `mapstructure:"google" envPrefix:"GOOGLE_"`
}

type OAuthProvider struct {
	ClientID     string `mapstructure:"client_id" env:"CLIENT_ID"`
	ClientSecret string `mapstructure:"client_secret" env:"CLIENT_SECRET"`
	TenantID     string `mapstructure:"tenant_id" env:"TENANT_ID"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LEVEL" envDefault:"info"`
	Format string `mapstructure:"format" env:"FORMAT" envDefault:"text"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfigFromEnv reads configuration from the process environment, loading
// envPath first when it exists.
func LoadConfigFromEnv(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Mail.Validate(c.Kafka); err != nil {
		errs = append(errs, fmt.Sprintf("mail config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.SessionSecrets) == 0 {
		return errors.New("at least one session secret is required")
	}
	for i, s := range c.SessionSecrets {
		if len(s) < 32 {
			return fmt.Errorf("session secret #%d must be at least 32 characters", i+1)
		}
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	return nil
}

func (c *StorageConfig) Validate() error {
	if c.Root == "" {
		return errors.New("root is required")
	}
	if c.Container == "" || strings.ContainsAny(c.Container, `/\`) {
		return errors.New("container must be a single path segment")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("max_file_size must be positive")
	}
	return nil
}

func (c *MailConfig) Validate(kafka KafkaConfig) error {
	switch c.Transport {
	case "smtp":
		if c.Host == "" {
			return errors.New("host is required for smtp transport")
		}
	case "kafka":
		if len(kafka.Brokers) == 0 {
			return errors.New("kafka.brokers is required for kafka transport")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.From == "" {
		return errors.New("from is required")
	}
	return nil
}
