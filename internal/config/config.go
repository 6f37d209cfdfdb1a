package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/config.yaml"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	Tokens     `yaml:"tokens"`
	Hashing    `yaml:"password"`
	Auth       `yaml:"auth"`
	Storage    `yaml:"storage"`
	Postgres   `yaml:"postgres"`
	RabbitMQ   `yaml:"rabbitmq"`
	HTTPServer `yaml:"http_server"`
	SMTP       `yaml:"smtp"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Tokens struct {
	Secret         string        `yaml:"secret" env:"TOKEN_SECRET"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"1h"`
}

type Hashing struct {
	Algorithm  string `yaml:"algorithm" env:"PASSWORD_ALGORITHM" env-default:"bcrypt"`
	BcryptCost int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	Argon2     Argon2 `yaml:"argon2"`
}

type Argon2 struct {
	Memory      uint32 `yaml:"memory" env-default:"65536"`
	Iterations  uint32 `yaml:"iterations" env-default:"3"`
	Parallelism uint8  `yaml:"parallelism" env-default:"2"`
}

type Auth struct {
	// UnifiedLoginErrors answers unknown email and wrong password alike,
	// hiding which accounts exist.
	UnifiedLoginErrors bool `yaml:"unified_login_errors" env:"UNIFIED_LOGIN_ERRORS" env-default:"false"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"`
	Path   string `yaml:"path" env:"STORAGE_PATH" env-default:"./data/users.json"`
}

type Postgres struct {
	DSN      string `yaml:"dsn" env:"POSTGRES_DSN"`
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type RabbitMQ struct {
	// URL left empty disables event publishing.
	URL       string `yaml:"url" env:"RABBITMQ_URL"`
	QueueName string `yaml:"queue_name" env:"RABBITMQ_QUEUE" env-default:"user_events"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

var (
	ErrUnknownDriver   = errors.New("unknown storage driver")
	ErrMissingPostgres = errors.New("postgres connection settings are required")
	ErrMissingSecret   = errors.New("token secret is required")
)

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return cfg
}

// Load reads the YAML file at configPath and applies environment overrides.
// An empty path reads the environment only.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
		}

		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "file", "memory":
	case "postgres":
		if c.Postgres.DSN == "" && (c.Postgres.User == "" || c.Postgres.DBName == "") {
			return ErrMissingPostgres
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}

	return nil
}

// ValidateAPI checks the settings only the HTTP API needs. The notifier loads
// the same file without them.
func (c *Config) ValidateAPI() error {
	if c.Tokens.Secret == "" {
		return ErrMissingSecret
	}

	return nil
}

// FetchConfigPath returns the config path from the -config flag, the CONFIG_PATH
// variable or the default location, in that order.
func FetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = defaultConfigPath
	}

	return res
}
