package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	LogLevel          string      `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string      `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort        string      `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Storage           Storage     `yaml:"storage"`
	Redis             Redis       `yaml:"redis"`
	Postgres          Postgres    `yaml:"postgres"`
	SQLiteStoragePath string      `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"users.db"`
	GoogleOAuth       GoogleOAuth `yaml:"google-oauth"`
	JWTSecretKey      string      `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY" env-required:"true"`
	SessionSecretKey  string      `yaml:"session-secret-key" env:"SESSION_SECRET_KEY" env-required:"true"`
	Recorder          Recorder    `yaml:"recorder"`
	RateLimit         RateLimit   `yaml:"rate-limit"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Postgres struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

type GoogleOAuth struct {
	ClientID     string   `yaml:"client-id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string   `yaml:"client-secret" env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string   `yaml:"redirect-url" env:"GOOGLE_REDIRECT_URL"`
	Scopes       []string `yaml:"scopes"`
}

type Recorder struct {
	Timeout time.Duration `yaml:"timeout" env:"RECORDER_TIMEOUT" env-default:"5s"`
}

type RateLimit struct {
	TurnsPerSecond float64 `yaml:"turns-per-second" env:"RATE_LIMIT_TURNS_PER_SECOND" env-default:"10"`
	Burst          int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"5"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	switch that.Storage.Driver {
	case DriverMemory, DriverRedis:
	case DriverPostgres:
		if that.Postgres.URL == "" {
			return fmt.Errorf("%w: postgres.url is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, that.Storage.Driver)
	}

	if that.Recorder.Timeout <= 0 {
		return fmt.Errorf("%w: recorder.timeout must be positive", ErrInvalidConfig)
	}

	if that.RateLimit.TurnsPerSecond <= 0 || that.RateLimit.Burst <= 0 {
		return fmt.Errorf("%w: rate-limit values must be positive", ErrInvalidConfig)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
