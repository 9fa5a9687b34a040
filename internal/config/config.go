// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Ops      OpsConfig     `yaml:"ops"`
	Auth     AuthConfig    `yaml:"auth"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	Reaper   ReaperConfig  `yaml:"reaper"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// OpsConfig — сетевые настройки служебного HTTP-сервера
// (livez/healthz/metrics); он слушает отдельный порт.
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"50081"`
}

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
//
// Секреты access- и refresh-токенов обязаны различаться: подпись одного
// контура не должна приниматься другим.
type AuthConfig struct {
	AccessSecret     string        `yaml:"access_secret" env:"ACCESS_SECRET" env-required:"true"`
	RefreshSecret    string        `yaml:"refresh_secret" env:"REFRESH_SECRET" env-required:"true"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer           string        `yaml:"issuer"   env:"ISSUER" env-default:"auth-service"`
	Audience         []string      `yaml:"audience" env:"AUDIENCE" env-default:"api-gateway"`
	LoginMinDuration time.Duration `yaml:"login_min_duration" env:"LOGIN_MIN_DURATION" env-default:"100ms"`
	BcryptCost       int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// ReaperConfig — параметры плановой очистки мёртвых сессий.
type ReaperConfig struct {
	Interval  time.Duration `yaml:"interval" env:"REAPER_INTERVAL" env-default:"24h"`
	Retention time.Duration `yaml:"retention" env:"REAPER_RETENTION" env-default:"168h"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig — настройки кэша сессий.
// Пустой URL допустим: кэш просто выключен.
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		c, err := tryRead(path)
		if err != nil {
			return nil, err
		}

		return c, nil
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		c, err := tryRead(envPath)
		if err != nil {
			return nil, err
		}

		return c, nil
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

// validate отсекает заведомо неработоспособные конфигурации на старте.
func (c *Config) validate() error {
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return fmt.Errorf("auth: access_secret and refresh_secret must differ")
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth: access_token_ttl must be positive")
	}

	if c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("auth: refresh_token_ttl must be positive")
	}

	if c.Auth.LoginMinDuration <= 0 || c.Auth.LoginMinDuration > 5*time.Second {
		return fmt.Errorf("auth: login_min_duration must be in (0s; 5s]")
	}

	if c.Reaper.Interval <= 0 {
		return fmt.Errorf("reaper: interval must be positive")
	}

	if c.Reaper.Retention < 0 {
		return fmt.Errorf("reaper: retention must not be negative")
	}

	return nil
}
