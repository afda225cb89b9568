package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config — настройки бота, загружаемые из переменных окружения.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN"`

	// STORE_URL выбирает бэкенд хранилища по схеме:
	// postgres:// — облачный Postgres, redis:// — Redis, пусто — память процесса.
	StoreURL string `envconfig:"STORE_URL"`
	StoreKey string `envconfig:"STORE_KEY"`

	WebAppURL  string `envconfig:"WEBAPP_URL" default:"https://parfumdepo.example/app"`
	SupportURL string `envconfig:"SUPPORT_URL" default:"https://t.me/parfumdepo"`

	// Наличие PUBLIC_BASE_URL переключает транспорт на webhook.
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL"`
	Port          int    `envconfig:"PORT" default:"8080"`

	CartMergePolicy string `envconfig:"CART_MERGE_POLICY" default:"replace"`
	CartWrite       string `envconfig:"CART_WRITE" default:"strict"`
}

// Load загружает конфигурацию из окружения и .env файла, если он есть.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные поля и допустимые значения политик.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}

	switch c.CartMergePolicy {
	case "replace", "append":
	default:
		return fmt.Errorf("CART_MERGE_POLICY must be replace or append, got %q", c.CartMergePolicy)
	}

	switch c.CartWrite {
	case "strict", "silent":
	default:
		return fmt.Errorf("CART_WRITE must be strict or silent, got %q", c.CartWrite)
	}

	if c.PublicBaseURL != "" {
		u, err := url.Parse(c.PublicBaseURL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL, got %q", c.PublicBaseURL)
		}
	}

	return nil
}

// StoreDSN возвращает строку подключения к Postgres.
// STORE_KEY, если задан, подставляется как пароль.
func (c *Config) StoreDSN() string {
	if c.StoreKey == "" {
		return c.StoreURL
	}

	u, err := url.Parse(c.StoreURL)
	if err != nil {
		return c.StoreURL
	}

	user := ""
	if u.User != nil {
		user = u.User.Username()
	}
	if user == "" {
		user = "postgres"
	}
	u.User = url.UserPassword(user, c.StoreKey)

	return u.String()
}

// Addr возвращает адрес HTTP-сервера в формате :port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
