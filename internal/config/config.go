// Package config предоставляет структуры и функции для парсинга и загрузки конфига
// сервиса премиум-доступа и клиентского приложения бюджета.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек сервера
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Premium                 `yaml:"premium"`
	Scheduler               `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env-default:"1"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env-default:"5"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для проверки сессионного jwt-токена.
// Токены выпускает внешний сервис аутентификации с тем же секретом.
type JWTToken struct {
	JWTSecretKey string `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
}

// RabbitMQ структура для публикации событий премиум-доступа.
// Пустой RabbitMQURL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange           string        `yaml:"exchange" env-default:"premium"`
}

// Premium содержит общие секреты кодов активации и настройки кеша статуса.
type Premium struct {
	MonthlyCode    string        `yaml:"monthly_code" env:"PREMIUM_MONTHLY_CODE" env-default:"easy2"`
	LifetimeCode   string        `yaml:"lifetime_code" env:"PREMIUM_LIFETIME_CODE" env-default:"budgetforever"`
	StatusCacheTTL time.Duration `yaml:"status_cache_ttl" env-default:"10m"`
}

// Scheduler настройки фоновой проверки истёкших подписок.
type Scheduler struct {
	ExpireInterval   time.Duration `yaml:"expire_interval" env-default:"1h"`
	ReminderInterval time.Duration `yaml:"reminder_interval" env-default:"12h"`
	ReminderWindow   time.Duration `yaml:"reminder_window" env-default:"24h"`
}

// ClientConfig настройки клиентского приложения бюджета.
type ClientConfig struct {
	Env            string        `yaml:"env" env:"ENV" env-default:"local"`
	ServerURL      string        `yaml:"server_url" env:"PREMIUM_SERVER_URL" env-default:"http://localhost:8080"`
	SessionToken   string        `yaml:"session_token" env:"PREMIUM_SESSION_TOKEN"`
	StatePath      string        `yaml:"state_path" env:"BUDGET_STATE_PATH" env-default:"./budget.json"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"10s"`
	Premium        `yaml:"premium"`
}

// Load читает конфиг сервера по указанному пути.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	var cfg Config
	if err := read(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// LoadClient читает конфиг клиента по указанному пути.
func LoadClient(configPath string) (*ClientConfig, error) {
	const op = "config.LoadClient"
	var cfg ClientConfig
	if err := read(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига сервера из файла CONFIG_PATH
func MustLoad() *Config {
	cfg, err := Load(mustConfigPath())
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// MustLoadClient функция для загрузки конфига клиента из файла CONFIG_PATH
func MustLoadClient() *ClientConfig {
	cfg, err := LoadClient(mustConfigPath())
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func mustConfigPath() string {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("cannot load .env: %s", err)
	}
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	return configPath
}

func read(configPath string, cfg any) error {
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("file: %s - %w", configPath, err)
	}
	return cleanenv.ReadConfig(configPath, cfg)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"  Exchange: %s\n"+
			"Premium:\n"+
			"  StatusCacheTTL: %s\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.RabbitMQURL != "",
		c.Exchange,
		c.StatusCacheTTL,
	)
}
