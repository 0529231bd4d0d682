package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV" env-default:"local"`
	HTTP     HTTPConfig
	Database DBConfig
	Security SecConfig
	Market   MarketConfig
	News     NewsConfig
	Comments CommentsConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

type HTTPConfig struct {
	Port    uint16        `env:"HTTP_PORT" env-default:"8080"`
	Timeout time.Duration `env:"HTTP_TIMEOUT" env-default:"30s"`
}

type DBConfig struct {
	Driver        string `env:"DB_DRIVER" env-default:"sqlite"`
	Path          string `env:"SQLITE_PATH" env-default:"cryptoapp.db"`
	Host          string `env:"POSTGRES_HOST" env-default:"localhost"`
	Port          uint16 `env:"POSTGRES_PORT" env-default:"5432"`
	User          string `env:"POSTGRES_USER" env-default:"postgres"`
	Password      string `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	DBName        string `env:"POSTGRES_DB" env-default:"cryptoapp"`
	MigrationMode string `env:"DB_MIGRATION_MODE" env-default:"additive"`
}

type SecConfig struct {
	JWTSecret  string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" env-default:"720h"`
	BcryptCost int           `env:"BCRYPT_COST" env-default:"10"`
}

type MarketConfig struct {
	BaseURL    string        `env:"MARKET_BASE_URL" env-default:"https://api.coingecko.com"`
	VsCurrency string        `env:"MARKET_VS_CURRENCY" env-default:"usd"`
	PerPage    int           `env:"MARKET_PER_PAGE" env-default:"100"`
	Pages      int           `env:"MARKET_PAGES" env-default:"1"`
	Timeout    time.Duration `env:"MARKET_TIMEOUT" env-default:"10s"`
	Retries    uint64        `env:"MARKET_RETRIES" env-default:"3"`
}

type NewsConfig struct {
	URL     string        `env:"NEWS_URL" env-default:"https://min-api.cryptocompare.com/data/v2/news/?lang=EN"`
	Timeout time.Duration `env:"NEWS_TIMEOUT" env-default:"10s"`
	Retries uint64        `env:"NEWS_RETRIES" env-default:"2"`
}

type CommentsConfig struct {
	BaseURL string        `env:"COMMENTS_BASE_URL" env-default:"https://69409048993d68afba6c7027.mockapi.io"`
	Timeout time.Duration `env:"COMMENTS_TIMEOUT" env-default:"10s"`
	Retries uint64        `env:"COMMENTS_RETRIES" env-default:"1"`
}

// RedisConfig is optional; an empty address disables the alert bus.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// KafkaConfig is optional; no brokers disables snapshot publishing.
type KafkaConfig struct {
	Brokers      []string      `env:"KAFKA_BROKERS" env-separator:","`
	Topic        string        `env:"KAFKA_TOPIC" env-default:"market.snapshots"`
	BatchSize    int           `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	BatchTimeout time.Duration `env:"KAFKA_BATCH_TIMEOUT" env-default:"1s"`
	RequiredAcks int           `env:"KAFKA_ACKS" env-default:"1"`
	MaxAttempts  int           `env:"KAFKA_MAX_ATTEMPTS" env-default:"3"`
	WriteTimeout time.Duration `env:"KAFKA_WRITE_TIMEOUT" env-default:"10s"`
}

func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment variables")
	}

	cfg, err := Load()
	if err != nil {
		slog.Error("failed to read environment variables", "error", err)
		os.Exit(1)
	}

	return cfg
}

func Load() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
