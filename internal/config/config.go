package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`

	// Postgres
	PostgresUser     string `env:"POSTGRE_USERNAME,required"`
	PostgresPassword string `env:"POSTGRE_PASSWORD,required"`
	PostgresHost     string `env:"POSTGRE_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRE_PORT" envDefault:"5432"`
	PostgresDB       string `env:"POSTGRE_DB_NAME,required"`

	// Redis event buffer
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	BufferKey     string `env:"EVENT_BUFFER_KEY" envDefault:"spylog:buffer"`

	// Flush settings
	FlushBatchSize int    `env:"FLUSH_BATCH_SIZE" envDefault:"100"`
	FlushCronSpec  string `env:"FLUSH_CRON_SPEC" envDefault:"@every 1m"`

	// Upper bound on a single transaction, pool acquisition included.
	TxTimeout time.Duration `env:"TX_TIMEOUT" envDefault:"10s"`

	// LLM settings (optional; free-text falls back to echo without a key)
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4.1-mini"`
	ReplyCost     int    `env:"REPLY_COST" envDefault:"1"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// PostgresDSN assembles the pool connection string from the discrete env fields.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}
