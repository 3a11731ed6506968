package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pinky-service/internal/buffer"
	"pinky-service/internal/config"
	"pinky-service/internal/db"
	"pinky-service/internal/llm"
	"pinky-service/internal/scheduler"
	"pinky-service/internal/spylog"
	"pinky-service/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	store := db.NewStore(db.New(pool, cfg.TxTimeout))

	buf, err := buffer.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.BufferKey)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer func() {
		if err := buf.Close(); err != nil {
			log.Printf("failed to close buffer: %v", err)
		}
	}()

	events := spylog.NewLogger(buf)
	flusher := spylog.NewFlusher(buf, store)

	var llmClient llm.Client
	if cfg.OpenAIAPIKey != "" {
		llmClient = llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	} else {
		log.Println("OPENAI_API_KEY not set, free-text replies fall back to echo")
	}

	bot, err := telegram.New(cfg.TelegramBotToken, events, store, llmClient, cfg.ReplyCost)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched := scheduler.New()
	sched.SetFlushFunction(func(ctx context.Context) (int64, error) {
		return flusher.Flush(ctx, cfg.FlushBatchSize)
	})
	if err := sched.Start(cfg.FlushCronSpec); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		log.Println("shutting down...")
		bot.Stop()
	}()

	bot.Start(ctx)

	// Polling stopped: stop the cron and drain whatever is still buffered so
	// a clean shutdown loses nothing.
	sched.Stop()
	if n, err := flusher.Flush(context.Background(), cfg.FlushBatchSize); err != nil {
		log.Printf("final flush failed after %d rows: %v", n, err)
	} else {
		log.Printf("final flush persisted %d events", n)
	}
}
