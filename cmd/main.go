package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"shop-bot/config"
	telegram "shop-bot/internal/api"
	"shop-bot/internal/container"
	"shop-bot/internal/domain/port"
	"shop-bot/internal/infrastructure/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Создаём хранилище покупателей и корзин
	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()
	log.Printf("Store ready, merge policy %q", store.MergePolicy())

	// Собираем сервисы приложения
	services := container.New(store)

	// Создаём бота
	bot, err := telegram.NewBot(cfg.BotToken, services, telegram.Options{
		WebAppURL:     cfg.WebAppURL,
		SupportURL:    cfg.SupportURL,
		WritePolicy:   telegram.WritePolicy(cfg.CartWrite),
		PublicBaseURL: cfg.PublicBaseURL,
		Port:          cfg.Port,
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Bot is running...")
	if err := bot.Run(ctx); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
	log.Println("Bot stopped")
}

// newStore выбирает реализацию хранилища по схеме STORE_URL.
func newStore(cfg *config.Config) (port.Store, error) {
	policy := port.MergePolicy(cfg.CartMergePolicy)

	switch {
	case cfg.StoreURL == "":
		return storage.NewMemoryStore(policy), nil

	case strings.HasPrefix(cfg.StoreURL, "postgres://"),
		strings.HasPrefix(cfg.StoreURL, "postgresql://"):
		return storage.NewPostgresStore(cfg.StoreDSN(), policy)

	case strings.HasPrefix(cfg.StoreURL, "redis://"),
		strings.HasPrefix(cfg.StoreURL, "rediss://"):
		return storage.NewRedisStore(cfg.StoreURL, cfg.StoreKey)

	default:
		return nil, fmt.Errorf("unsupported STORE_URL scheme in %q", cfg.StoreURL)
	}
}
