package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/google/uuid"
)

const (
	pollTimeout = 60 // секунд, long polling платформы

	registerAttempts  = 5
	registerBaseDelay = time.Second
	registerMaxDelay  = 30 * time.Second
)

// errWebhookRegistration — бюджет попыток регистрации webhook исчерпан.
var errWebhookRegistration = errors.New("webhook registration failed")

// Run выбирает транспорт по конфигурации и блокируется до отмены ctx.
// Выбор делается один раз на старте; переключений во время работы нет.
// Если регистрация webhook исчерпала бюджет попыток, бот откатывается
// на long polling вместо завершения процесса.
func (b *Bot) Run(ctx context.Context) error {
	if b.opts.PublicBaseURL != "" {
		err := b.runWebhook(ctx)
		if err == nil || !errors.Is(err, errWebhookRegistration) {
			return err
		}
		log.Printf("Falling back to polling: %v", err)
	}

	return b.runPolling(ctx)
}

// runWebhook регистрирует публичный адрес у платформы и принимает
// обновления как HTTP-запросы до отмены ctx.
func (b *Bot) runWebhook(ctx context.Context) error {
	base, err := url.Parse(b.opts.PublicBaseURL)
	if err != nil || !base.IsAbs() || base.Host == "" {
		return fmt.Errorf("invalid public base url %q", b.opts.PublicBaseURL)
	}

	// Секретный путь генерируется на каждый запуск процесса заново.
	secret := uuid.NewString()

	wh, err := tgbotapi.NewWebhook(base.JoinPath(secret).String())
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}

	if err := b.registerWebhook(ctx, wh); err != nil {
		return fmt.Errorf("%w: %v", errWebhookRegistration, err)
	}
	// Снимаем регистрацию при остановке, чтобы не оставлять висячий адрес доставки.
	defer b.deregisterWebhook()

	log.Printf("Webhook registered at %s/<secret>", base)

	return b.serve(ctx, b.newRouter(ctx, secret))
}

// runPolling крутит цикл long polling до отмены ctx.
// Смещение обработанных обновлений ведёт библиотека.
func (b *Bot) runPolling(ctx context.Context) error {
	// Платформа не отдаёт обновления в long polling, пока висит webhook.
	b.deregisterWebhook()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	go func() {
		if err := b.serve(ctx, b.newRouter(ctx, "")); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	log.Println("Polling for updates...")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return nil

		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			// Каждое обновление обрабатывается независимо.
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.dispatch(ctx, u)
			}(update)
		}
	}
}

// registerWebhook регистрирует адрес у платформы с ограниченным числом
// попыток и экспоненциальной паузой между ними.
func (b *Bot) registerWebhook(ctx context.Context, wh tgbotapi.WebhookConfig) error {
	return retryWithBackoff(ctx, registerAttempts, b.registerDelay, func() error {
		_, err := b.api.Request(wh)
		if err != nil {
			log.Printf("Error registering webhook: %v", err)
		}
		return err
	})
}

// deregisterWebhook снимает регистрацию webhook у платформы.
func (b *Bot) deregisterWebhook() {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Printf("Error deleting webhook: %v", err)
	}
}

// retryWithBackoff вызывает fn до первого успеха, но не более attempts раз.
// Пауза между попытками удваивается и ограничена registerMaxDelay.
func retryWithBackoff(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	delay := baseDelay
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if delay > registerMaxDelay {
			delay = registerMaxDelay
		}
	}

	return lastErr
}
