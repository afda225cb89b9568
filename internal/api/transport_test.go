package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/require"

	"shop-bot/internal/domain/port"
	"shop-bot/internal/infrastructure/storage"
)

// fakePlatform управляет транспортными вызовами платформы в тестах.
type fakePlatform struct {
	mu             sync.Mutex
	registerErr    error
	updates        chan tgbotapi.Update
	webhookSets    int
	webhookDeletes int
	polled         bool
}

func (f *fakePlatform) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch c.(type) {
	case tgbotapi.WebhookConfig:
		f.webhookSets++
		return nil, f.registerErr
	case tgbotapi.DeleteWebhookConfig:
		f.webhookDeletes++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakePlatform) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	f.mu.Lock()
	f.polled = true
	f.mu.Unlock()
	return f.updates
}

func (f *fakePlatform) StopReceivingUpdates() {}

func (f *fakePlatform) HandleUpdate(r *http.Request) (*tgbotapi.Update, error) {
	return nil, errors.New("not used")
}

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryWithBackoff_BoundedAttempts(t *testing.T) {
	calls := 0
	failure := errors.New("still down")
	err := retryWithBackoff(context.Background(), 4, time.Millisecond, func() error {
		calls++
		return failure
	})

	require.ErrorIs(t, err, failure)
	require.Equal(t, 4, calls)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryWithBackoff(ctx, 10, time.Minute, func() error {
		return errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_FallsBackToPollingWhenRegistrationExhausted(t *testing.T) {
	updates := make(chan tgbotapi.Update)
	close(updates)
	platform := &fakePlatform{
		registerErr: errors.New("telegram: 502"),
		updates:     updates,
	}

	bot, _ := newTestBot(storage.NewMemoryStore(port.MergeReplace), WriteStrict)
	bot.api = platform
	bot.opts.PublicBaseURL = "https://bot.example.com"
	bot.registerDelay = time.Millisecond

	err := bot.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, registerAttempts, platform.webhookSets)
	require.True(t, platform.polled)
	require.GreaterOrEqual(t, platform.webhookDeletes, 1)
}

func TestRun_WebhookStopsOnContextCancel(t *testing.T) {
	platform := &fakePlatform{}

	bot, _ := newTestBot(storage.NewMemoryStore(port.MergeReplace), WriteStrict)
	bot.api = platform
	bot.opts.PublicBaseURL = "https://bot.example.com"
	bot.registerDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bot.Run(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, platform.webhookSets)
	require.False(t, platform.polled)
	require.GreaterOrEqual(t, platform.webhookDeletes, 1)
}

func TestRouter_HealthEndpoints(t *testing.T) {
	bot, _ := newTestBot(storage.NewMemoryStore(port.MergeReplace), WriteStrict)
	router := bot.newRouter(context.Background(), "")

	for _, path := range []string{"/", "/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Equal(t, "ok", rec.Body.String(), path)
	}
}

func TestRouter_WebhookDispatchesUpdate(t *testing.T) {
	store := storage.NewMemoryStore(port.MergeReplace)
	bot, sender := newTestBot(store, WriteStrict)
	router := bot.newRouter(context.Background(), "secret-path")

	body := `{"update_id":7,"message":{"message_id":1,"from":{"id":1,"first_name":"Anna"},"chat":{"id":10},"text":"/start","entities":[{"type":"bot_command","offset":0,"length":6}]}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/secret-path", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	bot.wg.Wait()
	require.Len(t, sender.messages(t), 1)
}

func TestRouter_WebhookRejectsGarbage(t *testing.T) {
	bot, sender := newTestBot(storage.NewMemoryStore(port.MergeReplace), WriteStrict)
	router := bot.newRouter(context.Background(), "secret-path")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/secret-path", strings.NewReader("{broken")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, sender.messages(t))
}
