package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

// newRouter собирает HTTP-маршруты: liveness-эндпоинты и, при непустом
// secretPath, приём обновлений от платформы.
func (b *Bot) newRouter(ctx context.Context, secretPath string) *chi.Mux {
	r := chi.NewRouter()

	ok := func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}
	r.Get("/", ok)
	r.Get("/health", ok)

	if secretPath != "" {
		r.Post("/"+secretPath, func(w http.ResponseWriter, req *http.Request) {
			update, err := b.api.HandleUpdate(req)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			// Отвечаем платформе сразу, обработка идёт в своей горутине.
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.dispatch(ctx, u)
			}(*update)

			w.WriteHeader(http.StatusOK)
		})
	}

	return r
}

// serve держит HTTP-сервер до отмены ctx, затем гасит его и дожидается
// завершения обработчиков, которые уже в полёте.
func (b *Bot) serve(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", b.opts.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	b.wg.Wait()
	return nil
}
