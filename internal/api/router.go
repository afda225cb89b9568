package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// dispatch классифицирует одно обновление и вызывает ровно один обработчик.
// Паника внутри обработчика не роняет цикл диспетчеризации.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.handleError(update, fmt.Errorf("panic: %v", r))
		}
	}()

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	switch {
	case msg.WebAppData != nil:
		b.handleWebAppData(ctx, msg)

	case msg.IsCommand():
		handler, ok := b.commands[msg.Command()]
		if !ok {
			// Незнакомые команды молча игнорируются.
			return
		}
		handler(ctx, msg)
	}
}
