package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	app "shop-bot/internal/application"
	"shop-bot/internal/container"
	"shop-bot/internal/domain/entity"
	"shop-bot/internal/domain/port"
)

const (
	msgWelcome = `Добро пожаловать в ParfumDEPO, %s! 🎉

Здесь вы найдете эксклюзивные парфюмерные композиции со всего мира.`

	msgCartAdded       = "✅ Товар добавлен в корзину!"
	msgCartFailed      = "⚠️ Не получилось добавить товар в корзину. Попробуйте позже."
	msgProcessingError = "⚠️ Не удалось обработать данные из приложения. Попробуйте ещё раз."

	btnOpenShop = "🛍️ Открыть магазин"
	btnSupport  = "💬 Чат с менеджером"
)

// WritePolicy определяет, видит ли покупатель ошибку записи корзины.
type WritePolicy string

const (
	// WriteStrict — о неудачной записи сообщается покупателю.
	WriteStrict WritePolicy = "strict"
	// WriteSilent — неудачная запись попадает только в лог.
	WriteSilent WritePolicy = "silent"
)

// sender отправляет сообщения в Telegram; выделен для тестов.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// platform — операции Telegram API, которыми пользуется транспорт;
// выделен в интерфейс, чтобы тесты могли управлять транспортом.
type platform interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Options — настройки бота, не зависящие от токена.
type Options struct {
	WebAppURL   string
	SupportURL  string
	WritePolicy WritePolicy

	// PublicBaseURL включает webhook-транспорт; пустое значение — long polling.
	PublicBaseURL string
	Port          int
}

// Bot обрабатывает входящие обновления Telegram.
type Bot struct {
	api    platform
	sender sender
	users  *app.UserService
	carts  *app.CartService
	opts   Options

	// Таблица команд: новая команда — новая запись, без ветвлений.
	commands map[string]func(ctx context.Context, msg *tgbotapi.Message)

	registerDelay time.Duration
	storeDown     atomic.Bool
	wg            sync.WaitGroup
}

// NewBot создаёт нового бота и авторизуется у платформы.
func NewBot(token string, services *container.Container, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return newBot(api, api, services, opts), nil
}

func newBot(api platform, s sender, services *container.Container, opts Options) *Bot {
	b := &Bot{
		api:           api,
		sender:        s,
		users:         services.UserService,
		carts:         services.CartService,
		opts:          opts,
		registerDelay: registerBaseDelay,
	}

	b.commands = map[string]func(ctx context.Context, msg *tgbotapi.Message){
		"start": b.handleStart,
	}

	return b
}

// handleStart приветствует покупателя и предлагает открыть магазин.
// Недоступное хранилище приветствию не мешает.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	user := entity.NewUser(msg.From.ID, msg.From.UserName, msg.From.FirstName, msg.From.LastName)

	switch err := b.users.Register(ctx, user); {
	case err == nil:
		if b.storeDown.Swap(false) {
			log.Println("Store is reachable again, user persistence resumed")
		}
	case port.Unreachable(err):
		// Недоступность хранилища логируется один раз на весь сбой.
		if !b.storeDown.Swap(true) {
			log.Printf("Store is unavailable, greetings continue without persistence: %v", err)
		}
	default:
		log.Printf("Error registering user %d: %v", user.ID, err)
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(msgWelcome, user.DisplayName()))
	reply.ReplyMarkup = b.shopKeyboard()
	b.send(reply)
}

// handleWebAppData обрабатывает данные, присланные мини-приложением.
func (b *Bot) handleWebAppData(ctx context.Context, msg *tgbotapi.Message) {
	event, err := entity.ParseWebAppEvent([]byte(msg.WebAppData.Data))
	if err != nil {
		log.Printf("Error parsing web app payload from %d: %v", msg.From.ID, err)
		b.send(tgbotapi.NewMessage(msg.Chat.ID, msgProcessingError))
		return
	}

	if event.Action != entity.ActionAddToCart {
		// Незнакомые действия не порождают ни записи, ни ответа.
		return
	}

	if err := b.carts.AddItem(ctx, msg.From.ID, event.ProductID, event.Quantity); err != nil {
		log.Printf("Error adding product %q to cart of %d: %v", event.ProductID, msg.From.ID, err)
		if b.opts.WritePolicy == WriteStrict {
			b.send(tgbotapi.NewMessage(msg.Chat.ID, msgCartFailed))
		}
		return
	}

	b.send(tgbotapi.NewMessage(msg.Chat.ID, msgCartAdded))
}

// handleError логирует сбой обработки обновления.
// Пользователю ничего не отправляется: контекст чата может быть неизвестен.
func (b *Bot) handleError(update tgbotapi.Update, err error) {
	log.Printf("Error handling update %d: %v", update.UpdateID, err)
}

// shopKeyboard собирает клавиатуру с кнопкой мини-приложения и контактом менеджера.
func (b *Bot) shopKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.InlineKeyboardButton{
				Text:   btnOpenShop,
				WebApp: &tgbotapi.WebAppInfo{URL: b.opts.WebAppURL},
			},
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(btnSupport, b.opts.SupportURL),
		),
	)
}

// send отправляет ответ не более одного раза; отказ платформы только логируется.
func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.sender.Send(c); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// Проверка реализации интерфейсов
var (
	_ platform = (*tgbotapi.BotAPI)(nil)
	_ sender   = (*tgbotapi.BotAPI)(nil)
)
