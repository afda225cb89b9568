package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ActionAddToCart — действие мини-приложения "добавить товар в корзину".
const ActionAddToCart = "add_to_cart"

// ErrMalformedPayload — мини-приложение прислало данные, которые нельзя разобрать.
var ErrMalformedPayload = errors.New("malformed web app payload")

// WebAppEvent — проверенные данные из мини-приложения.
// Сырые байты за границу разбора не проходят.
type WebAppEvent struct {
	Action    string `json:"action"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ParseWebAppEvent разбирает и проверяет сырые данные мини-приложения.
// Отсутствующее количество заменяется на DefaultQuantity.
func ParseWebAppEvent(raw []byte) (*WebAppEvent, error) {
	var event WebAppEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if event.Action == "" {
		return nil, fmt.Errorf("%w: missing action", ErrMalformedPayload)
	}
	if event.Quantity < 0 {
		return nil, fmt.Errorf("%w: negative quantity %d", ErrMalformedPayload, event.Quantity)
	}
	if event.Quantity == 0 {
		event.Quantity = DefaultQuantity
	}

	return &event, nil
}
