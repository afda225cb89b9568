package app

import (
	"context"
	"errors"

	"shop-bot/internal/domain/entity"
	"shop-bot/internal/domain/port"
)

// CartService записывает добавления товаров в корзину.
type CartService struct {
	store port.Store
}

func NewCartService(store port.Store) *CartService {
	return &CartService{store: store}
}

// AddItem добавляет товар в корзину покупателя.
// При недоступном хранилище возвращает ошибку недоступности сразу,
// без попытки записи и без повторов.
func (s *CartService) AddItem(ctx context.Context, userID int64, productID string, quantity int) error {
	if _, err := entity.NewCartLine(userID, productID, quantity); err != nil {
		return port.NewStoreError(port.StoreMalformed, err)
	}

	if !s.store.Available() {
		return port.NewStoreError(port.StoreUnreachable, errors.New("store is not available"))
	}

	return s.store.UpsertCartLine(ctx, userID, productID, quantity)
}
