package app

import (
	"context"
	"errors"

	"shop-bot/internal/domain/entity"
	"shop-bot/internal/domain/port"
)

// UserService регистрирует покупателей в хранилище.
type UserService struct {
	store port.Store
}

func NewUserService(store port.Store) *UserService {
	return &UserService{store: store}
}

// Register сохраняет покупателя. При недоступном хранилище сразу
// возвращает ошибку недоступности, не делая попытки записи.
func (s *UserService) Register(ctx context.Context, user *entity.User) error {
	if user == nil || user.ID == 0 {
		return port.NewStoreError(port.StoreMalformed, errors.New("user without id"))
	}

	if !s.store.Available() {
		return port.NewStoreError(port.StoreUnreachable, errors.New("store is not available"))
	}

	return s.store.UpsertUser(ctx, user)
}
