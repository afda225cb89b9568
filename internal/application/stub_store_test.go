package app

import (
	"context"

	"shop-bot/internal/domain/entity"
	"shop-bot/internal/domain/port"
)

// stubStore — хранилище для тестов: считает вызовы и отдаёт заданную ошибку.
type stubStore struct {
	available bool
	err       error

	userUpserts int
	lineUpserts int
}

func (s *stubStore) UpsertUser(ctx context.Context, user *entity.User) error {
	s.userUpserts++
	return s.err
}

func (s *stubStore) UpsertCartLine(ctx context.Context, userID int64, productID string, quantity int) error {
	s.lineUpserts++
	return s.err
}

func (s *stubStore) MergePolicy() port.MergePolicy { return port.MergeReplace }
func (s *stubStore) Available() bool               { return s.available }
func (s *stubStore) Close() error                  { return nil }

var _ port.Store = (*stubStore)(nil)
