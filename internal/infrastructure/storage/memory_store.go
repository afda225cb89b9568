package storage

import (
	"context"
	"sync"

	"shop-bot/internal/domain/entity"
	"shop-bot/internal/domain/port"
)

// MemoryStore — in-memory хранилище покупателей и корзин.
// Политика слияния задаётся при создании; блокировки держатся
// только на время изменения map, не через сетевые вызовы.
type MemoryStore struct {
	policy port.MergePolicy

	usersMu sync.RWMutex
	users   map[int64]entity.User

	cartsMu sync.RWMutex
	carts   map[int64][]entity.CartLine
}

// NewMemoryStore создаёт новое in-memory хранилище с указанной политикой слияния.
func NewMemoryStore(policy port.MergePolicy) *MemoryStore {
	return &MemoryStore{
		policy: policy,
		users:  make(map[int64]entity.User),
		carts:  make(map[int64][]entity.CartLine),
	}
}

// UpsertUser сохраняет покупателя; повторный вызов перезаписывает атрибуты.
func (s *MemoryStore) UpsertUser(ctx context.Context, user *entity.User) error {
	_ = ctx

	s.usersMu.Lock()
	s.users[user.ID] = *user
	s.usersMu.Unlock()

	return nil
}

// UpsertCartLine записывает позицию корзины согласно политике слияния.
func (s *MemoryStore) UpsertCartLine(ctx context.Context, userID int64, productID string, quantity int) error {
	_ = ctx

	line, err := entity.NewCartLine(userID, productID, quantity)
	if err != nil {
		return port.NewStoreError(port.StoreMalformed, err)
	}

	s.cartsMu.Lock()
	defer s.cartsMu.Unlock()

	if s.policy == port.MergeReplace {
		lines := s.carts[userID]
		for i := range lines {
			if lines[i].ProductID == productID {
				lines[i].Quantity = quantity
				return nil
			}
		}
	}

	s.carts[userID] = append(s.carts[userID], *line)
	return nil
}

// MergePolicy сообщает политику слияния, выбранную при создании.
func (s *MemoryStore) MergePolicy() port.MergePolicy {
	return s.policy
}

// Available всегда true: память процесса недоступной не бывает.
func (s *MemoryStore) Available() bool {
	return true
}

// Close ничего не освобождает.
func (s *MemoryStore) Close() error {
	return nil
}

// GetUser возвращает сохранённого покупателя.
func (s *MemoryStore) GetUser(id int64) (entity.User, bool) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	user, ok := s.users[id]
	return user, ok
}

// UserCount возвращает число сохранённых покупателей.
func (s *MemoryStore) UserCount() int {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	return len(s.users)
}

// CartLines возвращает копию позиций корзины покупателя.
func (s *MemoryStore) CartLines(userID int64) []entity.CartLine {
	s.cartsMu.RLock()
	defer s.cartsMu.RUnlock()

	lines := make([]entity.CartLine, len(s.carts[userID]))
	copy(lines, s.carts[userID])
	return lines
}

// Проверка реализации интерфейса
var _ port.Store = (*MemoryStore)(nil)
