package port

import (
	"context"

	"shop-bot/internal/domain/entity"
)

// MergePolicy — политика слияния повторных добавлений одного товара.
type MergePolicy string

const (
	// MergeReplace — количество в существующей позиции перезаписывается.
	MergeReplace MergePolicy = "replace"
	// MergeAppend — каждое событие добавляет новую позицию.
	MergeAppend MergePolicy = "append"
)

// Store — порт хранилища покупателей и корзин.
type Store interface {
	// UpsertUser создаёт или обновляет покупателя; идемпотентна,
	// при повторном вызове побеждают последние атрибуты.
	UpsertUser(ctx context.Context, user *entity.User) error

	// UpsertCartLine записывает позицию корзины согласно политике слияния.
	UpsertCartLine(ctx context.Context, userID int64, productID string, quantity int) error

	// MergePolicy сообщает политику слияния данной реализации.
	MergePolicy() MergePolicy

	// Available — неблокирующая проверка доступности хранилища.
	// При false обработчики не делают попыток записи.
	Available() bool

	// Close освобождает ресурсы хранилища.
	Close() error
}
