package port

import (
	"errors"
	"fmt"
)

// StoreErrorKind классифицирует ошибки хранилища.
type StoreErrorKind string

const (
	StoreUnreachable StoreErrorKind = "unreachable" // бэкенд недоступен
	StoreMalformed   StoreErrorKind = "malformed"   // данные отвергнуты бэкендом
	StoreUnknown     StoreErrorKind = "unknown"     // прочие сбои
)

// StoreError — ошибка хранилища. За границу обработчика не выходит:
// обработчики переводят её в запись в логе или короткий ответ пользователю.
type StoreError struct {
	Kind StoreErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("store: %s", e.Kind)
	}
	return fmt.Sprintf("store: %s: %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError оборачивает ошибку бэкенда в классифицированную ошибку хранилища.
func NewStoreError(kind StoreErrorKind, err error) *StoreError {
	return &StoreError{Kind: kind, Err: err}
}

// Unreachable сообщает, вызвана ли ошибка недоступностью хранилища.
func Unreachable(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr) && serr.Kind == StoreUnreachable
}

// Malformed сообщает, отверг ли бэкенд сами данные.
func Malformed(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr) && serr.Kind == StoreMalformed
}
