package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"shop-bot/internal/domain/entity"
	"shop-bot/internal/domain/port"
)

const (
	pgPingTimeout   = 5 * time.Second
	pgProbeInterval = 30 * time.Second
)

// PostgresStore — хранилище в облачном Postgres.
// Идемпотентность записей обеспечивается транзакционным upsert самой базы.
type PostgresStore struct {
	db     *sqlx.DB
	policy port.MergePolicy

	healthy     atomic.Bool
	schemaReady atomic.Bool

	stop      chan struct{}
	closeOnce sync.Once
}

// NewPostgresStore открывает пул соединений к Postgres.
// Недоступная база не считается фатальной: бот стартует в
// деградированном режиме, фоновая проверка продолжает попытки.
func NewPostgresStore(dsn string, policy port.MergePolicy) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresStore{
		db:     db,
		policy: policy,
		stop:   make(chan struct{}),
	}

	if err := s.probe(); err != nil {
		log.Printf("Postgres is not reachable yet: %v", err)
	}

	go s.healthLoop()

	return s, nil
}

// probe проверяет соединение и при первом успехе создаёт схему.
func (s *PostgresStore) probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), pgPingTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.healthy.Store(false)
		return err
	}

	if !s.schemaReady.Load() {
		if err := s.ensureSchema(ctx); err != nil {
			s.healthy.Store(false)
			return err
		}
		s.schemaReady.Store(true)
	}

	s.healthy.Store(true)
	return nil
}

func (s *PostgresStore) healthLoop() {
	ticker := time.NewTicker(pgProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			wasHealthy := s.healthy.Load()
			err := s.probe()
			if err == nil && !wasHealthy {
				log.Println("Postgres is reachable again")
			}
		}
	}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const tables = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS cart_lines (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	if _, err := s.db.ExecContext(ctx, tables); err != nil {
		return err
	}

	// Уникальный индекс нужен только политике replace: upsert по нему.
	if s.policy == port.MergeReplace {
		const index = `CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_user_product
			ON cart_lines(user_id, product_id)`
		if _, err := s.db.ExecContext(ctx, index); err != nil {
			return err
		}
	}

	return nil
}

// UpsertUser создаёт или обновляет покупателя; побеждают последние атрибуты.
func (s *PostgresStore) UpsertUser(ctx context.Context, user *entity.User) error {
	const query = `
		INSERT INTO users (id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name`

	_, err := s.db.ExecContext(ctx, query, user.ID, user.Username, user.FirstName, user.LastName)
	return s.finish(err)
}

// UpsertCartLine записывает позицию корзины.
// Политика replace перезаписывает количество, append добавляет строку.
func (s *PostgresStore) UpsertCartLine(ctx context.Context, userID int64, productID string, quantity int) error {
	if _, err := entity.NewCartLine(userID, productID, quantity); err != nil {
		return port.NewStoreError(port.StoreMalformed, err)
	}

	query := `INSERT INTO cart_lines (user_id, product_id, quantity) VALUES ($1, $2, $3)`
	if s.policy == port.MergeReplace {
		query += `
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			added_at = NOW()`
	}

	_, err := s.db.ExecContext(ctx, query, userID, productID, quantity)
	return s.finish(err)
}

// finish обновляет флаг доступности по исходу операции и классифицирует ошибку.
func (s *PostgresStore) finish(err error) error {
	if err == nil {
		s.healthy.Store(true)
		return nil
	}

	serr := classifyPostgres(err)
	if port.Unreachable(serr) {
		s.healthy.Store(false)
	}
	return serr
}

// classifyPostgres переводит ошибку драйвера в таксономию хранилища.
func classifyPostgres(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23": // некорректные данные, нарушение ограничений
			return port.NewStoreError(port.StoreMalformed, err)
		case "08": // сбой соединения
			return port.NewStoreError(port.StoreUnreachable, err)
		}
		return port.NewStoreError(port.StoreUnknown, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return port.NewStoreError(port.StoreUnreachable, err)
	}

	return port.NewStoreError(port.StoreUnknown, err)
}

// MergePolicy сообщает политику слияния, выбранную при создании.
func (s *PostgresStore) MergePolicy() port.MergePolicy {
	return s.policy
}

// Available возвращает последнее известное состояние базы; сеть не трогает.
func (s *PostgresStore) Available() bool {
	return s.healthy.Load()
}

// Close останавливает фоновую проверку и закрывает пул.
func (s *PostgresStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return s.db.Close()
}

// Проверка реализации интерфейса
var _ port.Store = (*PostgresStore)(nil)
