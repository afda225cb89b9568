package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"shop-bot/internal/domain/entity"
	"shop-bot/internal/domain/port"
)

const (
	redisPingTimeout   = 5 * time.Second
	redisProbeInterval = 30 * time.Second
)

// RedisStore — хранилище в Redis: покупатели и корзины лежат в hash-ах.
// Политика слияния всегда replace: HSET перезаписывает поле товара.
type RedisStore struct {
	client *redis.Client

	healthy atomic.Bool

	stop      chan struct{}
	closeOnce sync.Once
}

// NewRedisStore подключается к Redis по URL вида redis://host:port/db.
// Пароль из STORE_KEY имеет приоритет над паролем в URL.
// Недоступный сервер не фатален: фоновая проверка продолжает попытки.
func NewRedisStore(rawURL, password string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}

	s := &RedisStore{
		client: redis.NewClient(opts),
		stop:   make(chan struct{}),
	}

	if err := s.probe(); err != nil {
		log.Printf("Redis is not reachable yet: %v", err)
	}

	go s.healthLoop()

	return s, nil
}

func (s *RedisStore) probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		s.healthy.Store(false)
		return err
	}

	s.healthy.Store(true)
	return nil
}

func (s *RedisStore) healthLoop() {
	ticker := time.NewTicker(redisProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			wasHealthy := s.healthy.Load()
			err := s.probe()
			if err == nil && !wasHealthy {
				log.Println("Redis is reachable again")
			}
		}
	}
}

// UpsertUser сохраняет атрибуты покупателя в hash user:<id>.
func (s *RedisStore) UpsertUser(ctx context.Context, user *entity.User) error {
	err := s.client.HSet(ctx, fmt.Sprintf("user:%d", user.ID),
		"username", user.Username,
		"first_name", user.FirstName,
		"last_name", user.LastName,
	).Err()

	return s.finish(err)
}

// UpsertCartLine записывает количество товара в hash cart:<userID>.
func (s *RedisStore) UpsertCartLine(ctx context.Context, userID int64, productID string, quantity int) error {
	if _, err := entity.NewCartLine(userID, productID, quantity); err != nil {
		return port.NewStoreError(port.StoreMalformed, err)
	}

	err := s.client.HSet(ctx, fmt.Sprintf("cart:%d", userID), productID, quantity).Err()
	return s.finish(err)
}

func (s *RedisStore) finish(err error) error {
	if err == nil {
		s.healthy.Store(true)
		return nil
	}

	serr := classifyRedis(err)
	if port.Unreachable(serr) {
		s.healthy.Store(false)
	}
	return serr
}

func classifyRedis(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded) {
		return port.NewStoreError(port.StoreUnreachable, err)
	}

	return port.NewStoreError(port.StoreUnknown, err)
}

// MergePolicy всегда replace: hash хранит одно количество на товар.
func (s *RedisStore) MergePolicy() port.MergePolicy {
	return port.MergeReplace
}

// Available возвращает последнее известное состояние сервера; сеть не трогает.
func (s *RedisStore) Available() bool {
	return s.healthy.Load()
}

// Close останавливает фоновую проверку и закрывает клиент.
func (s *RedisStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return s.client.Close()
}

// Проверка реализации интерфейса
var _ port.Store = (*RedisStore)(nil)
