// Package rediscache implements a storage layer backed by an external Redis
// cache service. Аналог Cache API в service worker: отдельный контекст
// исполнения, к которому слой обращается не напрямую, а сообщениями.
// Доступ к клиенту сериализован через воркер-горутину: Store/Retrieve
// отправляют запрос с каналом ответа и ждут реплику на нем.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iudanet/japakeeper/internal/codec"
	"github.com/iudanet/japakeeper/internal/storage"
)

const (
	// LayerName — имя слоя в статусах и логах
	LayerName = "rediscache"

	// keyPrefix отделяет наши записи от чужих в общем Redis
	keyPrefix = "japakeeper:"

	connectTimeout = 5 * time.Second
)

// Operation types of the worker message protocol
const (
	opStoreData = "STORE_DATA"
	opGetData   = "GET_DATA"
	opDelete    = "DELETE_DATA"
)

// request — сообщение воркеру; reply играет роль message port:
// воркер отвечает ровно один раз именно на этот канал
type request struct {
	op    string
	key   string
	value string
	reply chan response
}

type response struct {
	value string
	err   error
}

// Storage is the redis-backed cache layer
type Storage struct {
	client   *redis.Client
	requests chan request
	done     chan struct{}
}

var _ storage.Layer = (*Storage)(nil)

// New connects to the Redis cache service at addr and starts the worker.
// Недоступный Redis — штатная ситуация для многослойной схемы: ошибка
// здесь означает лишь, что слой не участвует в этом запуске.
func New(ctx context.Context, addr string) (*Storage, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	// Проверяем соединение
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s := &Storage{
		client:   client,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	go s.worker()

	return s, nil
}

// NewWithClient wraps an existing client (used by tests with miniredis)
func NewWithClient(client *redis.Client) *Storage {
	s := &Storage{
		client:   client,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	go s.worker()
	return s
}

// worker владеет клиентом и последовательно обслуживает сообщения
func (s *Storage) worker() {
	for {
		select {
		case <-s.done:
			return
		case req := <-s.requests:
			req.reply <- s.handle(req)
		}
	}
}

func (s *Storage) handle(req request) response {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch req.op {
	case opStoreData:
		// Запечатываем: внешнему кешу доверяем меньше всего
		sealed, err := codec.Seal(req.value)
		if err != nil {
			return response{err: err}
		}
		if err := s.client.Set(ctx, keyPrefix+req.key, sealed, 0).Err(); err != nil {
			return response{err: fmt.Errorf("failed to store in redis: %w", err)}
		}
		return response{}

	case opGetData:
		sealed, err := s.client.Get(ctx, keyPrefix+req.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return response{err: storage.ErrNotFound}
			}
			return response{err: fmt.Errorf("failed to read from redis: %w", err)}
		}
		value, err := codec.OpenSealed(sealed)
		if err != nil {
			// Порченая или чужая запись == отсутствие значения
			return response{err: storage.ErrNotFound}
		}
		return response{value: value}

	case opDelete:
		if err := s.client.Del(ctx, keyPrefix+req.key).Err(); err != nil {
			return response{err: fmt.Errorf("failed to delete from redis: %w", err)}
		}
		return response{}

	default:
		return response{err: fmt.Errorf("unknown operation %q", req.op)}
	}
}

// send доставляет сообщение воркеру и ждет ответ на reply-канале
func (s *Storage) send(ctx context.Context, req request) (string, error) {
	req.reply = make(chan response, 1)

	select {
	case s.requests <- req:
	case <-s.done:
		return "", storage.ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.value, resp.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Name returns the layer identifier
func (s *Storage) Name() string { return LayerName }

// Store persists the value under key via the worker protocol
func (s *Storage) Store(ctx context.Context, key, value string) error {
	_, err := s.send(ctx, request{op: opStoreData, key: key, value: value})
	return err
}

// Retrieve returns the stored value or storage.ErrNotFound
func (s *Storage) Retrieve(ctx context.Context, key string) (string, error) {
	return s.send(ctx, request{op: opGetData, key: key})
}

// Delete removes the key; deleting an absent key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.send(ctx, request{op: opDelete, key: key})
	return err
}

// Close stops the worker and closes the client
func (s *Storage) Close() error {
	select {
	case <-s.done:
		return nil // уже закрыт
	default:
		close(s.done)
	}
	return s.client.Close()
}
