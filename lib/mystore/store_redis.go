package mystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisStore keeps all entities of one kind in a single hash: field = uid, value = json.
type redisStore[T any] struct {
	sync.Mutex
	client *redis.Client
	kind   string
}

func newRedisStore[T any](c context.Context, redisAddr string) (*redisStore[T], func(), error) {
	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		// not a redis:// url: use it as plain host:port
		opts = &redis.Options{
			Addr:         redisAddr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(c, 5*time.Second)
	defer cancel()
	err = client.Ping(pingCtx).Err()
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("error connecting to redis on %s: %w", redisAddr, err)
	}

	return &redisStore[T]{
			client: client,
			kind:   kindOf[T](),
		}, func() {
			client.Close()
		}, nil
}

// RunInTransaction serializes writers within this process only.
func (s *redisStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	if transactionOf(c, s) != nil {
		return f(c)
	}

	s.Lock()
	defer s.Unlock()

	return f(withTransaction(c, s, true))
}

func (s *redisStore[T]) Put(c context.Context, uid string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error marshalling entity %s with uid %s: %w", s.kind, uid, err)
	}

	err = s.client.HSet(c, s.kind, uid, data).Err()
	if err != nil {
		return fmt.Errorf("error storing entity %s with uid %s: %w", s.kind, uid, err)
	}
	return nil
}

func (s *redisStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	var value T

	data, err := s.client.HGet(c, s.kind, uid).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("error fetching entity %s with uid %s: %w", s.kind, uid, err)
	}

	err = json.Unmarshal([]byte(data), &value)
	if err != nil {
		return value, false, fmt.Errorf("error unmarshalling entity %s with uid %s: %w", s.kind, uid, err)
	}

	return value, true, nil
}

func (s *redisStore[T]) List(c context.Context) ([]T, error) {
	all, err := s.client.HGetAll(c, s.kind).Result()
	if err != nil {
		return nil, fmt.Errorf("error fetching all entities %s: %w", s.kind, err)
	}

	result := make([]T, 0, len(all))
	for uid, data := range all {
		var value T
		err = json.Unmarshal([]byte(data), &value)
		if err != nil {
			return nil, fmt.Errorf("error unmarshalling entity %s with uid %s: %w", s.kind, uid, err)
		}
		result = append(result, value)
	}
	return result, nil
}

func (s *redisStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	return s.List(c)
}
