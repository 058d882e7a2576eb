package mystore

import (
	"context"
	"sync"
)

type InMemoryStore[T any] struct {
	sync.Mutex
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	if s.inTransaction(c) {
		// nested: already holding the lock
		return f(c)
	}

	// Start transaction
	s.Lock()
	defer s.Unlock()

	ctx := withTransaction(c, s, true)

	// Within this block everything is transactional
	return f(ctx)
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	nonTransactional := !s.inTransaction(c)

	if nonTransactional {
		s.Lock()
		defer s.Unlock()
	}

	s.Items[uid] = value

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	nonTransactional := !s.inTransaction(c)

	if nonTransactional {
		s.Lock()
		defer s.Unlock()
	}

	result, exists := s.Items[uid]

	return result, exists, nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	nonTransactional := !s.inTransaction(c)

	if nonTransactional {
		s.Lock()
		defer s.Unlock()
	}

	result := make([]T, 0, len(s.Items))
	for _, v := range s.Items {
		result = append(result, v)
	}

	return result, nil
}

func (s *InMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	return s.List(c)
}

func (s *InMemoryStore[T]) inTransaction(c context.Context) bool {
	return transactionOf(c, s) != nil
}
