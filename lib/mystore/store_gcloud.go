package mystore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/datastore"
)

const maxTransactionAttempts = 3

type gcloudStore[T any] struct {
	client *datastore.Client
	kind   string
}

func newGcloudStore[T any](c context.Context) (*gcloudStore[T], func(), error) {
	projectId := os.Getenv("GOOGLE_CLOUD_PROJECT")
	client, err := datastore.NewClient(c, projectId)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating datastore-client: %s", err)
	}

	return &gcloudStore[T]{
			client: client,
			kind:   kindOf[T](),
		}, func() {
			client.Close()
		}, nil
}

func (s *gcloudStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	if s.transaction(c) != nil {
		return f(c)
	}

	var err error
	for i := 1; i <= maxTransactionAttempts; i++ {
		err = s.runInTransaction(c, f)
		if err != nil {
			if errors.Is(err, datastore.ErrConcurrentTransaction) {
				log.Printf("Concurrent transaction error, retrying (%d of %d): %s", i, maxTransactionAttempts, err)
				// force retry: this approach requires idempotency of the business logic
				continue
			}

			return err
		}
		return nil
	}
	return err
}

func (s *gcloudStore[T]) runInTransaction(c context.Context, f func(c context.Context) error) error {
	t, err := s.client.NewTransaction(c)
	if err != nil {
		return fmt.Errorf("error creating transaction: %w", err)
	}

	// Shadow original context with new transactional context
	err = f(withTransaction(c, s, t))
	if err != nil {
		log.Printf("Rolling back transaction %p due to error %s", t, err)

		rollbackError := t.Rollback()
		if rollbackError != nil {
			log.Printf("error rolling-back transaction %p: %s", t, rollbackError)
		}

		return err
	}

	_, err = t.Commit()
	if err != nil {
		return fmt.Errorf("error committing transaction %p: %w", t, err)
	}

	return nil
}

func (s *gcloudStore[T]) transaction(c context.Context) *datastore.Transaction {
	t, ok := transactionOf(c, s).(*datastore.Transaction)
	if !ok {
		return nil
	}
	return t
}

func (s *gcloudStore[T]) Put(c context.Context, uid string, value T) error {
	key := datastore.NameKey(s.kind, uid, nil)

	if t := s.transaction(c); t != nil {
		_, err := t.Put(key, &value)
		if err != nil {
			return fmt.Errorf("error transactionally storing entity %s with uid %s: %w", s.kind, uid, err)
		}
		return nil
	}

	_, err := s.client.Put(c, key, &value)
	if err != nil {
		return fmt.Errorf("error storing entity %s with uid %s: %w", s.kind, uid, err)
	}

	return nil
}

func (s *gcloudStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	value := new(T)
	key := datastore.NameKey(s.kind, uid, nil)

	var err error
	if t := s.transaction(c); t != nil {
		err = t.Get(key, value)
	} else {
		err = s.client.Get(c, key, value)
	}
	if err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return *value, false, nil
		}
		return *value, false, fmt.Errorf("error fetching entity %s with uid %s: %w", s.kind, uid, err)
	}

	return *value, true, nil
}

func (s *gcloudStore[T]) List(c context.Context) ([]T, error) {
	objectsToFetch := []T{}

	q := datastore.NewQuery(s.kind).Limit(100)
	if t := s.transaction(c); t != nil {
		q = q.Transaction(t)
	}

	_, err := s.client.GetAll(c, q, &objectsToFetch)
	if err != nil {
		return nil, fmt.Errorf("error fetching all entities %s: %w", s.kind, err)
	}
	return objectsToFetch, nil
}

func (s *gcloudStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	objectsToFetch := []T{}

	q := datastore.NewQuery(s.kind)
	for _, f := range filters {
		q = q.FilterField(f.Field, f.Compare, f.Value)
	}
	if orderByField != "" {
		q = q.Order(orderByField)
	}
	if t := s.transaction(c); t != nil {
		q = q.Transaction(t)
	}

	_, err := s.client.GetAll(c, q, &objectsToFetch)
	if err != nil {
		return nil, fmt.Errorf("error querying entities %s: %w", s.kind, err)
	}
	return objectsToFetch, nil
}
