package mystore

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ctxTransactionKey is scoped per store, so transactions on different stores can nest.
type ctxTransactionKey struct {
	owner any
}

type Filter struct {
	Field   string
	Compare string
	Value   any
}

//go:generate mockgen -source=api.go -package mystore -destination store_mock.go Store
type Store[T any] interface {
	RunInTransaction(c context.Context, f func(c context.Context) error) error
	Put(c context.Context, uid string, value T) error
	Get(c context.Context, uid string) (T, bool, error)
	List(c context.Context) ([]T, error)
	Query(c context.Context, filters []Filter, orderByField string) ([]T, error)
}

// New picks the backend from the environment: Cloud Datastore, Redis or process memory.
func New[T any](c context.Context) (Store[T], func(), error) {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		return newGcloudStore[T](c)
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return newRedisStore[T](c, addr)
	}

	return NewInMemoryStore[T](c)
}

func kindOf[T any]() string {
	val := new(T)
	kind := fmt.Sprintf("%T", *val)
	if strings.Contains(kind, ".") {
		kind = kind[strings.LastIndex(kind, ".")+1:]
	}
	return kind
}

func withTransaction(c context.Context, owner any, tx any) context.Context {
	return context.WithValue(c, ctxTransactionKey{owner: owner}, tx)
}

func transactionOf(c context.Context, owner any) any {
	return c.Value(ctxTransactionKey{owner: owner})
}
