// Package store holds the record repositories backing products, users,
// orders and carts. Every backend exposes the same Collection contract and a
// WithTx hook so multi-record mutations (order placement, cancellation) are
// applied atomically.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/asadk95/estore/internal/models"
)

// ErrNotFound is returned when no record matches an id or field lookup.
var ErrNotFound = errors.New("record not found")

// Record is satisfied by pointers to the model types, all of which embed
// models.Base.
type Record[T any] interface {
	*T
	GetID() int64
	SetID(id int64)
	SetCreatedAt(t time.Time)
	SetUpdatedAt(t time.Time)
}

// Collection is CRUD over a list of records with numeric ids.
//
// Update loads the record, hands it to apply and persists the result. An
// error from apply aborts the update without writing anything.
type Collection[T any] interface {
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id int64) (T, error)
	FindBy(ctx context.Context, field string, value any) (T, error)
	Filter(ctx context.Context, keep func(T) bool) ([]T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id int64, apply func(*T) error) (T, error)
	Delete(ctx context.Context, id int64) error
}

type Store interface {
	Products() Collection[models.Product]
	Users() Collection[models.User]
	Orders() Collection[models.Order]
	Carts() Collection[models.Cart]

	// WithTx runs fn as one atomic unit. Store calls made with the context
	// passed to fn join the transaction; an error from fn rolls it back.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Close(ctx context.Context) error
}
