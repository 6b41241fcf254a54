package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/asadk95/estore/internal/models"
)

// Memory keeps every collection in process. A single mutex serializes all
// access; WithTx holds it for the whole function and restores a snapshot if
// the function fails, so read-modify-write sequences never interleave.
type Memory struct {
	mu    sync.Mutex
	now   func() time.Time
	dirty bool

	// persist runs after every committed write while mu is held. Only
	// collections flagged dirty by the transaction need writing.
	persist func() error

	products *memCollection[models.Product, *models.Product]
	users    *memCollection[models.User, *models.User]
	orders   *memCollection[models.Order, *models.Order]
	carts    *memCollection[models.Cart, *models.Cart]
}

type MemoryOption func(*Memory)

// WithClock overrides the time source used for createdAt/updatedAt stamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{now: time.Now}
	m.products = newMemCollection[models.Product](m, "products")
	m.users = newMemCollection[models.User](m, "users")
	m.orders = newMemCollection[models.Order](m, "orders")
	m.carts = newMemCollection[models.Cart](m, "carts")
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Products() Collection[models.Product] { return m.products }
func (m *Memory) Users() Collection[models.User]       { return m.users }
func (m *Memory) Orders() Collection[models.Order]     { return m.orders }
func (m *Memory) Carts() Collection[models.Cart]       { return m.carts }

func (m *Memory) Close(context.Context) error { return nil }

type memTxKey struct{}

func (m *Memory) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memTxKey{}).(*Memory)
	return owner == m
}

func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	m.dirty = false
	m.products.dirty, m.users.dirty, m.orders.dirty, m.carts.dirty = false, false, false, false
	if err := fn(context.WithValue(ctx, memTxKey{}, m)); err != nil {
		m.restore(snap)
		return err
	}
	if m.dirty && m.persist != nil {
		if err := m.persist(); err != nil {
			m.restore(snap)
			return fmt.Errorf("store: persist: %w", err)
		}
	}
	return nil
}

func (m *Memory) read(ctx context.Context, fn func()) {
	if m.inTx(ctx) {
		fn()
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

type memSnapshot struct {
	products []models.Product
	users    []models.User
	orders   []models.Order
	carts    []models.Cart
}

// snapshot copies the slices only. Stored records are never mutated in
// place, so sharing their nested slices with the snapshot is safe.
func (m *Memory) snapshot() memSnapshot {
	return memSnapshot{
		products: append([]models.Product(nil), m.products.records...),
		users:    append([]models.User(nil), m.users.records...),
		orders:   append([]models.Order(nil), m.orders.records...),
		carts:    append([]models.Cart(nil), m.carts.records...),
	}
}

func (m *Memory) restore(s memSnapshot) {
	m.products.records = s.products
	m.users.records = s.users
	m.orders.records = s.orders
	m.carts.records = s.carts
}

type memCollection[T any, P Record[T]] struct {
	m       *Memory
	name    string
	records []T
	dirty   bool
}

func (c *memCollection[T, P]) touch() {
	c.dirty = true
	c.m.dirty = true
}

func newMemCollection[T any, P Record[T]](m *Memory, name string) *memCollection[T, P] {
	return &memCollection[T, P]{m: m, name: name}
}

func (c *memCollection[T, P]) indexOf(id int64) int {
	for i := range c.records {
		if P(&c.records[i]).GetID() == id {
			return i
		}
	}
	return -1
}

func (c *memCollection[T, P]) nextID() int64 {
	var max int64
	for i := range c.records {
		if id := P(&c.records[i]).GetID(); id > max {
			max = id
		}
	}
	return max + 1
}

func (c *memCollection[T, P]) FindAll(ctx context.Context) ([]T, error) {
	return c.Filter(ctx, nil)
}

func (c *memCollection[T, P]) FindByID(ctx context.Context, id int64) (T, error) {
	var (
		out T
		err error
	)
	c.m.read(ctx, func() {
		i := c.indexOf(id)
		if i < 0 {
			err = fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
			return
		}
		out, err = deepCopy(c.records[i])
	})
	return out, err
}

func (c *memCollection[T, P]) FindBy(ctx context.Context, field string, value any) (T, error) {
	var (
		out T
		err error
	)
	c.m.read(ctx, func() {
		for i := range c.records {
			var ok bool
			ok, err = fieldEquals(&c.records[i], field, value)
			if err != nil {
				return
			}
			if ok {
				out, err = deepCopy(c.records[i])
				return
			}
		}
		err = fmt.Errorf("%s %s=%v: %w", c.name, field, value, ErrNotFound)
	})
	return out, err
}

func (c *memCollection[T, P]) Filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	var (
		out []T
		err error
	)
	c.m.read(ctx, func() {
		out = make([]T, 0, len(c.records))
		for _, rec := range c.records {
			if keep != nil && !keep(rec) {
				continue
			}
			var cp T
			if cp, err = deepCopy(rec); err != nil {
				return
			}
			out = append(out, cp)
		}
	})
	return out, err
}

func (c *memCollection[T, P]) Create(ctx context.Context, rec T) (T, error) {
	err := c.m.WithTx(ctx, func(context.Context) error {
		P(&rec).SetID(c.nextID())
		P(&rec).SetCreatedAt(c.m.now())
		stored, err := deepCopy(rec)
		if err != nil {
			return err
		}
		c.records = append(c.records, stored)
		c.touch()
		return nil
	})
	return rec, err
}

func (c *memCollection[T, P]) Update(ctx context.Context, id int64, apply func(*T) error) (T, error) {
	var out T
	err := c.m.WithTx(ctx, func(context.Context) error {
		i := c.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
		}
		cur, err := deepCopy(c.records[i])
		if err != nil {
			return err
		}
		if err := apply(&cur); err != nil {
			return err
		}
		P(&cur).SetID(id)
		P(&cur).SetUpdatedAt(c.m.now())
		stored, err := deepCopy(cur)
		if err != nil {
			return err
		}
		c.records[i] = stored
		c.touch()
		out = cur
		return nil
	})
	return out, err
}

func (c *memCollection[T, P]) Delete(ctx context.Context, id int64) error {
	return c.m.WithTx(ctx, func(context.Context) error {
		i := c.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
		}
		c.records = append(c.records[:i:i], c.records[i+1:]...)
		c.touch()
		return nil
	})
}

// deepCopy round-trips a record through BSON so callers never share nested
// slices with the stored copy.
func deepCopy[T any](rec T) (T, error) {
	var out T
	data, err := bson.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("store: copy record: %w", err)
	}
	if err := bson.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("store: copy record: %w", err)
	}
	return out, nil
}
