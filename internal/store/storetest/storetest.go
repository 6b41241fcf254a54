// Package storetest checks a store.Store implementation against the
// Collection and WithTx contract every backend must honour.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

// Run executes the contract against a fresh store from open for each case.
// Stores may come pre-seeded with products; no case depends on absolute ids.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, open(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("WithTxRollback", func(t *testing.T) { testWithTxRollback(t, open(t)) })
	t.Run("ConcurrentCreates", func(t *testing.T) { testConcurrentCreates(t, open(t)) })
}

func testCreateAndFind(t *testing.T, st store.Store) {
	ctx := context.Background()

	a, err := st.Users().Create(ctx, models.User{Name: "Ayesha", Email: "ayesha@example.pk", Password: "hash"})
	require.NoError(t, err)
	b, err := st.Users().Create(ctx, models.User{Name: "Bilal", Email: "bilal@example.pk"})
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := st.Users().FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "ayesha@example.pk", got.Email)
	assert.Equal(t, "hash", got.Password)

	got, err = st.Users().FindBy(ctx, "email", "bilal@example.pk")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = st.Users().FindBy(ctx, "email", "nobody@example.pk")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Users().FindByID(ctx, b.ID+1000)
	assert.ErrorIs(t, err, store.ErrNotFound)

	cart, err := st.Carts().Create(ctx, models.Cart{UserID: a.ID, Items: []models.CartItem{{ProductID: 3, Quantity: 2}}})
	require.NoError(t, err)
	found, err := st.Carts().FindBy(ctx, "userId", a.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)
}

func testUpdate(t *testing.T, st store.Store) {
	ctx := context.Background()
	p, err := st.Products().Create(ctx, models.Product{Name: "Lamp", Price: 1000, Category: "Home", Stock: 5})
	require.NoError(t, err)

	updated, err := st.Products().Update(ctx, p.ID, func(p *models.Product) error {
		p.Stock -= 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, p.ID, updated.ID)
	assert.NotNil(t, updated.UpdatedAt)

	boom := errors.New("boom")
	_, err = st.Products().Update(ctx, p.ID, func(p *models.Product) error {
		p.Stock = 0
		return boom
	})
	assert.ErrorIs(t, err, boom)
	stored, err := st.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)

	_, err = st.Products().Update(ctx, p.ID+1000, func(*models.Product) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDelete(t *testing.T, st store.Store) {
	ctx := context.Background()
	p, err := st.Products().Create(ctx, models.Product{Name: "Mug", Price: 600, Category: "Home"})
	require.NoError(t, err)

	require.NoError(t, st.Products().Delete(ctx, p.ID))
	_, err = st.Products().FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.Products().Delete(ctx, p.ID), store.ErrNotFound)
}

func testWithTxRollback(t *testing.T, st store.Store) {
	ctx := context.Background()
	p, err := st.Products().Create(ctx, models.Product{Name: "Kettle", Price: 3000, Category: "Home", Stock: 5})
	require.NoError(t, err)
	before, err := st.Orders().FindAll(ctx)
	require.NoError(t, err)

	failed := errors.New("payment rejected")
	err = st.WithTx(ctx, func(ctx context.Context) error {
		if _, err := st.Products().Update(ctx, p.ID, func(p *models.Product) error {
			p.Stock = 0
			return nil
		}); err != nil {
			return err
		}
		if _, err := st.Orders().Create(ctx, models.Order{UserID: 1, OrderID: "ORD-rollback"}); err != nil {
			return err
		}
		// nested transactions join the outer one
		return st.WithTx(ctx, func(context.Context) error { return failed })
	})
	assert.ErrorIs(t, err, failed)

	stored, err := st.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Stock)
	after, err := st.Orders().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func testConcurrentCreates(t *testing.T, st store.Store) {
	ctx := context.Background()
	const workers = 16

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]bool)
	)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var id int64
			err := st.WithTx(ctx, func(ctx context.Context) error {
				order, err := st.Orders().Create(ctx, models.Order{UserID: 1})
				id = order.ID
				return err
			})
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			ids[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, ids, workers)
}
