package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asadk95/estore/internal/apperror"
)

func TestCartViewTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)
	mug := env.addProduct(t, "Mug", 600, 10)

	_, err := env.carts.AddItem(ctx, user.UserID, lamp.ID, 1)
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, user.UserID, mug.ID, 2)
	require.NoError(t, err)

	view, err := env.carts.View(ctx, user.UserID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, int64(2200), view.Subtotal)
	assert.Equal(t, int64(0), view.Shipping)
	assert.Equal(t, int64(2200), view.Total)
	assert.Equal(t, "Lamp", view.Items[0].Product.Name)
}

func TestCartViewChargesShippingBelowThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	mug := env.addProduct(t, "Mug", 600, 10)

	_, err := env.carts.AddItem(ctx, user.UserID, mug.ID, 3)
	require.NoError(t, err)

	view, err := env.carts.View(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), view.Subtotal)
	assert.Equal(t, int64(200), view.Shipping)
	assert.Equal(t, int64(2000), view.Total)
}

func TestCartViewWithoutCartDoesNotCreateOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")

	view, err := env.carts.View(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(0), view.Subtotal)
	assert.Equal(t, int64(200), view.Shipping)
	assert.Equal(t, int64(200), view.Total)

	carts, err := env.store.Carts().FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, carts)
}

func TestCartAddRechecksCumulativeQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)

	_, err := env.carts.AddItem(ctx, user.UserID, lamp.ID, 3)
	require.NoError(t, err)

	_, err = env.carts.AddItem(ctx, user.UserID, lamp.ID, 3)
	requireKind(t, err, apperror.KindConflict)

	cart, err := env.carts.AddItem(ctx, user.UserID, lamp.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartAddValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)

	_, err := env.carts.AddItem(ctx, user.UserID, 999, 1)
	requireKind(t, err, apperror.KindNotFound)

	_, err = env.carts.AddItem(ctx, user.UserID, lamp.ID, 0)
	requireKind(t, err, apperror.KindValidation)

	_, err = env.carts.AddItem(ctx, user.UserID, lamp.ID, 6)
	requireKind(t, err, apperror.KindConflict)
}

func TestCartUpdateRemoveClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)
	mug := env.addProduct(t, "Mug", 600, 10)

	_, err := env.carts.UpdateQuantity(ctx, user.UserID, lamp.ID, 1)
	requireKind(t, err, apperror.KindNotFound)

	_, err = env.carts.AddItem(ctx, user.UserID, lamp.ID, 1)
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, user.UserID, mug.ID, 1)
	require.NoError(t, err)

	cart, err := env.carts.UpdateQuantity(ctx, user.UserID, lamp.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	_, err = env.carts.UpdateQuantity(ctx, user.UserID, lamp.ID, 6)
	requireKind(t, err, apperror.KindConflict)
	_, err = env.carts.UpdateQuantity(ctx, user.UserID, lamp.ID, 0)
	requireKind(t, err, apperror.KindValidation)

	require.NoError(t, env.carts.RemoveItem(ctx, user.UserID, lamp.ID))
	view, err := env.carts.View(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, mug.ID, view.Items[0].ProductID)

	require.NoError(t, env.carts.Clear(ctx, user.UserID))
	view, err = env.carts.View(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartViewDropsDeletedProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)
	mug := env.addProduct(t, "Mug", 600, 10)

	_, err := env.carts.AddItem(ctx, user.UserID, lamp.ID, 1)
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, user.UserID, mug.ID, 1)
	require.NoError(t, err)
	require.NoError(t, env.catalog.Delete(ctx, lamp.ID))

	view, err := env.carts.View(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(600), view.Subtotal)
	assert.Equal(t, int64(200), view.Shipping)
}

func TestCartViewChargesShippingWhenEveryProductIsGone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	vase := env.addProduct(t, "Vase", 500, 5)

	_, err := env.carts.AddItem(ctx, user.UserID, vase.ID, 1)
	require.NoError(t, err)
	require.NoError(t, env.catalog.Delete(ctx, vase.ID))

	view, err := env.carts.View(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(0), view.Subtotal)
	assert.Equal(t, int64(200), view.Shipping)
	assert.Equal(t, int64(200), view.Total)
}

func TestShippingFor(t *testing.T) {
	assert.Equal(t, int64(200), ShippingFor(0))
	assert.Equal(t, int64(200), ShippingFor(1999))
	assert.Equal(t, int64(0), ShippingFor(2000))
	assert.Equal(t, int64(0), ShippingFor(25000))
}
