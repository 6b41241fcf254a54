package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/models"
)

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	env.adminSubject(t)
	lamp := env.addProduct(t, "Lamp", 1000, 50)
	env.addProduct(t, "Mug", 600, 3)
	in := CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items:           []OrderLineInput{{ProductID: lamp.ID, Quantity: 2}},
	}

	// last month, delivered
	env.now = time.Date(2024, 2, 20, 10, 0, 0, 0, time.Local)
	old, err := env.orders.Create(ctx, user.UserID, in)
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(ctx, old.ID, "delivered", "")
	require.NoError(t, err)

	// earlier this month, delivered
	env.now = time.Date(2024, 3, 2, 10, 0, 0, 0, time.Local)
	early, err := env.orders.Create(ctx, user.UserID, in)
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(ctx, early.ID, "delivered", "")
	require.NoError(t, err)

	// today
	env.now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		_, err := env.orders.Create(ctx, user.UserID, in)
		require.NoError(t, err)
		env.advance(time.Minute)
	}
	latest, err := env.orders.Create(ctx, user.UserID, in)
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(ctx, latest.ID, "processing", "")
	require.NoError(t, err)

	dashboard, err := env.admin.Stats(ctx)
	require.NoError(t, err)
	stats := dashboard.Stats
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 8, stats.TotalOrders)
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 6, stats.OrdersToday)
	assert.Equal(t, int64(4000), stats.TotalRevenue)
	assert.Equal(t, int64(2000), stats.MonthlyRevenue)
	assert.Equal(t, 5, stats.PendingOrders)
	assert.Equal(t, 1, stats.ProcessingOrders)
	assert.Equal(t, 1, stats.LowStockProducts)

	require.Len(t, dashboard.RecentOrders, 5)
	assert.Equal(t, latest.ID, dashboard.RecentOrders[0].ID)
	for i := 1; i < len(dashboard.RecentOrders); i++ {
		assert.False(t, dashboard.RecentOrders[i].CreatedAt.After(dashboard.RecentOrders[i-1].CreatedAt))
	}
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminSubject(t)
	user := env.customer(t, "ayesha@example.pk")

	users, stats, err := env.admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, UserStats{Total: 2, Admins: 1, Customers: 1}, stats)

	_, err = env.admin.UpdateUser(ctx, admin, admin.UserID, nil, strp(models.StatusSuspended))
	requireKind(t, err, apperror.KindConflict)
	assert.Equal(t, "Cannot modify your own account from here", err.Error())

	_, err = env.admin.UpdateUser(ctx, admin, user.UserID, strp("superuser"), nil)
	requireKind(t, err, apperror.KindValidation)

	_, err = env.admin.UpdateUser(ctx, admin, 999, nil, strp(models.StatusSuspended))
	requireKind(t, err, apperror.KindNotFound)

	updated, err := env.admin.UpdateUser(ctx, admin, user.UserID, strp(models.RoleAdmin), strp(models.StatusSuspended))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, models.StatusSuspended, updated.Status)

	updated, err = env.admin.SetRole(ctx, user.UserID, models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, updated.Role)

	_, err = env.admin.SetRole(ctx, user.UserID, "owner")
	requireKind(t, err, apperror.KindValidation)
}

func TestSetupOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.admin.Setup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin@estore.pk", admin.Email)
	assert.True(t, admin.IsAdmin())

	_, _, err = env.auth.Login(ctx, "admin@estore.pk", "admin123")
	require.NoError(t, err)

	_, err = env.admin.Setup(ctx)
	requireKind(t, err, apperror.KindConflict)
}
