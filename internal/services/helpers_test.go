package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/authz"
	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

type testEnv struct {
	store   *store.Memory
	now     time.Time
	catalog *Catalog
	carts   *Carts
	orders  *Orders
	auth    *Auth
	users   *Users
	admin   *Admin
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)}
	clock := func() time.Time { return env.now }
	env.store = store.NewMemory(store.WithClock(clock))

	logger := zap.NewNop()
	passwords := Passwords{Cost: bcrypt.MinCost}
	env.catalog = NewCatalog(env.store, logger)
	env.carts = NewCarts(env.store, clock, logger)
	env.orders = NewOrders(env.store, env.carts, clock, logger)
	env.auth = NewAuth(env.store, passwords, TokenConfig{Secret: "test-secret", TTL: time.Hour}, clock, logger)
	env.users = NewUsers(env.store, passwords, logger)
	env.admin = NewAdmin(env.store, passwords, AdminCredentials{Email: "admin@estore.pk", Password: "admin123"}, clock, logger)
	return env
}

func (env *testEnv) advance(d time.Duration) { env.now = env.now.Add(d) }

func (env *testEnv) addProduct(t *testing.T, name string, price int64, stock int) models.Product {
	t.Helper()
	p, err := env.store.Products().Create(context.Background(), models.Product{
		Name:     name,
		Price:    price,
		Category: "Electronics",
		Stock:    stock,
	})
	require.NoError(t, err)
	return p
}

func (env *testEnv) stockOf(t *testing.T, id int64) int {
	t.Helper()
	p, err := env.store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (env *testEnv) customer(t *testing.T, email string) authz.Subject {
	t.Helper()
	user, _, err := env.auth.Register(context.Background(), RegisterInput{
		Name:     "Ayesha Khan",
		Email:    email,
		Phone:    "0300-1234567",
		Password: "secret1",
	})
	require.NoError(t, err)
	return authz.Subject{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func (env *testEnv) adminSubject(t *testing.T) authz.Subject {
	t.Helper()
	admin, err := env.admin.Setup(context.Background())
	require.NoError(t, err)
	return authz.Subject{UserID: admin.ID, Email: admin.Email, Role: admin.Role}
}

var karachi = models.ShippingAddress{
	Name:    "Ayesha Khan",
	Phone:   "0300-1234567",
	Address: "House 12, Block 5, Clifton",
	City:    "Karachi",
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}

func zapNop() *zap.Logger { return zap.NewNop() }
