package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/models"
)

func TestCreateOrderTotalsAndStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)
	mug := env.addProduct(t, "Mug", 600, 10)

	order, err := env.orders.Create(ctx, user.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentJazzCash,
		Items: []OrderLineInput{
			{ProductID: lamp.ID, Quantity: 1},
			{ProductID: mug.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2200), order.Subtotal)
	assert.Equal(t, int64(0), order.Shipping)
	assert.Equal(t, int64(50), order.ProcessingFee)
	assert.Equal(t, order.Subtotal+order.Shipping+order.ProcessingFee, order.Total)

	var sum int64
	for _, line := range order.Items {
		sum += line.Price * int64(line.Quantity)
	}
	assert.Equal(t, order.Subtotal, sum)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentAwaiting, order.PaymentStatus)
	require.Len(t, order.Timeline, 1)
	assert.Equal(t, "Order placed", order.Timeline[0].Note)
	assert.Regexp(t, `^ORD-\d+$`, order.OrderID)

	assert.Equal(t, 4, env.stockOf(t, lamp.ID))
	assert.Equal(t, 8, env.stockOf(t, mug.ID))
}

func TestCreateOrderSmallSubtotalPaysShipping(t *testing.T) {
	env := newTestEnv(t)
	user := env.customer(t, "ayesha@example.pk")
	mug := env.addProduct(t, "Mug", 600, 10)

	order, err := env.orders.Create(context.Background(), user.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items:           []OrderLineInput{{ProductID: mug.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), order.Shipping)
	assert.Equal(t, int64(800), order.Total)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
}

func TestCreateOrderBankTransferCarriesBankDetails(t *testing.T) {
	env := newTestEnv(t)
	user := env.customer(t, "ayesha@example.pk")
	mug := env.addProduct(t, "Mug", 600, 10)

	order, err := env.orders.Create(context.Background(), user.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentBank,
		Items:           []OrderLineInput{{ProductID: mug.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, order.PaymentDetails.BankDetails)
	assert.Equal(t, "Allied Bank", order.PaymentDetails.BankDetails.BankName)
	assert.Equal(t, models.PaymentAwaiting, order.PaymentStatus)
}

func TestCreateOrderRejectsInsufficientStockWithoutMutation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	mug := env.addProduct(t, "Mug", 600, 10)
	lamp := env.addProduct(t, "Lamp", 1000, 2)

	_, err := env.orders.Create(ctx, user.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items: []OrderLineInput{
			{ProductID: mug.ID, Quantity: 3},
			{ProductID: lamp.ID, Quantity: 3},
		},
	})
	requireKind(t, err, apperror.KindConflict)
	assert.Contains(t, err.Error(), "Insufficient stock for Lamp")

	assert.Equal(t, 10, env.stockOf(t, mug.ID))
	assert.Equal(t, 2, env.stockOf(t, lamp.ID))
	orders, err := env.orders.ListForUser(ctx, user.UserID, "")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderSumsRepeatedLines(t *testing.T) {
	env := newTestEnv(t)
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 3)

	_, err := env.orders.Create(context.Background(), user.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items: []OrderLineInput{
			{ProductID: lamp.ID, Quantity: 2},
			{ProductID: lamp.ID, Quantity: 2},
		},
	})
	requireKind(t, err, apperror.KindConflict)
	assert.Equal(t, 3, env.stockOf(t, lamp.ID))
}

func TestSequentialOrdersForLastUnits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)
	in := CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items:           []OrderLineInput{{ProductID: lamp.ID, Quantity: 3}},
	}

	_, err := env.orders.Create(ctx, user.UserID, in)
	require.NoError(t, err)
	assert.Equal(t, 2, env.stockOf(t, lamp.ID))

	_, err = env.orders.Create(ctx, user.UserID, in)
	requireKind(t, err, apperror.KindConflict)
	assert.Equal(t, 2, env.stockOf(t, lamp.ID))
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.orders.Create(context.Background(), user.UserID, CreateOrderInput{
				ShippingAddress: karachi,
				PaymentMethod:   PaymentCOD,
				Items:           []OrderLineInput{{ProductID: lamp.ID, Quantity: 1}},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, env.stockOf(t, lamp.ID))
}

func TestCreateOrderFromCartClearsCart(t *testing.T) {
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

	order, err := env.orders.Create(ctx, user.UserID, CreateOrderInput{ShippingAddress: karachi, PaymentMethod: PaymentCOD})
	require.NoError(t, err)
	assert.Equal(t, view.Subtotal, order.Subtotal)
	assert.Equal(t, view.Shipping, order.Shipping)

	view, err = env.carts.View(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	mug := env.addProduct(t, "Mug", 600, 10)
	line := []OrderLineInput{{ProductID: mug.ID, Quantity: 1}}

	_, err := env.orders.Create(ctx, user.UserID, CreateOrderInput{ShippingAddress: models.ShippingAddress{Name: "A"}, PaymentMethod: PaymentCOD, Items: line})
	requireKind(t, err, apperror.KindValidation)

	_, err = env.orders.Create(ctx, user.UserID, CreateOrderInput{ShippingAddress: karachi, PaymentMethod: "paypal", Items: line})
	requireKind(t, err, apperror.KindValidation)

	_, err = env.orders.Create(ctx, user.UserID, CreateOrderInput{ShippingAddress: karachi, PaymentMethod: PaymentCOD})
	requireKind(t, err, apperror.KindValidation)
	assert.Contains(t, err.Error(), "Cart is empty")

	_, err = env.orders.Create(ctx, user.UserID, CreateOrderInput{ShippingAddress: karachi, PaymentMethod: PaymentCOD, Items: []OrderLineInput{{ProductID: mug.ID}}})
	requireKind(t, err, apperror.KindValidation)

	_, err = env.orders.Create(ctx, user.UserID, CreateOrderInput{ShippingAddress: karachi, PaymentMethod: PaymentCOD, Items: []OrderLineInput{{ProductID: 999, Quantity: 1}}})
	requireKind(t, err, apperror.KindConflict)
}

func TestCancelRestoresStockOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)

	order, err := env.orders.Create(ctx, user.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items:           []OrderLineInput{{ProductID: lamp.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, env.stockOf(t, lamp.ID))

	cancelled, err := env.orders.Cancel(ctx, user, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, 5, env.stockOf(t, lamp.ID))
	last := cancelled.Timeline[len(cancelled.Timeline)-1]
	assert.Equal(t, models.OrderCancelled, last.Status)

	_, err = env.orders.Cancel(ctx, user, order.ID)
	requireKind(t, err, apperror.KindConflict)
	assert.Equal(t, 5, env.stockOf(t, lamp.ID))
}

func TestCancelByStrangerForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.customer(t, "owner@example.pk")
	stranger := env.customer(t, "stranger@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)

	order, err := env.orders.Create(ctx, owner.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items:           []OrderLineInput{{ProductID: lamp.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.orders.Cancel(ctx, stranger, order.ID)
	requireKind(t, err, apperror.KindForbidden)
	assert.Equal(t, 4, env.stockOf(t, lamp.ID))

	_, err = env.orders.Get(ctx, stranger, order.ID)
	requireKind(t, err, apperror.KindForbidden)

	admin := env.adminSubject(t)
	_, err = env.orders.Cancel(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, env.stockOf(t, lamp.ID))
}

func TestCancelSkipsDeletedProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)
	mug := env.addProduct(t, "Mug", 600, 5)

	order, err := env.orders.Create(ctx, user.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items: []OrderLineInput{
			{ProductID: lamp.ID, Quantity: 1},
			{ProductID: mug.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.NoError(t, env.catalog.Delete(ctx, lamp.ID))

	_, err = env.orders.Cancel(ctx, user, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, env.stockOf(t, mug.ID))
}

func TestUpdateStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)

	order, err := env.orders.Create(ctx, user.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentJazzCash,
		Items:           []OrderLineInput{{ProductID: lamp.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := env.orders.UpdateStatus(ctx, order.ID, "confirmed", "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentAwaiting, updated.PaymentStatus)
	assert.Equal(t, "Status changed to confirmed", updated.Timeline[len(updated.Timeline)-1].Note)

	updated, err = env.orders.UpdateStatus(ctx, order.ID, "shipped", "Handed to TCS")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentAwaiting, updated.PaymentStatus)
	assert.Equal(t, "Handed to TCS", updated.Timeline[len(updated.Timeline)-1].Note)

	_, err = env.orders.UpdateStatus(ctx, order.ID, "processing", "")
	requireKind(t, err, apperror.KindConflict)

	_, err = env.orders.UpdateStatus(ctx, order.ID, "cancelled", "")
	requireKind(t, err, apperror.KindConflict)

	updated, err = env.orders.UpdateStatus(ctx, order.ID, "delivered", "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, updated.Status)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.Len(t, updated.Timeline, 4)

	_, err = env.orders.UpdateStatus(ctx, order.ID, "delivered", "")
	requireKind(t, err, apperror.KindConflict)

	_, err = env.orders.UpdateStatus(ctx, order.ID, "lost", "")
	requireKind(t, err, apperror.KindValidation)

	_, err = env.orders.UpdateStatus(ctx, 999, "confirmed", "")
	requireKind(t, err, apperror.KindNotFound)
}

func TestUpdateStatusToCancelledRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)

	order, err := env.orders.Create(ctx, user.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items:           []OrderLineInput{{ProductID: lamp.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	updated, err := env.orders.UpdateStatus(ctx, order.ID, "cancelled", "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, updated.Status)
	assert.Equal(t, models.PaymentPending, updated.PaymentStatus)
	assert.Equal(t, 5, env.stockOf(t, lamp.ID))
}

func TestSubmitPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.customer(t, "owner@example.pk")
	stranger := env.customer(t, "stranger@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 5)

	order, err := env.orders.Create(ctx, owner.UserID, CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentBank,
		Items:           []OrderLineInput{{ProductID: lamp.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.orders.SubmitPayment(ctx, stranger, order.ID, "TX-1", "")
	requireKind(t, err, apperror.KindForbidden)

	_, err = env.orders.SubmitPayment(ctx, owner, order.ID, "", "")
	requireKind(t, err, apperror.KindValidation)

	updated, err := env.orders.SubmitPayment(ctx, owner, order.ID, "TX-1", "/uploads/proof.png")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPendingVerification, updated.PaymentStatus)
	assert.Equal(t, "TX-1", updated.TransactionID)

	_, err = env.orders.Cancel(ctx, owner, order.ID)
	require.NoError(t, err)
	_, err = env.orders.SubmitPayment(ctx, owner, order.ID, "TX-2", "")
	requireKind(t, err, apperror.KindConflict)
}

func TestListOrdersNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")
	other := env.customer(t, "other@example.pk")
	lamp := env.addProduct(t, "Lamp", 1000, 50)
	in := CreateOrderInput{
		ShippingAddress: karachi,
		PaymentMethod:   PaymentCOD,
		Items:           []OrderLineInput{{ProductID: lamp.ID, Quantity: 1}},
	}

	first, err := env.orders.Create(ctx, user.UserID, in)
	require.NoError(t, err)
	env.advance(time.Minute)
	second, err := env.orders.Create(ctx, user.UserID, in)
	require.NoError(t, err)
	env.advance(time.Minute)
	_, err = env.orders.Create(ctx, other.UserID, in)
	require.NoError(t, err)

	orders, err := env.orders.ListForUser(ctx, user.UserID, "")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	_, err = env.orders.UpdateStatus(ctx, first.ID, "processing", "")
	require.NoError(t, err)
	orders, err = env.orders.ListForUser(ctx, user.UserID, "processing")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].ID)

	all, stats, err := env.orders.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, OrderStats{Total: 3, Pending: 2, Processing: 1}, stats)
}
