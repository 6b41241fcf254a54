package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/authz"
	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

const (
	PaymentCOD       = "cod"
	PaymentBank      = "bank"
	PaymentJazzCash  = "jazzcash"
	PaymentEasypaisa = "easypaisa"
)

var bankTransferDetails = models.BankDetails{
	BankName:      "Allied Bank",
	AccountTitle:  "E-Store Pakistan",
	AccountNumber: "XXXX-XXXX-XXXX",
	IBAN:          "PK00ABCD1234567890",
}

var paymentMethods = map[string]models.PaymentDetails{
	PaymentCOD:       {Name: "Cash on Delivery"},
	PaymentBank:      {Name: "Bank Transfer", BankDetails: &bankTransferDetails},
	PaymentJazzCash:  {Name: "JazzCash", ProcessingFee: 50},
	PaymentEasypaisa: {Name: "Easypaisa", ProcessingFee: 50},
}

// PaymentMethod returns a copy of the fee schedule for a method key.
func PaymentMethod(key string) (models.PaymentDetails, bool) {
	details, ok := paymentMethods[key]
	if !ok {
		return models.PaymentDetails{}, false
	}
	if details.BankDetails != nil {
		bank := *details.BankDetails
		details.BankDetails = &bank
	}
	return details, true
}

type OrderLineInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CreateOrderInput struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Items           []OrderLineInput       `json:"items"`
	Notes           string                 `json:"notes"`
}

type OrderStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Shipped    int `json:"shipped"`
	Delivered  int `json:"delivered"`
}

type Orders struct {
	store  store.Store
	carts  *Carts
	now    clock
	logger *zap.Logger
}

func NewOrders(st store.Store, carts *Carts, now clock, logger *zap.Logger) *Orders {
	return &Orders{store: st, carts: carts, now: now, logger: logger.Named("orders")}
}

// mergeLines sums quantities of repeated products, keeping first-seen order.
func mergeLines(lines []OrderLineInput) ([]OrderLineInput, error) {
	merged := make([]OrderLineInput, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, apperror.Validation("Quantity must be at least 1")
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// Create places an order from the request lines or, when none are given, from
// the user's cart. All lines are checked against stock before any stock is
// taken, and the whole placement is one transaction.
func (s *Orders) Create(ctx context.Context, userID int64, in CreateOrderInput) (models.Order, error) {
	if !in.ShippingAddress.Complete() {
		return models.Order{}, apperror.Validation("Complete shipping address is required")
	}
	payment, ok := PaymentMethod(in.PaymentMethod)
	if !ok {
		return models.Order{}, apperror.Validation("Valid payment method is required (cod, bank, jazzcash, easypaisa)")
	}

	var created models.Order
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		lines := in.Items
		if len(lines) == 0 {
			cart, ok, err := s.carts.find(ctx, userID)
			if err != nil {
				return err
			}
			if ok {
				lines = make([]OrderLineInput, 0, len(cart.Items))
				for _, item := range cart.Items {
					lines = append(lines, OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
				}
			}
		}
		if len(lines) == 0 {
			return apperror.Validation("Cart is empty")
		}
		lines, err := mergeLines(lines)
		if err != nil {
			return err
		}

		for _, line := range lines {
			product, err := s.store.Products().FindByID(ctx, line.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return apperror.Conflict(fmt.Sprintf("Product %d not found", line.ProductID))
			}
			if err != nil {
				return storeErr(err)
			}
			if product.Stock < line.Quantity {
				return apperror.Conflict("Insufficient stock for " + product.Name)
			}
		}

		items := make([]models.OrderItem, 0, len(lines))
		var subtotal int64
		for _, line := range lines {
			product, err := s.store.Products().Update(ctx, line.ProductID, func(p *models.Product) error {
				if p.Stock < line.Quantity {
					return apperror.Conflict("Insufficient stock for " + p.Name)
				}
				p.Stock -= line.Quantity
				return nil
			})
			if err != nil {
				return storeErr(err)
			}
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  line.Quantity,
				Image:     product.Image,
			})
			subtotal += product.Price * int64(line.Quantity)
		}

		now := s.now()
		order := models.Order{
			OrderID:         fmt.Sprintf("ORD-%d", now.UnixMilli()),
			UserID:          userID,
			Items:           items,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			PaymentDetails:  payment,
			Subtotal:        subtotal,
			Shipping:        ShippingFor(subtotal),
			ProcessingFee:   payment.ProcessingFee,
			PaymentStatus:   models.PaymentAwaiting,
			Notes:           strings.TrimSpace(in.Notes),
		}
		order.Total = order.Subtotal + order.Shipping + order.ProcessingFee
		if in.PaymentMethod == PaymentCOD {
			order.PaymentStatus = models.PaymentPending
		}
		order.AppendTimeline(models.OrderPending, "Order placed", now)

		created, err = s.store.Orders().Create(ctx, order)
		if err != nil {
			return storeErr(err)
		}
		return s.carts.clear(ctx, userID)
	})
	if err != nil {
		return models.Order{}, err
	}

	s.logger.Info("order placed",
		zap.Int64("order_id", created.ID),
		zap.String("order_ref", created.OrderID),
		zap.Int64("user_id", userID),
		zap.Int64("total", created.Total),
	)
	return created, nil
}

// ListForUser returns the user's orders, newest first, optionally filtered by
// status.
func (s *Orders) ListForUser(ctx context.Context, userID int64, status string) ([]models.Order, error) {
	orders, err := s.store.Orders().Filter(ctx, func(o models.Order) bool {
		return o.UserID == userID && (status == "" || string(o.Status) == status)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (s *Orders) Get(ctx context.Context, subject authz.Subject, id int64) (models.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return models.Order{}, lookupErr(err, "Order not found")
	}
	if !authz.Allowed(subject, authz.ViewOrder, authz.Resource{OwnerID: order.UserID}) {
		return models.Order{}, apperror.Forbidden("Access denied")
	}
	return order, nil
}

// UpdateStatus moves an order along its lifecycle. A move to cancelled goes
// through the same path as Cancel so stock comes back.
func (s *Orders) UpdateStatus(ctx context.Context, id int64, status, note string) (models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return models.Order{}, apperror.Validation("Invalid status")
	}
	if note = strings.TrimSpace(note); note == "" {
		note = "Status changed to " + string(next)
	}
	if next == models.OrderCancelled {
		return s.cancel(ctx, id, nil, note)
	}

	updated, err := s.store.Orders().Update(ctx, id, func(o *models.Order) error {
		if !o.Status.CanTransition(next) {
			return apperror.Conflict(fmt.Sprintf("Cannot change order status from %s to %s", o.Status, next))
		}
		o.AppendTimeline(next, note, s.now())
		if next == models.OrderDelivered {
			o.PaymentStatus = models.PaymentPaid
		}
		return nil
	})
	if err != nil {
		return models.Order{}, lookupErr(err, "Order not found")
	}
	s.logger.Info("order status updated", zap.Int64("order_id", id), zap.String("status", string(next)))
	return updated, nil
}

// Cancel cancels an order on behalf of its owner or an admin.
func (s *Orders) Cancel(ctx context.Context, subject authz.Subject, id int64) (models.Order, error) {
	note := "Order cancelled by user"
	if subject.IsAdmin() {
		note = "Order cancelled by admin"
	}
	return s.cancel(ctx, id, &subject, note)
}

// cancel flips the status and restores stock in one transaction. The status
// check happens inside the order update, so a second cancel always fails and
// stock is returned once. A nil subject skips the ownership check.
func (s *Orders) cancel(ctx context.Context, id int64, subject *authz.Subject, note string) (models.Order, error) {
	var cancelled models.Order
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		cancelled, err = s.store.Orders().Update(ctx, id, func(o *models.Order) error {
			if subject != nil && !authz.Allowed(*subject, authz.CancelOrder, authz.Resource{OwnerID: o.UserID}) {
				return apperror.Forbidden("Access denied")
			}
			if !o.Status.Cancellable() {
				return apperror.Conflict("Cannot cancel order in current status")
			}
			o.AppendTimeline(models.OrderCancelled, note, s.now())
			return nil
		})
		if err != nil {
			return lookupErr(err, "Order not found")
		}

		for _, item := range cancelled.Items {
			_, err := s.store.Products().Update(ctx, item.ProductID, func(p *models.Product) error {
				p.Stock += item.Quantity
				return nil
			})
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return storeErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	s.logger.Info("order cancelled", zap.Int64("order_id", id), zap.String("note", note))
	return cancelled, nil
}

// SubmitPayment records the customer's transfer reference for verification.
func (s *Orders) SubmitPayment(ctx context.Context, subject authz.Subject, id int64, transactionID, proof string) (models.Order, error) {
	transactionID, proof = strings.TrimSpace(transactionID), strings.TrimSpace(proof)
	if transactionID == "" && proof == "" {
		return models.Order{}, apperror.Validation("Transaction ID or payment proof is required")
	}

	updated, err := s.store.Orders().Update(ctx, id, func(o *models.Order) error {
		if !authz.Allowed(subject, authz.SubmitPayment, authz.Resource{OwnerID: o.UserID}) {
			return apperror.Forbidden("Access denied")
		}
		if o.Status == models.OrderCancelled {
			return apperror.Conflict("Cannot submit payment for a cancelled order")
		}
		if o.PaymentStatus == models.PaymentPaid {
			return apperror.Conflict("Order is already paid")
		}
		o.PaymentStatus = models.PaymentPendingVerification
		o.TransactionID = transactionID
		o.PaymentProof = proof
		return nil
	})
	if err != nil {
		return models.Order{}, lookupErr(err, "Order not found")
	}
	s.logger.Info("payment proof submitted", zap.Int64("order_id", id), zap.Int64("user_id", subject.UserID))
	return updated, nil
}

// ListAll returns every order, newest first, with per-status counts over the
// returned set.
func (s *Orders) ListAll(ctx context.Context, status string) ([]models.Order, OrderStats, error) {
	orders, err := s.store.Orders().Filter(ctx, func(o models.Order) bool {
		return status == "" || string(o.Status) == status
	})
	if err != nil {
		return nil, OrderStats{}, storeErr(err)
	}
	sortOrdersNewestFirst(orders)

	stats := OrderStats{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case models.OrderPending:
			stats.Pending++
		case models.OrderProcessing:
			stats.Processing++
		case models.OrderShipped:
			stats.Shipped++
		case models.OrderDelivered:
			stats.Delivered++
		}
	}
	return orders, stats, nil
}
