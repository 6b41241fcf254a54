package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

// CartLine is a cart item with the live product attached.
type CartLine struct {
	ProductID int64                  `json:"productId"`
	Quantity  int                    `json:"quantity"`
	AddedAt   time.Time              `json:"addedAt"`
	Product   models.ProductSnapshot `json:"product"`
}

type CartView struct {
	ID        int64      `json:"id,omitempty"`
	Items     []CartLine `json:"items"`
	ItemCount int        `json:"itemCount"`
	Subtotal  int64      `json:"subtotal"`
	Shipping  int64      `json:"shipping"`
	Total     int64      `json:"total"`
}

type Carts struct {
	store  store.Store
	now    clock
	logger *zap.Logger
}

func NewCarts(st store.Store, now clock, logger *zap.Logger) *Carts {
	return &Carts{store: st, now: now, logger: logger.Named("cart")}
}

// find is the optional cart relation: ok is false when the user has never
// added anything.
func (s *Carts) find(ctx context.Context, userID int64) (models.Cart, bool, error) {
	cart, err := s.store.Carts().FindBy(ctx, "userId", userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Cart{}, false, nil
	}
	if err != nil {
		return models.Cart{}, false, storeErr(err)
	}
	return cart, true, nil
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (s *Carts) GetOrCreate(ctx context.Context, userID int64) (models.Cart, error) {
	var cart models.Cart
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		existing, ok, err := s.find(ctx, userID)
		if err != nil {
			return err
		}
		if ok {
			cart = existing
			return nil
		}
		cart, err = s.store.Carts().Create(ctx, models.Cart{UserID: userID, Items: []models.CartItem{}})
		return storeErr(err)
	})
	return cart, err
}

// View enriches each line with the current product. Lines whose product was
// deleted are dropped; an absent cart is an empty view.
func (s *Carts) View(ctx context.Context, userID int64) (CartView, error) {
	view := CartView{Items: []CartLine{}}
	cart, ok, err := s.find(ctx, userID)
	if err != nil || !ok {
		return view, err
	}
	view.ID = cart.ID

	for _, item := range cart.Items {
		product, err := s.store.Products().FindByID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartView{}, storeErr(err)
		}
		view.Items = append(view.Items, CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
			Product:   product.Snapshot(),
		})
		view.ItemCount += item.Quantity
		view.Subtotal += product.Price * int64(item.Quantity)
	}
	view.Shipping = ShippingFor(view.Subtotal)
	view.Total = view.Subtotal + view.Shipping
	return view, nil
}

// AddItem adds qty of a product. An existing line is incremented, and the
// resulting quantity must still fit in stock.
func (s *Carts) AddItem(ctx context.Context, userID, productID int64, qty int) (models.Cart, error) {
	if qty < 1 {
		return models.Cart{}, apperror.Validation("Quantity must be at least 1")
	}

	var updated models.Cart
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		product, err := s.store.Products().FindByID(ctx, productID)
		if err != nil {
			return lookupErr(err, "Product not found")
		}
		if product.Stock < qty {
			return apperror.Conflict("Insufficient stock")
		}

		cart, err := s.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		updated, err = s.store.Carts().Update(ctx, cart.ID, func(c *models.Cart) error {
			if i := c.ItemIndex(productID); i >= 0 {
				if c.Items[i].Quantity+qty > product.Stock {
					return apperror.Conflict("Insufficient stock")
				}
				c.Items[i].Quantity += qty
				return nil
			}
			c.Items = append(c.Items, models.CartItem{ProductID: productID, Quantity: qty, AddedAt: s.now()})
			return nil
		})
		return storeErr(err)
	})
	if err != nil {
		return models.Cart{}, err
	}
	s.logger.Debug("cart item added", zap.Int64("user_id", userID), zap.Int64("product_id", productID), zap.Int("quantity", qty))
	return updated, nil
}

// UpdateQuantity sets the quantity of an existing line.
func (s *Carts) UpdateQuantity(ctx context.Context, userID, productID int64, qty int) (models.Cart, error) {
	if qty < 1 {
		return models.Cart{}, apperror.Validation("Quantity must be at least 1")
	}

	var updated models.Cart
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		cart, ok, err := s.find(ctx, userID)
		if err != nil {
			return err
		}
		if !ok || cart.ItemIndex(productID) < 0 {
			return apperror.NotFound("Item not in cart")
		}

		product, err := s.store.Products().FindByID(ctx, productID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// the line is dropped from views anyway
		case err != nil:
			return storeErr(err)
		case product.Stock < qty:
			return apperror.Conflict("Insufficient stock")
		}

		updated, err = s.store.Carts().Update(ctx, cart.ID, func(c *models.Cart) error {
			i := c.ItemIndex(productID)
			if i < 0 {
				return apperror.NotFound("Item not in cart")
			}
			c.Items[i].Quantity = qty
			return nil
		})
		return storeErr(err)
	})
	return updated, err
}

// RemoveItem drops a line. Removing from an absent cart is a no-op.
func (s *Carts) RemoveItem(ctx context.Context, userID, productID int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		cart, ok, err := s.find(ctx, userID)
		if err != nil || !ok {
			return err
		}
		_, err = s.store.Carts().Update(ctx, cart.ID, func(c *models.Cart) error {
			kept := c.Items[:0]
			for _, item := range c.Items {
				if item.ProductID != productID {
					kept = append(kept, item)
				}
			}
			c.Items = kept
			return nil
		})
		return storeErr(err)
	})
}

func (s *Carts) Clear(ctx context.Context, userID int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context) error {
		return s.clear(ctx, userID)
	})
}

// clear empties the cart using the caller's transaction.
func (s *Carts) clear(ctx context.Context, userID int64) error {
	cart, ok, err := s.find(ctx, userID)
	if err != nil || !ok {
		return err
	}
	_, err = s.store.Carts().Update(ctx, cart.ID, func(c *models.Cart) error {
		c.Items = []models.CartItem{}
		return nil
	})
	return storeErr(err)
}
