// Package services holds the storefront's business rules. Handlers translate
// HTTP to these calls; every multi-record mutation runs inside
// store.Store.WithTx.
package services

import (
	"errors"
	"sort"
	"time"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

const (
	// FreeShippingThreshold is the subtotal (PKR) from which delivery is free.
	FreeShippingThreshold int64 = 2000
	FlatShipping          int64 = 200
)

// ShippingFor is shared by cart totals and order creation so both agree.
func ShippingFor(subtotal int64) int64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	return FlatShipping
}

// lookupErr turns store.ErrNotFound into a 404 carrying msg and anything else
// into a 500.
func lookupErr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound(msg)
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal("Internal Server Error", err)
}

// storeErr passes classified errors through and wraps the rest as 500s.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal("Internal Server Error", err)
}

func sortOrdersNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

type clock func() time.Time
