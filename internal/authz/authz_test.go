package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asadk95/estore/internal/models"
)

func TestAllowed(t *testing.T) {
	admin := Subject{UserID: 1, Role: models.RoleAdmin}
	alice := Subject{UserID: 2, Role: models.RoleCustomer}
	bob := Subject{UserID: 3, Role: models.RoleCustomer}
	alicesOrder := Resource{OwnerID: alice.UserID}

	cases := []struct {
		name     string
		subject  Subject
		action   Action
		resource Resource
		want     bool
	}{
		{"admin manages products", admin, ManageProducts, Any, true},
		{"customer cannot manage products", alice, ManageProducts, Any, false},
		{"customer cannot view stats", alice, ViewStats, Any, false},
		{"customer cannot list all orders", alice, ListAllOrders, Any, false},
		{"owner views order", alice, ViewOrder, alicesOrder, true},
		{"admin views any order", admin, ViewOrder, alicesOrder, true},
		{"stranger cannot view order", bob, ViewOrder, alicesOrder, false},
		{"owner cancels order", alice, CancelOrder, alicesOrder, true},
		{"admin cancels order", admin, CancelOrder, alicesOrder, true},
		{"stranger cannot cancel", bob, CancelOrder, alicesOrder, false},
		{"owner submits payment", alice, SubmitPayment, alicesOrder, true},
		{"admin cannot submit payment for a customer", admin, SubmitPayment, alicesOrder, false},
		{"anonymous denied", Subject{}, ViewOrder, alicesOrder, false},
		{"unknown action denied", alice, Action("orders:delete"), alicesOrder, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.subject, tc.action, tc.resource))
		})
	}
}
