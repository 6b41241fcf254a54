// Package authz decides who may do what. Route middleware checks role-only
// actions up front; services check ownership once the resource is loaded.
package authz

import "github.com/asadk95/estore/internal/models"

type Action string

const (
	ManageProducts    Action = "products:manage"
	UpdateOrderStatus Action = "orders:update-status"
	ListAllOrders     Action = "orders:list-all"
	ViewStats         Action = "admin:stats"
	ManageUsers       Action = "users:manage"
	ViewOrder         Action = "orders:view"
	CancelOrder       Action = "orders:cancel"
	SubmitPayment     Action = "orders:submit-payment"
)

// Subject is the authenticated caller.
type Subject struct {
	UserID int64
	Email  string
	Role   string
}

func (s Subject) IsAdmin() bool { return s.Role == models.RoleAdmin }

// Resource describes the record an action targets. OwnerID is zero for
// actions that do not target a single owned record.
type Resource struct {
	OwnerID int64
}

// Any is the resource for role-level checks made before a record is loaded.
var Any = Resource{}

var adminOnly = map[Action]bool{
	ManageProducts:    true,
	UpdateOrderStatus: true,
	ListAllOrders:     true,
	ViewStats:         true,
	ManageUsers:       true,
}

func Allowed(subject Subject, action Action, resource Resource) bool {
	if subject.UserID == 0 {
		return false
	}
	if adminOnly[action] {
		return subject.IsAdmin()
	}

	owner := resource.OwnerID != 0 && resource.OwnerID == subject.UserID
	switch action {
	case ViewOrder, CancelOrder:
		return owner || subject.IsAdmin()
	case SubmitPayment:
		return owner
	}
	return false
}
