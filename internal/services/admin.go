package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/authz"
	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

const recentOrdersLimit = 5

type DashboardStats struct {
	TotalProducts    int   `json:"totalProducts"`
	TotalOrders      int   `json:"totalOrders"`
	TotalUsers       int   `json:"totalUsers"`
	TotalRevenue     int64 `json:"totalRevenue"`
	MonthlyRevenue   int64 `json:"monthlyRevenue"`
	OrdersToday      int   `json:"ordersToday"`
	PendingOrders    int   `json:"pendingOrders"`
	ProcessingOrders int   `json:"processingOrders"`
	LowStockProducts int   `json:"lowStockProducts"`
}

type Dashboard struct {
	Stats        DashboardStats `json:"stats"`
	RecentOrders []models.Order `json:"recentOrders"`
}

type UserStats struct {
	Total     int `json:"total"`
	Admins    int `json:"admins"`
	Customers int `json:"customers"`
}

// AdminCredentials are used by Setup to create the first admin.
type AdminCredentials struct {
	Email    string
	Password string
}

type Admin struct {
	store     store.Store
	passwords Passwords
	bootstrap AdminCredentials
	now       clock
	logger    *zap.Logger
}

func NewAdmin(st store.Store, passwords Passwords, bootstrap AdminCredentials, now clock, logger *zap.Logger) *Admin {
	return &Admin{store: st, passwords: passwords, bootstrap: bootstrap, now: now, logger: logger.Named("admin")}
}

// Stats builds the dashboard. Day and month boundaries are in the server's
// local time zone.
func (s *Admin) Stats(ctx context.Context) (Dashboard, error) {
	var (
		products []models.Product
		orders   []models.Order
		users    []models.User
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if products, err = s.store.Products().FindAll(ctx); err != nil {
			return storeErr(err)
		}
		if orders, err = s.store.Orders().FindAll(ctx); err != nil {
			return storeErr(err)
		}
		users, err = s.store.Users().FindAll(ctx)
		return storeErr(err)
	})
	if err != nil {
		return Dashboard{}, err
	}

	now := s.now()
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	stats := DashboardStats{TotalProducts: len(products), TotalOrders: len(orders)}
	for _, u := range users {
		if !u.IsAdmin() {
			stats.TotalUsers++
		}
	}
	for _, p := range products {
		if p.Stock < models.LowStockThreshold {
			stats.LowStockProducts++
		}
	}
	for _, o := range orders {
		created := o.CreatedAt.In(now.Location())
		if !created.Before(midnight) {
			stats.OrdersToday++
		}
		switch o.Status {
		case models.OrderPending:
			stats.PendingOrders++
		case models.OrderProcessing:
			stats.ProcessingOrders++
		case models.OrderDelivered:
			stats.TotalRevenue += o.Total
			if created.Year() == year && created.Month() == month {
				stats.MonthlyRevenue += o.Total
			}
		}
	}

	sortOrdersNewestFirst(orders)
	if len(orders) > recentOrdersLimit {
		orders = orders[:recentOrdersLimit]
	}
	return Dashboard{Stats: stats, RecentOrders: orders}, nil
}

func (s *Admin) ListUsers(ctx context.Context) ([]models.User, UserStats, error) {
	users, err := s.store.Users().FindAll(ctx)
	if err != nil {
		return nil, UserStats{}, storeErr(err)
	}
	stats := UserStats{Total: len(users)}
	for _, u := range users {
		if u.IsAdmin() {
			stats.Admins++
		} else {
			stats.Customers++
		}
	}
	return users, stats, nil
}

func validRole(role string) bool {
	return role == models.RoleCustomer || role == models.RoleAdmin
}

func validStatus(status string) bool {
	return status == models.StatusActive || status == models.StatusSuspended
}

// UpdateUser changes another account's role or status. The acting admin's
// own account is off limits.
func (s *Admin) UpdateUser(ctx context.Context, actor authz.Subject, id int64, role, status *string) (models.User, error) {
	if role != nil && !validRole(*role) {
		return models.User{}, apperror.Validation("Invalid role")
	}
	if status != nil && !validStatus(*status) {
		return models.User{}, apperror.Validation("Invalid status")
	}

	user, err := s.store.Users().Update(ctx, id, func(u *models.User) error {
		if u.ID == actor.UserID {
			return apperror.Conflict("Cannot modify your own account from here")
		}
		if role != nil {
			u.Role = *role
		}
		if status != nil {
			u.Status = *status
		}
		return nil
	})
	if err != nil {
		return models.User{}, lookupErr(err, "User not found")
	}
	s.logger.Info("user updated", zap.Int64("user_id", id), zap.Int64("actor_id", actor.UserID))
	return user, nil
}

func (s *Admin) SetRole(ctx context.Context, id int64, role string) (models.User, error) {
	if !validRole(role) {
		return models.User{}, apperror.Validation("Invalid role")
	}
	user, err := s.store.Users().Update(ctx, id, func(u *models.User) error {
		u.Role = role
		return nil
	})
	if err != nil {
		return models.User{}, lookupErr(err, "User not found")
	}
	s.logger.Info("user role updated", zap.Int64("user_id", id), zap.String("role", role))
	return user, nil
}

// Setup creates the first admin account from the configured credentials. It
// refuses once any admin exists.
func (s *Admin) Setup(ctx context.Context) (models.User, error) {
	hash, err := s.passwords.Hash(s.bootstrap.Password)
	if err != nil {
		return models.User{}, err
	}

	var admin models.User
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		admins, err := s.store.Users().Filter(ctx, func(u models.User) bool { return u.IsAdmin() })
		if err != nil {
			return storeErr(err)
		}
		if len(admins) > 0 {
			return apperror.Conflict("Admin already exists")
		}
		_, err = s.store.Users().FindBy(ctx, "email", NormalizeEmail(s.bootstrap.Email))
		if err == nil {
			return apperror.Conflict("Email already registered")
		}
		if !errors.Is(err, store.ErrNotFound) {
			return storeErr(err)
		}
		admin, err = s.store.Users().Create(ctx, models.User{
			Name:      "Admin",
			Email:     NormalizeEmail(s.bootstrap.Email),
			Phone:     "0300-0000000",
			Password:  hash,
			Role:      models.RoleAdmin,
			Status:    models.StatusActive,
			Addresses: []models.Address{},
		})
		return storeErr(err)
	})
	if err != nil {
		return models.User{}, err
	}
	s.logger.Info("admin account created", zap.Int64("user_id", admin.ID))
	return admin, nil
}
