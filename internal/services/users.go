package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

type ProfileInput struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// AddressInput is an address payload; on update nil fields keep their value.
type AddressInput struct {
	Label      *string `json:"label"`
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	PostalCode *string `json:"postalCode"`
	IsDefault  *bool   `json:"isDefault"`
}

type Users struct {
	store     store.Store
	passwords Passwords
	// matches checks a password against a stored hash; bcrypt unless swapped
	// in tests.
	matches func(hash, plain string) bool
	logger  *zap.Logger
}

func NewUsers(st store.Store, passwords Passwords, logger *zap.Logger) *Users {
	return &Users{store: st, passwords: passwords, matches: passwords.Matches, logger: logger.Named("users")}
}

func (s *Users) Profile(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return models.User{}, lookupErr(err, "User not found")
	}
	return user, nil
}

func (s *Users) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (models.User, error) {
	if in.Phone != nil && strings.TrimSpace(*in.Phone) != "" && !PakistaniMobile.MatchString(strings.TrimSpace(*in.Phone)) {
		return models.User{}, apperror.Validation("Valid Pakistani phone number required")
	}
	user, err := s.store.Users().Update(ctx, userID, func(u *models.User) error {
		if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
			u.Name = strings.TrimSpace(*in.Name)
		}
		if in.Phone != nil && strings.TrimSpace(*in.Phone) != "" {
			u.Phone = strings.TrimSpace(*in.Phone)
		}
		return nil
	})
	if err != nil {
		return models.User{}, lookupErr(err, "User not found")
	}
	return user, nil
}

func (s *Users) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if current == "" || next == "" {
		return apperror.Validation("Current and new password are required")
	}
	if len(next) < MinPasswordLength {
		return apperror.Validation("Password must be at least 6 characters")
	}

	// bcrypt runs outside the store so a slow compare never holds its lock.
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return lookupErr(err, "User not found")
	}
	if !s.matches(user.Password, current) {
		return apperror.Unauthorized("Current password is incorrect")
	}
	hash, err := s.passwords.Hash(next)
	if err != nil {
		return err
	}

	_, err = s.store.Users().Update(ctx, userID, func(u *models.User) error {
		if u.Password != user.Password {
			return apperror.Conflict("Password was changed meanwhile, please try again")
		}
		u.Password = hash
		return nil
	})
	if err != nil {
		return lookupErr(err, "User not found")
	}
	s.logger.Info("password changed", zap.Int64("user_id", userID))
	return nil
}

func (s *Users) Addresses(ctx context.Context, userID int64) ([]models.Address, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Addresses == nil {
		return []models.Address{}, nil
	}
	return user.Addresses, nil
}

// AddAddress appends an address. The first address, or one flagged default,
// becomes the only default.
func (s *Users) AddAddress(ctx context.Context, userID int64, in AddressInput) (models.Address, error) {
	addr := models.Address{Label: "Home"}
	in.apply(&addr)
	if addr.Name == "" || addr.Phone == "" || addr.Address == "" || addr.City == "" {
		return models.Address{}, apperror.Validation("Name, phone, address, and city are required")
	}

	var added models.Address
	_, err := s.store.Users().Update(ctx, userID, func(u *models.User) error {
		added = addr
		added.ID = uuid.NewString()
		if len(u.Addresses) == 0 {
			added.IsDefault = true
		}
		if added.IsDefault {
			clearDefault(u.Addresses)
		}
		u.Addresses = append(u.Addresses, added)
		return nil
	})
	if err != nil {
		return models.Address{}, lookupErr(err, "User not found")
	}
	return added, nil
}

func (s *Users) UpdateAddress(ctx context.Context, userID int64, addressID string, in AddressInput) (models.Address, error) {
	var updated models.Address
	_, err := s.store.Users().Update(ctx, userID, func(u *models.User) error {
		i := addressIndex(u.Addresses, addressID)
		if i < 0 {
			return apperror.NotFound("Address not found")
		}
		addr := u.Addresses[i]
		in.apply(&addr)
		if addr.Name == "" || addr.Phone == "" || addr.Address == "" || addr.City == "" {
			return apperror.Validation("Name, phone, address, and city are required")
		}
		if addr.IsDefault {
			clearDefault(u.Addresses)
		}
		u.Addresses[i] = addr
		updated = addr
		return nil
	})
	if err != nil {
		return models.Address{}, lookupErr(err, "User not found")
	}
	return updated, nil
}

// DeleteAddress removes an address. If it was the default, the first
// remaining address takes over.
func (s *Users) DeleteAddress(ctx context.Context, userID int64, addressID string) error {
	_, err := s.store.Users().Update(ctx, userID, func(u *models.User) error {
		i := addressIndex(u.Addresses, addressID)
		if i < 0 {
			return apperror.NotFound("Address not found")
		}
		wasDefault := u.Addresses[i].IsDefault
		u.Addresses = append(u.Addresses[:i], u.Addresses[i+1:]...)
		if wasDefault && len(u.Addresses) > 0 {
			u.Addresses[0].IsDefault = true
		}
		return nil
	})
	if err != nil {
		return lookupErr(err, "User not found")
	}
	return nil
}

func addressIndex(addresses []models.Address, id string) int {
	for i, a := range addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func clearDefault(addresses []models.Address) {
	for i := range addresses {
		addresses[i].IsDefault = false
	}
}

func (in AddressInput) apply(a *models.Address) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.Label, in.Label)
	set(&a.Name, in.Name)
	set(&a.Phone, in.Phone)
	set(&a.Address, in.Address)
	set(&a.City, in.City)
	set(&a.PostalCode, in.PostalCode)
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
	if a.Label == "" {
		a.Label = "Home"
	}
}
