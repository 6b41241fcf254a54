package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/authz"
	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

const MinPasswordLength = 6

// PakistaniMobile matches 03XX-XXXXXXX with the dash optional.
var PakistaniMobile = regexp.MustCompile(`^03[0-9]{2}-?[0-9]{7}$`)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Passwords hashes with bcrypt at a configurable cost.
type Passwords struct {
	Cost int
}

func (p Passwords) Hash(plain string) (string, error) {
	cost := p.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", apperror.Internal("Internal Server Error", err)
	}
	return string(hash), nil
}

func (p Passwords) Matches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Claims is the JWT payload.
type Claims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

var (
	ErrTokenMissing = apperror.Unauthorized("Access token required")
	ErrTokenExpired = apperror.Unauthorized("Token expired")
	ErrTokenInvalid = apperror.Unauthorized("Invalid token")
)

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type Auth struct {
	store     store.Store
	passwords Passwords
	tokens    TokenConfig
	now       clock
	logger    *zap.Logger
}

func NewAuth(st store.Store, passwords Passwords, tokens TokenConfig, now clock, logger *zap.Logger) *Auth {
	return &Auth{store: st, passwords: passwords, tokens: tokens, now: now, logger: logger.Named("auth")}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in RegisterInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return apperror.Validation("Name is required")
	case !emailPattern.MatchString(NormalizeEmail(in.Email)):
		return apperror.Validation("Valid email is required")
	case !PakistaniMobile.MatchString(strings.TrimSpace(in.Phone)):
		return apperror.Validation("Valid Pakistani phone number required")
	case len(in.Password) < MinPasswordLength:
		return apperror.Validation("Password must be at least 6 characters")
	}
	return nil
}

// Register creates a customer account and signs a token for it.
func (a *Auth) Register(ctx context.Context, in RegisterInput) (models.User, string, error) {
	if err := in.validate(); err != nil {
		return models.User{}, "", err
	}
	hash, err := a.passwords.Hash(in.Password)
	if err != nil {
		return models.User{}, "", err
	}

	email := NormalizeEmail(in.Email)
	var user models.User
	err = a.store.WithTx(ctx, func(ctx context.Context) error {
		_, err := a.store.Users().FindBy(ctx, "email", email)
		if err == nil {
			return apperror.Conflict("Email already registered")
		}
		if !errors.Is(err, store.ErrNotFound) {
			return storeErr(err)
		}
		user, err = a.store.Users().Create(ctx, models.User{
			Name:      strings.TrimSpace(in.Name),
			Email:     email,
			Phone:     strings.TrimSpace(in.Phone),
			Password:  hash,
			Role:      models.RoleCustomer,
			Status:    models.StatusActive,
			Addresses: []models.Address{},
		})
		return storeErr(err)
	})
	if err != nil {
		return models.User{}, "", err
	}

	token, err := a.IssueToken(user)
	if err != nil {
		return models.User{}, "", err
	}
	a.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, token, nil
}

// Login checks credentials. Unknown email and wrong password look the same to
// the caller.
func (a *Auth) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := a.store.Users().FindBy(ctx, "email", NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		a.logger.Warn("login failed: unknown email")
		return models.User{}, "", apperror.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return models.User{}, "", storeErr(err)
	}
	if !a.passwords.Matches(user.Password, password) {
		a.logger.Warn("login failed: wrong password", zap.Int64("user_id", user.ID))
		return models.User{}, "", apperror.Unauthorized("Invalid email or password")
	}
	if user.IsSuspended() {
		return models.User{}, "", apperror.Forbidden("Account suspended")
	}

	token, err := a.IssueToken(user)
	if err != nil {
		return models.User{}, "", err
	}
	a.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return user, token, nil
}

func (a *Auth) IssueToken(user models.User) (string, error) {
	now := a.now()
	claims := Claims{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokens.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.tokens.Secret))
	if err != nil {
		return "", apperror.Internal("Internal Server Error", err)
	}
	return signed, nil
}

// Verify parses a bearer token into the caller's identity.
func (a *Auth) Verify(raw string) (authz.Subject, error) {
	if strings.TrimSpace(raw) == "" {
		return authz.Subject{}, ErrTokenMissing
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.tokens.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return authz.Subject{}, ErrTokenExpired
	}
	if err != nil || !token.Valid || claims.ID == 0 {
		return authz.Subject{}, ErrTokenInvalid
	}
	return authz.Subject{UserID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}

// Me loads the account behind a token.
func (a *Auth) Me(ctx context.Context, userID int64) (models.User, error) {
	user, err := a.store.Users().FindByID(ctx, userID)
	if err != nil {
		return models.User{}, lookupErr(err, "User not found")
	}
	return user, nil
}
