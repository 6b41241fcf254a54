package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asadk95/estore/internal/apperror"
	"github.com/asadk95/estore/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, token, err := env.auth.Register(ctx, RegisterInput{
		Name:     "Bilal Ahmed",
		Email:    "  Bilal@Example.PK ",
		Phone:    "03001234567",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "bilal@example.pk", user.Email)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, models.StatusActive, user.Status)
	assert.NotEqual(t, "secret1", user.Password)

	body, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), user.Password)

	subject, err := env.auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject.UserID)
	assert.Equal(t, models.RoleCustomer, subject.Role)

	loggedIn, token, err := env.auth.Login(ctx, "BILAL@example.pk", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := RegisterInput{Name: "Bilal", Email: "bilal@example.pk", Phone: "0300-1234567", Password: "secret1"}

	_, _, err := env.auth.Register(ctx, in)
	require.NoError(t, err)

	in.Email = "BILAL@example.pk"
	_, _, err = env.auth.Register(ctx, in)
	requireKind(t, err, apperror.KindConflict)
	assert.Equal(t, "Email already registered", err.Error())

	users, err := env.store.Users().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	valid := RegisterInput{Name: "Bilal", Email: "bilal@example.pk", Phone: "0300-1234567", Password: "secret1"}

	cases := map[string]func(*RegisterInput){
		"missing name":   func(in *RegisterInput) { in.Name = " " },
		"bad email":      func(in *RegisterInput) { in.Email = "bilal" },
		"foreign phone":  func(in *RegisterInput) { in.Phone = "+1 555 0100" },
		"landline":       func(in *RegisterInput) { in.Phone = "021-1234567" },
		"short password": func(in *RegisterInput) { in.Password = "12345" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, _, err := env.auth.Register(context.Background(), in)
			requireKind(t, err, apperror.KindValidation)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.customer(t, "ayesha@example.pk")

	_, token, err := env.auth.Login(ctx, "ayesha@example.pk", "wrong-password")
	requireKind(t, err, apperror.KindUnauthorized)
	assert.Empty(t, token)
	assert.Equal(t, "Invalid email or password", err.Error())

	_, _, err = env.auth.Login(ctx, "nobody@example.pk", "secret1")
	requireKind(t, err, apperror.KindUnauthorized)
	assert.Equal(t, "Invalid email or password", err.Error())

	admin := env.adminSubject(t)
	suspended := models.StatusSuspended
	_, err = env.admin.UpdateUser(ctx, admin, user.UserID, nil, &suspended)
	require.NoError(t, err)
	_, _, err = env.auth.Login(ctx, "ayesha@example.pk", "secret1")
	requireKind(t, err, apperror.KindForbidden)
}

func TestVerifyToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.auth.Me(ctx, env.customer(t, "ayesha@example.pk").UserID)
	require.NoError(t, err)

	token, err := env.auth.IssueToken(user)
	require.NoError(t, err)

	_, err = env.auth.Verify("")
	assert.Equal(t, ErrTokenMissing, err)

	_, err = env.auth.Verify("not-a-jwt")
	assert.Equal(t, ErrTokenInvalid, err)

	other := NewAuth(env.store, Passwords{}, TokenConfig{Secret: "other-secret", TTL: time.Hour}, func() time.Time { return env.now }, zapNop())
	_, err = other.Verify(token)
	assert.Equal(t, ErrTokenInvalid, err)

	env.advance(2 * time.Hour)
	_, err = env.auth.Verify(token)
	assert.Equal(t, ErrTokenExpired, err)
}
