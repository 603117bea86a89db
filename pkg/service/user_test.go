package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memorySessions struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (m *memorySessions) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = ttl
	return nil
}

func (m *memorySessions) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[id]
	return ok, nil
}

func newUserService(t *testing.T) (*UserService, *memorySessions, *fixtures) {
	store := newTestStore(t)
	sessions := &memorySessions{revoked: map[string]time.Duration{}}
	tokens := auth.NewTokenIssuer(&config.AuthConfig{JWTSecret: "test", TokenTTL: time.Hour, Issuer: "shop"})
	return NewUserService(store, tokens, sessions, testEffects(nil), zap.NewNop()), sessions, newFixtures(t, store)
}

func TestRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	users, sessions, _ := newUserService(t)

	_, err := users.Register(ctx, RegisterInput{Email: "not-an-email", Password: "secret1", Name: "A"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = users.Register(ctx, RegisterInput{Email: "a@example.com", Password: "123", Name: "A"})
	assert.ErrorIs(t, err, ErrValidation)

	user, err := users.Register(ctx, RegisterInput{Email: " A@Example.com ", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.Password)

	_, err = users.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret2", Name: "Ann"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = users.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = users.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	session, err := users.Login(ctx, "A@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	p, err := users.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)

	require.NoError(t, users.Logout(ctx, p))
	assert.Len(t, sessions.revoked, 1)
	_, err = users.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = users.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	users, _, _ := newUserService(t)

	user, err := users.Register(ctx, RegisterInput{Email: "b@example.com", Password: "secret1", Name: "Bob"})
	require.NoError(t, err)

	updated, err := users.UpdateProfile(ctx, user.ID, ProfileInput{
		Address:  strPtr("9 Bay Rd"),
		Password: strPtr("new-secret"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Address)
	assert.Equal(t, "9 Bay Rd", *updated.Address)
	assert.Equal(t, "Bob", updated.Name)

	_, err = users.Login(ctx, "b@example.com", "new-secret")
	assert.NoError(t, err)

	_, err = users.UpdateProfile(ctx, user.ID, ProfileInput{Name: strPtr(" ")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = users.UpdateProfile(ctx, 999, ProfileInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminUserManagement(t *testing.T) {
	ctx := context.Background()
	users, _, fx := newUserService(t)
	orders := NewOrderService(fx.store, testEffects(nil), zap.NewNop())

	admin := fx.user(models.RoleAdmin)
	buyer := fx.user(models.RoleUser)
	idle := fx.user(models.RoleUser)

	cat := fx.category("Misc")
	product := fx.product(cat.ID, "Thing", "1.00", 5, 0)
	fx.cart(buyer.ID, product.ID, 1)
	_, err := orders.Create(ctx, buyer.ID, "7 Sea Ln")
	require.NoError(t, err)

	_, err = users.ChangeRole(ctx, principal(admin), admin.ID, "USER")
	assert.ErrorIs(t, err, ErrOwnRole)
	_, err = users.ChangeRole(ctx, principal(admin), idle.ID, "owner")
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, err = users.ChangeRole(ctx, principal(buyer), idle.ID, "ADMIN")
	assert.ErrorIs(t, err, ErrForbidden)

	changed, err := users.ChangeRole(ctx, principal(admin), idle.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, changed.Role)

	assert.ErrorIs(t, users.DeleteUser(ctx, principal(admin), admin.ID), ErrDeleteSelf)
	assert.ErrorIs(t, users.DeleteUser(ctx, principal(admin), buyer.ID), ErrUserHasOrders)
	assert.ErrorIs(t, users.DeleteUser(ctx, principal(admin), 999), ErrNotFound)
	require.NoError(t, users.DeleteUser(ctx, principal(admin), idle.ID))

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
