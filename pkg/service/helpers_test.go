package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/events"
	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestStore opens a private in-memory SQLite database with the schema applied.
func newTestStore(t *testing.T) *repository.Store {
	t.Helper()

	db, err := repository.OpenDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	store := repository.NewStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type fixtures struct {
	t     *testing.T
	store *repository.Store
	ctx   context.Context
	seq   int
}

func newFixtures(t *testing.T, store *repository.Store) *fixtures {
	return &fixtures{t: t, store: store, ctx: context.Background()}
}

func (f *fixtures) user(role models.Role) *models.User {
	f.seq++
	u := &models.User{
		Email:    fmt.Sprintf("user%d@example.com", f.seq),
		Password: "x",
		Name:     fmt.Sprintf("User %d", f.seq),
		Role:     role,
	}
	require.NoError(f.t, f.store.Users.Create(f.ctx, u))
	return u
}

func (f *fixtures) category(name string) *models.Category {
	c := &models.Category{Name: name}
	require.NoError(f.t, f.store.Categories.Create(f.ctx, c))
	return c
}

func (f *fixtures) product(categoryID uint, name, price string, stock, sales int) *models.Product {
	p := &models.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		Sales:      sales,
		CategoryID: categoryID,
	}
	require.NoError(f.t, f.store.Products.Create(f.ctx, p))
	return p
}

func (f *fixtures) cart(userID, productID uint, quantity int) *models.CartItem {
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	require.NoError(f.t, f.store.Carts.Create(f.ctx, item))
	return item
}

func (f *fixtures) reload(productID uint) *models.Product {
	p, err := f.store.Products.GetByID(f.ctx, productID)
	require.NoError(f.t, err)
	return p
}

func principal(u *models.User) *auth.Principal {
	return &auth.Principal{
		UserID:    u.ID,
		Role:      u.Role,
		TokenID:   uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.Type)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func testEffects(pub *recordingPublisher) *Effects {
	if pub == nil {
		return NewEffects(nil, nil, zap.NewNop())
	}
	return NewEffects(repository.NopAuditLog{}, pub, zap.NewNop())
}
