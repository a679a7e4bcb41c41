// Package storefronttest builds storefront dependencies over sqlite, an
// in-memory change feed and an in-memory session registry.
package storefronttest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/gateway"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

// Sessions is an in-memory access session registry.
type Sessions struct {
	mu   sync.Mutex
	live map[string]uuid.UUID
}

func NewSessions() *Sessions {
	return &Sessions{live: map[string]uuid.UUID{}}
}

func (s *Sessions) Generate(ctx context.Context, accessID string, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[accessID] = userID
	return nil
}

func (s *Sessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[accessID]
	return ok, nil
}

func (s *Sessions) Revoke(ctx context.Context, accessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, accessID)
	return nil
}

// Len reports live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Config returns a config with cheap argon parameters and no coalescing.
func Config() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Env: "test", Port: "0", LogLevel: "error"},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "storefront-test", ExpirationMinutes: 15},
		Password: config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		Realtime: config.RealtimeConfig{ChannelPrefix: "rt"},
		Profile:  config.ProfileConfig{UpdateTimeout: time.Second},
	}
}

// Env is a ready Deps plus the pieces tests poke at directly.
type Env struct {
	DB       *gorm.DB
	Feed     *gateway.MemoryFeed
	Sessions *Sessions
	Root     afero.Fs
	Deps     storefront.Deps
}

// New wires Deps over a fresh sqlite database.
func New(t testing.TB) *Env {
	t.Helper()
	conn := dbtest.Open(t)
	cfg := Config()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("storefronttest: %v", err)
		}
	}
	svc, err := catalog.NewService(catalog.NewRepository(conn))
	must(err)
	users, err := gateway.NewUserRepository(conn)
	must(err)
	profiles, err := gateway.NewProfileRepository(conn)
	must(err)
	feed := gateway.NewMemoryFeed(cfg.Realtime.ChannelPrefix)
	carts, err := gateway.NewCartItemRepository(conn, feed, nil)
	must(err)
	wishlists, err := gateway.NewWishlistRepository(conn)
	must(err)

	sessions := NewSessions()
	root := afero.NewMemMapFs()
	return &Env{
		DB:       conn,
		Feed:     feed,
		Sessions: sessions,
		Root:     root,
		Deps: storefront.Deps{
			Config:    cfg,
			Root:      root,
			Catalog:   svc,
			Users:     users,
			Profiles:  profiles,
			Carts:     carts,
			Wishlists: wishlists,
			Sessions:  sessions,
			Feed:      feed,
		},
	}
}
