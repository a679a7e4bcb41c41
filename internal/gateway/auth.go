package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstorage"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/security"
	"github.com/google/uuid"
)

// AuthEvent names an auth state transition.
type AuthEvent string

const (
	AuthInitialSession AuthEvent = "INITIAL_SESSION"
	AuthSignedIn       AuthEvent = "SIGNED_IN"
	AuthSignedOut      AuthEvent = "SIGNED_OUT"
)

// AuthSession is an authenticated identity on a device.
type AuthSession struct {
	AccessToken string    `json:"access_token"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
	accessID    string
}

// AuthListener observes auth transitions. session is nil after sign-out.
type AuthListener func(event AuthEvent, session *AuthSession)

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastSignIn(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionRegistry interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) error
	HasSession(ctx context.Context, accessID string) (bool, error)
	Revoke(ctx context.Context, accessID string) error
}

type storedSession struct {
	AccessToken string `json:"access_token"`
}

// AuthParams wires an AuthClient.
type AuthParams struct {
	Users    userStore
	Sessions sessionRegistry
	Local    *localstorage.Storage
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

// AuthClient is the per-device authentication surface. The current access
// token is kept in the device's local storage so a restarted client resumes
// the session.
type AuthClient struct {
	users    userStore
	sessions sessionRegistry
	local    *localstorage.Storage
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time

	mu        sync.Mutex
	current   *AuthSession
	resolved  bool
	nextID    int
	listeners map[int]AuthListener
}

func NewAuthClient(p AuthParams) (*AuthClient, error) {
	if p.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if p.Sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	if p.Local == nil {
		return nil, fmt.Errorf("local storage required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &AuthClient{
		users:     p.Users,
		sessions:  p.Sessions,
		local:     p.Local,
		jwt:       p.JWT,
		password:  p.Password,
		logg:      p.Logger,
		now:       p.Now,
		listeners: map[int]AuthListener{},
	}, nil
}

// GetSession returns the live session or nil. The first call restores the
// token persisted on the device and drops it when expired or revoked.
func (c *AuthClient) GetSession(ctx context.Context) (*AuthSession, error) {
	c.mu.Lock()
	if c.resolved {
		current := c.current
		c.mu.Unlock()
		return current, nil
	}
	c.mu.Unlock()

	restored, err := c.restore(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.resolved {
		c.current = restored
		c.resolved = true
	}
	return c.current, nil
}

func (c *AuthClient) restore(ctx context.Context) (*AuthSession, error) {
	var stored storedSession
	found, err := c.local.Load(localstorage.KeyAuthSession, &stored)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "discarding unreadable stored session")
		c.forgetLocal(ctx)
		return nil, nil
	}
	if !found || stored.AccessToken == "" {
		return nil, nil
	}

	claims, err := auth.ParseAccessToken(c.jwt, stored.AccessToken)
	if err != nil {
		c.forgetLocal(ctx)
		return nil, nil
	}
	live, err := c.sessions.HasSession(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check session")
	}
	if !live {
		c.forgetLocal(ctx)
		return nil, nil
	}
	user, err := c.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		c.forgetLocal(ctx)
		return nil, nil
	}
	return sessionFromClaims(stored.AccessToken, claims), nil
}

// OnAuthStateChange registers fn and immediately replays the current state as
// INITIAL_SESSION. The returned func unregisters it.
func (c *AuthClient) OnAuthStateChange(fn AuthListener) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	current := c.current
	c.mu.Unlock()

	fn(AuthInitialSession, current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// SignUp creates the account and signs it in.
func (c *AuthClient) SignUp(ctx context.Context, email, password string) (*AuthSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if len(password) < security.MinPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", security.MinPasswordLength))
	}

	hash, err := security.HashPassword(password, c.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user := &models.User{Email: email, PasswordHash: hash}
	if err := c.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return c.establish(ctx, user)
}

// SignInWithPassword verifies credentials and signs the user in.
func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	user, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil && !errors.Is(err, security.ErrInvalidHash) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	if err := c.users.TouchLastSignIn(ctx, user.ID, c.now().UTC()); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "failed to record last sign in")
	}
	return c.establish(ctx, user)
}

// SignOut revokes the current session. Signing out without a session is a no-op.
func (c *AuthClient) SignOut(ctx context.Context) error {
	current, err := c.GetSession(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	if accessID := c.accessIDOf(current); accessID != "" {
		if err := c.sessions.Revoke(ctx, accessID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
		}
	}
	c.forgetLocal(ctx)
	c.transition(AuthSignedOut, nil)
	return nil
}

// accessIDOf returns the registry id behind a session, reading the jti from
// the token when the session was restored rather than minted here.
func (c *AuthClient) accessIDOf(session *AuthSession) string {
	if session == nil {
		return ""
	}
	if session.accessID != "" {
		return session.accessID
	}
	if claims, err := auth.ParseAccessTokenAllowExpired(c.jwt, session.AccessToken); err == nil {
		return claims.ID
	}
	return ""
}

// establish mints and registers a new session and replaces the current one,
// revoking the replaced session's registry entry.
func (c *AuthClient) establish(ctx context.Context, user *models.User) (*AuthSession, error) {
	now := c.now()
	accessID := uuid.NewString()
	token, err := auth.MintAccessToken(c.jwt, now, auth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	if err := c.sessions.Generate(ctx, accessID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register session")
	}

	session := &AuthSession{
		AccessToken: token,
		UserID:      user.ID,
		Email:       user.Email,
		ExpiresAt:   now.Add(c.jwt.SessionTTL()).UTC(),
		accessID:    accessID,
	}
	c.mu.Lock()
	previous := c.current
	c.mu.Unlock()
	if prevID := c.accessIDOf(previous); prevID != "" && prevID != accessID {
		if err := c.sessions.Revoke(ctx, prevID); err != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "failed to revoke replaced session")
		}
	}
	if err := c.local.Save(localstorage.KeyAuthSession, storedSession{AccessToken: token}); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "failed to persist session locally")
	}
	c.transition(AuthSignedIn, session)
	return session, nil
}

// transition swaps the current session and notifies listeners in
// registration order, outside the lock.
func (c *AuthClient) transition(event AuthEvent, session *AuthSession) {
	c.mu.Lock()
	c.current = session
	c.resolved = true
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]AuthListener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

func (c *AuthClient) forgetLocal(ctx context.Context) {
	if err := c.local.Remove(localstorage.KeyAuthSession); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "failed to clear stored session")
	}
}

func sessionFromClaims(token string, claims *auth.AccessTokenClaims) *AuthSession {
	session := &AuthSession{
		AccessToken: token,
		UserID:      claims.UserID,
		Email:       claims.Email,
		accessID:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return session
}
