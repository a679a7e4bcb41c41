package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/gateway"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/localstorage"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/google/uuid"
)

const defaultUpdateTimeout = 10 * time.Second

// profileFields lists the columns UpdateProfile may write. Anything else is dropped.
var profileFields = map[string]struct{}{
	"display_name":  {},
	"full_name":     {},
	"phone":         {},
	"avatar_url":    {},
	"date_of_birth": {},
	"gender":        {},
}

// Identity is the signed-in user as seen by the rest of the client.
type Identity struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Listener receives every identity replacement; nil means anonymous.
type Listener func(identity *Identity)

type authClient interface {
	GetSession(ctx context.Context) (*gateway.AuthSession, error)
	OnAuthStateChange(fn gateway.AuthListener) func()
	SignUp(ctx context.Context, email, password string) (*gateway.AuthSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*gateway.AuthSession, error)
	SignOut(ctx context.Context) error
}

type profileStore interface {
	Create(ctx context.Context, profile *models.Profile) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, columns map[string]any) (*models.Profile, error)
}

// Params wires a Store.
type Params struct {
	Auth          authClient
	Profiles      profileStore
	Local         *localstorage.Storage
	Logger        *logger.Logger
	UpdateTimeout time.Duration
}

// Store holds the device's current identity. It is loading until Init
// resolves the persisted session.
type Store struct {
	auth          authClient
	profiles      profileStore
	local         *localstorage.Storage
	logg          *logger.Logger
	updateTimeout time.Duration

	mu          sync.Mutex
	identity    *Identity
	loading     bool
	nextID      int
	listeners   map[int]Listener
	stopAuthSub func()
}

func NewStore(p Params) (*Store, error) {
	if p.Auth == nil {
		return nil, fmt.Errorf("auth client required")
	}
	if p.Profiles == nil {
		return nil, fmt.Errorf("profile store required")
	}
	if p.Local == nil {
		return nil, fmt.Errorf("local storage required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.UpdateTimeout <= 0 {
		p.UpdateTimeout = defaultUpdateTimeout
	}
	return &Store{
		auth:          p.Auth,
		profiles:      p.Profiles,
		local:         p.Local,
		logg:          p.Logger,
		updateTimeout: p.UpdateTimeout,
		loading:       true,
		listeners:     map[int]Listener{},
	}, nil
}

// Init resolves the existing session, then follows auth changes until Close.
// Listeners are notified once with the resolved identity.
func (s *Store) Init(ctx context.Context) error {
	current, err := s.auth.GetSession(ctx)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.logg.Error(ctx, "failed to resolve session", err)
		return err
	}

	s.replace(identityFrom(current))

	stop := s.auth.OnAuthStateChange(func(event gateway.AuthEvent, session *gateway.AuthSession) {
		if event == gateway.AuthInitialSession {
			return
		}
		s.replace(identityFrom(session))
	})
	s.mu.Lock()
	if s.stopAuthSub != nil {
		s.stopAuthSub()
	}
	s.stopAuthSub = stop
	s.mu.Unlock()
	return nil
}

// Identity returns the signed-in user or nil.
func (s *Store) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	copied := *s.identity
	return &copied
}

// Loading reports whether the initial session is still being resolved.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Subscribe registers fn for identity replacements.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// SignUp creates the account and its profile. A profile failure is logged and
// the account is kept; UpdateProfile creates the row later.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) (*Identity, error) {
	created, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	profile := &models.Profile{ID: created.UserID, Email: created.Email, DisplayName: displayName}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, created.UserID.String()), "profile creation failed after sign-up", err)
	}
	return identityFrom(created), nil
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	signedIn, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return identityFrom(signedIn), nil
}

func (s *Store) SignOut(ctx context.Context) error {
	return s.auth.SignOut(ctx)
}

// Profile returns the remote profile, falling back to the local mirror when
// the remote store is unreachable.
func (s *Store) Profile(ctx context.Context) (*models.Profile, error) {
	identity := s.Identity()
	if identity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	profile, err := s.profiles.FindByUserID(ctx, identity.UserID)
	if err == nil {
		return profile, nil
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		var mirrored models.Profile
		if found, lerr := s.local.Load(localstorage.KeyUserProfile, &mirrored); lerr == nil && found && mirrored.ID == identity.UserID {
			return &mirrored, nil
		}
	}
	return nil, err
}

// UpdateProfile writes every allowed key present in fields, including empty
// strings, under the configured timeout. Unknown keys are ignored.
func (s *Store) UpdateProfile(ctx context.Context, fields map[string]any) (*models.Profile, error) {
	identity := s.Identity()
	if identity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}

	columns := make(map[string]any, len(fields))
	var dropped []string
	for key, value := range fields {
		if _, ok := profileFields[key]; !ok {
			dropped = append(dropped, key)
			continue
		}
		switch v := value.(type) {
		case string:
			columns[key] = v
		case nil:
			columns[key] = ""
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a string", key))
		}
	}
	ctx = s.logg.WithUserID(ctx, identity.UserID.String())
	if len(dropped) > 0 {
		sort.Strings(dropped)
		s.logg.Debug(s.logg.WithField(ctx, "fields", dropped), "ignoring unknown profile fields")
	}

	tctx, cancel := context.WithTimeout(ctx, s.updateTimeout)
	defer cancel()

	profile, err := s.profiles.Update(tctx, identity.UserID, columns)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		profile, err = s.createFromColumns(tctx, identity, columns)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(tctx.Err(), context.DeadlineExceeded) {
			err = pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "profile update timed out")
		}
		s.logg.Error(ctx, "profile update failed", err)
		return nil, err
	}

	if lerr := s.local.Save(localstorage.KeyUserProfile, profile); lerr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", lerr.Error()), "failed to mirror profile locally")
	}
	return profile, nil
}

// Close stops following auth changes and drops all listeners.
func (s *Store) Close() {
	s.mu.Lock()
	stop := s.stopAuthSub
	s.stopAuthSub = nil
	s.listeners = map[int]Listener{}
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (s *Store) createFromColumns(ctx context.Context, identity *Identity, columns map[string]any) (*models.Profile, error) {
	profile := &models.Profile{ID: identity.UserID, Email: identity.Email}
	for key, value := range columns {
		v, _ := value.(string)
		switch key {
		case "display_name":
			profile.DisplayName = v
		case "full_name":
			profile.FullName = v
		case "phone":
			profile.Phone = v
		case "avatar_url":
			profile.AvatarURL = v
		case "date_of_birth":
			profile.DateOfBirth = v
		case "gender":
			profile.Gender = v
		}
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// replace swaps the identity and notifies listeners in registration order.
func (s *Store) replace(identity *Identity) {
	s.mu.Lock()
	s.identity = identity
	s.loading = false
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		if identity == nil {
			fn(nil)
			continue
		}
		copied := *identity
		fn(&copied)
	}
}

func identityFrom(session *gateway.AuthSession) *Identity {
	if session == nil {
		return nil
	}
	return &Identity{
		UserID:      session.UserID,
		Email:       session.Email,
		AccessToken: session.AccessToken,
		ExpiresAt:   session.ExpiresAt,
	}
}
