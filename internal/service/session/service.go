package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"infohub/internal/backend"
	"infohub/internal/domain"
	"infohub/internal/localstore"
	"infohub/internal/service/cart"
	"infohub/internal/service/favorites"
)

// Backend is the auth slice of the REST backend.
type Backend interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	Me(ctx context.Context, token string) (domain.User, error)
}

// Session is one client device: its scoped local store plus the per-user managers.
type Session struct {
	ID        string
	Store     localstore.Store
	Cart      *cart.Manager
	Favorites *favorites.Manager

	mu            sync.Mutex
	authExpiresAt time.Time
	seenAt        time.Time
}

func (s *Session) lastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seenAt
}

// marker is persisted under KeySession so a session survives process restarts.
type marker struct {
	CreatedAt     time.Time `json:"criadoEm"`
	AuthExpiresAt time.Time `json:"expiraEm,omitempty"`
}

// Service issues sessions and runs sign-in, sign-out and auth expiry against the local store.
type Service struct {
	backend   Backend
	store     localstore.Store
	favorites favorites.Backend
	ttl       time.Duration
	logger    *log.Logger
	now       func() time.Time

	sessions *registry
}

type Option func(*Service)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(b Backend, store localstore.Store, fav favorites.Backend, ttl time.Duration, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Service{
		backend:   b,
		store:     store,
		favorites: fav,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
		sessions:  newRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func keyPrefix(id string) string {
	return "sessao:" + id + ":"
}

func (s *Service) build(id string) *Session {
	scoped := localstore.WithPrefix(s.store, keyPrefix(id))
	return &Session{
		ID:        id,
		Store:     scoped,
		Cart:      cart.NewManager(scoped, s.logger),
		Favorites: favorites.NewManager(s.favorites, s.logger),
		seenAt:    s.now(),
	}
}

// Open issues a new anonymous session.
func (s *Service) Open(ctx context.Context) (*Session, error) {
	if n := s.sessions.evictIdle(s.now(), s.ttl); n > 0 {
		s.logger.Printf("session: evicted idle=%d", n)
	}
	sess := s.build(uuid.NewString())
	if err := localstore.SetJSON(ctx, sess.Store, localstore.KeySession, marker{CreatedAt: s.now().UTC()}); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return s.sessions.put(sess), nil
}

// Get returns the session for id, reviving it from the store when it is not in memory.
// Expired sign-ins are cleaned up here. Unknown ids yield domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	sess, ok := s.sessions.get(id)
	if !ok {
		var err error
		if sess, err = s.revive(ctx, id); err != nil {
			return nil, err
		}
	}

	now := s.now()
	sess.mu.Lock()
	sess.seenAt = now
	expired := !sess.authExpiresAt.IsZero() && now.After(sess.authExpiresAt)
	if expired {
		sess.authExpiresAt = time.Time{}
	}
	sess.mu.Unlock()

	if expired {
		s.logger.Printf("session: auth expired id=%s", id)
		s.clearAuth(ctx, sess)
	}
	return sess, nil
}

func (s *Service) revive(ctx context.Context, id string) (*Session, error) {
	sess := s.build(id)
	var m marker
	if err := localstore.GetJSON(ctx, sess.Store, localstore.KeySession, &m); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("revive session %s: %w", id, err)
	}
	sess.authExpiresAt = m.AuthExpiresAt
	if err := sess.Cart.Restore(ctx); err != nil {
		s.logger.Printf("session: restore cart id=%s error=%v", id, err)
	}
	if m.AuthExpiresAt.IsZero() || !s.now().After(m.AuthExpiresAt) {
		s.restoreFavorites(ctx, sess)
	}
	s.logger.Printf("session: revived id=%s", id)
	return s.sessions.put(sess), nil
}

func (s *Service) restoreFavorites(ctx context.Context, sess *Session) {
	if user, token, err := s.credentials(ctx, sess); err == nil {
		sess.Favorites.SetUser(user, token)
		if err := sess.Favorites.Load(ctx); err != nil {
			s.logger.Printf("session: restore favorites id=%s error=%v", sess.ID, err)
		}
	}
}

// Login signs in against the backend and stores the token and profile in the session.
func (s *Service) Login(ctx context.Context, sess *Session, email, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return domain.User{}, fmt.Errorf("email and password required: %w", domain.ErrInvalidFormat)
	}
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	if err := sess.Store.Set(ctx, localstore.KeyToken, res.Token); err != nil {
		return domain.User{}, fmt.Errorf("store token: %w", err)
	}
	if err := localstore.SetJSON(ctx, sess.Store, localstore.KeyUser, res.User); err != nil {
		return domain.User{}, fmt.Errorf("store user: %w", err)
	}

	expires := s.now().Add(s.ttl)
	sess.mu.Lock()
	sess.authExpiresAt = expires
	sess.mu.Unlock()
	s.writeMarker(ctx, sess, expires)

	user := res.User
	sess.Favorites.SetUser(&user, res.Token)
	if err := sess.Favorites.Load(ctx); err != nil {
		s.logger.Printf("session: load favorites id=%s error=%v", sess.ID, err)
	}
	s.logger.Printf("session: login id=%s user=%d", sess.ID, user.ID)
	return user, nil
}

// Logout removes the auth and establishment keys and resets favorites. The address and cart stay.
func (s *Service) Logout(ctx context.Context, sess *Session) error {
	sess.mu.Lock()
	sess.authExpiresAt = time.Time{}
	sess.mu.Unlock()
	s.writeMarker(ctx, sess, time.Time{})
	if err := s.clearAuth(ctx, sess); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Printf("session: logout id=%s", sess.ID)
	return nil
}

func (s *Service) clearAuth(ctx context.Context, sess *Session) error {
	sess.Favorites.SetUser(nil, "")
	err := localstore.RemoveAll(ctx, sess.Store, localstore.SessionKeys...)
	if err != nil {
		s.logger.Printf("session: clear keys id=%s error=%v", sess.ID, err)
	}
	return err
}

func (s *Service) writeMarker(ctx context.Context, sess *Session, authExpiresAt time.Time) {
	var m marker
	if err := localstore.GetJSON(ctx, sess.Store, localstore.KeySession, &m); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Printf("session: read marker id=%s error=%v", sess.ID, err)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}
	m.AuthExpiresAt = authExpiresAt
	if err := localstore.SetJSON(ctx, sess.Store, localstore.KeySession, m); err != nil {
		s.logger.Printf("session: write marker id=%s error=%v", sess.ID, err)
	}
}

func (s *Service) credentials(ctx context.Context, sess *Session) (*domain.User, string, error) {
	token, err := sess.Store.Get(ctx, localstore.KeyToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNotAuthenticated
		}
		return nil, "", err
	}
	var user domain.User
	if err := localstore.GetJSON(ctx, sess.Store, localstore.KeyUser, &user); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNotAuthenticated
		}
		return nil, "", err
	}
	return &user, token, nil
}

// Token returns the stored auth token, or "" when signed out.
func (s *Service) Token(ctx context.Context, sess *Session) string {
	token, err := sess.Store.Get(ctx, localstore.KeyToken)
	if err != nil {
		return ""
	}
	return token
}

// User returns the stored profile or domain.ErrNotAuthenticated.
func (s *Service) User(ctx context.Context, sess *Session) (domain.User, error) {
	user, _, err := s.credentials(ctx, sess)
	if err != nil {
		return domain.User{}, err
	}
	return *user, nil
}

// RefreshUser re-reads the profile from the backend, keeping the stored copy on failure.
func (s *Service) RefreshUser(ctx context.Context, sess *Session) (domain.User, error) {
	cached, token, err := s.credentials(ctx, sess)
	if err != nil {
		return domain.User{}, err
	}
	fresh, err := s.backend.Me(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			// backend revoked the token
			_ = s.Logout(ctx, sess)
			return domain.User{}, err
		}
		s.logger.Printf("session: refresh user id=%s error=%v", sess.ID, err)
		return *cached, nil
	}
	if err := localstore.SetJSON(ctx, sess.Store, localstore.KeyUser, fresh); err != nil {
		s.logger.Printf("session: store user id=%s error=%v", sess.ID, err)
	}
	return fresh, nil
}

// SetEstablishment stores the establishment the user is browsing.
func (s *Service) SetEstablishment(ctx context.Context, sess *Session, est domain.Establishment) error {
	if est.ID <= 0 {
		return fmt.Errorf("establishment id %d: %w", est.ID, domain.ErrInvalidFormat)
	}
	if err := localstore.SetJSON(ctx, sess.Store, localstore.KeyEstablishment, est); err != nil {
		return fmt.Errorf("store establishment: %w", err)
	}
	if err := sess.Store.Set(ctx, localstore.KeyEstablishmentID, strconv.FormatInt(est.ID, 10)); err != nil {
		return fmt.Errorf("store establishment id: %w", err)
	}
	return nil
}

// Establishment returns the stored establishment or domain.ErrNotFound.
func (s *Service) Establishment(ctx context.Context, sess *Session) (domain.Establishment, error) {
	var est domain.Establishment
	if err := localstore.GetJSON(ctx, sess.Store, localstore.KeyEstablishment, &est); err != nil {
		return domain.Establishment{}, err
	}
	return est, nil
}

// Live reports the number of sessions held in memory.
func (s *Service) Live() int {
	return s.sessions.len()
}
