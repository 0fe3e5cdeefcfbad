// Package session owns the current identity: login, cache restore, expiry,
// and the admin impersonation pairing.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gitlab.com/chanrith/orderdesk/internal/cache"
	"gitlab.com/chanrith/orderdesk/internal/logger"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

var (
	// ErrNoSession means no cached session exists; the caller should show login.
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired means the cached session outlived its validity window.
	ErrSessionExpired = errors.New("session expired")
	// ErrBadCredentials is the generic login rejection. It deliberately does
	// not distinguish an unknown user from a wrong password.
	ErrBadCredentials = errors.New("invalid username or password")
	// ErrNotAdmin guards impersonation entry.
	ErrNotAdmin = errors.New("active user is not a system admin")
	// ErrNoOriginalAdmin means return-to-admin was requested outside impersonation.
	ErrNoOriginalAdmin = errors.New("no original admin session preserved")
)

// UserSource provides the authoritative user list for credential checks.
type UserSource interface {
	GetUsers(ctx context.Context) ([]models.User, error)
}

// Manager holds the process-wide session singleton and the optional
// impersonation pairing. All mutation goes through its methods.
type Manager struct {
	store *cache.Store
	users UserSource
	clock func() time.Time

	mu            sync.Mutex
	current       *models.Session
	originalAdmin *models.Session
}

// NewManager creates a session manager persisting through store.
func NewManager(store *cache.Store, users UserSource) *Manager {
	return &Manager{
		store: store,
		users: users,
		clock: time.Now,
	}
}

// Restore loads the cached session, enforcing the expiry window BEFORE any
// data fetch happens. An expired session is cleared and reported as
// ErrSessionExpired; the absence of one as ErrNoSession.
func (m *Manager) Restore(ctx context.Context) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var admin models.Session
	if _, ok, err := m.store.GetJSON(ctx, cache.KeyOriginalAdmin, &admin); err != nil {
		return models.Session{}, err
	} else if ok {
		m.originalAdmin = &admin
	}

	var sess models.Session
	_, ok, err := m.store.GetJSON(ctx, cache.KeySession, &sess)
	if err != nil {
		return models.Session{}, err
	}
	if !ok {
		return models.Session{}, ErrNoSession
	}

	if sess.Expired(m.clock()) {
		m.logoutLocked(ctx)
		return models.Session{}, ErrSessionExpired
	}

	m.current = &sess
	return sess, nil
}

// Login checks credentials against the fetched user list by exact equality
// and, on success, creates and persists a fresh session.
func (m *Manager) Login(ctx context.Context, username, password string) (models.Session, error) {
	users, err := m.users.GetUsers(ctx)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to fetch user list: %w", err)
	}

	var match *models.User
	for i := range users {
		if users[i].UserName == username && users[i].Password == password {
			match = &users[i]
			break
		}
	}
	if match == nil {
		return models.Session{}, ErrBadCredentials
	}
	if err := match.Validate(); err != nil {
		return models.Session{}, fmt.Errorf("rejecting malformed user row: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess := models.NewSession(*match, m.clock())
	if err := m.store.SetJSON(ctx, cache.KeySession, sess); err != nil {
		return models.Session{}, err
	}
	m.current = &sess
	m.originalAdmin = nil

	logger.Log.Info().
		Str("user_hash", logger.HashUserName(match.UserName)).
		Bool("admin", match.IsSystemAdmin).
		Msg("Login succeeded")
	return sess, nil
}

// Current returns the active session, if any.
func (m *Manager) Current() (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return models.Session{}, false
	}
	return *m.current, true
}

// IsImpersonating reports whether an original admin identity is preserved
// behind the active session.
func (m *Manager) IsImpersonating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.originalAdmin != nil
}

// OriginalAdmin returns the preserved admin session during impersonation.
func (m *Manager) OriginalAdmin() (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.originalAdmin == nil {
		return models.Session{}, false
	}
	return *m.originalAdmin, true
}

// Impersonate switches the active session to target while preserving the
// current admin identity for a later ReturnToAdmin. Only a system admin who
// is not already impersonating may enter this state.
func (m *Manager) Impersonate(ctx context.Context, target models.User) error {
	if err := target.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.User.IsSystemAdmin {
		return ErrNotAdmin
	}
	if m.originalAdmin != nil {
		return errors.New("already impersonating another user")
	}

	admin := *m.current
	if err := m.store.SetJSON(ctx, cache.KeyOriginalAdmin, admin); err != nil {
		return err
	}
	sess := models.NewSession(target, m.clock())
	if err := m.store.SetJSON(ctx, cache.KeySession, sess); err != nil {
		return err
	}

	m.originalAdmin = &admin
	m.current = &sess

	logger.Log.Info().
		Str("admin_hash", logger.HashUserName(admin.User.UserName)).
		Str("target_hash", logger.HashUserName(target.UserName)).
		Msg("Impersonation started")
	return nil
}

// FullLoginAs replaces the session with target outright, keeping no admin
// pointer. Unlike Impersonate there is no way back except logging in again.
func (m *Manager) FullLoginAs(ctx context.Context, target models.User) error {
	if err := target.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.User.IsSystemAdmin {
		return ErrNotAdmin
	}

	if err := m.store.Invalidate(ctx, cache.KeyOriginalAdmin); err != nil {
		return err
	}
	sess := models.NewSession(target, m.clock())
	if err := m.store.SetJSON(ctx, cache.KeySession, sess); err != nil {
		return err
	}

	m.originalAdmin = nil
	m.current = &sess
	return nil
}

// ReturnToAdmin ends impersonation, restoring the preserved admin session.
func (m *Manager) ReturnToAdmin(ctx context.Context) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.originalAdmin == nil {
		return models.Session{}, ErrNoOriginalAdmin
	}

	admin := *m.originalAdmin
	if err := m.store.SetJSON(ctx, cache.KeySession, admin); err != nil {
		return models.Session{}, err
	}
	if err := m.store.Invalidate(ctx, cache.KeyOriginalAdmin); err != nil {
		return models.Session{}, err
	}

	m.current = &admin
	m.originalAdmin = nil
	return admin, nil
}

// Logout destroys the session and every cached dataset tied to it.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutLocked(ctx)
}

func (m *Manager) logoutLocked(ctx context.Context) {
	for _, key := range []string{
		cache.KeySession,
		cache.KeyOriginalAdmin,
		cache.KeyAppData,
		cache.KeyAdminOrders,
		cache.KeyAdminReports,
	} {
		if err := m.store.Invalidate(ctx, key); err != nil {
			logger.Log.Warn().Err(err).Str("key", key).Msg("Failed to clear cache key on logout")
		}
	}
	m.current = nil
	m.originalAdmin = nil
}

// RefreshUser re-reads the active user's row after a profile update and
// re-persists the session with the fresh data, keeping the original creation
// time so the expiry window is unchanged.
func (m *Manager) RefreshUser(ctx context.Context, updated models.User) error {
	if err := updated.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoSession
	}
	if m.current.User.UserName != updated.UserName {
		return fmt.Errorf("profile update for %q does not match active session", updated.UserName)
	}

	sess := models.Session{User: updated, CreatedAt: m.current.CreatedAt}
	if err := m.store.SetJSON(ctx, cache.KeySession, sess); err != nil {
		return err
	}
	m.current = &sess
	return nil
}
