// Package app is the state container tying the pieces together: session,
// reference data, the order draft, the admin synchronizer, and the view
// registry. All application state lives here rather than in globals.
package app

import (
	"context"
	"errors"
	stdsync "sync"

	"gitlab.com/chanrith/orderdesk/internal/cache"
	"gitlab.com/chanrith/orderdesk/internal/config"
	"gitlab.com/chanrith/orderdesk/internal/draft"
	"gitlab.com/chanrith/orderdesk/internal/gateway"
	"gitlab.com/chanrith/orderdesk/internal/logger"
	"gitlab.com/chanrith/orderdesk/internal/models"
	"gitlab.com/chanrith/orderdesk/internal/notify"
	"gitlab.com/chanrith/orderdesk/internal/session"
	adminsync "gitlab.com/chanrith/orderdesk/internal/sync"
)

// ErrNotSignedIn guards operations that need an active session.
var ErrNotSignedIn = errors.New("not signed in")

// ErrAdminOnly guards the admin console operations.
var ErrAdminOnly = errors.New("operation requires a system admin")

// App owns all runtime state for one client instance.
type App struct {
	cfg      *config.Config
	store    *cache.Store
	gw       *gateway.Client
	sessions *session.Manager
	draft    *draft.Accumulator
	notifier *notify.Notifier

	// OnAdminData, when set, is invoked after the synchronizer refreshes the
	// admin datasets while the admin view is on screen.
	OnAdminData func(adminsync.Snapshot)

	mu           stdsync.Mutex
	data         *models.AppData
	selectedTeam string
	currentView  session.View
	views        map[session.View]ViewHandler
	syncer       *adminsync.Synchronizer
	syncCancel   context.CancelFunc
}

// New wires an App from its parts. notifier may be nil.
func New(cfg *config.Config, store *cache.Store, gw *gateway.Client, notifier *notify.Notifier) *App {
	return &App{
		cfg:         cfg,
		store:       store,
		gw:          gw,
		sessions:    session.NewManager(store, gw),
		draft:       draft.New(),
		notifier:    notifier,
		currentView: session.ViewLogin,
		views:       make(map[session.View]ViewHandler),
	}
}

// Sessions exposes the session manager for direct state queries.
func (a *App) Sessions() *session.Manager { return a.sessions }

// Draft exposes the order accumulator.
func (a *App) Draft() *draft.Accumulator { return a.draft }

// Data returns the loaded reference dataset, which may be nil before Bootstrap.
func (a *App) Data() *models.AppData {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// SelectedTeam returns the team the active user is working under.
func (a *App) SelectedTeam() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selectedTeam
}

// Ping verifies the gateway is reachable.
func (a *App) Ping(ctx context.Context) error {
	return a.gw.Ping(ctx)
}

// Bootstrap restores a cached session and loads reference data. The session
// expiry check runs before anything is fetched; an expired or missing session
// lands on login without touching the network for data. forceRefresh bypasses
// the reference-data cache; it never affects the session itself.
func (a *App) Bootstrap(ctx context.Context, forceRefresh bool) (session.Landing, error) {
	a.draft.Reset()

	sess, err := a.sessions.Restore(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrSessionExpired) {
			a.setView(session.Landing{View: session.ViewLogin})
			return session.Landing{View: session.ViewLogin}, nil
		}
		return session.Landing{}, err
	}

	if err := a.loadAppData(ctx, forceRefresh); err != nil {
		return session.Landing{}, err
	}

	landing := session.ResolveLanding(sess.User, a.sessions.IsImpersonating())
	a.applyLanding(ctx, landing)
	return landing, nil
}

// Login authenticates and resolves the landing view.
func (a *App) Login(ctx context.Context, username, password string) (session.Landing, error) {
	sess, err := a.sessions.Login(ctx, username, password)
	if err != nil {
		return session.Landing{}, err
	}

	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: sess.User.UserName,
		Action:   "login",
	})

	if err := a.loadAppData(ctx, false); err != nil {
		return session.Landing{}, err
	}

	a.draft.Reset()
	landing := session.ResolveLanding(sess.User, false)
	a.applyLanding(ctx, landing)
	return landing, nil
}

// Logout audits, tears down the synchronizer, and clears every cache key.
func (a *App) Logout(ctx context.Context) {
	if sess, ok := a.sessions.Current(); ok {
		a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
			UserName: sess.User.UserName,
			Action:   "logout",
		})
	}

	a.stopSync()
	a.sessions.Logout(ctx)
	a.draft.Reset()

	a.mu.Lock()
	a.data = nil
	a.selectedTeam = ""
	a.mu.Unlock()

	a.setView(session.Landing{View: session.ViewLogin})
}

// SelectTeam records the team choice and moves to order entry.
func (a *App) SelectTeam(ctx context.Context, team string) (session.Landing, error) {
	sess, ok := a.sessions.Current()
	if !ok {
		return session.Landing{}, ErrNotSignedIn
	}
	valid := false
	for _, t := range sess.User.Teams() {
		if t == team {
			valid = true
			break
		}
	}
	if !valid {
		return session.Landing{}, errors.New("user is not a member of that team")
	}

	landing := session.Landing{View: session.ViewOrderEntry, Team: team}
	a.applyLanding(ctx, landing)
	return landing, nil
}

// ChooseUserRole is a hybrid admin opting into the order-entry path.
func (a *App) ChooseUserRole(ctx context.Context) (session.Landing, error) {
	sess, ok := a.sessions.Current()
	if !ok {
		return session.Landing{}, ErrNotSignedIn
	}
	landing := session.ResolveUserRole(sess.User)
	a.applyLanding(ctx, landing)
	return landing, nil
}

// ChooseAdminRole is a hybrid admin opting into the admin console.
func (a *App) ChooseAdminRole(ctx context.Context) (session.Landing, error) {
	sess, ok := a.sessions.Current()
	if !ok {
		return session.Landing{}, ErrNotSignedIn
	}
	if !sess.User.IsSystemAdmin {
		return session.Landing{}, ErrAdminOnly
	}
	landing := session.Landing{View: session.ViewAdminDashboard}
	a.applyLanding(ctx, landing)
	return landing, nil
}

// RefreshData force-reloads the reference dataset, bypassing the TTL. For an
// active admin it also drops the heavy caches so the synchronizer refetches.
func (a *App) RefreshData(ctx context.Context) error {
	sess, ok := a.sessions.Current()
	if !ok {
		return ErrNotSignedIn
	}
	if err := a.loadAppData(ctx, true); err != nil {
		return err
	}
	a.invalidateAdminCaches(ctx)
	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: sess.User.UserName,
		Action:   "refreshData",
	})
	return nil
}

// Impersonate switches to target's identity, preserving the admin session.
func (a *App) Impersonate(ctx context.Context, username string) (session.Landing, error) {
	target, err := a.lookupUser(ctx, username)
	if err != nil {
		return session.Landing{}, err
	}

	admin, _ := a.sessions.Current()
	if err := a.sessions.Impersonate(ctx, target); err != nil {
		return session.Landing{}, err
	}

	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: admin.User.UserName,
		Action:   "impersonate",
		Details:  map[string]any{"target": target.UserName},
	})

	a.stopSync()
	a.draft.Reset()
	landing := session.ResolveLanding(target, true)
	a.applyLanding(ctx, landing)
	return landing, nil
}

// FullLoginAs replaces the admin session with target's outright.
func (a *App) FullLoginAs(ctx context.Context, username string) (session.Landing, error) {
	target, err := a.lookupUser(ctx, username)
	if err != nil {
		return session.Landing{}, err
	}

	admin, _ := a.sessions.Current()
	if err := a.sessions.FullLoginAs(ctx, target); err != nil {
		return session.Landing{}, err
	}

	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: admin.User.UserName,
		Action:   "fullLoginAs",
		Details:  map[string]any{"target": target.UserName},
	})

	a.stopSync()
	a.draft.Reset()
	landing := session.ResolveLanding(target, false)
	a.applyLanding(ctx, landing)
	return landing, nil
}

// ReturnToAdmin ends impersonation and lands back on the admin console.
func (a *App) ReturnToAdmin(ctx context.Context) (session.Landing, error) {
	admin, err := a.sessions.ReturnToAdmin(ctx)
	if err != nil {
		return session.Landing{}, err
	}
	a.draft.Reset()
	landing := session.ResolveLanding(admin.User, false)
	a.applyLanding(ctx, landing)
	return landing, nil
}

// lookupUser resolves a username against loaded data, falling back to a
// fresh fetch when the reference set is not loaded.
func (a *App) lookupUser(ctx context.Context, username string) (models.User, error) {
	if data := a.Data(); data != nil {
		if user, ok := data.UserByName(username); ok {
			return user, nil
		}
	}
	users, err := a.gw.GetUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.UserName == username {
			return u, nil
		}
	}
	return models.User{}, errors.New("unknown user: " + username)
}

// loadAppData fills the in-memory reference dataset. Unless force is set, a
// cache entry younger than the TTL is trusted without a network round trip.
// The static tables and the user list are fetched concurrently; if the fetch
// fails but a stale cache copy exists, the stale copy is used.
func (a *App) loadAppData(ctx context.Context, force bool) error {
	if !force {
		var data models.AppData
		fresh, err := a.store.GetJSONFresh(ctx, cache.KeyAppData, models.AppDataTTL, &data)
		if err != nil {
			return err
		}
		if fresh {
			a.mu.Lock()
			a.data = &data
			a.mu.Unlock()
			return nil
		}
	}

	var wg stdsync.WaitGroup
	var static *models.AppData
	var users []models.User
	var staticErr, usersErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		static, staticErr = a.gw.GetStaticData(ctx)
	}()
	go func() {
		defer wg.Done()
		users, usersErr = a.gw.GetUsers(ctx)
	}()
	wg.Wait()

	if staticErr != nil || usersErr != nil {
		fetchErr := errors.Join(staticErr, usersErr)
		var stale models.AppData
		if _, ok, cacheErr := a.store.GetJSON(ctx, cache.KeyAppData, &stale); cacheErr == nil && ok {
			logger.Log.Warn().Err(fetchErr).Msg("Reference data fetch failed, using stale cache")
			a.mu.Lock()
			a.data = &stale
			a.mu.Unlock()
			return nil
		}
		return fetchErr
	}

	static.Users = users
	if err := a.store.SetJSON(ctx, cache.KeyAppData, static); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to persist reference data cache")
	}

	a.mu.Lock()
	a.data = static
	a.mu.Unlock()
	return nil
}

// applyLanding records the landing outcome: team selection, view change, and
// the admin synchronizer lifecycle.
func (a *App) applyLanding(ctx context.Context, landing session.Landing) {
	a.mu.Lock()
	if landing.View == session.ViewOrderEntry {
		a.selectedTeam = landing.Team
	}
	a.mu.Unlock()

	if landing.View == session.ViewAdminDashboard {
		a.startSync(ctx)
	} else {
		a.stopSync()
	}
	a.setView(landing)
}

// startSync primes and starts the admin synchronizer if not already running.
func (a *App) startSync(ctx context.Context) {
	a.mu.Lock()
	if a.syncer != nil {
		a.mu.Unlock()
		return
	}
	syncer := adminsync.New(a.gw, a.store, a.cfg.SyncInterval, a.adminVisible, a.handleAdminRefresh)
	a.syncer = syncer
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.syncCancel = cancel
	a.mu.Unlock()

	if err := syncer.Prime(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("Admin cache priming failed")
	}
	go syncer.Run(runCtx)
}

func (a *App) stopSync() {
	a.mu.Lock()
	cancel := a.syncCancel
	a.syncer = nil
	a.syncCancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *App) adminVisible() bool {
	return a.CurrentView() == session.ViewAdminDashboard
}

func (a *App) handleAdminRefresh(snap adminsync.Snapshot) {
	if a.OnAdminData != nil {
		a.OnAdminData(snap)
	}
}

// Close stops background work and releases the cache.
func (a *App) Close() error {
	a.stopSync()
	return a.store.Close()
}
