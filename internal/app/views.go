package app

import (
	"context"

	"gitlab.com/chanrith/orderdesk/internal/logger"
	"gitlab.com/chanrith/orderdesk/internal/session"
)

// ViewHandler renders one view when navigation lands on it.
type ViewHandler func(ctx context.Context, a *App, landing session.Landing)

// RegisterView binds a handler to a view. Navigation to an unregistered view
// still updates the current-view state; it just renders nothing.
func (a *App) RegisterView(view session.View, handler ViewHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.views[view] = handler
}

// Navigate moves to a view explicitly and invokes its handler.
func (a *App) Navigate(ctx context.Context, landing session.Landing) {
	a.setView(landing)

	a.mu.Lock()
	handler := a.views[landing.View]
	a.mu.Unlock()

	if handler == nil {
		logger.Log.Debug().Stringer("view", landing.View).Msg("No handler registered for view")
		return
	}
	handler(ctx, a, landing)
}

// CurrentView returns the view the app is presently on.
func (a *App) CurrentView() session.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentView
}

func (a *App) setView(landing session.Landing) {
	a.mu.Lock()
	a.currentView = landing.View
	a.mu.Unlock()
}
