package app

import (
	"context"

	"gitlab.com/chanrith/orderdesk/internal/cache"
	"gitlab.com/chanrith/orderdesk/internal/gateway"
	"gitlab.com/chanrith/orderdesk/internal/logger"
)

// UpdateProfile applies the active user's own profile changes remotely, then
// re-persists the session with the fresh data so the expiry window is kept.
// An empty newPassword leaves the credential untouched.
func (a *App) UpdateProfile(ctx context.Context, fullName, newPassword, pictureURL string) error {
	sess, ok := a.sessions.Current()
	if !ok {
		return ErrNotSignedIn
	}

	update := gateway.ProfileUpdate{
		UserName:          sess.User.UserName,
		FullName:          fullName,
		NewPassword:       newPassword,
		ProfilePictureURL: pictureURL,
	}
	if err := a.gw.UpdateProfile(ctx, update); err != nil {
		return err
	}

	updated := sess.User
	updated.FullName = fullName
	updated.ProfilePictureURL = pictureURL
	if newPassword != "" {
		updated.Password = newPassword
	}
	if err := a.sessions.RefreshUser(ctx, updated); err != nil {
		return err
	}

	// The cached user list is now stale; refetch rather than patch it.
	if err := a.store.Invalidate(ctx, cache.KeyAppData); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to drop reference data cache")
	}
	if err := a.loadAppData(ctx, true); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to reload reference data after profile update")
	}

	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: sess.User.UserName,
		Action:   "updateUserProfile",
	})
	return nil
}
