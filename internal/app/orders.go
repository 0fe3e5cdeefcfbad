package app

import (
	"context"
	"errors"
	"time"

	"gitlab.com/chanrith/orderdesk/internal/gateway"
	"gitlab.com/chanrith/orderdesk/internal/notify"
	"gitlab.com/chanrith/orderdesk/internal/session"
)

// SubmitOrder finalizes the accumulated draft and posts it. On success the
// draft is reset, the announcement and audit entry go out in the background,
// and the landing view is re-resolved. On failure the draft is left intact so
// nothing has to be retyped.
func (a *App) SubmitOrder(ctx context.Context) (string, session.Landing, error) {
	sess, ok := a.sessions.Current()
	if !ok {
		return "", session.Landing{}, ErrNotSignedIn
	}
	data := a.Data()
	if data == nil {
		return "", session.Landing{}, errors.New("reference data not loaded")
	}

	finalized, err := a.draft.Finalize(data, time.Now())
	if err != nil {
		return "", session.Landing{}, err
	}

	team := a.SelectedTeam()
	req := gateway.NewSubmitOrderRequest(finalized, sess.User, team)
	orderID, err := a.gw.SubmitOrder(ctx, req)
	if err != nil {
		return "", session.Landing{}, err
	}

	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: sess.User.UserName,
		Action:   "submitOrder",
		Details: map[string]any{
			"orderId":    orderID,
			"page":       finalized.Page,
			"grandTotal": finalized.GrandTotal.InexactFloat64(),
		},
	})

	ann := notify.BuildAnnouncement(data.TelegramTemplates, team, orderID, finalized, sess.User)
	a.notifier.SendAsync(ctx, ann)

	a.draft.Reset()
	landing := session.ResolveLanding(sess.User, a.sessions.IsImpersonating())
	a.applyLanding(ctx, landing)
	return orderID, landing, nil
}
