package gateway

import (
	"context"
	"encoding/json"
	"time"
)

// AuditEntry describes one user action for the remote audit log.
type AuditEntry struct {
	UserName string
	Action   string
	Details  map[string]any
}

// WriteLog posts one audit entry and waits for the outcome. Most callers
// want WriteLogAsync instead.
func (c *Client) WriteLog(ctx context.Context, entry AuditEntry) error {
	details := "{}"
	if entry.Details != nil {
		if raw, err := json.Marshal(entry.Details); err == nil {
			details = string(raw)
		}
	}
	userName := entry.UserName
	if userName == "" {
		userName = "N/A"
	}
	body := map[string]any{
		"action": "writeLog",
		"logData": map[string]any{
			"Timestamp": time.Now().UTC().Format(time.RFC3339),
			"UserName":  userName,
			"Action":    entry.Action,
			"Details":   details,
		},
	}
	_, err := c.post(ctx, "writeLog", body)
	return err
}

// WriteLogAsync records an audit entry on a best-effort basis. It never
// blocks the caller and never surfaces a failure: delivery is not guaranteed,
// there is no retry, and errors go to the diagnostic log only. The write is
// detached from the caller's context so a finishing operation cannot cancel
// its own audit trail.
func (c *Client) WriteLogAsync(ctx context.Context, entry AuditEntry) {
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := c.WriteLog(detached, entry); err != nil {
			logGatewayError("writeLog", err)
		}
	}()
}
