package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/chanrith/orderdesk/internal/gateway"
	"gitlab.com/chanrith/orderdesk/internal/models"
	adminsync "gitlab.com/chanrith/orderdesk/internal/sync"
)

// sheetNames maps dataset keys to their remote sheet names.
var sheetNames = map[string]string{
	"users":             "Users",
	"products":          "Products",
	"teams":             "TeamsPages",
	"locations":         "Locations",
	"shippingMethods":   "ShippingMethods",
	"drivers":           "Drivers",
	"bankAccounts":      "BankAccounts",
	"phoneCarriers":     "PhoneCarriers",
	"telegramTemplates": "TelegramTemplates",
}

// SheetNameForDataset resolves a dataset key to its remote sheet name.
func SheetNameForDataset(key string) (string, error) {
	name, ok := sheetNames[key]
	if !ok {
		return "", fmt.Errorf("no sheet mapping for dataset %q", key)
	}
	return name, nil
}

// requireAdmin returns the active session if it belongs to a system admin.
func (a *App) requireAdmin() (models.Session, error) {
	sess, ok := a.sessions.Current()
	if !ok {
		return models.Session{}, ErrNotSignedIn
	}
	if !sess.User.IsSystemAdmin {
		return models.Session{}, ErrAdminOnly
	}
	return sess, nil
}

// AdminData fetches every configuration table for the admin console.
func (a *App) AdminData(ctx context.Context) (*gateway.AdminSheets, error) {
	if _, err := a.requireAdmin(); err != nil {
		return nil, err
	}
	return a.gw.GetAdminData(ctx)
}

// AdminSnapshot returns the synchronized orders and reports datasets.
func (a *App) AdminSnapshot() adminsync.Snapshot {
	a.mu.Lock()
	syncer := a.syncer
	a.mu.Unlock()
	if syncer == nil {
		return adminsync.Snapshot{}
	}
	return syncer.Snapshot()
}

// SaveSheet overwrites one configuration table. rows is a header row followed
// by value rows, matching the spreadsheet layout. The write invalidates the
// admin caches so the next poll refetches.
func (a *App) SaveSheet(ctx context.Context, dataset string, rows [][]any) error {
	sess, err := a.requireAdmin()
	if err != nil {
		return err
	}
	sheetName, err := SheetNameForDataset(dataset)
	if err != nil {
		return err
	}

	if err := a.gw.UpdateSheet(ctx, sheetName, rows, sess.User.UserName); err != nil {
		return err
	}

	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: sess.User.UserName,
		Action:   "adminUpdateSheet",
		Details:  map[string]any{"sheetName": sheetName},
	})
	a.invalidateAdminCaches(ctx)
	return nil
}

// DeleteOrder removes a submitted order.
func (a *App) DeleteOrder(ctx context.Context, orderID string) error {
	sess, err := a.requireAdmin()
	if err != nil {
		return err
	}

	if err := a.gw.DeleteOrder(ctx, orderID, sess.User.UserName); err != nil {
		return err
	}

	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: sess.User.UserName,
		Action:   "deleteOrder",
		Details:  map[string]any{"orderId": orderID},
	})
	a.invalidateAdminCaches(ctx)
	return nil
}

// Column headers of the orders sheet whose values feed the grand total.
const (
	colSubtotal    = "Subtotal"
	colShippingFee = "Shipping Fee (Customer)"
	colGrandTotal  = "Grand Total"
)

// UpdateOrder applies a partial edit to a submitted order. When the edit
// touches the subtotal or the customer shipping fee, the grand total is
// recomputed from the resulting pair; the stored record supplies whichever
// side the edit left alone.
func (a *App) UpdateOrder(ctx context.Context, orderID string, changes map[string]any) error {
	sess, err := a.requireAdmin()
	if err != nil {
		return err
	}

	_, touchedSubtotal := changes[colSubtotal]
	_, touchedFee := changes[colShippingFee]
	if touchedSubtotal || touchedFee {
		record, found := a.findOrder(orderID)
		subtotal := record.Subtotal
		fee := record.ShippingFeeCustomer
		if touchedSubtotal {
			if v, err := toDecimal(changes[colSubtotal]); err == nil {
				subtotal = v
			}
		}
		if touchedFee {
			if v, err := toDecimal(changes[colShippingFee]); err == nil {
				fee = v
			}
		}
		if found || (touchedSubtotal && touchedFee) {
			changes[colGrandTotal] = subtotal.Add(fee).InexactFloat64()
		}
	}

	if err := a.gw.UpdateOrder(ctx, orderID, changes, sess.User.UserName); err != nil {
		return err
	}

	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: sess.User.UserName,
		Action:   "adminUpdateOrder",
		Details:  map[string]any{"orderId": orderID},
	})
	a.invalidateAdminCaches(ctx)
	return nil
}

func (a *App) findOrder(orderID string) (models.OrderRecord, bool) {
	for _, record := range a.AdminSnapshot().Orders {
		if record.OrderID == orderID {
			return record, true
		}
	}
	return models.OrderRecord{}, false
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case string:
		return decimal.NewFromString(n)
	case decimal.Decimal:
		return n, nil
	default:
		return decimal.Zero, fmt.Errorf("value %v is not numeric", v)
	}
}

// Logs fetches the audit log.
func (a *App) Logs(ctx context.Context) ([]models.LogEntry, error) {
	if _, err := a.requireAdmin(); err != nil {
		return nil, err
	}
	return a.gw.GetLogs(ctx)
}

// UploadImage stores a file remotely and writes its URL into the addressed
// sheet cell in the same call. The remote write is immediate, so the caches
// are invalidated even though no explicit save follows.
func (a *App) UploadImage(ctx context.Context, req gateway.UploadRequest) (string, error) {
	sess, err := a.requireAdmin()
	if err != nil {
		return "", err
	}
	req.AdminUser = sess.User.UserName

	url, err := a.gw.UploadImage(ctx, req)
	if err != nil {
		return "", err
	}

	a.gw.WriteLogAsync(ctx, gateway.AuditEntry{
		UserName: sess.User.UserName,
		Action:   "uploadImage",
		Details:  map[string]any{"sheetName": req.SheetName, "fileName": req.FileName},
	})
	a.invalidateAdminCaches(ctx)
	return url, nil
}

func (a *App) invalidateAdminCaches(ctx context.Context) {
	a.mu.Lock()
	syncer := a.syncer
	a.mu.Unlock()
	if syncer != nil {
		syncer.Invalidate(ctx)
	}
}
