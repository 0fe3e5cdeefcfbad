package gateway

import (
	"context"
	"encoding/base64"

	"gitlab.com/chanrith/orderdesk/internal/models"
)

// Ping verifies connectivity before login is permitted.
func (c *Client) Ping(ctx context.Context) error {
	env, err := c.get(ctx, "ping", nil)
	if err != nil {
		return err
	}
	if env.Message != "pong" {
		return &Error{Action: "ping", Message: "unexpected ping reply"}
	}
	return nil
}

// GetUsers fetches the authoritative user list.
func (c *Client) GetUsers(ctx context.Context) ([]models.User, error) {
	env, err := c.get(ctx, "getUsers", nil)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := decodeData(env, "getUsers", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetStaticData fetches the bulk reference dataset (without the user list).
func (c *Client) GetStaticData(ctx context.Context) (*models.AppData, error) {
	env, err := c.get(ctx, "getStaticData", nil)
	if err != nil {
		return nil, err
	}
	var data models.AppData
	if err := decodeData(env, "getStaticData", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// AdminSheets is the full set of configuration tables served to admins.
type AdminSheets struct {
	Users             []models.User             `json:"users"`
	Teams             []models.TeamPage         `json:"teams"`
	Products          []models.Product          `json:"products"`
	Locations         []models.Location         `json:"locations"`
	ShippingMethods   []models.ShippingMethod   `json:"shippingMethods"`
	Drivers           []models.Driver           `json:"drivers"`
	BankAccounts      []models.BankAccount      `json:"bankAccounts"`
	PhoneCarriers     []models.PhoneCarrier     `json:"phoneCarriers"`
	TelegramTemplates []models.TelegramTemplate `json:"telegramTemplates"`
}

// GetAdminData fetches every configuration table for the admin console.
func (c *Client) GetAdminData(ctx context.Context) (*AdminSheets, error) {
	env, err := c.get(ctx, "getAllSheetDataForAdmin", nil)
	if err != nil {
		return nil, err
	}
	var sheets AdminSheets
	if err := decodeData(env, "getAllSheetDataForAdmin", &sheets); err != nil {
		return nil, err
	}
	return &sheets, nil
}

// GetReportData fetches the pre-aggregated financial summaries.
func (c *Client) GetReportData(ctx context.Context) (*models.ReportData, error) {
	env, err := c.get(ctx, "getReportData", nil)
	if err != nil {
		return nil, err
	}
	var data models.ReportData
	if err := decodeData(env, "getReportData", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetLogs fetches the audit log.
func (c *Client) GetLogs(ctx context.Context) ([]models.LogEntry, error) {
	env, err := c.get(ctx, "getLogs", nil)
	if err != nil {
		return nil, err
	}
	var logs []models.LogEntry
	if err := decodeData(env, "getLogs", &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// GetLatestLogTimestamp fetches the change marker: the timestamp of the most
// recent remote write. Callers compare markers by equality only.
func (c *Client) GetLatestLogTimestamp(ctx context.Context) (string, error) {
	env, err := c.get(ctx, "getLatestLogTimestamp", nil)
	if err != nil {
		return "", err
	}
	return env.Timestamp, nil
}

// GetAllOrders fetches every submitted order across teams. The wire protocol
// treats this heavy read as a body-style call.
func (c *Client) GetAllOrders(ctx context.Context) ([]models.OrderRecord, error) {
	body := map[string]any{"action": "adminGetAllOrders"}
	env, err := c.post(ctx, "adminGetAllOrders", body)
	if err != nil {
		return nil, err
	}
	var orders []models.OrderRecord
	if err := decodeData(env, "adminGetAllOrders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateSheet overwrites one configuration table. Data is a header row
// followed by value rows, matching the spreadsheet layout.
func (c *Client) UpdateSheet(ctx context.Context, sheetName string, data [][]any, adminUser string) error {
	body := map[string]any{
		"action":        "adminUpdateSheet",
		"sheetName":     sheetName,
		"data":          data,
		"isSystemAdmin": true,
		"adminUser":     adminUser,
	}
	_, err := c.post(ctx, "adminUpdateSheet", body)
	return err
}

// DeleteOrder removes a submitted order.
func (c *Client) DeleteOrder(ctx context.Context, orderID, adminUser string) error {
	body := map[string]any{
		"action":    "deleteOrder",
		"orderId":   orderID,
		"adminUser": adminUser,
	}
	_, err := c.post(ctx, "deleteOrder", body)
	return err
}

// UpdateOrder applies a partial field update to a submitted order.
func (c *Client) UpdateOrder(ctx context.Context, orderID string, updated map[string]any, adminUser string) error {
	body := map[string]any{
		"action":      "adminUpdateOrder",
		"orderId":     orderID,
		"updatedData": updated,
		"adminUser":   adminUser,
	}
	_, err := c.post(ctx, "adminUpdateOrder", body)
	return err
}

// ProfileUpdate carries a user's own profile changes. An empty NewPassword
// leaves the credential untouched.
type ProfileUpdate struct {
	UserName          string
	FullName          string
	NewPassword       string
	ProfilePictureURL string
}

// UpdateProfile applies a profile update for the named user.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	body := map[string]any{
		"action":            "updateUserProfile",
		"username":          update.UserName,
		"fullName":          update.FullName,
		"newPassword":       update.NewPassword,
		"profilePictureURL": update.ProfilePictureURL,
	}
	_, err := c.post(ctx, "updateUserProfile", body)
	return err
}

// KeyRef identifies the row an uploaded image belongs to.
type KeyRef struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UploadRequest carries one file destined for a sheet cell.
type UploadRequest struct {
	FileData   []byte
	FileName   string
	MimeType   string
	SheetName  string
	PrimaryKey KeyRef
	ColumnName string
	AdminUser  string
}

// UploadImage stores the file remotely and returns its stable reference URL.
func (c *Client) UploadImage(ctx context.Context, req UploadRequest) (string, error) {
	body := map[string]any{
		"action":     "uploadImage",
		"fileData":   base64.StdEncoding.EncodeToString(req.FileData),
		"fileName":   req.FileName,
		"mimeType":   req.MimeType,
		"sheetName":  req.SheetName,
		"primaryKey": req.PrimaryKey,
		"columnName": req.ColumnName,
		"adminUser":  req.AdminUser,
	}
	env, err := c.post(ctx, "uploadImage", body)
	if err != nil {
		return "", err
	}
	if env.URL == "" {
		return "", &Error{Action: "uploadImage", Message: "response carried no file URL"}
	}
	return env.URL, nil
}
