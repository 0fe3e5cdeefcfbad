// Package gateway wraps all communication with the remote spreadsheet-backed
// data service. Every response carries a {status, message, data} envelope; a
// transport failure or a non-"success" status is reported as an error and the
// caller must treat the operation as not applied.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitlab.com/chanrith/orderdesk/internal/logger"
)

// Error is an application-level failure reported inside a gateway envelope.
// Transport-level failures are returned as plain wrapped errors instead.
type Error struct {
	Action  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s failed: %s", e.Action, e.Message)
}

// IsOperational reports whether err is an envelope-level gateway error, as
// opposed to a connectivity failure.
func IsOperational(err error) bool {
	var ge *Error
	return errors.As(err, &ge)
}

type envelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	URL       string          `json:"url,omitempty"`
	OrderID   string          `json:"orderId,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Client issues read and write requests against the remote data service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a gateway client for the given web app URL.
func New(baseURL string, timeout time.Duration) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// get issues a query-parameter style read action.
func (c *Client) get(ctx context.Context, action string, params map[string]string) (envelope, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return envelope{}, fmt.Errorf("invalid gateway URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("action", action)
	for key, value := range params {
		query.Set(key, value)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return envelope{}, fmt.Errorf("failed to create %s request: %w", action, err)
	}

	return c.do(req, action)
}

// post issues a body-style write action. The body must already carry the
// "action" field.
func (c *Client) post(ctx context.Context, action string, body any) (envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return envelope{}, fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return envelope{}, fmt.Errorf("failed to create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	return c.do(req, action)
}

func (c *Client) do(req *http.Request, action string) (envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("failed to reach gateway for %s: %w", action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return envelope{}, fmt.Errorf("gateway returned status %d for %s", resp.StatusCode, action)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, fmt.Errorf("failed to decode %s response: %w", action, err)
	}

	if env.Status != "success" {
		return envelope{}, &Error{Action: action, Message: env.Message}
	}

	return env, nil
}

func decodeData(env envelope, action string, target any) error {
	if len(env.Data) == 0 {
		return &Error{Action: action, Message: "response carried no data"}
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", action, err)
	}
	return nil
}

// logGatewayError records a swallowed background failure without surfacing it.
func logGatewayError(action string, err error) {
	logger.Log.Debug().Err(err).Str("action", action).Msg("Background gateway call failed")
}
