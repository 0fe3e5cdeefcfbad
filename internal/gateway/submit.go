package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

// SubmitLine is one order line as serialized for submission. Client-only
// identifiers are stripped; monetary values travel as plain numbers.
type SubmitLine struct {
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	OriginalPrice   float64 `json:"originalPrice"`
	DiscountPercent float64 `json:"discountPercent"`
	FinalPrice      float64 `json:"finalPrice"`
	Total           float64 `json:"total"`
	ColorInfo       string  `json:"colorInfo,omitempty"`
	Image           string  `json:"image,omitempty"`
}

// SubmitCustomer mirrors the customer step on the wire.
type SubmitCustomer struct {
	Name               string  `json:"name"`
	Phone              string  `json:"phone"`
	Province           string  `json:"province"`
	District           string  `json:"district"`
	Sangkat            string  `json:"sangkat"`
	AdditionalLocation string  `json:"additionalLocation"`
	ShippingFee        float64 `json:"shippingFee"`
}

// SubmitShipping mirrors the shipping step on the wire.
type SubmitShipping struct {
	Method  string  `json:"method"`
	Details string  `json:"details"`
	Cost    float64 `json:"cost"`
}

// SubmitPayment mirrors the payment choice on the wire.
type SubmitPayment struct {
	Status string `json:"status"`
	Info   string `json:"info"`
}

// SubmitTelegram mirrors the announcement schedule on the wire.
type SubmitTelegram struct {
	Schedule bool   `json:"schedule"`
	Time     string `json:"time,omitempty"`
}

// SubmitOrderRequest is the full serialized draft plus identity and routing
// context, as posted to the gateway.
type SubmitOrderRequest struct {
	Action        string         `json:"action"`
	CurrentUser   models.User    `json:"currentUser"`
	SelectedTeam  string         `json:"selectedTeam"`
	Page          string         `json:"page"`
	TelegramValue string         `json:"telegramValue"`
	Customer      SubmitCustomer `json:"customer"`
	Products      []SubmitLine   `json:"products"`
	Shipping      SubmitShipping `json:"shipping"`
	Payment       SubmitPayment  `json:"payment"`
	Telegram      SubmitTelegram `json:"telegram"`
	Subtotal      float64        `json:"subtotal"`
	GrandTotal    float64        `json:"grandTotal"`
	Note          string         `json:"note"`
}

// NewSubmitOrderRequest serializes a finished draft for submission.
func NewSubmitOrderRequest(draft models.OrderDraft, user models.User, team string) SubmitOrderRequest {
	req := SubmitOrderRequest{
		Action:        "submitOrder",
		CurrentUser:   user,
		SelectedTeam:  team,
		Page:          draft.Page,
		TelegramValue: draft.TelegramValue,
		Customer: SubmitCustomer{
			Name:               draft.Customer.Name,
			Phone:              draft.Customer.Phone,
			Province:           draft.Customer.Province,
			District:           draft.Customer.District,
			Sangkat:            draft.Customer.Sangkat,
			AdditionalLocation: draft.Customer.ExtraAddress,
			ShippingFee:        draft.Customer.ShippingFee.InexactFloat64(),
		},
		Shipping: SubmitShipping{
			Method:  draft.Shipping.Method,
			Details: draft.Shipping.Details,
			Cost:    draft.Shipping.Cost.InexactFloat64(),
		},
		Payment: SubmitPayment{
			Status: draft.Payment.Status,
			Info:   draft.Payment.Info,
		},
		Telegram: SubmitTelegram{
			Schedule: draft.Telegram.Enabled,
		},
		Subtotal:   draft.Subtotal.InexactFloat64(),
		GrandTotal: draft.GrandTotal.InexactFloat64(),
		Note:       draft.Note,
	}
	if draft.Telegram.Enabled && draft.Telegram.SendAt != nil {
		req.Telegram.Time = draft.Telegram.SendAt.UTC().Format(time.RFC3339)
	}
	for _, line := range draft.Products {
		req.Products = append(req.Products, SubmitLine{
			Name:            line.Name,
			Quantity:        line.Quantity,
			OriginalPrice:   line.UnitPrice.InexactFloat64(),
			DiscountPercent: line.DiscountPercent.InexactFloat64(),
			FinalPrice:      line.FinalUnitPrice.InexactFloat64(),
			Total:           line.LineTotal.InexactFloat64(),
			ColorInfo:       line.ColorInfo,
			Image:           line.ImageRef,
		})
	}
	return req
}

// LineItems reconstructs the line list from a serialized request, without the
// client-only identifiers.
func (r SubmitOrderRequest) LineItems() []models.LineItem {
	var lines []models.LineItem
	for _, p := range r.Products {
		lines = append(lines, models.LineItem{
			Name:            p.Name,
			Quantity:        p.Quantity,
			UnitPrice:       decimal.NewFromFloat(p.OriginalPrice),
			DiscountPercent: decimal.NewFromFloat(p.DiscountPercent),
			FinalUnitPrice:  decimal.NewFromFloat(p.FinalPrice),
			LineTotal:       decimal.NewFromFloat(p.Total),
			ColorInfo:       p.ColorInfo,
			ImageRef:        p.Image,
		})
	}
	return lines
}

// SubmitOrder posts a finished draft and returns the generated order ID.
func (c *Client) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (string, error) {
	req.Action = "submitOrder"
	env, err := c.post(ctx, "submitOrder", req)
	if err != nil {
		return "", err
	}
	if env.OrderID == "" {
		return "", &Error{Action: "submitOrder", Message: "response carried no order ID"}
	}
	return env.OrderID, nil
}
