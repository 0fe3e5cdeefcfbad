package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product entry within an order draft. ClientID is only
// meaningful locally (edit/remove addressing) and is stripped on submission.
type LineItem struct {
	ClientID        string          `json:"id,omitempty"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"originalPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	FinalUnitPrice  decimal.Decimal `json:"finalPrice"`
	LineTotal       decimal.Decimal `json:"total"`
	ColorInfo       string          `json:"colorInfo,omitempty"`
	ImageRef        string          `json:"image,omitempty"`
}

// Validate checks the fields a finalized line must carry.
func (l LineItem) Validate() error {
	if l.Name == "" {
		return errors.New("line item is missing a product name")
	}
	if l.Quantity < 1 {
		return errors.New("line item quantity must be at least 1")
	}
	if l.UnitPrice.IsNegative() {
		return errors.New("line item unit price must not be negative")
	}
	return nil
}

// DiscountAmount is the per-unit discount implied by the final price.
func (l LineItem) DiscountAmount() decimal.Decimal {
	return l.UnitPrice.Sub(l.FinalUnitPrice)
}

// CustomerInfo is the customer step of an order draft.
type CustomerInfo struct {
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Province     string          `json:"province"`
	District     string          `json:"district"`
	Sangkat      string          `json:"sangkat"`
	ExtraAddress string          `json:"additionalLocation"`
	ShippingFee  decimal.Decimal `json:"shippingFee"`
}

// ShippingInfo is the shipping step of an order draft. Details carries the
// resolved driver name when one is required or manually chosen, otherwise it
// repeats the method name. Cost is internal accounting only.
type ShippingInfo struct {
	Method  string          `json:"method"`
	Details string          `json:"details"`
	Cost    decimal.Decimal `json:"cost"`
}

// PaymentInfo is the payment outcome chosen on the final step.
type PaymentInfo struct {
	Status string `json:"status"`
	Info   string `json:"info"`
}

// TelegramSchedule is the optional deferred-announcement choice.
type TelegramSchedule struct {
	Enabled bool       `json:"schedule"`
	SendAt  *time.Time `json:"time,omitempty"`
}

// OrderDraft is the working state of one order under construction. It is
// reset at app start and after successful submission, and is never partially
// persisted remotely.
type OrderDraft struct {
	Page          string           `json:"page"`
	TelegramValue string           `json:"telegramValue"`
	Customer      CustomerInfo     `json:"customer"`
	Products      []LineItem       `json:"products"`
	Shipping      ShippingInfo     `json:"shipping"`
	Payment       PaymentInfo      `json:"payment"`
	Telegram      TelegramSchedule `json:"telegram"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	GrandTotal    decimal.Decimal  `json:"grandTotal"`
	Note          string           `json:"note"`
}

// OrderRecord is a submitted order as stored remotely. Field names follow the
// sheet column headers.
type OrderRecord struct {
	Timestamp               string          `json:"Timestamp"`
	OrderID                 string          `json:"Order ID"`
	User                    string          `json:"User"`
	Page                    string          `json:"Page"`
	TelegramValue           string          `json:"TelegramValue"`
	CustomerName            string          `json:"Customer Name"`
	CustomerPhone           string          `json:"Customer Phone"`
	Location                string          `json:"Location"`
	AddressDetails          string          `json:"Address Details"`
	Note                    string          `json:"Note"`
	ShippingFeeCustomer     decimal.Decimal `json:"Shipping Fee (Customer)"`
	Subtotal                decimal.Decimal `json:"Subtotal"`
	GrandTotal              decimal.Decimal `json:"Grand Total"`
	ProductsJSON            string          `json:"Products (JSON)"`
	InternalShippingMethod  string          `json:"Internal Shipping Method"`
	InternalShippingDetails string          `json:"Internal Shipping Details"`
	InternalCost            decimal.Decimal `json:"Internal Cost"`
	PaymentStatus           string          `json:"Payment Status"`
	PaymentInfo             string          `json:"Payment Info"`
	Team                    string          `json:"Team"`
}

// ReportFigures is one revenue/expense/profit triple.
type ReportFigures struct {
	Revenue decimal.Decimal `json:"revenue"`
	Expense decimal.Decimal `json:"expense"`
	Profit  decimal.Decimal `json:"profit"`
}

// ExpenseBreakdown aggregates internal shipping spend for one company or driver.
type ExpenseBreakdown struct {
	TotalExpense decimal.Decimal `json:"totalExpense"`
	OrderCount   int             `json:"orderCount"`
}

// ReportData is the pre-aggregated financial summary set served by the
// gateway. Monthly keys are "YYYY-MM", yearly keys are "YYYY".
type ReportData struct {
	Yearly    map[string]ReportFigures    `json:"yearly"`
	Monthly   map[string]ReportFigures    `json:"monthly"`
	ByCompany map[string]ExpenseBreakdown `json:"byCompany"`
	ByDriver  map[string]ExpenseBreakdown `json:"byDriver"`
}
