// Package draft accumulates one order across the entry steps and finalizes
// it into a submittable draft. All money flows through decimals; nothing here
// touches the network.
package draft

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

var (
	// ErrLineNotFound means the addressed line no longer exists in the draft.
	ErrLineNotFound = errors.New("order line not found")
	// ErrUnknownProduct means the named product is not in the reference data.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrUnknownBarcode means the scanned code matched no product.
	ErrUnknownBarcode = errors.New("barcode matched no product")
)

var oneHundred = decimal.NewFromInt(100)

// ValidationError collects everything wrong with a draft at finalize, so the
// caller can show all problems at once instead of one per attempt.
type ValidationError struct {
	errs []error
}

func (e *ValidationError) Error() string {
	return errors.Join(e.errs...).Error()
}

func (e *ValidationError) Unwrap() []error {
	return e.errs
}

// Accumulator is the working state of one order. A single accumulator exists
// per session; it is reset at startup and after a successful submission, and
// kept intact when submission fails so nothing is retyped.
type Accumulator struct {
	mu    sync.Mutex
	draft models.OrderDraft
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Reset discards all accumulated state.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = models.OrderDraft{}
}

// Draft returns a copy of the current working state.
func (a *Accumulator) Draft() models.OrderDraft {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cloneLocked()
}

func (a *Accumulator) cloneLocked() models.OrderDraft {
	d := a.draft
	d.Products = append([]models.LineItem(nil), a.draft.Products...)
	return d
}

// SelectPage records the order-entry page and its Telegram routing value.
func (a *Accumulator) SelectPage(page models.TeamPage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft.Page = page.PageName
	a.draft.TelegramValue = page.TelegramValue
}

// SetCustomer records the customer step and recomputes the totals, since the
// customer-facing shipping fee feeds the grand total. A negative fee is
// treated as no fee.
func (a *Accumulator) SetCustomer(info models.CustomerInfo) {
	info.Phone = NormalizePhone(info.Phone)
	if info.ShippingFee.IsNegative() {
		info.ShippingFee = decimal.Zero
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft.Customer = info
	a.recomputeLocked()
}

// SetShipping records the internal shipping choice. Its cost is accounting
// only and never reaches the customer's total; a negative cost is treated as
// no cost.
func (a *Accumulator) SetShipping(info models.ShippingInfo) {
	if info.Cost.IsNegative() {
		info.Cost = decimal.Zero
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft.Shipping = info
}

// SetPayment records the payment outcome.
func (a *Accumulator) SetPayment(info models.PaymentInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft.Payment = info
}

// SetTelegram records the announcement schedule choice.
func (a *Accumulator) SetTelegram(sched models.TelegramSchedule) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft.Telegram = sched
}

// SetNote records the free-form order note.
func (a *Accumulator) SetNote(note string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft.Note = note
}

// AddProduct appends a line for a known product, price prefilled from the
// reference data. Returns the new line's client ID.
func (a *Accumulator) AddProduct(data *models.AppData, name string) (string, error) {
	product, ok := data.ProductByName(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProduct, name)
	}
	return a.addLine(models.LineItem{
		Name:           product.ProductName,
		Quantity:       1,
		UnitPrice:      product.Price,
		FinalUnitPrice: product.Price,
		ImageRef:       product.ImageURL,
	}), nil
}

// AddScanned resolves a barcode and appends the matching product.
func (a *Accumulator) AddScanned(data *models.AppData, code string) (string, error) {
	product, ok := data.ProductByBarcode(code)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBarcode, code)
	}
	return a.AddProduct(data, product.ProductName)
}

// AddBlankLine appends an empty line for free-form entry. Lines still unnamed
// at finalize are dropped.
func (a *Accumulator) AddBlankLine() string {
	return a.addLine(models.LineItem{Quantity: 1})
}

func (a *Accumulator) addLine(line models.LineItem) string {
	line.ClientID = uuid.NewString()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft.Products = append(a.draft.Products, line)
	a.recomputeLocked()
	return line.ClientID
}

// RemoveLine deletes the addressed line.
func (a *Accumulator) RemoveLine(clientID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.draft.Products {
		if a.draft.Products[i].ClientID == clientID {
			a.draft.Products = append(a.draft.Products[:i], a.draft.Products[i+1:]...)
			a.recomputeLocked()
			return nil
		}
	}
	return ErrLineNotFound
}

// SetLineName renames a line.
func (a *Accumulator) SetLineName(clientID, name string) error {
	return a.updateLine(clientID, func(l *models.LineItem) {
		l.Name = name
	})
}

// SetLineColor records the line's color annotation.
func (a *Accumulator) SetLineColor(clientID, colorInfo string) error {
	return a.updateLine(clientID, func(l *models.LineItem) {
		l.ColorInfo = colorInfo
	})
}

// SetLineQuantity changes a line's quantity. Values below 1 clamp to 1.
func (a *Accumulator) SetLineQuantity(clientID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	return a.updateLine(clientID, func(l *models.LineItem) {
		l.Quantity = qty
	})
}

// SetLineUnitPrice changes a line's base price, keeping the discount percent
// and re-deriving the final price. A non-positive price clears the discount
// so a later correction starts clean.
func (a *Accumulator) SetLineUnitPrice(clientID string, price decimal.Decimal) error {
	return a.updateLine(clientID, func(l *models.LineItem) {
		l.UnitPrice = price
		if price.LessThanOrEqual(decimal.Zero) {
			clearDiscount(l)
			return
		}
		l.FinalUnitPrice = finalFromPercent(price, l.DiscountPercent)
	})
}

// SetLineDiscountPercent changes the discount percent, re-deriving the final
// price from the base price. Last write wins between the three price fields.
// Without a positive base price there is nothing to discount, so the percent
// and the final price are cleared instead.
func (a *Accumulator) SetLineDiscountPercent(clientID string, percent decimal.Decimal) error {
	return a.updateLine(clientID, func(l *models.LineItem) {
		if l.UnitPrice.LessThanOrEqual(decimal.Zero) {
			clearDiscount(l)
			return
		}
		l.DiscountPercent = percent
		l.FinalUnitPrice = finalFromPercent(l.UnitPrice, percent)
	})
}

// SetLineDiscountAmount changes the per-unit discount in currency terms,
// re-deriving the final price and the percent from the base price. The amount
// is clamped so the final price stays within [0, base price].
func (a *Accumulator) SetLineDiscountAmount(clientID string, amount decimal.Decimal) error {
	return a.updateLine(clientID, func(l *models.LineItem) {
		if l.UnitPrice.LessThanOrEqual(decimal.Zero) {
			clearDiscount(l)
			return
		}
		if amount.LessThan(decimal.Zero) {
			amount = decimal.Zero
		}
		if amount.GreaterThan(l.UnitPrice) {
			amount = l.UnitPrice
		}
		l.FinalUnitPrice = l.UnitPrice.Sub(amount)
		l.DiscountPercent = amount.Div(l.UnitPrice).Mul(oneHundred)
	})
}

// SetLineFinalPrice changes the effective price directly, back-deriving the
// discount percent from the base price. A final price at or above the base
// price means no discount.
func (a *Accumulator) SetLineFinalPrice(clientID string, price decimal.Decimal) error {
	return a.updateLine(clientID, func(l *models.LineItem) {
		if l.UnitPrice.LessThanOrEqual(decimal.Zero) {
			clearDiscount(l)
			return
		}
		if price.LessThan(decimal.Zero) {
			price = decimal.Zero
		}
		if price.GreaterThan(l.UnitPrice) {
			l.DiscountPercent = decimal.Zero
			l.FinalUnitPrice = l.UnitPrice
			return
		}
		l.FinalUnitPrice = price
		l.DiscountPercent = decimal.NewFromInt(1).
			Sub(price.Div(l.UnitPrice)).
			Mul(oneHundred)
	})
}

func clearDiscount(l *models.LineItem) {
	l.DiscountPercent = decimal.Zero
	l.FinalUnitPrice = decimal.Zero
}

func finalFromPercent(unit, percent decimal.Decimal) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(1).Sub(percent.Div(oneHundred)))
}

func (a *Accumulator) updateLine(clientID string, apply func(*models.LineItem)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.draft.Products {
		if a.draft.Products[i].ClientID == clientID {
			apply(&a.draft.Products[i])
			a.recomputeLocked()
			return nil
		}
	}
	return ErrLineNotFound
}

// recomputeLocked re-derives the per-line totals and the two order totals.
// The grand total is what the customer pays: subtotal plus the customer
// shipping fee. The internal shipping cost is deliberately excluded.
func (a *Accumulator) recomputeLocked() {
	subtotal := decimal.Zero
	for i := range a.draft.Products {
		line := &a.draft.Products[i]
		line.LineTotal = line.FinalUnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(line.LineTotal)
	}
	a.draft.Subtotal = subtotal
	a.draft.GrandTotal = subtotal.Add(a.draft.Customer.ShippingFee)
}

// Finalize validates the accumulated order and returns the submittable draft.
// Unnamed lines are dropped without complaint: they are abandoned rows, not
// mistakes. The accumulator is left untouched so a failed submission loses
// nothing.
func (a *Accumulator) Finalize(data *models.AppData, now time.Time) (models.OrderDraft, error) {
	a.mu.Lock()
	d := a.cloneLocked()
	a.mu.Unlock()

	var named []models.LineItem
	for _, line := range d.Products {
		if strings.TrimSpace(line.Name) != "" {
			named = append(named, line)
		}
	}
	d.Products = named

	subtotal := decimal.Zero
	for _, line := range d.Products {
		subtotal = subtotal.Add(line.LineTotal)
	}
	d.Subtotal = subtotal
	d.GrandTotal = subtotal.Add(d.Customer.ShippingFee)

	var errs []error
	if d.Page == "" {
		errs = append(errs, errors.New("no order page selected"))
	}
	errs = append(errs, customerErrors(d.Customer)...)
	errs = append(errs, productErrors(d.Products)...)
	errs = append(errs, shippingErrors(d.Shipping, data)...)

	switch d.Payment.Status {
	case models.PaymentStatusPaid:
		if _, ok := data.BankAccountByName(d.Payment.Info); !ok {
			errs = append(errs, errors.New("paid orders require a receiving bank account"))
		}
	case models.PaymentStatusUnpaid:
		d.Payment.Info = models.PaymentInfoCOD
	default:
		errs = append(errs, errors.New("payment status must be chosen"))
	}

	if d.Telegram.Enabled {
		if d.Telegram.SendAt == nil {
			errs = append(errs, errors.New("scheduled announcement needs a send time"))
		} else if !d.Telegram.SendAt.After(now) {
			errs = append(errs, errors.New("scheduled announcement time must be in the future"))
		}
	}

	if len(errs) > 0 {
		return models.OrderDraft{}, &ValidationError{errs: errs}
	}
	return d, nil
}

func customerErrors(c models.CustomerInfo) []error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("customer name is required"))
	}
	if c.Phone == "" {
		errs = append(errs, errors.New("customer phone is required"))
	}
	if strings.TrimSpace(c.Province) == "" {
		errs = append(errs, errors.New("customer province is required"))
	}
	return errs
}

func productErrors(products []models.LineItem) []error {
	var errs []error
	if len(products) == 0 {
		errs = append(errs, errors.New("order has no products"))
	}
	for _, line := range products {
		if err := line.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("product %q: %w", line.Name, err))
		}
	}
	return errs
}

func shippingErrors(s models.ShippingInfo, data *models.AppData) []error {
	var errs []error
	if s.Method == "" {
		errs = append(errs, errors.New("shipping method is required"))
	} else if method, ok := data.ShippingMethodByName(s.Method); ok {
		if method.RequireDriverSelection && strings.TrimSpace(s.Details) == "" {
			errs = append(errs, fmt.Errorf("shipping method %s requires a driver", method.MethodName))
		}
	}
	return errs
}

// ValidateCustomer reports what still blocks leaving the customer step, so
// callers can gate step navigation without attempting a full submission.
func (a *Accumulator) ValidateCustomer() error {
	a.mu.Lock()
	customer := a.draft.Customer
	a.mu.Unlock()
	return asValidationError(customerErrors(customer))
}

// ValidateProducts checks the product step. Unnamed lines are ignored the
// same way submission ignores them.
func (a *Accumulator) ValidateProducts() error {
	a.mu.Lock()
	lines := a.cloneLocked().Products
	a.mu.Unlock()

	var named []models.LineItem
	for _, line := range lines {
		if strings.TrimSpace(line.Name) != "" {
			named = append(named, line)
		}
	}
	return asValidationError(productErrors(named))
}

// ValidateShipping checks the shipping step against the available methods.
func (a *Accumulator) ValidateShipping(data *models.AppData) error {
	a.mu.Lock()
	shipping := a.draft.Shipping
	a.mu.Unlock()
	return asValidationError(shippingErrors(shipping, data))
}

func asValidationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{errs: errs}
}

// NormalizePhone reduces a raw phone entry to local dialing form: digits
// only, a doubled international-style "00" collapsed to one leading zero,
// and a leading zero added when missing.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if phone == "" {
		return ""
	}
	if strings.HasPrefix(phone, "00") {
		phone = phone[1:]
	}
	if !strings.HasPrefix(phone, "0") {
		phone = "0" + phone
	}
	return phone
}
