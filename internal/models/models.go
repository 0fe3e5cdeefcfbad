// Package models defines the domain entities for the order desk client.
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SessionTTL is how long a cached session stays valid after creation.
const SessionTTL = 7 * 24 * time.Hour

// AppDataTTL is the rolling freshness window for bulk reference data.
const AppDataTTL = time.Hour

// Payment status values as stored on submitted orders.
const (
	PaymentStatusPaid   = "Paid"
	PaymentStatusUnpaid = "Unpaid"
)

// PaymentInfoCOD marks an unpaid, cash-on-delivery order.
const PaymentInfoCOD = "COD"

// User represents an account row from the remote user list.
//
// Password is an opaque credential compared by exact equality; the remote
// service stores it in plain text, so it must never reach log output.
type User struct {
	UserName          string `json:"UserName"`
	Password          string `json:"Password"`
	FullName          string `json:"FullName"`
	Team              string `json:"Team"`
	IsSystemAdmin     bool   `json:"IsSystemAdmin"`
	ProfilePictureURL string `json:"ProfilePictureURL"`
	Role              string `json:"Role"`
}

// Validate rejects malformed user rows early rather than at point-of-use.
func (u User) Validate() error {
	if strings.TrimSpace(u.UserName) == "" {
		return errors.New("user is missing UserName")
	}
	return nil
}

// Teams returns the user's team memberships: comma-split, trimmed,
// de-duplicated, order-preserving.
func (u User) Teams() []string {
	var teams []string
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(u.Team, ",") {
		team := strings.TrimSpace(raw)
		if team == "" {
			continue
		}
		if _, dup := seen[team]; dup {
			continue
		}
		seen[team] = struct{}{}
		teams = append(teams, team)
	}
	return teams
}

// Session pairs an authenticated user with its creation time.
type Session struct {
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSession creates a session stamped with the current time.
func NewSession(user User, now time.Time) Session {
	return Session{User: user, CreatedAt: now}
}

// Expired reports whether the session is older than SessionTTL.
func (s Session) Expired(now time.Time) bool {
	return s.CreatedAt.IsZero() || now.Sub(s.CreatedAt) > SessionTTL
}

// Product is a sellable item from the reference data.
type Product struct {
	ProductName string          `json:"ProductName"`
	Barcode     string          `json:"Barcode"`
	Price       decimal.Decimal `json:"Price"`
	ImageURL    string          `json:"ImageURL"`
}

// Location is one province/district/sangkat triple.
type Location struct {
	Province string `json:"Province"`
	District string `json:"District"`
	Sangkat  string `json:"Sangkat"`
}

// ShippingMethod describes a delivery option and its driver requirements.
type ShippingMethod struct {
	MethodName             string `json:"MethodName"`
	LogoURL                string `json:"LogoURL"`
	AllowManualDriver      bool   `json:"AllowManualDriver"`
	RequireDriverSelection bool   `json:"RequireDriverSelection"`
}

// TeamPage maps a team to one of its order-entry pages and the Telegram
// routing value used when announcing orders from that page.
type TeamPage struct {
	Team          string `json:"Team"`
	PageName      string `json:"PageName"`
	TelegramValue string `json:"TelegramValue"`
}

// Color is a suggested color entry.
type Color struct {
	ColorName string `json:"ColorName"`
}

// Driver is a delivery person selectable on the shipping step.
type Driver struct {
	DriverName string `json:"DriverName"`
	ImageURL   string `json:"ImageURL"`
}

// BankAccount is a receiving account selectable for paid orders.
type BankAccount struct {
	BankName string `json:"BankName"`
	LogoURL  string `json:"LogoURL"`
}

// PhoneCarrier holds the prefix rules used to identify a customer's carrier.
type PhoneCarrier struct {
	CarrierName    string `json:"CarrierName"`
	Prefixes       string `json:"Prefixes (comma-separated)"`
	CarrierLogoURL string `json:"CarrierLogoURL"`
}

// PrefixList returns the carrier's dialing prefixes, trimmed, empties dropped.
func (c PhoneCarrier) PrefixList() []string {
	var prefixes []string
	for _, raw := range strings.Split(c.Prefixes, ",") {
		p := strings.TrimSpace(raw)
		if p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}

// TelegramTemplate is one ordered part of a team's order announcement.
type TelegramTemplate struct {
	Team     string `json:"Team"`
	Part     int    `json:"Part"`
	Template string `json:"Template"`
}

// AppData is the bulk reference dataset fetched at startup and cached with a
// single timestamp. Read-mostly; refreshed only by explicit user action or
// the rolling TTL.
type AppData struct {
	Pages             []TeamPage         `json:"pages"`
	Products          []Product          `json:"products"`
	Locations         []Location         `json:"locations"`
	ShippingMethods   []ShippingMethod   `json:"shippingMethods"`
	Colors            []Color            `json:"colors"`
	Drivers           []Driver           `json:"drivers"`
	BankAccounts      []BankAccount      `json:"bankAccounts"`
	PhoneCarriers     []PhoneCarrier     `json:"phoneCarriers"`
	TelegramTemplates []TelegramTemplate `json:"telegramTemplates"`
	Users             []User             `json:"users"`
}

// TemplatesForTeam returns the team's announcement parts, unsorted.
func (d *AppData) TemplatesForTeam(team string) []TelegramTemplate {
	var templates []TelegramTemplate
	for _, t := range d.TelegramTemplates {
		if strings.EqualFold(t.Team, team) {
			templates = append(templates, t)
		}
	}
	return templates
}

// ProductByName finds a product by exact name.
func (d *AppData) ProductByName(name string) (Product, bool) {
	for _, p := range d.Products {
		if p.ProductName == name {
			return p, true
		}
	}
	return Product{}, false
}

// ProductByBarcode resolves a scanned barcode to a product.
func (d *AppData) ProductByBarcode(code string) (Product, bool) {
	for _, p := range d.Products {
		if p.Barcode != "" && p.Barcode == code {
			return p, true
		}
	}
	return Product{}, false
}

// ShippingMethodByName finds a shipping method by exact name.
func (d *AppData) ShippingMethodByName(name string) (ShippingMethod, bool) {
	for _, m := range d.ShippingMethods {
		if m.MethodName == name {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

// BankAccountByName finds a bank account by exact name.
func (d *AppData) BankAccountByName(name string) (BankAccount, bool) {
	for _, b := range d.BankAccounts {
		if b.BankName == name {
			return b, true
		}
	}
	return BankAccount{}, false
}

// PagesForTeam returns the order-entry pages belonging to one team.
func (d *AppData) PagesForTeam(team string) []TeamPage {
	var pages []TeamPage
	for _, p := range d.Pages {
		if p.Team == team {
			pages = append(pages, p)
		}
	}
	return pages
}

// CarrierForPhone matches a normalized phone number against the carrier
// prefix rules. The longest matching prefix wins, so "0123" beats "012".
func (d *AppData) CarrierForPhone(phone string) (PhoneCarrier, bool) {
	if len(phone) < 2 {
		return PhoneCarrier{}, false
	}
	var best PhoneCarrier
	bestLen := 0
	for _, carrier := range d.PhoneCarriers {
		for _, prefix := range carrier.PrefixList() {
			if strings.HasPrefix(phone, prefix) && len(prefix) > bestLen {
				best = carrier
				bestLen = len(prefix)
			}
		}
	}
	return best, bestLen > 0
}

// UserByName finds a user by exact username.
func (d *AppData) UserByName(name string) (User, bool) {
	for _, u := range d.Users {
		if u.UserName == name {
			return u, true
		}
	}
	return User{}, false
}

// LogEntry is one audit log row.
type LogEntry struct {
	Timestamp string `json:"Timestamp"`
	UserName  string `json:"UserName"`
	Action    string `json:"Action"`
	Details   string `json:"Details"`
}
