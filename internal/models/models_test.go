package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserTeams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		team string
		want []string
	}{
		{name: "two teams with spaces", team: "A, B", want: []string{"A", "B"}},
		{name: "single team", team: "Alpha", want: []string{"Alpha"}},
		{name: "empty", team: "", want: nil},
		{name: "only commas", team: " , ,", want: nil},
		{name: "duplicates removed keeping order", team: "B, A, B", want: []string{"B", "A"}},
		{name: "trailing comma", team: "A,", want: []string{"A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, User{Team: tt.team}.Teams())
		})
	}
}

func TestSessionExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	t.Run("fresh session is valid", func(t *testing.T) {
		t.Parallel()
		sess := NewSession(User{UserName: "sok"}, now)
		assert.False(t, sess.Expired(now.Add(time.Hour)))
	})

	t.Run("session at exactly the window is still valid", func(t *testing.T) {
		t.Parallel()
		sess := NewSession(User{UserName: "sok"}, now)
		assert.False(t, sess.Expired(now.Add(SessionTTL)))
	})

	t.Run("session past the window is expired", func(t *testing.T) {
		t.Parallel()
		sess := NewSession(User{UserName: "sok"}, now)
		assert.True(t, sess.Expired(now.Add(SessionTTL+time.Second)))
	})

	t.Run("zero creation time is expired", func(t *testing.T) {
		t.Parallel()
		assert.True(t, Session{User: User{UserName: "sok"}}.Expired(now))
	})
}

func TestCarrierForPhone(t *testing.T) {
	t.Parallel()

	data := &AppData{
		PhoneCarriers: []PhoneCarrier{
			{CarrierName: "Cellcard", Prefixes: "011, 012, 017"},
			{CarrierName: "Smart", Prefixes: "010, 015, 016"},
		},
	}

	t.Run("matches by prefix", func(t *testing.T) {
		t.Parallel()
		carrier, ok := data.CarrierForPhone("012345678")
		require.True(t, ok)
		assert.Equal(t, "Cellcard", carrier.CarrierName)
	})

	t.Run("longest matching prefix wins", func(t *testing.T) {
		t.Parallel()
		longest := &AppData{
			PhoneCarriers: []PhoneCarrier{
				{CarrierName: "Short", Prefixes: "01"},
				{CarrierName: "Long", Prefixes: "015"},
			},
		}
		carrier, ok := longest.CarrierForPhone("015888999")
		require.True(t, ok)
		assert.Equal(t, "Long", carrier.CarrierName)
	})

	t.Run("too short to match", func(t *testing.T) {
		t.Parallel()
		_, ok := data.CarrierForPhone("0")
		assert.False(t, ok)
	})

	t.Run("no matching prefix", func(t *testing.T) {
		t.Parallel()
		_, ok := data.CarrierForPhone("099111222")
		assert.False(t, ok)
	})
}

func TestAppDataLookups(t *testing.T) {
	t.Parallel()

	data := &AppData{
		Pages: []TeamPage{
			{Team: "A", PageName: "Page One", TelegramValue: "-100"},
			{Team: "B", PageName: "Page Two", TelegramValue: "-200"},
			{Team: "A", PageName: "Page Three", TelegramValue: "-300"},
		},
		Products: []Product{
			{ProductName: "Widget", Barcode: "885001", Price: decimal.NewFromInt(10)},
			{ProductName: "Gadget", Price: decimal.NewFromInt(25)},
		},
		BankAccounts: []BankAccount{{BankName: "ABA"}},
		TelegramTemplates: []TelegramTemplate{
			{Team: "a", Part: 1, Template: "hello"},
			{Team: "B", Part: 1, Template: "other"},
		},
	}

	t.Run("product by name", func(t *testing.T) {
		t.Parallel()
		p, ok := data.ProductByName("Widget")
		require.True(t, ok)
		assert.True(t, p.Price.Equal(decimal.NewFromInt(10)))
	})

	t.Run("product by barcode skips empty barcodes", func(t *testing.T) {
		t.Parallel()
		_, ok := data.ProductByBarcode("")
		assert.False(t, ok)
		p, ok := data.ProductByBarcode("885001")
		require.True(t, ok)
		assert.Equal(t, "Widget", p.ProductName)
	})

	t.Run("pages for team", func(t *testing.T) {
		t.Parallel()
		pages := data.PagesForTeam("A")
		require.Len(t, pages, 2)
		assert.Equal(t, "Page One", pages[0].PageName)
	})

	t.Run("templates matched case-insensitively", func(t *testing.T) {
		t.Parallel()
		templates := data.TemplatesForTeam("A")
		require.Len(t, templates, 1)
		assert.Equal(t, "hello", templates[0].Template)
	})

	t.Run("bank account by name", func(t *testing.T) {
		t.Parallel()
		_, ok := data.BankAccountByName("ABA")
		assert.True(t, ok)
		_, ok = data.BankAccountByName("Wing")
		assert.False(t, ok)
	})
}

func TestLineItemValidate(t *testing.T) {
	t.Parallel()

	valid := LineItem{Name: "Widget", Quantity: 1, UnitPrice: decimal.NewFromInt(5)}
	require.NoError(t, valid.Validate())

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()
		line := valid
		line.Name = ""
		assert.Error(t, line.Validate())
	})

	t.Run("zero quantity", func(t *testing.T) {
		t.Parallel()
		line := valid
		line.Quantity = 0
		assert.Error(t, line.Validate())
	})

	t.Run("negative price", func(t *testing.T) {
		t.Parallel()
		line := valid
		line.UnitPrice = decimal.NewFromInt(-1)
		assert.Error(t, line.Validate())
	})
}
