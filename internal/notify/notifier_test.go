package notify

import (
	"context"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

type fakeSender struct {
	params []*bot.SendMessageParams
	err    error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.params = append(f.params, params)
	return &tgmodels.Message{}, nil
}

func sampleTemplates() []models.TelegramTemplate {
	return []models.TelegramTemplate{
		{Team: "B", Part: 1, Template: "other team"},
		{Team: "a", Part: 2, Template: "Total: {grandTotal} ({paymentStatus})"},
		{Team: "A", Part: 1, Template: "New order {orderId} from {customerName}"},
	}
}

func sampleOrder() models.OrderDraft {
	return models.OrderDraft{
		Page:          "Page One",
		TelegramValue: "-1001234",
		Customer: models.CustomerInfo{
			Name:        "Sok",
			Phone:       "011223344",
			Province:    "Phnom Penh",
			District:    "Chamkarmon",
			ShippingFee: decimal.RequireFromString("1.5"),
		},
		Products: []models.LineItem{
			{Name: "Widget", Quantity: 3, LineTotal: decimal.NewFromInt(24), ColorInfo: "red"},
		},
		Payment:    models.PaymentInfo{Status: models.PaymentStatusUnpaid, Info: models.PaymentInfoCOD},
		Subtotal:   decimal.NewFromInt(24),
		GrandTotal: decimal.RequireFromString("25.5"),
	}
}

func TestBuildAnnouncement(t *testing.T) {
	t.Parallel()

	ann := BuildAnnouncement(sampleTemplates(), "A", "ORD-42", sampleOrder(), models.User{FullName: "Sok Dara"})

	assert.Equal(t, "-1001234", ann.ChatID)
	require.Len(t, ann.Messages, 2)
	// Parts arrive in Part order regardless of sheet order, matched
	// case-insensitively by team.
	assert.Equal(t, "New order ORD-42 from Sok", ann.Messages[0])
	assert.Equal(t, "Total: 25.50 (Unpaid)", ann.Messages[1])
	assert.Nil(t, ann.SendAt)
}

func TestBuildAnnouncementFields(t *testing.T) {
	t.Parallel()

	templates := []models.TelegramTemplate{
		{Team: "A", Part: 1, Template: "{location} | {products} | {unknownField}"},
	}
	ann := BuildAnnouncement(templates, "A", "ORD-1", sampleOrder(), models.User{})

	require.Len(t, ann.Messages, 1)
	assert.Contains(t, ann.Messages[0], "Phnom Penh, Chamkarmon")
	assert.Contains(t, ann.Messages[0], "Widget x3 = 24.00 (red)")
	// A template typo stays visible instead of silently vanishing.
	assert.Contains(t, ann.Messages[0], "{unknownField}")
}

func TestBuildAnnouncementSchedule(t *testing.T) {
	t.Parallel()

	order := sampleOrder()
	sendAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	order.Telegram = models.TelegramSchedule{Enabled: true, SendAt: &sendAt}

	ann := BuildAnnouncement(sampleTemplates(), "A", "ORD-1", order, models.User{})
	require.NotNil(t, ann.SendAt)
	assert.Equal(t, sendAt, *ann.SendAt)
}

func TestNotifierSend(t *testing.T) {
	t.Parallel()

	t.Run("delivers parts in order", func(t *testing.T) {
		t.Parallel()
		sender := &fakeSender{}
		n := New(sender)

		err := n.Send(context.Background(), Announcement{
			ChatID:   "-100",
			Messages: []string{"first", "second"},
		})
		require.NoError(t, err)
		require.Len(t, sender.params, 2)
		assert.Equal(t, "first", sender.params[0].Text)
		assert.Equal(t, "second", sender.params[1].Text)
		assert.Equal(t, "-100", sender.params[0].ChatID)
	})

	t.Run("nil notifier is a no-op", func(t *testing.T) {
		t.Parallel()
		var n *Notifier
		require.NoError(t, n.Send(context.Background(), Announcement{ChatID: "-100", Messages: []string{"x"}}))
	})

	t.Run("empty chat or messages send nothing", func(t *testing.T) {
		t.Parallel()
		sender := &fakeSender{}
		n := New(sender)
		require.NoError(t, n.Send(context.Background(), Announcement{Messages: []string{"x"}}))
		require.NoError(t, n.Send(context.Background(), Announcement{ChatID: "-100"}))
		assert.Empty(t, sender.params)
	})

	t.Run("past schedule sends immediately", func(t *testing.T) {
		t.Parallel()
		sender := &fakeSender{}
		n := New(sender)
		past := time.Now().Add(-time.Hour)

		err := n.Send(context.Background(), Announcement{
			ChatID:   "-100",
			Messages: []string{"late"},
			SendAt:   &past,
		})
		require.NoError(t, err)
		require.Len(t, sender.params, 1)
	})

	t.Run("cancelled context aborts a scheduled send", func(t *testing.T) {
		t.Parallel()
		sender := &fakeSender{}
		n := New(sender)
		future := time.Now().Add(time.Hour)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := n.Send(ctx, Announcement{
			ChatID:   "-100",
			Messages: []string{"never"},
			SendAt:   &future,
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, sender.params)
	})
}
