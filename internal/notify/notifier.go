// Package notify announces submitted orders to the team's Telegram group,
// built from the ordered template parts in the reference data.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/chanrith/orderdesk/internal/logger"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

// Sender is the slice of the Telegram API the notifier needs.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// Notifier sends order announcements. A nil *Notifier is a no-op, so callers
// never need to branch on whether Telegram is configured.
type Notifier struct {
	sender Sender
}

// New creates a notifier around a Telegram bot client.
func New(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// NewFromToken builds the Telegram client from a bot token. An empty token
// returns nil, disabling announcements.
func NewFromToken(token string) (*Notifier, error) {
	if token == "" {
		return nil, nil
	}
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return New(b), nil
}

// Announcement is one fully resolved order notification: where to send it and
// the ordered message parts.
type Announcement struct {
	ChatID   string
	Messages []string
	SendAt   *time.Time
}

// BuildAnnouncement resolves the team's template parts against a submitted
// order. Parts are matched case-insensitively by team and sent in Part order.
func BuildAnnouncement(templates []models.TelegramTemplate, team, orderID string, draft models.OrderDraft, user models.User) Announcement {
	var parts []models.TelegramTemplate
	for _, t := range templates {
		if strings.EqualFold(t.Team, team) {
			parts = append(parts, t)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Part < parts[j].Part })

	fields := orderFields(team, orderID, draft, user)
	var messages []string
	for _, part := range parts {
		msg := substitute(part.Template, fields)
		if strings.TrimSpace(msg) != "" {
			messages = append(messages, msg)
		}
	}

	ann := Announcement{ChatID: draft.TelegramValue, Messages: messages}
	if draft.Telegram.Enabled && draft.Telegram.SendAt != nil {
		ann.SendAt = draft.Telegram.SendAt
	}
	return ann
}

// orderFields flattens an order into the placeholder vocabulary the template
// sheet uses.
func orderFields(team, orderID string, draft models.OrderDraft, user models.User) map[string]string {
	location := strings.Join(nonEmpty(
		draft.Customer.Province,
		draft.Customer.District,
		draft.Customer.Sangkat,
	), ", ")

	var lines []string
	for _, p := range draft.Products {
		line := fmt.Sprintf("%s x%d = %s", p.Name, p.Quantity, p.LineTotal.StringFixed(2))
		if p.ColorInfo != "" {
			line += " (" + p.ColorInfo + ")"
		}
		lines = append(lines, line)
	}

	return map[string]string{
		"orderId":       orderID,
		"team":          team,
		"page":          draft.Page,
		"user":          user.FullName,
		"customerName":  draft.Customer.Name,
		"customerPhone": draft.Customer.Phone,
		"location":      location,
		"address":       draft.Customer.ExtraAddress,
		"products":      strings.Join(lines, "\n"),
		"subtotal":      draft.Subtotal.StringFixed(2),
		"shippingFee":   draft.Customer.ShippingFee.StringFixed(2),
		"grandTotal":    draft.GrandTotal.StringFixed(2),
		"paymentStatus": draft.Payment.Status,
		"paymentInfo":   draft.Payment.Info,
		"note":          draft.Note,
	}
}

// substitute replaces {name} markers. Unknown markers are left in place so a
// template typo is visible in the group instead of silently vanishing.
func substitute(template string, fields map[string]string) string {
	out := template
	for key, value := range fields {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// Send delivers the announcement's parts in order, honoring the optional
// schedule by waiting until the send time.
func (n *Notifier) Send(ctx context.Context, ann Announcement) error {
	if n == nil || n.sender == nil {
		return nil
	}
	if ann.ChatID == "" || len(ann.Messages) == 0 {
		return nil
	}

	if ann.SendAt != nil {
		if wait := time.Until(*ann.SendAt); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	for _, msg := range ann.Messages {
		_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: ann.ChatID,
			Text:   msg,
		})
		if err != nil {
			return fmt.Errorf("failed to send order announcement: %w", err)
		}
	}
	return nil
}

// SendAsync delivers on a best-effort basis: the caller is never blocked and
// failures only reach the diagnostic log. Detached from the caller's context
// so a finishing submission cannot cancel its own announcement.
func (n *Notifier) SendAsync(ctx context.Context, ann Announcement) {
	if n == nil || n.sender == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := n.Send(detached, ann); err != nil {
			logger.Log.Warn().Err(err).Str("chat_id", ann.ChatID).Msg("Order announcement failed")
		}
	}()
}
