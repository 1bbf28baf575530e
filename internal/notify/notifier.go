// Package notify builds and delivers debtor notifications. Sends always
// happen after the ledger mutation they describe has committed; a failed
// send is logged and reported, never used to undo anything.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/deudbot/backend/internal/config"
	"github.com/deudbot/backend/internal/gateway"
	"github.com/deudbot/backend/internal/models"
	"github.com/deudbot/backend/internal/phone"
	"github.com/go-redis/redis/v8"
)

// Sender is the outbound channel; *gateway.Gateway satisfies it.
type Sender interface {
	SendText(ctx context.Context, rawPhone, text string) (string, error)
}

// Store is the slice of the ledger store the notifier needs.
type Store interface {
	ListActiveDebtors(ctx context.Context) ([]models.Debtor, error)
	FindByChannelAddress(ctx context.Context, address string) (models.Debtor, error)
	ListEntries(ctx context.Context, debtorID int64, limit int) ([]models.LedgerEntry, error)
	AppendMessageLog(ctx context.Context, debtorID *int64, kind models.MessageKind, body string, state models.MessageState) error
	LoadSettings(ctx context.Context) (models.Settings, error)
}

type Notifier struct {
	store  Store
	sender Sender
	redis  *redis.Client
	cfg    *config.MessagingConfig

	bulkRunning chan struct{} // 1-slot token, see SendBulkReminders
}

// New builds a notifier. redisClient may be nil, in which case outbound rate
// limiting is disabled (the teacher store degrades the same way).
func New(store Store, sender Sender, redisClient *redis.Client, cfg *config.MessagingConfig) *Notifier {
	n := &Notifier{
		store:       store,
		sender:      sender,
		redis:       redisClient,
		cfg:         cfg,
		bulkRunning: make(chan struct{}, 1),
	}
	n.bulkRunning <- struct{}{}
	return n
}

// FormatTemplate substitutes the recognized placeholders; anything else is
// left verbatim. Spanish and English placeholder names are both accepted.
func FormatTemplate(tpl string, d models.Debtor) string {
	balance := "$" + d.Balance.StringFixed(2)
	return strings.NewReplacer(
		"{nombre}", d.Name,
		"{name}", d.Name,
		"${deuda}", balance,
		"{balance}", balance,
		"{telefono}", d.Phone,
		"{phone}", d.Phone,
		"{notas}", d.Notes,
		"{notes}", d.Notes,
	).Replace(tpl)
}

// SendReminder renders the configured reminder template for the debtor and
// delivers it, logging the attempt under the given kind.
func (n *Notifier) SendReminder(ctx context.Context, d models.Debtor, kind models.MessageKind) error {
	settings, err := n.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	text := FormatTemplate(settings.ReminderTemplate, d)
	return n.send(ctx, &d.ID, d.Phone, kind, text)
}

// SendUpdate delivers a post-mutation balance update.
func (n *Notifier) SendUpdate(ctx context.Context, d models.Debtor, text string) error {
	return n.send(ctx, &d.ID, d.Phone, models.MessageUpdate, text)
}

// send is the single delivery path: rate-limit gate, gateway send, message
// log. The log records both outcomes, so a bulk run over N debtors always
// leaves N entries.
func (n *Notifier) send(ctx context.Context, debtorID *int64, rawPhone string, kind models.MessageKind, text string) error {
	if err := n.checkRateLimit(ctx, rawPhone); err != nil {
		n.logAttempt(ctx, debtorID, kind, fmt.Sprintf("Error: %s", err), models.MessageError)
		return err
	}

	address, err := n.sender.SendText(ctx, rawPhone, text)
	if err != nil {
		n.logAttempt(ctx, debtorID, kind, fmt.Sprintf("Error: %s", err), models.MessageError)
		return err
	}

	log.Printf("[NOTIFY] %s message delivered to %s", kind, address)
	n.logAttempt(ctx, debtorID, kind, text, models.MessageSent)
	n.incrementRateLimit(ctx, rawPhone)
	return nil
}

func (n *Notifier) logAttempt(ctx context.Context, debtorID *int64, kind models.MessageKind, body string, state models.MessageState) {
	if err := n.store.AppendMessageLog(ctx, debtorID, kind, body, state); err != nil {
		log.Printf("[NOTIFY] message log write failed: %v", err)
	}
}

func (n *Notifier) rateLimitKey(rawPhone string) string {
	return "notify:ratelimit:" + phone.Normalize(rawPhone)
}

func (n *Notifier) checkRateLimit(ctx context.Context, rawPhone string) error {
	if n.redis == nil {
		return nil
	}
	count, err := n.redis.Get(ctx, n.rateLimitKey(rawPhone)).Int()
	if err != nil && err != redis.Nil {
		// Rate limiting is advisory; a broken counter must not block sends.
		log.Printf("[NOTIFY] rate limit check failed: %v", err)
		return nil
	}
	if count >= n.cfg.RateLimitMax {
		return gateway.ErrRateLimited
	}
	return nil
}

func (n *Notifier) incrementRateLimit(ctx context.Context, rawPhone string) {
	if n.redis == nil {
		return
	}
	key := n.rateLimitKey(rawPhone)
	pipe := n.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, n.cfg.RateLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[NOTIFY] rate limit increment failed: %v", err)
	}
}

// HandleIncoming is the auto-responder wired to the gateway's inbound event.
// Only the /consultar command gets a reply.
func (n *Notifier) HandleIncoming(from, body string) {
	if strings.ToLower(strings.TrimSpace(body)) != "/consultar" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	debtor, err := n.store.FindByChannelAddress(ctx, from)
	if err != nil {
		reply := "Hola, no encontré tu número registrado en el sistema. Contacta al administrador para más información."
		if _, err := n.sender.SendText(ctx, from, reply); err != nil {
			log.Printf("[NOTIFY] auto-reply to unregistered %s failed: %v", from, err)
		}
		n.logAttempt(ctx, nil, models.MessageAutoReply, "Número no registrado: "+phone.Normalize(from), models.MessageInfo)
		return
	}

	reply := n.accountSummary(ctx, debtor)
	if _, err := n.sender.SendText(ctx, from, reply); err != nil {
		log.Printf("[NOTIFY] auto-reply to %s failed: %v", debtor.Name, err)
		n.logAttempt(ctx, &debtor.ID, models.MessageAutoReply, fmt.Sprintf("Error: %s", err), models.MessageError)
		return
	}
	n.logAttempt(ctx, &debtor.ID, models.MessageAutoReply, reply, models.MessageSent)
}

// accountSummary renders the reply template plus the last movements.
func (n *Notifier) accountSummary(ctx context.Context, d models.Debtor) string {
	var b strings.Builder
	b.WriteString("📋 *Consulta de cuenta*\n\n")

	settings, err := n.store.LoadSettings(ctx)
	if err == nil {
		b.WriteString(FormatTemplate(settings.ReplyTemplate, d))
	} else {
		b.WriteString(FormatTemplate(models.DefaultSettings().ReplyTemplate, d))
	}

	entries, err := n.store.ListEntries(ctx, d.ID, 5)
	if err == nil && len(entries) > 0 {
		b.WriteString("\n\n📝 *Últimos movimientos:*")
		for _, e := range entries {
			icon, sign := "🛒", "+"
			if e.Kind == models.EntryPayment {
				icon, sign = "💵", "-"
			}
			memo := e.Memo
			if memo == "" {
				memo = string(e.Kind)
			}
			fmt.Fprintf(&b, "\n%s %s$%s — %s (%s)", icon, sign, e.Amount.StringFixed(2), memo, e.CreatedAt.Format("2006-01-02"))
		}
	}

	b.WriteString("\n\n_Responde /consultar en cualquier momento para ver tu estado._")
	return b.String()
}
