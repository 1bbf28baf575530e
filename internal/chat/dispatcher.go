package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/deudbot/backend/internal/models"
	"github.com/deudbot/backend/internal/phone"
	"github.com/deudbot/backend/internal/store"
	"github.com/shopspring/decimal"
)

// Store is the slice of the ledger store the dispatcher needs. Balance
// mutations go through AppendLedgerEntry, which applies the entry and the
// denormalized balance update atomically and returns the post-state.
type Store interface {
	ListActiveDebtors(ctx context.Context) ([]models.Debtor, error)
	CreateDebtor(ctx context.Context, name, phoneNumber string, starting decimal.Decimal, notes string) (int64, error)
	SoftDeleteDebtor(ctx context.Context, id int64) error
	AppendLedgerEntry(ctx context.Context, debtorID int64, amount decimal.Decimal, memo string, kind models.EntryKind) (models.Debtor, error)
	ListEntries(ctx context.Context, debtorID int64, limit int) ([]models.LedgerEntry, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Notifier delivers chat-channel messages after a ledger mutation committed.
// Every method logs its own message-log entry; errors are reported back so
// the response can show a degraded status, but they never undo the mutation.
type Notifier interface {
	SendReminder(ctx context.Context, d models.Debtor, kind models.MessageKind) error
	SendUpdate(ctx context.Context, d models.Debtor, text string) error
	SendBulkReminders(ctx context.Context) (sent, failed int, err error)
}

type ResultKind string

const (
	ResultInfo    ResultKind = "info"
	ResultSuccess ResultKind = "success"
	ResultError   ResultKind = "error"
	ResultList    ResultKind = "list"
	ResultHelp    ResultKind = "help"
)

// Response is the structured result of one command. Body is plain chat text;
// the presentation layer decides how to render it.
type Response struct {
	Kind ResultKind `json:"type"`
	Body string     `json:"response"`
}

type Dispatcher struct {
	store    Store
	notifier Notifier
	parser   *Parser
}

func NewDispatcher(store Store, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		store:    store,
		notifier: notifier,
		parser:   NewParser(),
	}
}

// Handle interprets one line of input and runs the matching workflow.
func (d *Dispatcher) Handle(ctx context.Context, line string) Response {
	if strings.TrimSpace(line) == "" {
		return Response{Kind: ResultInfo, Body: `Escribe un comando. Escribe "ayuda" para ver los comandos disponibles.`}
	}

	switch in := d.parser.Parse(line).(type) {
	case HelpIntent:
		return d.handleHelp()
	case ListIntent:
		return d.handleList(ctx)
	case TotalsIntent:
		return d.handleTotals(ctx)
	case NewDebtorIntent:
		return d.handleNewDebtor(ctx, in)
	case DeleteIntent:
		return d.handleDelete(ctx, in)
	case InfoIntent:
		return d.handleInfo(ctx, in)
	case NotifyIntent:
		return d.handleNotify(ctx, in)
	case PaymentIntent:
		return d.handlePayment(ctx, in)
	case ChargeIntent:
		return d.handleCharge(ctx, in)
	case UnknownIntent:
		return Response{
			Kind: ResultError,
			Body: fmt.Sprintf("🤔 No entendí %q. Escribe \"ayuda\" para ver los comandos disponibles.", in.Input),
		}
	default:
		return Response{Kind: ResultError, Body: "Comando no soportado."}
	}
}

func (d *Dispatcher) handleHelp() Response {
	return Response{Kind: ResultHelp, Body: strings.Join([]string{
		"🤖 *¡Hola! Soy Deudbot.*",
		"",
		"📖 *Comandos disponibles:*",
		"nombre + monto → registrar compras (ej: mau + 15)",
		"nombre - monto → registrar un pago (ej: mau - 20)",
		"nuevo nombre telefono → agregar deudor (ej: nuevo Juan 5512345678)",
		"nuevo nombre telefono monto → agregar con deuda (ej: nuevo Juan 5512345678 50)",
		"borrar nombre → eliminar un deudor",
		"lista → ver todos los deudores y sus deudas",
		"info nombre → ver detalle de un deudor",
		"notificar nombre → enviar recordatorio a un deudor",
		"notificar todos → enviar recordatorio a todos",
		"total → ver el total de deuda",
	}, "\n")}
}

func (d *Dispatcher) handleList(ctx context.Context) Response {
	debtors, err := d.store.ListActiveDebtors(ctx)
	if err != nil {
		return d.storeError(err)
	}
	if len(debtors) == 0 {
		return Response{Kind: ResultInfo, Body: `📋 No hay deudores registrados. Usa "nuevo nombre telefono" para agregar uno.`}
	}

	var b strings.Builder
	b.WriteString("📋 *Lista de Deudores:*\n")
	total := decimal.Zero
	for _, dt := range debtors {
		fmt.Fprintf(&b, "%s — %s — 📱 %s\n", dt.Name, money(dt.Balance), dt.Phone)
		total = total.Add(dt.Balance)
	}
	fmt.Fprintf(&b, "\n💰 Total: %s", money(total))
	return Response{Kind: ResultList, Body: b.String()}
}

func (d *Dispatcher) handleTotals(ctx context.Context) Response {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return d.storeError(err)
	}
	body := fmt.Sprintf(
		"📊 *Resumen:*\n👥 Deudores: %d\n⚠️ Con deuda: %d\n💰 Total: %s\n💵 Total pagado: %s",
		stats.Debtors, stats.WithDebt, money(stats.TotalBalance), money(stats.TotalPaid),
	)
	return Response{Kind: ResultInfo, Body: body}
}

func (d *Dispatcher) handleNewDebtor(ctx context.Context, in NewDebtorIntent) Response {
	if err := phone.Validate(in.Phone); err != nil {
		return Response{Kind: ResultError, Body: fmt.Sprintf("❌ Número de teléfono no válido: %s", in.Phone)}
	}

	if _, err := d.store.CreateDebtor(ctx, in.Name, in.Phone, in.StartingBalance, ""); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return Response{Kind: ResultError, Body: fmt.Sprintf("❌ El teléfono *%s* ya está registrado.", in.Phone)}
		}
		return d.storeError(err)
	}

	body := fmt.Sprintf("✅ *%s* agregado correctamente\n%s\n📱 %s", in.Name, money(in.StartingBalance), in.Phone)
	return Response{Kind: ResultSuccess, Body: body}
}

func (d *Dispatcher) handleDelete(ctx context.Context, in DeleteIntent) Response {
	debtor, ok, err := d.resolve(ctx, in.Query)
	if err != nil {
		return d.storeError(err)
	}
	if !ok {
		return notFoundResponse(in.Query)
	}
	if err := d.store.SoftDeleteDebtor(ctx, debtor.ID); err != nil {
		return d.storeError(err)
	}
	return Response{Kind: ResultSuccess, Body: fmt.Sprintf("🗑️ *%s* ha sido eliminado.", debtor.Name)}
}

func (d *Dispatcher) handleInfo(ctx context.Context, in InfoIntent) Response {
	debtor, ok, err := d.resolve(ctx, in.Query)
	if err != nil {
		return d.storeError(err)
	}
	if !ok {
		return notFoundResponse(in.Query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n%s\n📱 %s", debtor.Name, money(debtor.Balance), debtor.Phone)
	if debtor.Notes != "" {
		fmt.Fprintf(&b, "\n📌 %s", debtor.Notes)
	}

	entries, err := d.store.ListEntries(ctx, debtor.ID, 10)
	if err != nil {
		return d.storeError(err)
	}
	if len(entries) > 0 {
		b.WriteString("\n\n📝 *Historial:*")
		for _, e := range entries {
			icon, sign := "🛒", "+"
			if e.Kind == models.EntryPayment {
				icon, sign = "💵", "-"
			}
			memo := e.Memo
			if memo == "" {
				memo = string(e.Kind)
			}
			fmt.Fprintf(&b, "\n%s %s%s — %s (%s)", icon, sign, money(e.Amount), memo, e.CreatedAt.Format("2006-01-02 15:04"))
		}
	}
	return Response{Kind: ResultInfo, Body: b.String()}
}

func (d *Dispatcher) handleNotify(ctx context.Context, in NotifyIntent) Response {
	if in.All {
		sent, failed, err := d.notifier.SendBulkReminders(ctx)
		if err != nil {
			return Response{Kind: ResultError, Body: fmt.Sprintf("❌ Error enviando: %s", err)}
		}
		return Response{Kind: ResultSuccess, Body: fmt.Sprintf("📤 Recordatorios enviados: *%d* ✅, Errores: *%d*", sent, failed)}
	}

	debtor, ok, err := d.resolve(ctx, in.Query)
	if err != nil {
		return d.storeError(err)
	}
	if !ok {
		return notFoundResponse(in.Query)
	}
	if err := d.notifier.SendReminder(ctx, debtor, models.MessageManual); err != nil {
		body := fmt.Sprintf("*%s*\n%s\n❌ Error: %s", debtor.Name, money(debtor.Balance), err)
		return Response{Kind: ResultError, Body: body}
	}
	body := fmt.Sprintf("*%s*\n%s\n✅ Mensaje enviado por WhatsApp", debtor.Name, money(debtor.Balance))
	return Response{Kind: ResultSuccess, Body: body}
}

func (d *Dispatcher) handlePayment(ctx context.Context, in PaymentIntent) Response {
	if !in.Amount.IsPositive() {
		return Response{Kind: ResultError, Body: "❌ El monto debe ser mayor a 0."}
	}
	debtor, ok, err := d.resolve(ctx, in.Query)
	if err != nil {
		return d.storeError(err)
	}
	if !ok {
		body := fmt.Sprintf("❌ No encontré a %q. Usa \"nuevo %s telefono\" para registrarlo.", in.Query, in.Query)
		return Response{Kind: ResultError, Body: body}
	}

	updated, err := d.store.AppendLedgerEntry(ctx, debtor.ID, in.Amount, "Pago registrado", models.EntryPayment)
	if err != nil {
		return d.storeError(err)
	}

	text := fmt.Sprintf("Hola %s, hemos recibido tu pago de %s. ", updated.Name, money(in.Amount))
	switch {
	case updated.Balance.IsPositive():
		text += fmt.Sprintf("Tu saldo pendiente actual es de %s.", money(updated.Balance))
	case updated.Balance.IsZero():
		text += "¡Tu deuda ha quedado saldada! Gracias por tu pago. 🎉"
	default:
		text += fmt.Sprintf("Tienes un saldo a favor de %s. 🎉", money(updated.Balance.Abs()))
	}
	status := d.sendUpdate(ctx, updated, text)

	body := fmt.Sprintf("💵 Pago de *%s* registrado para *%s*\n%s\n%s",
		money(in.Amount), updated.Name, balanceLine(updated.Balance), status)
	return Response{Kind: ResultSuccess, Body: body}
}

func (d *Dispatcher) handleCharge(ctx context.Context, in ChargeIntent) Response {
	if !in.Amount.IsPositive() {
		return Response{Kind: ResultError, Body: "❌ El monto debe ser mayor a 0."}
	}
	debtor, ok, err := d.resolve(ctx, in.Query)
	if err != nil {
		return d.storeError(err)
	}
	if !ok {
		return notFoundResponse(in.Query)
	}

	updated, err := d.store.AppendLedgerEntry(ctx, debtor.ID, in.Amount, "Compras desde chat", models.EntryCharge)
	if err != nil {
		return d.storeError(err)
	}

	text := fmt.Sprintf("Hola %s, se han cargado %s por tus nuevas compras. Tu saldo pendiente actual es de %s.",
		updated.Name, money(in.Amount), money(updated.Balance))
	status := d.sendUpdate(ctx, updated, text)

	body := fmt.Sprintf("🛒 Se cargaron *%s* a la cuenta de *%s*\n%s\n%s",
		money(in.Amount), updated.Name, balanceLine(updated.Balance), status)
	return Response{Kind: ResultSuccess, Body: body}
}

// sendUpdate notifies the debtor after a committed mutation. Failures are
// reported in the response body only; the ledger write stands.
func (d *Dispatcher) sendUpdate(ctx context.Context, debtor models.Debtor, text string) string {
	if err := d.notifier.SendUpdate(ctx, debtor, text); err != nil {
		log.Printf("[CHAT] WhatsApp notification to %s failed: %v", debtor.Name, err)
		return fmt.Sprintf("⚠️ WhatsApp: %s", err)
	}
	return "✅ Notificado por WhatsApp"
}

// resolve fetches the active debtors and runs the tiered name match. A store
// failure is returned as err; a genuine miss is ok=false with a nil err, so
// callers never present an outage as a missing debtor.
func (d *Dispatcher) resolve(ctx context.Context, query string) (models.Debtor, bool, error) {
	debtors, err := d.store.ListActiveDebtors(ctx)
	if err != nil {
		return models.Debtor{}, false, err
	}
	debtor, ok := Resolve(query, debtors)
	return debtor, ok, nil
}

func notFoundResponse(query string) Response {
	body := fmt.Sprintf("❌ No encontré a %q. Escribe \"lista\" para ver los nombres.", query)
	return Response{Kind: ResultError, Body: body}
}

func (d *Dispatcher) storeError(err error) Response {
	log.Printf("[CHAT] store error: %v", err)
	return Response{Kind: ResultError, Body: fmt.Sprintf("❌ Error: %s", err)}
}

func money(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}

func balanceLine(v decimal.Decimal) string {
	if v.IsNegative() {
		return fmt.Sprintf("Saldo a favor: %s 🎉", money(v.Abs()))
	}
	return money(v)
}
