// Package order is the demo wiring domain: an order processor charging
// through a configurable payment gateway and confirming by mail.
package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Order is one purchase to process.
type Order struct {
	ID       string  `json:"id"`
	Customer string  `json:"customer"`
	Amount   float64 `json:"amount"`
}

// New creates an Order with a fresh id.
func New(customer string, amount float64) Order {
	return Order{
		ID:       uuid.NewString(),
		Customer: customer,
		Amount:   amount,
	}
}

// ── Payment gateways ─────────────────────────────────────────────────────────

// PaymentGateway charges an amount, returning an error on refusal.
type PaymentGateway interface {
	Name() string
	Charge(amount float64) error
}

// PayPalGateway charges through PayPal, adding a fee.
type PayPalGateway struct {
	apiKey  string
	feeRate float64
	charged float64
}

func NewPayPal(apiKey string, feeRate float64) *PayPalGateway {
	return &PayPalGateway{apiKey: apiKey, feeRate: feeRate}
}

func (g *PayPalGateway) Name() string { return "paypal" }

func (g *PayPalGateway) Charge(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("paypal: invalid amount %.2f", amount)
	}
	g.charged += amount * (1 + g.feeRate)
	return nil
}

// Close releases the gateway's session; used as the binding's dispose hook.
func (g *PayPalGateway) Close() error { return nil }

// StripeGateway charges through Stripe with a request timeout.
type StripeGateway struct {
	secretKey string
	timeout   time.Duration
	charged   float64
}

func NewStripe(secretKey string) *StripeGateway {
	return &StripeGateway{secretKey: secretKey, timeout: 5 * time.Second}
}

// SetTimeoutMS is a void setter, invoked from the factory chain.
func (g *StripeGateway) SetTimeoutMS(ms int) {
	g.timeout = time.Duration(ms) * time.Millisecond
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) Charge(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("stripe: invalid amount %.2f", amount)
	}
	g.charged += amount
	return nil
}

func (g *StripeGateway) Close() error { return nil }

// ── Mailer ───────────────────────────────────────────────────────────────────

// Mailer sends order confirmations. The demo implementation only records
// them.
type Mailer struct {
	host string
	port string
	from string
	Sent []string
}

func NewMailer(host, port, from string) *Mailer {
	return &Mailer{host: host, port: port, from: from}
}

func (m *Mailer) Send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	m.Sent = append(m.Sent, fmt.Sprintf("%s: %s", to, subject))
	return nil
}

// ── Ledger ───────────────────────────────────────────────────────────────────

// Ledger records processed orders and wiring notes; a registry-singleton the
// configure phase writes into.
type Ledger struct {
	Entries []string
}

func NewLedger() *Ledger { return &Ledger{} }

func (l *Ledger) Note(entry string) { l.Entries = append(l.Entries, entry) }

// Flush is the ledger's dispose hook.
func (l *Ledger) Flush() error { return nil }

// ── Processor ────────────────────────────────────────────────────────────────

// Processor charges orders and sends confirmations.
type Processor struct {
	gateway PaymentGateway
	mailer  *Mailer
	ledger  *Ledger
}

func NewProcessor(gateway PaymentGateway, mailer *Mailer) *Processor {
	return &Processor{gateway: gateway, mailer: mailer}
}

// SetLedger is a void setter, invoked from the factory chain.
func (p *Processor) SetLedger(l *Ledger) { p.ledger = l }

// Gateway exposes the gateway this processor was wired with.
func (p *Processor) Gateway() PaymentGateway { return p.gateway }

// Process charges the order and mails a confirmation.
func (p *Processor) Process(o Order) error {
	if err := p.gateway.Charge(o.Amount); err != nil {
		return fmt.Errorf("order %s: %w", o.ID, err)
	}
	if err := p.mailer.Send(o.Customer, "Order Confirmed",
		fmt.Sprintf("Thank you for your order #%s!", o.ID)); err != nil {
		return fmt.Errorf("order %s: %w", o.ID, err)
	}
	if p.ledger != nil {
		p.ledger.Note(fmt.Sprintf("processed %s via %s", o.ID, p.gateway.Name()))
	}
	return nil
}
