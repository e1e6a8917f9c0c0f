// Package payment prepares the hosted checkout widget for a validated
// purchase and turns the widget's success callback into an order.
//
// The widget runs in the buyer's browser. Begin records a Handoff that the
// session keeps while the widget is open; Complete accepts the callback only
// for that handoff. The payment reference itself is not verified with the
// gateway.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/checkout"
	"github.com/vishxl-0001/vipn/pkg/orders"
)

// Notification texts for the failure outcomes
const (
	MessageCancelled     = "Payment cancelled"
	MessageGatewayFailed = "Failed to load payment gateway"
)

var (
	// ErrMissingKey is returned when the gateway key is not configured
	ErrMissingKey = errors.New("payment key is not configured")
	// ErrHandoffMismatch is returned when a callback names another handoff
	ErrHandoffMismatch = errors.New("payment callback does not match the open handoff")
	// ErrMissingPaymentID is returned when a success callback has no payment reference
	ErrMissingPaymentID = errors.New("payment callback carries no payment id")
	// ErrUnknownProvider is returned by NewProvider for unsupported names
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// Settings describe the merchant branding and gateway endpoints
type Settings struct {
	KeyID        string `json:"key_id" yaml:"key_id"`
	Currency     string `json:"currency" yaml:"currency"`
	MerchantName string `json:"merchant_name" yaml:"merchant_name"`
	Image        string `json:"image" yaml:"image"`
	ThemeColor   string `json:"theme_color" yaml:"theme_color"`
	ScriptURL    string `json:"script_url" yaml:"script_url"`
}

// DefaultSettings returns the storefront's branding
func DefaultSettings() Settings {
	return Settings{
		Currency:     "INR",
		MerchantName: "WDB",
		Image:        "/image/WDB-logo.png",
		ThemeColor:   "#030213",
		ScriptURL:    "https://checkout.razorpay.com/v1/checkout.js",
	}
}

// Prefill carries the buyer fields shown pre-filled in the widget
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Notes are free-form merchant notes attached to the payment
type Notes struct {
	Address string `json:"address"`
}

// Theme styles the widget
type Theme struct {
	Color string `json:"color"`
}

// Options is the widget configuration, serialized into the payment page
type Options struct {
	Key         string  `json:"key"`
	Amount      int     `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Prefill     Prefill `json:"prefill"`
	Notes       Notes   `json:"notes"`
	Theme       Theme   `json:"theme"`
}

// Handoff is an open payment attempt
type Handoff struct {
	ID          string               `json:"id"`
	Provider    string               `json:"provider"`
	ProductID   string               `json:"product_id"`
	ProductName string               `json:"product_name"`
	// Amount is the quote total in rupees: product price plus shipping
	Amount      int                  `json:"amount"`
	Details     checkout.UserDetails `json:"details"`
	Options     Options              `json:"options"`
	ScriptURL   string               `json:"script_url,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Provider opens payment attempts against one gateway
type Provider interface {
	Name() string
	Begin(ctx context.Context, p catalog.Product, details checkout.UserDetails, quote checkout.Quote) (Handoff, error)
}

// ToPaise converts whole rupees to the gateway's minor unit
func ToPaise(rupees int) int {
	return rupees * 100
}

// BuildOptions assembles the widget configuration for one purchase
func BuildOptions(s Settings, p catalog.Product, details checkout.UserDetails, amount int) Options {
	return Options{
		Key:         s.KeyID,
		Amount:      ToPaise(amount),
		Currency:    s.Currency,
		Name:        s.MerchantName,
		Description: p.Name,
		Image:       s.Image,
		Prefill: Prefill{
			Name:    details.Name,
			Email:   details.Email,
			Contact: details.Phone,
		},
		Notes: Notes{Address: details.ShippingAddress()},
		Theme: Theme{Color: s.ThemeColor},
	}
}

type base struct {
	name     string
	settings Settings
	now      func() time.Time
	newID    func() string
}

func (b base) Name() string {
	return b.name
}

func (b base) Begin(ctx context.Context, p catalog.Product, details checkout.UserDetails, quote checkout.Quote) (Handoff, error) {
	if err := ctx.Err(); err != nil {
		return Handoff{}, err
	}
	return Handoff{
		ID:          b.newID(),
		Provider:    b.name,
		ProductID:   p.ID,
		ProductName: p.Name,
		Amount:      quote.Total,
		Details:     details,
		Options:     BuildOptions(b.settings, p, details, quote.Total),
		ScriptURL:   b.settings.ScriptURL,
		CreatedAt:   b.now().UTC(),
	}, nil
}

// Razorpay opens the hosted Razorpay checkout in the browser
type Razorpay struct {
	base
}

// NewRazorpay requires a key id in s
func NewRazorpay(s Settings) (*Razorpay, error) {
	if strings.TrimSpace(s.KeyID) == "" {
		return nil, ErrMissingKey
	}
	return &Razorpay{base{name: "razorpay", settings: s, now: time.Now, newID: uuid.NewString}}, nil
}

// Simulated renders a local stand-in for the widget. It never contacts a
// gateway and is the default outside production.
type Simulated struct {
	base
}

// NewSimulated returns a provider that needs no key
func NewSimulated(s Settings) *Simulated {
	if s.KeyID == "" {
		s.KeyID = "rzp_test_simulated"
	}
	s.ScriptURL = ""
	return &Simulated{base{name: "simulated", settings: s, now: time.Now, newID: uuid.NewString}}
}

// PaymentID fabricates a payment reference for the simulated widget
func (s *Simulated) PaymentID() string {
	id := strings.ReplaceAll(s.newID(), "-", "")
	if len(id) > 14 {
		id = id[:14]
	}
	return "pay_sim_" + id
}

// NewProvider selects a provider by name
func NewProvider(name string, s Settings) (Provider, error) {
	switch strings.ToLower(name) {
	case "", "simulated":
		return NewSimulated(s), nil
	case "razorpay":
		return NewRazorpay(s)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}

// Complete turns a success callback for h into a completed order. The
// callback must name h and carry a payment reference.
func Complete(h Handoff, handoffID, paymentID string, now time.Time) (orders.Order, error) {
	if handoffID != h.ID {
		return orders.Order{}, ErrHandoffMismatch
	}
	if strings.TrimSpace(paymentID) == "" {
		return orders.Order{}, ErrMissingPaymentID
	}

	o := orders.Order{
		ID:          orders.NewID(now),
		UserID:      orders.GuestUserID,
		ProductID:   h.ProductID,
		ProductName: h.ProductName,
		Amount:      h.Amount,
		Status:      orders.StatusCompleted,
		PaymentID:   paymentID,
		CreatedAt:   now.UTC(),
		UserDetails: h.Details,
	}
	if err := o.Validate(); err != nil {
		return orders.Order{}, err
	}
	return o, nil
}
