package payment

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/checkout"
	"github.com/vishxl-0001/vipn/pkg/orders"
)

var (
	headphones = catalog.Product{ID: "1", Name: "Premium Wireless Headphones", Price: 15999}
	buyer      = checkout.UserDetails{
		Name:    "John Doe",
		Email:   "john@example.com",
		Phone:   "9876543210",
		Address: "123 Main Street",
		City:    "Mumbai",
		State:   "Maharashtra",
		Pincode: "400001",
	}
	fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func testRazorpay(t *testing.T) *Razorpay {
	t.Helper()
	s := DefaultSettings()
	s.KeyID = "rzp_test_key"
	p, err := NewRazorpay(s)
	require.NoError(t, err)
	p.now = func() time.Time { return fixedNow }
	p.newID = func() string { return "handoff-1" }
	return p
}

func TestBuildOptions(t *testing.T) {
	s := DefaultSettings()
	s.KeyID = "rzp_live_x"

	opts := BuildOptions(s, headphones, buyer, 15999)

	assert.Equal(t, "rzp_live_x", opts.Key)
	assert.Equal(t, 1599900, opts.Amount)
	assert.Equal(t, "INR", opts.Currency)
	assert.Equal(t, "WDB", opts.Name)
	assert.Equal(t, "Premium Wireless Headphones", opts.Description)
	assert.Equal(t, "/image/WDB-logo.png", opts.Image)
	assert.Equal(t, Prefill{Name: "John Doe", Email: "john@example.com", Contact: "9876543210"}, opts.Prefill)
	assert.Equal(t, "123 Main Street, Mumbai, Maharashtra - 400001", opts.Notes.Address)
	assert.Equal(t, "#030213", opts.Theme.Color)
}

func TestOptionsJSONMatchesWidget(t *testing.T) {
	data, err := json.Marshal(BuildOptions(DefaultSettings(), headphones, buyer, 599))
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(59900), raw["amount"])
	assert.Contains(t, raw, "prefill")
	assert.Equal(t, "#030213", raw["theme"].(map[string]interface{})["color"])
}

func TestRazorpayBegin(t *testing.T) {
	p := testRazorpay(t)
	quote := checkout.NewQuote(headphones.Price)

	h, err := p.Begin(context.Background(), headphones, buyer, quote)
	require.NoError(t, err)

	assert.Equal(t, "handoff-1", h.ID)
	assert.Equal(t, "razorpay", h.Provider)
	assert.Equal(t, 15999, h.Amount)
	assert.Equal(t, buyer, h.Details)
	assert.Equal(t, "https://checkout.razorpay.com/v1/checkout.js", h.ScriptURL)
	assert.Equal(t, fixedNow, h.CreatedAt)
}

func TestBeginChargesShipping(t *testing.T) {
	p := testRazorpay(t)
	cheap := catalog.Product{ID: "9", Name: "Sticker", Price: 500}

	h, err := p.Begin(context.Background(), cheap, buyer, checkout.NewQuote(cheap.Price))
	require.NoError(t, err)
	assert.Equal(t, 599, h.Amount)
	assert.Equal(t, 59900, h.Options.Amount)
}

func TestBeginCancelledContext(t *testing.T) {
	p := testRazorpay(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Begin(ctx, headphones, buyer, checkout.NewQuote(headphones.Price))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRazorpayRequiresKey(t *testing.T) {
	_, err := NewRazorpay(DefaultSettings())
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("", DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "simulated", p.Name())

	_, err = NewProvider("razorpay", DefaultSettings())
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = NewProvider("paypal", DefaultSettings())
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestSimulated(t *testing.T) {
	sim := NewSimulated(DefaultSettings())

	h, err := sim.Begin(context.Background(), headphones, buyer, checkout.NewQuote(headphones.Price))
	require.NoError(t, err)
	assert.Equal(t, "simulated", h.Provider)
	assert.Empty(t, h.ScriptURL)
	assert.Equal(t, "rzp_test_simulated", h.Options.Key)

	id := sim.PaymentID()
	assert.True(t, strings.HasPrefix(id, "pay_sim_"))
	assert.Len(t, id, len("pay_sim_")+14)
}

func TestComplete(t *testing.T) {
	p := testRazorpay(t)
	h, err := p.Begin(context.Background(), headphones, buyer, checkout.NewQuote(headphones.Price))
	require.NoError(t, err)

	now := time.UnixMilli(1709294400000)
	o, err := Complete(h, "handoff-1", "pay_ABC", now)
	require.NoError(t, err)

	assert.Equal(t, "ORD1709294400000", o.ID)
	assert.Equal(t, orders.GuestUserID, o.UserID)
	assert.Equal(t, "1", o.ProductID)
	assert.Equal(t, "Premium Wireless Headphones", o.ProductName)
	assert.Equal(t, 15999, o.Amount)
	assert.Equal(t, orders.StatusCompleted, o.Status)
	assert.Equal(t, "pay_ABC", o.PaymentID)
	assert.Equal(t, buyer, o.UserDetails)
	assert.Equal(t, time.UTC, o.CreatedAt.Location())
}

func TestCompleteRejects(t *testing.T) {
	h := Handoff{ID: "h1", ProductID: "1", ProductName: "x", Amount: 10}

	_, err := Complete(h, "other", "pay_1", fixedNow)
	assert.ErrorIs(t, err, ErrHandoffMismatch)

	_, err = Complete(h, "h1", "  ", fixedNow)
	assert.ErrorIs(t, err, ErrMissingPaymentID)
}
