package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/checkout"
	"github.com/vishxl-0001/vipn/pkg/orders"
	"github.com/vishxl-0001/vipn/pkg/payment"
	"github.com/vishxl-0001/vipn/pkg/state"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const dateLayout = "January 2, 2006 at 03:04 PM"

var funcMap = template.FuncMap{
	"money":       formatMoney,
	"date":        func(t time.Time) string { return t.Format(dateLayout) },
	"stars":       formatRating,
	"statusClass": func(s orders.Status) string { return "status-" + string(s) },
}

// formatMoney renders whole rupees with thousands separators, e.g. ₹1,299
func formatMoney(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "₹" + b.String()
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// pages maps each template to the screen it renders. "payment" is the
// widget page and is not a controller screen.
var pages = []string{
	string(state.PageHome),
	string(state.PageProducts),
	string(state.PageProductDetails),
	string(state.PageCheckout),
	string(state.PagePaymentSuccess),
	string(state.PageOrders),
	string(state.PageAbout),
	string(state.PageContact),
	"payment",
}

// Renderer executes page templates inside the shared layout
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	return newRenderer(templateFS)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New("layout.html").Funcs(funcMap).ParseFS(fsys,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// View is the data every template receives
type View struct {
	Page          state.Page
	Title         string
	CartCount     int
	Notifications []state.Notification

	// home
	Featured []catalog.Product

	// products
	Products   []catalog.Product
	Query      catalog.Query
	Categories []string
	SortKeys   []catalog.SortKey

	// product-details and checkout; nil renders the not-found fallback
	Product    *catalog.Product
	Quantity   int
	Quantities []int
	Subtotal   int

	// checkout
	Quote checkout.Quote
	Form  checkout.Result

	// payment
	Handoff            *payment.Handoff
	WidgetOptions      template.JS
	SimulatedPaymentID string

	// payment-success
	LastOrderID   string
	LastUserEmail string

	// orders
	Orders []orders.Order
}

// Render writes template name with status. Rendering happens into a buffer
// first so a template error never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, v View) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("no template %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", v); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// widgetOptions serializes the checkout widget configuration for a script
// block
func widgetOptions(o payment.Options) (template.JS, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil
}
