// Package web serves the storefront as server-rendered HTML. Every screen is
// rendered from the visitor's session state; every action is a form POST
// that updates the state through state.Controller and redirects back to /.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/vishxl-0001/vipn/internal/session"
	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/checkout"
	"github.com/vishxl-0001/vipn/pkg/logger"
	"github.com/vishxl-0001/vipn/pkg/payment"
	"github.com/vishxl-0001/vipn/pkg/state"
	"github.com/vishxl-0001/vipn/pkg/telemetry"
)

// MaxQuantity is the largest quantity offered on the details page
const MaxQuantity = 10

const maxFormBytes = 64 << 10

// Options wires a Handler
type Options struct {
	ServiceName string
	Catalog     *catalog.Catalog
	Payments    payment.Provider
	Sessions    *session.Manager
	Metrics     *telemetry.Metrics
	Logger      logger.Logger

	// HealthCheck reports backend readiness for /health; nil means healthy
	HealthCheck func(ctx context.Context) error

	Now func() time.Time
}

// Handler routes storefront requests
type Handler struct {
	name     string
	catalog  *catalog.Catalog
	payments payment.Provider
	sessions *session.Manager
	metrics  *telemetry.Metrics
	logger   logger.Logger
	health   func(ctx context.Context) error
	now      func() time.Time
	renderer *Renderer
	mux      *http.ServeMux
}

// New validates opts and registers the routes
func New(opts Options) (*Handler, error) {
	if opts.Catalog == nil {
		return nil, errors.New("web: catalog is required")
	}
	if opts.Payments == nil {
		return nil, errors.New("web: payment provider is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("web: session manager is required")
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		name:     opts.ServiceName,
		catalog:  opts.Catalog,
		payments: opts.Payments,
		sessions: opts.Sessions,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		health:   opts.HealthCheck,
		now:      opts.Now,
		renderer: renderer,
		mux:      http.NewServeMux(),
	}
	if h.name == "" {
		h.name = "storefront"
	}
	if h.logger == nil {
		h.logger = logger.NewSimpleLogger()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.metrics == nil {
		if h.metrics, err = telemetry.NewMetrics(noop.NewMeterProvider().Meter(telemetry.InstrumentationName)); err != nil {
			return nil, err
		}
	}

	if err := h.routes(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Handler) routes() error {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}

	// Stateless
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /api/products", h.handleListProducts)
	h.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Session-bound
	s := func(fn http.HandlerFunc) http.Handler { return h.sessions.Middleware(fn) }

	h.mux.Handle("GET /{$}", s(h.handlePage))
	h.mux.Handle("GET /payment", s(h.handlePayment))
	h.mux.Handle("GET /api/orders", s(h.handleListOrders))

	h.mux.Handle("POST /navigate", s(h.handleNavigate))
	h.mux.Handle("POST /back", s(h.handleBack))
	h.mux.Handle("POST /products/{id}/select", s(h.handleSelect))
	h.mux.Handle("POST /products/{id}/buy", s(h.handleBuyNow))
	h.mux.Handle("POST /products/{id}/cart", s(h.handleAddToCart))
	h.mux.Handle("POST /orders/view", s(h.handleViewOrders))
	h.mux.Handle("POST /checkout", s(h.handleCheckout))
	h.mux.Handle("POST /payment/callback", s(h.handlePaymentCallback))
	h.mux.Handle("POST /payment/dismiss", s(h.handlePaymentDismiss))
	h.mux.Handle("POST /payment/error", s(h.handlePaymentError))
	return nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Route names the pattern that serves r, e.g. "POST /products/{id}/buy".
// Requests that match no route are named by their method alone.
func (h *Handler) Route(r *http.Request) string {
	if _, pattern := h.mux.Handler(r); pattern != "" {
		return pattern
	}
	return r.Method
}

// controller returns the state.Controller of the request's session
func controller(r *http.Request) state.Controller {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		panic("web: session-bound route served without session middleware")
	}
	return sess.Controller
}

// redirectHome finishes a POST the post/redirect/get way
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, v View) {
	if err := h.renderer.Render(w, status, name, v); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.PageView(r.Context(), name)
}

// view fills the fields every page shares and hands out pending notifications
func (h *Handler) view(ctrl state.Controller) (View, state.State) {
	notes := ctrl.TakeNotifications()
	s := ctrl.State()
	return View{
		Page:          s.Page,
		Title:         s.Page.Title(),
		CartCount:     s.CartCount(),
		Notifications: notes,
	}, s
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	v, s := h.view(controller(r))
	q := r.URL.Query()

	switch s.Page {
	case state.PageHome:
		v.Featured = h.catalog.Featured(catalog.FeaturedCount)
	case state.PageProducts:
		v.Query = queryFrom(r)
		v.Products = catalog.List(h.catalog.All(), v.Query)
		v.Categories = h.catalog.Categories()
		v.SortKeys = catalog.SortKeys
	case state.PageProductDetails:
		v.Product = s.Selected
		v.Quantity = parseQuantity(q.Get("qty"))
		v.Quantities = quantities()
		if s.Selected != nil {
			v.Subtotal = s.Selected.Price * v.Quantity
		}
	case state.PageCheckout:
		v.Product = s.Selected
		if s.Selected != nil {
			v.Quote = checkout.NewQuote(s.Selected.Price)
		}
		if s.Draft != nil {
			v.Form = checkout.Prefill(*s.Draft)
		}
	case state.PagePaymentSuccess:
		v.LastOrderID = s.LastOrderID
		v.LastUserEmail = s.LastUserEmail
	case state.PageOrders:
		v.Orders = s.Orders
	}

	h.render(w, r, http.StatusOK, string(s.Page), v)
}

func queryFrom(r *http.Request) catalog.Query {
	q := r.URL.Query()
	return catalog.Query{
		Text:     q.Get("q"),
		Category: q.Get("category"),
		Sort:     catalog.ParseSortKey(q.Get("sort")),
	}
}

// parseQuantity clamps the requested quantity to 1..MaxQuantity
func parseQuantity(s string) int {
	n, err := strconv.Atoi(s)
	switch {
	case err != nil || n < 1:
		return 1
	case n > MaxQuantity:
		return MaxQuantity
	default:
		return n
	}
}

func quantities() []int {
	out := make([]int, MaxQuantity)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	page, err := state.ParsePage(postValue(w, r, "page"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := controller(r).Navigate(page); err != nil {
		h.writeError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	if err := controller(r).Back(); err != nil {
		h.writeError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (h *Handler) product(w http.ResponseWriter, r *http.Request) (catalog.Product, bool) {
	p, err := h.catalog.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return catalog.Product{}, false
	}
	return p, true
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	p, ok := h.product(w, r)
	if !ok {
		return
	}
	controller(r).SelectProduct(p)
	redirectHome(w, r)
}

func (h *Handler) handleBuyNow(w http.ResponseWriter, r *http.Request) {
	p, ok := h.product(w, r)
	if !ok {
		return
	}
	controller(r).BuyNow(p)
	redirectHome(w, r)
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.product(w, r)
	if !ok {
		return
	}
	controller(r).AddToCart(p)
	h.metrics.CartAddition(r.Context(), p.ID)
	redirectHome(w, r)
}

func (h *Handler) handleViewOrders(w http.ResponseWriter, r *http.Request) {
	controller(r).ViewOrders()
	redirectHome(w, r)
}

// postValue reads one form field from a size-limited body
func postValue(w http.ResponseWriter, r *http.Request, key string) string {
	if r.PostForm == nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	}
	return r.PostFormValue(key)
}

func detailsFrom(w http.ResponseWriter, r *http.Request) checkout.UserDetails {
	return checkout.UserDetails{
		Name:    postValue(w, r, "name"),
		Email:   postValue(w, r, "email"),
		Phone:   postValue(w, r, "phone"),
		Address: postValue(w, r, "address"),
		City:    postValue(w, r, "city"),
		State:   postValue(w, r, "state"),
		Pincode: postValue(w, r, "pincode"),
	}
}

// handleCheckout validates the form. Invalid input re-renders the checkout
// page with per-field messages; valid input opens a payment handoff.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctrl := controller(r)

	s := ctrl.State()
	if s.Selected == nil {
		redirectHome(w, r)
		return
	}
	product := *s.Selected

	result := checkout.Validate(detailsFrom(w, r))
	quote := checkout.NewQuote(product.Price)

	if !result.Valid() {
		for field := range result.Errors() {
			h.metrics.ValidationFailure(ctx, field)
		}
		v, _ := h.view(ctrl)
		v.Page = state.PageCheckout
		v.Title = state.PageCheckout.Title()
		v.Product = &product
		v.Quote = quote
		v.Form = result
		h.render(w, r, http.StatusUnprocessableEntity, string(state.PageCheckout), v)
		return
	}

	handoff, err := h.payments.Begin(ctx, product, result.Details(), quote)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("begin payment: %w", err))
		return
	}
	ctrl.SubmitCheckout(handoff)
	h.metrics.PaymentStarted(ctx, handoff.Provider)

	h.logger.Info("Payment handoff opened", telemetry.EnrichLogFields(ctx, map[string]interface{}{
		"handoff_id": handoff.ID,
		"provider":   handoff.Provider,
		"product_id": handoff.ProductID,
		"amount":     handoff.Amount,
	}))

	http.Redirect(w, r, "/payment", http.StatusSeeOther)
}

// handlePayment renders the widget page for the open handoff
func (h *Handler) handlePayment(w http.ResponseWriter, r *http.Request) {
	v, s := h.view(controller(r))
	if s.Pending == nil {
		redirectHome(w, r)
		return
	}

	opts, err := widgetOptions(s.Pending.Options)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	v.Title = "Payment"
	v.Handoff = s.Pending
	v.WidgetOptions = opts
	if sim, ok := h.payments.(*payment.Simulated); ok && s.Pending.Provider == sim.Name() {
		v.SimulatedPaymentID = sim.PaymentID()
	}
	h.render(w, r, http.StatusOK, "payment", v)
}

// pending returns the open handoff if handoffID names it
func pending(s state.State, handoffID string) (*payment.Handoff, error) {
	if s.Pending == nil {
		return nil, errNoPendingPayment
	}
	if s.Pending.ID != handoffID {
		return nil, payment.ErrHandoffMismatch
	}
	return s.Pending, nil
}

func (h *Handler) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctrl := controller(r)

	handoffID := postValue(w, r, "handoff_id")
	paymentID := postValue(w, r, "razorpay_payment_id")

	handoff, err := pending(ctrl.State(), handoffID)
	if err != nil {
		h.metrics.Payment(ctx, h.payments.Name(), telemetry.OutcomeRejected, time.Time{})
		h.writeError(w, r, err)
		return
	}

	order, err := payment.Complete(*handoff, handoffID, paymentID, h.now())
	if err != nil {
		h.metrics.Payment(ctx, handoff.Provider, telemetry.OutcomeRejected, time.Time{})
		h.writeError(w, r, err)
		return
	}
	if err := ctrl.PaymentSucceeded(order); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.metrics.Payment(ctx, handoff.Provider, telemetry.OutcomeSucceeded, handoff.CreatedAt)
	h.logger.Info("Order placed", telemetry.EnrichLogFields(ctx, map[string]interface{}{
		"order_id":   order.ID,
		"payment_id": order.PaymentID,
		"amount":     order.Amount,
	}))
	redirectHome(w, r)
}

// closeHandoff ends the open handoff without an order. Callbacks for a
// handoff that is no longer open are ignored.
func (h *Handler) closeHandoff(w http.ResponseWriter, r *http.Request, outcome string, apply func(state.Controller)) {
	ctrl := controller(r)
	handoff, err := pending(ctrl.State(), postValue(w, r, "handoff_id"))
	if err != nil {
		h.logger.Debug("Ignoring stale payment callback", telemetry.EnrichLogFields(r.Context(), map[string]interface{}{
			"outcome": outcome,
			"reason":  err.Error(),
		}))
		redirectHome(w, r)
		return
	}

	apply(ctrl)
	h.metrics.Payment(r.Context(), handoff.Provider, outcome, handoff.CreatedAt)
	redirectHome(w, r)
}

func (h *Handler) handlePaymentDismiss(w http.ResponseWriter, r *http.Request) {
	h.closeHandoff(w, r, telemetry.OutcomeCancelled, state.Controller.PaymentCancelled)
}

func (h *Handler) handlePaymentError(w http.ResponseWriter, r *http.Request) {
	h.closeHandoff(w, r, telemetry.OutcomeFailed, state.Controller.PaymentFailed)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.List(h.catalog.All(), queryFrom(r)))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, controller(r).State().Orders)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "healthy", "service": h.name}
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}
