package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/checkout"
	"github.com/vishxl-0001/vipn/pkg/orders"
	"github.com/vishxl-0001/vipn/pkg/payment"
)

func product(t *testing.T, id string) catalog.Product {
	t.Helper()
	p, ok := catalog.Seed().Find(id)
	require.True(t, ok)
	return p
}

func newOrder(id string) orders.Order {
	return orders.Order{
		ID:          id,
		UserID:      orders.GuestUserID,
		ProductID:   "2",
		ProductName: "Modern Designer Watch",
		Amount:      8999,
		Status:      orders.StatusCompleted,
		PaymentID:   "pay_x",
		CreatedAt:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		UserDetails: checkout.UserDetails{Email: "jane@example.com"},
	}
}

func TestInitial(t *testing.T) {
	s := Initial()
	assert.Equal(t, PageHome, s.Page)
	assert.Nil(t, s.Selected)
	assert.Equal(t, 0, s.CartCount())
	require.Len(t, s.Orders, 1)
	assert.Equal(t, "ORD001", s.Orders[0].ID)
}

func TestNavigateAnyPage(t *testing.T) {
	for _, from := range Pages {
		for _, to := range Pages {
			s := Initial()
			s.Page = from
			next, err := Reduce(s, Navigate(to))
			require.NoError(t, err)
			assert.Equal(t, to, next.Page)
		}
	}

	_, err := Reduce(Initial(), Navigate("cart"))
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestSelectProduct(t *testing.T) {
	next, err := Reduce(Initial(), SelectProduct(product(t, "3")))
	require.NoError(t, err)
	assert.Equal(t, PageProductDetails, next.Page)
	require.NotNil(t, next.Selected)
	assert.Equal(t, "3", next.Selected.ID)
}

func TestBuyNowSkipsDetails(t *testing.T) {
	s := Initial()
	s.Page = PageProducts

	next, err := Reduce(s, BuyNow(product(t, "5")))
	require.NoError(t, err)
	assert.Equal(t, PageCheckout, next.Page)
	assert.Equal(t, "5", next.Selected.ID)
}

func TestAddToCart(t *testing.T) {
	s := Initial()
	s.Page = PageProductDetails
	p := product(t, "1")

	s1, err := Reduce(s, AddToCart(p))
	require.NoError(t, err)
	s2, err := Reduce(s1, AddToCart(p))
	require.NoError(t, err)

	assert.Equal(t, PageProductDetails, s2.Page)
	assert.Equal(t, 2, s2.CartCount(), "duplicates are kept")
	assert.Equal(t, 1, s1.CartCount(), "earlier state untouched")
	assert.Equal(t, 0, s.CartCount())
	require.Len(t, s2.Notifications, 2)
	assert.Equal(t, Notification{Kind: NotifySuccess, Message: "Product added to cart!"}, s2.Notifications[1])
}

func TestSubmitCheckoutKeepsPage(t *testing.T) {
	s := Initial()
	s.Page = PageCheckout

	next, err := Reduce(s, SubmitCheckout(payment.Handoff{ID: "h1"}))
	require.NoError(t, err)
	assert.Equal(t, PageCheckout, next.Page)
	require.NotNil(t, next.Pending)
	assert.Equal(t, "h1", next.Pending.ID)
}

func TestPaymentSucceeded(t *testing.T) {
	s := Initial()
	s.Page = PageCheckout
	s.Pending = &payment.Handoff{ID: "h1"}
	before := len(s.Orders)

	next, err := Reduce(s, PaymentSucceeded(newOrder("ORD2")))
	require.NoError(t, err)

	require.Len(t, next.Orders, before+1)
	assert.Equal(t, "ORD2", next.Orders[0].ID, "newest first")
	assert.Equal(t, orders.StatusCompleted, next.Orders[0].Status)
	assert.Equal(t, "ORD001", next.Orders[1].ID)
	assert.Equal(t, "ORD2", next.LastOrderID)
	assert.Equal(t, "jane@example.com", next.LastUserEmail)
	assert.Equal(t, PagePaymentSuccess, next.Page)
	assert.Nil(t, next.Pending)
	assert.Equal(t, MessagePaymentSucceeded, next.Notifications[0].Message)

	assert.Len(t, s.Orders, before)
}

func TestPaymentCancelledAndFailed(t *testing.T) {
	s := Initial()
	s.Page = PageCheckout
	s.Pending = &payment.Handoff{ID: "h1"}

	cancelled, err := Reduce(s, PaymentCancelled())
	require.NoError(t, err)
	assert.Equal(t, PageCheckout, cancelled.Page)
	assert.Nil(t, cancelled.Pending)
	assert.Len(t, cancelled.Orders, 1)
	assert.Equal(t, Notification{Kind: NotifyError, Message: "Payment cancelled"}, cancelled.Notifications[0])

	failed, err := Reduce(s, PaymentFailed())
	require.NoError(t, err)
	assert.Equal(t, PageCheckout, failed.Page)
	assert.Equal(t, "Failed to load payment gateway", failed.Notifications[0].Message)
}

func TestCheckoutDraftSurvivesAbortedPayment(t *testing.T) {
	buyer := checkout.UserDetails{Name: "Asha Rao", Email: "asha@example.com", Pincode: "560001"}
	s, err := Reduce(Initial(), BuyNow(product(t, "3")))
	require.NoError(t, err)

	s, err = Reduce(s, SubmitCheckout(payment.Handoff{ID: "h1", Details: buyer}))
	require.NoError(t, err)
	require.NotNil(t, s.Draft)
	assert.Equal(t, buyer, *s.Draft)

	for _, abort := range []Action{PaymentCancelled(), PaymentFailed()} {
		next, err := Reduce(s, abort)
		require.NoError(t, err)
		assert.Nil(t, next.Pending, abort.Type)
		require.NotNil(t, next.Draft, abort.Type)
		assert.Equal(t, buyer, *next.Draft, abort.Type)
	}

	done, err := Reduce(s, PaymentSucceeded(newOrder("ORD3")))
	require.NoError(t, err)
	assert.Nil(t, done.Draft)

	again, err := Reduce(s, BuyNow(product(t, "2")))
	require.NoError(t, err)
	assert.Nil(t, again.Draft, "a new purchase starts with an empty form")

	clone := s.Clone()
	clone.Draft.Name = "changed"
	assert.Equal(t, "Asha Rao", s.Draft.Name)
}

func TestViewOrders(t *testing.T) {
	s := Initial()
	s.Page = PagePaymentSuccess
	next, err := Reduce(s, ViewOrders())
	require.NoError(t, err)
	assert.Equal(t, PageOrders, next.Page)
}

func TestReduceErrors(t *testing.T) {
	s := Initial()

	_, err := Reduce(s, Action{Type: "teleport"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	for _, typ := range []ActionType{ActionSelectProduct, ActionBuyNow, ActionAddToCart, ActionSubmitCheckout, ActionPaymentSucceeded} {
		next, err := Reduce(s, Action{Type: typ})
		assert.ErrorIs(t, err, ErrMissingPayload, string(typ))
		assert.Equal(t, s, next)
	}
}

func TestEveryActionHasReducer(t *testing.T) {
	for _, typ := range []ActionType{
		ActionNavigate, ActionSelectProduct, ActionBuyNow, ActionAddToCart,
		ActionSubmitCheckout, ActionPaymentSucceeded, ActionPaymentCancelled,
		ActionPaymentFailed, ActionViewOrders, ActionDismissNotifications,
	} {
		_, ok := reducers[typ]
		assert.True(t, ok, string(typ))
	}
}

func TestBackTarget(t *testing.T) {
	assert.Equal(t, PageProducts, BackTarget(PageProductDetails))
	assert.Equal(t, PageProductDetails, BackTarget(PageCheckout))
	assert.Equal(t, PageHome, BackTarget(PageOrders))
	assert.Equal(t, PageHome, BackTarget(PagePaymentSuccess))
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("payment-success")
	require.NoError(t, err)
	assert.Equal(t, PagePaymentSuccess, p)
	assert.Len(t, Pages, 8)

	_, err = ParsePage("")
	assert.ErrorIs(t, err, ErrInvalidPage)
}
