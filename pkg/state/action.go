package state

import (
	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/orders"
	"github.com/vishxl-0001/vipn/pkg/payment"
)

// ActionType keys the reducer table
type ActionType string

const (
	ActionNavigate             ActionType = "navigate"
	ActionSelectProduct        ActionType = "select-product"
	ActionBuyNow               ActionType = "buy-now"
	ActionAddToCart            ActionType = "add-to-cart"
	ActionSubmitCheckout       ActionType = "submit-checkout"
	ActionPaymentSucceeded     ActionType = "payment-succeeded"
	ActionPaymentCancelled     ActionType = "payment-cancelled"
	ActionPaymentFailed        ActionType = "payment-failed"
	ActionViewOrders           ActionType = "view-orders"
	ActionDismissNotifications ActionType = "dismiss-notifications"
)

// Action is one requested transition. Only the payload field matching Type
// is read.
type Action struct {
	Type    ActionType
	Page    Page
	Product *catalog.Product
	Handoff *payment.Handoff
	Order   *orders.Order
}

// Navigate moves to page
func Navigate(page Page) Action {
	return Action{Type: ActionNavigate, Page: page}
}

// SelectProduct focuses p and shows its details
func SelectProduct(p catalog.Product) Action {
	return Action{Type: ActionSelectProduct, Product: &p}
}

// BuyNow focuses p and goes straight to checkout
func BuyNow(p catalog.Product) Action {
	return Action{Type: ActionBuyNow, Product: &p}
}

// AddToCart appends p to the cart
func AddToCart(p catalog.Product) Action {
	return Action{Type: ActionAddToCart, Product: &p}
}

// SubmitCheckout records the payment attempt opened for validated details
func SubmitCheckout(h payment.Handoff) Action {
	return Action{Type: ActionSubmitCheckout, Handoff: &h}
}

// PaymentSucceeded records the order built from the widget callback
func PaymentSucceeded(o orders.Order) Action {
	return Action{Type: ActionPaymentSucceeded, Order: &o}
}

// PaymentCancelled reports a dismissed widget
func PaymentCancelled() Action {
	return Action{Type: ActionPaymentCancelled}
}

// PaymentFailed reports that the widget script did not load
func PaymentFailed() Action {
	return Action{Type: ActionPaymentFailed}
}

// ViewOrders shows the order history
func ViewOrders() Action {
	return Action{Type: ActionViewOrders}
}

// DismissNotifications clears delivered notifications
func DismissNotifications() Action {
	return Action{Type: ActionDismissNotifications}
}
