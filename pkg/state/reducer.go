package state

import (
	"errors"
	"fmt"

	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/orders"
	"github.com/vishxl-0001/vipn/pkg/payment"
)

var (
	// ErrUnknownAction is returned for action types without a reducer
	ErrUnknownAction = errors.New("unknown action")
	// ErrMissingPayload is returned when an action lacks the data its type needs
	ErrMissingPayload = errors.New("action payload missing")
)

type reducer func(State, Action) (State, error)

var reducers = map[ActionType]reducer{
	ActionNavigate:             reduceNavigate,
	ActionSelectProduct:        reduceSelectProduct,
	ActionBuyNow:               reduceBuyNow,
	ActionAddToCart:            reduceAddToCart,
	ActionSubmitCheckout:       reduceSubmitCheckout,
	ActionPaymentSucceeded:     reducePaymentSucceeded,
	ActionPaymentCancelled:     reducePaymentCancelled,
	ActionPaymentFailed:        reducePaymentFailed,
	ActionViewOrders:           reduceViewOrders,
	ActionDismissNotifications: reduceDismissNotifications,
}

// Reduce applies a to s and returns the next state. s is not modified; on
// error s is returned unchanged.
func Reduce(s State, a Action) (State, error) {
	r, ok := reducers[a.Type]
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	next, err := r(s, a)
	if err != nil {
		return s, fmt.Errorf("%s: %w", a.Type, err)
	}
	return next, nil
}

func reduceNavigate(s State, a Action) (State, error) {
	if _, err := ParsePage(string(a.Page)); err != nil {
		return s, err
	}
	s.Page = a.Page
	return s, nil
}

func selected(a Action) (*catalog.Product, error) {
	if a.Product == nil {
		return nil, ErrMissingPayload
	}
	p := *a.Product
	return &p, nil
}

func reduceSelectProduct(s State, a Action) (State, error) {
	p, err := selected(a)
	if err != nil {
		return s, err
	}
	s.Selected = p
	s.Page = PageProductDetails
	return s, nil
}

func reduceBuyNow(s State, a Action) (State, error) {
	p, err := selected(a)
	if err != nil {
		return s, err
	}
	s.Selected = p
	s.Draft = nil
	s.Page = PageCheckout
	return s, nil
}

func reduceAddToCart(s State, a Action) (State, error) {
	if a.Product == nil {
		return s, ErrMissingPayload
	}
	cart := make([]catalog.Product, 0, len(s.Cart)+1)
	cart = append(cart, s.Cart...)
	s.Cart = append(cart, *a.Product)
	return s.notify(NotifySuccess, MessageAddedToCart), nil
}

func reduceSubmitCheckout(s State, a Action) (State, error) {
	if a.Handoff == nil {
		return s, ErrMissingPayload
	}
	h := *a.Handoff
	d := h.Details
	s.Pending = &h
	s.Draft = &d
	return s, nil
}

func reducePaymentSucceeded(s State, a Action) (State, error) {
	if a.Order == nil {
		return s, ErrMissingPayload
	}
	o := *a.Order
	s.Orders = orders.Prepend(s.Orders, o)
	s.LastOrderID = o.ID
	s.LastUserEmail = o.UserDetails.Email
	s.Pending = nil
	s.Draft = nil
	s.Page = PagePaymentSuccess
	return s.notify(NotifySuccess, MessagePaymentSucceeded), nil
}

func reducePaymentCancelled(s State, _ Action) (State, error) {
	s.Pending = nil
	return s.notify(NotifyError, payment.MessageCancelled), nil
}

func reducePaymentFailed(s State, _ Action) (State, error) {
	s.Pending = nil
	return s.notify(NotifyError, payment.MessageGatewayFailed), nil
}

func reduceViewOrders(s State, _ Action) (State, error) {
	s.Page = PageOrders
	return s, nil
}

func reduceDismissNotifications(s State, _ Action) (State, error) {
	s.Notifications = nil
	return s, nil
}
