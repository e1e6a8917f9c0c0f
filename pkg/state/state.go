// Package state is the storefront's application controller: an explicit
// state value, actions that describe transitions, and pure reducers keyed
// by action type.
//
//	s := state.Initial()
//	s, _ = state.Reduce(s, state.BuyNow(product))
//	// s.Page == state.PageCheckout
//
// Container wraps a State behind the Controller capability interface that
// views receive.
package state

import (
	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/checkout"
	"github.com/vishxl-0001/vipn/pkg/orders"
	"github.com/vishxl-0001/vipn/pkg/payment"
)

// NotificationKind tells views how to style a notification
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification messages raised by transitions
const (
	MessageAddedToCart      = "Product added to cart!"
	MessagePaymentSucceeded = "Payment successful!"
)

// Notification is a transient, fire-and-forget message for the visitor
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// State is everything one visitor's storefront remembers
type State struct {
	Page          Page                  `json:"page"`
	Selected      *catalog.Product      `json:"selected,omitempty"`
	Cart          []catalog.Product     `json:"cart"`
	Orders        []orders.Order        `json:"orders"`
	LastOrderID   string                `json:"last_order_id,omitempty"`
	LastUserEmail string                `json:"last_user_email,omitempty"`
	Pending       *payment.Handoff      `json:"pending,omitempty"`
	// Draft is the last submitted checkout form. It outlives a cancelled or
	// failed payment so the checkout page can show it again.
	Draft         *checkout.UserDetails `json:"draft,omitempty"`
	Notifications []Notification        `json:"notifications,omitempty"`
}

// Initial is the state of a fresh visit: home page, empty cart and the
// seed order history
func Initial() State {
	return State{
		Page:   PageHome,
		Cart:   []catalog.Product{},
		Orders: orders.Seed(),
	}
}

// CartCount is the number of items in the cart
func (s State) CartCount() int {
	return len(s.Cart)
}

// Clone returns a State that shares no slices or pointers with s
func (s State) Clone() State {
	out := s
	if s.Selected != nil {
		p := *s.Selected
		out.Selected = &p
	}
	if s.Pending != nil {
		h := *s.Pending
		out.Pending = &h
	}
	if s.Draft != nil {
		d := *s.Draft
		out.Draft = &d
	}
	out.Cart = append([]catalog.Product(nil), s.Cart...)
	out.Orders = append([]orders.Order(nil), s.Orders...)
	out.Notifications = append([]Notification(nil), s.Notifications...)
	return out
}

func (s State) notify(kind NotificationKind, msg string) State {
	list := make([]Notification, 0, len(s.Notifications)+1)
	list = append(list, s.Notifications...)
	s.Notifications = append(list, Notification{Kind: kind, Message: msg})
	return s
}
