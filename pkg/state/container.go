package state

import (
	"sync"

	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/orders"
	"github.com/vishxl-0001/vipn/pkg/payment"
)

// Controller is the set of operations views may invoke
type Controller interface {
	State() State
	Navigate(page Page) error
	Back() error
	SelectProduct(p catalog.Product)
	BuyNow(p catalog.Product)
	AddToCart(p catalog.Product)
	SubmitCheckout(h payment.Handoff)
	PaymentSucceeded(o orders.Order) error
	PaymentCancelled()
	PaymentFailed()
	ViewOrders()
	TakeNotifications() []Notification
}

// Listener observes applied actions
type Listener func(a Action, next State)

// Container holds one State and applies actions to it through Reduce
type Container struct {
	mu        sync.Mutex
	state     State
	listeners []Listener
}

var _ Controller = (*Container)(nil)

// NewContainer starts a container at s
func NewContainer(s State) *Container {
	return &Container{state: s.Clone()}
}

// Subscribe registers l to run after every applied action
func (c *Container) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Dispatch applies a; the state is unchanged on error
func (c *Container) Dispatch(a Action) error {
	_, err := c.dispatch(a)
	return err
}

// dispatch applies a and returns the state it replaced
func (c *Container) dispatch(a Action) (State, error) {
	c.mu.Lock()
	prev := c.state
	next, err := Reduce(prev, a)
	if err != nil {
		c.mu.Unlock()
		return prev, err
	}
	c.state = next
	listeners := append([]Listener(nil), c.listeners...)
	snapshot := next.Clone()
	c.mu.Unlock()

	for _, l := range listeners {
		l(a, snapshot)
	}
	return prev, nil
}

// State returns a copy of the current state
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Container) Navigate(page Page) error {
	return c.Dispatch(Navigate(page))
}

// Back follows the current page's back button
func (c *Container) Back() error {
	return c.Dispatch(Navigate(BackTarget(c.State().Page)))
}

func (c *Container) SelectProduct(p catalog.Product) {
	c.mustDispatch(SelectProduct(p))
}

func (c *Container) BuyNow(p catalog.Product) {
	c.mustDispatch(BuyNow(p))
}

func (c *Container) AddToCart(p catalog.Product) {
	c.mustDispatch(AddToCart(p))
}

func (c *Container) SubmitCheckout(h payment.Handoff) {
	c.mustDispatch(SubmitCheckout(h))
}

func (c *Container) PaymentSucceeded(o orders.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return c.Dispatch(PaymentSucceeded(o))
}

func (c *Container) PaymentCancelled() {
	c.mustDispatch(PaymentCancelled())
}

func (c *Container) PaymentFailed() {
	c.mustDispatch(PaymentFailed())
}

func (c *Container) ViewOrders() {
	c.mustDispatch(ViewOrders())
}

// TakeNotifications returns pending notifications and clears them
func (c *Container) TakeNotifications() []Notification {
	prev, err := c.dispatch(DismissNotifications())
	if err != nil {
		panic(err)
	}
	return append([]Notification(nil), prev.Notifications...)
}

// mustDispatch is for actions built by this package's constructors, which
// always carry their payload
func (c *Container) mustDispatch(a Action) {
	if err := c.Dispatch(a); err != nil {
		panic(err)
	}
}
