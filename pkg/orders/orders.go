// Package orders defines the order record created after a successful payment.
// Orders are value types and are never updated once created.
package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vishxl-0001/vipn/pkg/checkout"
)

// GuestUserID is recorded on every order placed through the storefront
const GuestUserID = "guest"

// IDPrefix starts every generated order id
const IDPrefix = "ORD"

// Status of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Label capitalizes the status for display
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Known reports whether s is one of the defined statuses
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ErrInvalidOrder is wrapped by Validate failures
var ErrInvalidOrder = errors.New("invalid order")

// Order is a snapshot of one purchase
type Order struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	ProductID   string               `json:"product_id"`
	ProductName string               `json:"product_name"`
	Amount      int                  `json:"amount"`
	Status      Status               `json:"status"`
	PaymentID   string               `json:"payment_id,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UserDetails checkout.UserDetails `json:"user_details"`
}

// NewID derives an order id from the creation time in milliseconds
func NewID(now time.Time) string {
	return fmt.Sprintf("%s%d", IDPrefix, now.UnixMilli())
}

// Validate checks the fields every stored order must carry
func (o Order) Validate() error {
	switch {
	case o.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidOrder)
	case o.ProductID == "":
		return fmt.Errorf("%w: %s has no product", ErrInvalidOrder, o.ID)
	case o.Amount < 0:
		return fmt.Errorf("%w: %s has a negative amount", ErrInvalidOrder, o.ID)
	case !o.Status.Known():
		return fmt.Errorf("%w: %s has unknown status %q", ErrInvalidOrder, o.ID, o.Status)
	case o.CreatedAt.IsZero():
		return fmt.Errorf("%w: %s has no creation time", ErrInvalidOrder, o.ID)
	}
	return nil
}

// Seed returns the order history every new session starts with
func Seed() []Order {
	return []Order{
		{
			ID:          "ORD001",
			UserID:      "user1",
			ProductID:   "1",
			ProductName: "Premium Wireless Headphones",
			Amount:      15999,
			Status:      StatusCompleted,
			PaymentID:   "pay_123456789",
			CreatedAt:   time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC),
			UserDetails: checkout.UserDetails{
				Name:    "John Doe",
				Email:   "john@example.com",
				Phone:   "9876543210",
				Address: "123 Main Street",
				City:    "Mumbai",
				State:   "Maharashtra",
				Pincode: "400001",
			},
		},
	}
}

// Prepend returns a new slice with o in front of list; list is not modified
func Prepend(list []Order, o Order) []Order {
	out := make([]Order, 0, len(list)+1)
	out = append(out, o)
	return append(out, list...)
}
