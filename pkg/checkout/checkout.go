// Package checkout validates buyer details and prices a single-product order.
package checkout

import (
	"fmt"
	"regexp"
	"strings"
)

// FreeShippingThreshold is the price from which shipping is free
const FreeShippingThreshold = 999

// StandardShippingFee applies below FreeShippingThreshold
const StandardShippingFee = 99

var (
	emailPattern   = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern   = regexp.MustCompile(`^\d{10}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

// UserDetails is the buyer and shipping information collected at checkout
type UserDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// ShippingAddress renders the address the way the payment notes carry it
func (u UserDetails) ShippingAddress() string {
	return fmt.Sprintf("%s, %s, %s - %s", u.Address, u.City, u.State, u.Pincode)
}

// FieldNames lists the form fields in display order
var FieldNames = []string{"name", "email", "phone", "address", "city", "state", "pincode"}

// Field is the outcome of validating one form field: the submitted value
// and, when invalid, the message to show next to it.
type Field struct {
	Value string
	Err   string
}

// Valid reports whether the field passed validation
func (f Field) Valid() bool {
	return f.Err == ""
}

// Result holds one Field per form field
type Result struct {
	Name    Field
	Email   Field
	Phone   Field
	Address Field
	City    Field
	State   Field
	Pincode Field
}

// Field returns the result for a named form field
func (r Result) Field(name string) (Field, bool) {
	switch name {
	case "name":
		return r.Name, true
	case "email":
		return r.Email, true
	case "phone":
		return r.Phone, true
	case "address":
		return r.Address, true
	case "city":
		return r.City, true
	case "state":
		return r.State, true
	case "pincode":
		return r.Pincode, true
	}
	return Field{}, false
}

// Valid reports whether every field passed
func (r Result) Valid() bool {
	return len(r.Errors()) == 0
}

// Errors maps field names to messages for the failing fields only
func (r Result) Errors() map[string]string {
	errs := make(map[string]string)
	for _, name := range FieldNames {
		if f, _ := r.Field(name); !f.Valid() {
			errs[name] = f.Err
		}
	}
	return errs
}

// Details returns the submitted values as UserDetails
func (r Result) Details() UserDetails {
	return UserDetails{
		Name:    r.Name.Value,
		Email:   r.Email.Value,
		Phone:   r.Phone.Value,
		Address: r.Address.Value,
		City:    r.City.Value,
		State:   r.State.Value,
		Pincode: r.Pincode.Value,
	}
}

// Prefill wraps d as a Result without running any checks, for showing a
// form that has not been submitted yet
func Prefill(d UserDetails) Result {
	return Result{
		Name:    Field{Value: d.Name},
		Email:   Field{Value: d.Email},
		Phone:   Field{Value: d.Phone},
		Address: Field{Value: d.Address},
		City:    Field{Value: d.City},
		State:   Field{Value: d.State},
		Pincode: Field{Value: d.Pincode},
	}
}

func required(value, label string) Field {
	if strings.TrimSpace(value) == "" {
		return Field{Value: value, Err: label + " is required"}
	}
	return Field{Value: value}
}

func pattern(value, label string, re *regexp.Regexp, msg string) Field {
	f := required(value, label)
	if f.Valid() && !re.MatchString(value) {
		f.Err = msg
	}
	return f
}

// Validate checks every field of d. All fields are required; email, phone
// and pincode additionally have format rules.
func Validate(d UserDetails) Result {
	return Result{
		Name:    required(d.Name, "Name"),
		Email:   pattern(d.Email, "Email", emailPattern, "Email is invalid"),
		Phone:   pattern(d.Phone, "Phone", phonePattern, "Phone must be 10 digits"),
		Address: required(d.Address, "Address"),
		City:    required(d.City, "City"),
		State:   required(d.State, "State"),
		Pincode: pattern(d.Pincode, "Pincode", pincodePattern, "Pincode must be 6 digits"),
	}
}

// ShippingFee returns the delivery charge for a product price
func ShippingFee(price int) int {
	if price >= FreeShippingThreshold {
		return 0
	}
	return StandardShippingFee
}

// Quote is the priced summary shown on the checkout page
type Quote struct {
	Subtotal int `json:"subtotal"`
	Shipping int `json:"shipping"`
	Total    int `json:"total"`
}

// FreeShipping reports whether the quote carries no delivery charge
func (q Quote) FreeShipping() bool {
	return q.Shipping == 0
}

// NewQuote prices one unit at price
func NewQuote(price int) Quote {
	fee := ShippingFee(price)
	return Quote{
		Subtotal: price,
		Shipping: fee,
		Total:    price + fee,
	}
}
