package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDetails() UserDetails {
	return UserDetails{
		Name:    "John Doe",
		Email:   "john@example.com",
		Phone:   "9876543210",
		Address: "123 Main Street",
		City:    "Mumbai",
		State:   "Maharashtra",
		Pincode: "400001",
	}
}

func TestValidateAccepts(t *testing.T) {
	r := Validate(validDetails())
	assert.True(t, r.Valid())
	assert.Empty(t, r.Errors())
	assert.Equal(t, validDetails(), r.Details())
}

func TestValidateRequired(t *testing.T) {
	r := Validate(UserDetails{Name: "   "})
	assert.False(t, r.Valid())
	assert.Equal(t, map[string]string{
		"name":    "Name is required",
		"email":   "Email is required",
		"phone":   "Phone is required",
		"address": "Address is required",
		"city":    "City is required",
		"state":   "State is required",
		"pincode": "Pincode is required",
	}, r.Errors())
	assert.Equal(t, "   ", r.Name.Value)
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*UserDetails)
		field   string
		wantErr string
	}{
		{"email without at", func(d *UserDetails) { d.Email = "john.example.com" }, "email", "Email is invalid"},
		{"email without tld", func(d *UserDetails) { d.Email = "john@example" }, "email", "Email is invalid"},
		{"phone short", func(d *UserDetails) { d.Phone = "987654321" }, "phone", "Phone must be 10 digits"},
		{"phone long", func(d *UserDetails) { d.Phone = "98765432101" }, "phone", "Phone must be 10 digits"},
		{"phone letters", func(d *UserDetails) { d.Phone = "98765abcde" }, "phone", "Phone must be 10 digits"},
		{"phone padded", func(d *UserDetails) { d.Phone = " 9876543210" }, "phone", "Phone must be 10 digits"},
		{"pincode short", func(d *UserDetails) { d.Pincode = "40001" }, "pincode", "Pincode must be 6 digits"},
		{"pincode long", func(d *UserDetails) { d.Pincode = "4000011" }, "pincode", "Pincode must be 6 digits"},
		{"pincode letters", func(d *UserDetails) { d.Pincode = "40OO01" }, "pincode", "Pincode must be 6 digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDetails()
			tt.mutate(&d)

			r := Validate(d)
			assert.False(t, r.Valid())
			assert.Equal(t, map[string]string{tt.field: tt.wantErr}, r.Errors())
		})
	}
}

func TestValidateDigitLengths(t *testing.T) {
	for _, phone := range []string{"0000000000", "1234567890", "9999999999"} {
		d := validDetails()
		d.Phone = phone
		f := Validate(d).Phone
		assert.True(t, f.Valid(), phone)
	}
	for _, pin := range []string{"000000", "560001", "999999"} {
		d := validDetails()
		d.Pincode = pin
		assert.True(t, Validate(d).Pincode.Valid(), pin)
	}
}

func TestResultField(t *testing.T) {
	r := Validate(UserDetails{})
	f, ok := r.Field("city")
	assert.True(t, ok)
	assert.Equal(t, "City is required", f.Err)

	_, ok = r.Field("country")
	assert.False(t, ok)
}

func TestShippingFee(t *testing.T) {
	assert.Equal(t, 0, ShippingFee(15999))
	assert.Equal(t, 0, ShippingFee(999))
	assert.Equal(t, 99, ShippingFee(998))
	assert.Equal(t, 99, ShippingFee(500))
}

func TestNewQuote(t *testing.T) {
	q := NewQuote(15999)
	assert.Equal(t, Quote{Subtotal: 15999, Shipping: 0, Total: 15999}, q)
	assert.True(t, q.FreeShipping())

	q = NewQuote(500)
	assert.Equal(t, Quote{Subtotal: 500, Shipping: 99, Total: 599}, q)
	assert.False(t, q.FreeShipping())
}

func TestShippingAddress(t *testing.T) {
	assert.Equal(t, "123 Main Street, Mumbai, Maharashtra - 400001", validDetails().ShippingAddress())
}

func TestPrefillCarriesValuesWithoutErrors(t *testing.T) {
	r := Prefill(UserDetails{Email: "not-an-email"})
	assert.True(t, r.Valid())
	assert.Equal(t, "not-an-email", r.Email.Value)
	assert.Equal(t, UserDetails{Email: "not-an-email"}, r.Details())
}
