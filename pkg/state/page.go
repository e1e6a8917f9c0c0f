package state

import (
	"errors"
	"fmt"
)

// Page names one storefront screen
type Page string

const (
	PageHome           Page = "home"
	PageProducts       Page = "products"
	PageProductDetails Page = "product-details"
	PageCheckout       Page = "checkout"
	PagePaymentSuccess Page = "payment-success"
	PageOrders         Page = "orders"
	PageAbout          Page = "about"
	PageContact        Page = "contact"
)

// ErrInvalidPage is returned by ParsePage for unknown names
var ErrInvalidPage = errors.New("invalid page")

// Pages lists every screen
var Pages = []Page{
	PageHome, PageProducts, PageProductDetails, PageCheckout,
	PagePaymentSuccess, PageOrders, PageAbout, PageContact,
}

// ParsePage validates a page name
func ParsePage(s string) (Page, error) {
	for _, p := range Pages {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPage, s)
}

// Title is the document title for the page
func (p Page) Title() string {
	switch p {
	case PageProducts:
		return "All Products"
	case PageProductDetails:
		return "Product Details"
	case PageCheckout:
		return "Checkout"
	case PagePaymentSuccess:
		return "Payment Successful"
	case PageOrders:
		return "My Orders"
	case PageAbout:
		return "About"
	case PageContact:
		return "Contact"
	default:
		return "Home"
	}
}

// NeedsProduct reports whether the page renders the selected product
func (p Page) NeedsProduct() bool {
	return p == PageProductDetails || p == PageCheckout
}

// BackTarget is where a page's back button leads
func BackTarget(p Page) Page {
	switch p {
	case PageProductDetails:
		return PageProducts
	case PageCheckout:
		return PageProductDetails
	default:
		return PageHome
	}
}
