package titan

import (
	"strings"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
)

// Cart is the customer's active quote as Magento returns it.
type Cart struct {
	ID    int        `json:"id"`
	Items []CartItem `json:"items"`
}

// CartItem is one line of a cart.
type CartItem struct {
	ItemID      int     `json:"item_id"`
	Sku         string  `json:"sku"`
	Qty         int     `json:"qty"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ProductType string  `json:"product_type"`
	QuoteID     string  `json:"quote_id"`
}

// ShippingEstimate is one carrier/method pair returned by the shipping
// estimate endpoint.
type ShippingEstimate struct {
	CarrierCode string  `json:"carrier_code"`
	MethodCode  string  `json:"method_code"`
	CarrierTitle string `json:"carrier_title,omitempty"`
	MethodTitle  string `json:"method_title,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
}

// AddressPayload is an address flattened into the shape the shipping and
// billing endpoints expect.
type AddressPayload struct {
	Region     string   `json:"region"`
	RegionID   int      `json:"region_id"`
	RegionCode string   `json:"region_code"`
	CountryID  string   `json:"country_id"`
	Street     []string `json:"street"`
	Postcode   string   `json:"postcode"`
	City       string   `json:"city"`
	Firstname  string   `json:"firstname"`
	Lastname   string   `json:"lastname"`
	Email      string   `json:"email"`
	Telephone  string   `json:"telephone"`
}

// NewAddressPayload flattens a customer address for submission. The email
// comes from the profile rather than the address record.
func NewAddressPayload(addr domain.Address, email string) AddressPayload {
	return AddressPayload{
		Region:     addr.Region.Region,
		RegionID:   addr.RegionID,
		RegionCode: addr.Region.RegionCode,
		CountryID:  addr.CountryID,
		Street:     addr.Street,
		Postcode:   addr.Postcode,
		City:       addr.City,
		Firstname:  addr.Firstname,
		Lastname:   addr.Lastname,
		Email:      email,
		Telephone:  addr.Telephone,
	}
}

// ShippingInformation is the request body for the shipping-information
// endpoint.
type ShippingInformation struct {
	AddressInformation AddressInformation `json:"addressInformation"`
}

// AddressInformation pairs the shipping and billing addresses with the
// selected carrier and method.
type AddressInformation struct {
	ShippingAddress     AddressPayload `json:"shipping_address"`
	BillingAddress      AddressPayload `json:"billing_address"`
	ShippingCarrierCode string         `json:"shipping_carrier_code"`
	ShippingMethodCode  string         `json:"shipping_method_code"`
}

// PaymentMethod is one way the store will accept payment for the cart.
type PaymentMethod struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// TotalsItem is one priced line in the cart totals.
type TotalsItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

// Totals summarizes the cart's pricing.
type Totals struct {
	GrandTotal float64      `json:"grand_total"`
	Items      []TotalsItem `json:"items"`
}

// PaymentInformation is the shipping-information response: the available
// payment methods plus the cart totals. Setting shipping only counts as
// successful when PaymentMethods is non-empty.
type PaymentInformation struct {
	PaymentMethods []PaymentMethod `json:"payment_methods"`
	Totals         Totals          `json:"totals"`
}

// OrderPayload is the body submitted to the payment-information endpoint to
// place the order.
type OrderPayload struct {
	Amcheckout     map[string]any  `json:"amcheckout"`
	BillingAddress AddressPayload  `json:"billingAddress"`
	CartID         string          `json:"cartId"`
	PaymentMethod  PaymentSelection `json:"paymentMethod"`
}

// PaymentSelection names the payment method the order is placed with.
type PaymentSelection struct {
	AdditionalData any    `json:"additional_data"`
	Method         string `json:"method"`
	PoNumber       any    `json:"po_number"`
}

// OrderResult is what a successfully placed order yields: the payment-gateway
// session cookie and the raw redirect form fields. The cookie is what makes
// the order usable; a response without one is not a success.
type OrderResult struct {
	Cookie domain.Cookie     `json:"cookies"`
	Fields map[string]string `json:"data"`
}

// ComposeSku builds the store's size-specific SKU: the base SKU, the "-SZ"
// separator, then the size label upper-cased with "." replaced by "P"
// (e.g. "8.5" becomes "8P5").
func ComposeSku(sku, sizeLabel string) string {
	return sku + "-SZ" + strings.ToUpper(strings.ReplaceAll(sizeLabel, ".", "P"))
}
