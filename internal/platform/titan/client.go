package titan

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/platform/logger"
)

// sessionCookieName is the payment-gateway cookie that proves the order went
// through; PlaceOrder only succeeds when the gateway set it.
const sessionCookieName = "ASP.NET_SessionId"

// Client talks to the Titan22 Magento REST API and its payment gateway.
// Methods never return Go errors to callers; every result is reduced to a
// typed payload plus an Outcome so the retry loop has a single branch point.
type Client struct {
	baseURL        string
	paymentBaseURL string
	httpClient     *http.Client
	logger         *slog.Logger
}

// NewClient creates a store client. baseURL is the store origin (no trailing
// slash), paymentBaseURL the payment gateway origin. The timeout bounds each
// individual request.
func NewClient(baseURL, paymentBaseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		paymentBaseURL: strings.TrimRight(paymentBaseURL, "/"),
		httpClient:     &http.Client{Timeout: timeout},
		logger:         log.With("component", "titan_client"),
	}
}

// restURL builds a store API URL under the customer-facing REST prefix.
func (c *Client) restURL(path string) string {
	return c.baseURL + "/rest/default/V1/" + path
}

// classify maps an HTTP status to the Outcome taxonomy. Body-shape checks
// happen per call site after decoding.
func classify(status int) Outcome {
	switch {
	case status == http.StatusOK:
		return Success
	case status == http.StatusUnauthorized:
		return Unauthorized
	default:
		return Failure
	}
}

// do performs one JSON request and returns the status code and raw body.
// Transport errors surface as a zero status, which classify treats as Failure.
func (c *Client) do(ctx context.Context, method, rawURL, token string, body any) (int, []byte) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			log.Error("failed to encode request body", "url", rawURL, "error", err)
			return 0, nil
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		log.Error("failed to build request", "url", rawURL, "error", err)
		return 0, nil
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, ck := range ChallengeCookiesFromContext(ctx) {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("request failed", "method", method, "url", rawURL, "error", err)
		return 0, nil
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Debug("failed to read response body", "url", rawURL, "error", err)
		return 0, nil
	}

	return resp.StatusCode, payload
}

// Authenticate exchanges account credentials for a customer token.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, Outcome) {
	status, body := c.do(ctx, http.MethodPost, c.restURL("integration/customer/token"), "", map[string]string{
		"username": email,
		"password": password,
	})
	if out := classify(status); out != Success {
		return "", out
	}

	var token string
	if err := json.Unmarshal(body, &token); err != nil || token == "" {
		return "", Failure
	}
	return token, Success
}

// FetchProfile retrieves the authenticated customer's account record.
func (c *Client) FetchProfile(ctx context.Context, token string) (*domain.CustomerProfile, Outcome) {
	status, body := c.do(ctx, http.MethodGet, c.restURL("customers/me"), token, nil)
	if out := classify(status); out != Success {
		return nil, out
	}

	var profile domain.CustomerProfile
	if err := json.Unmarshal(body, &profile); err != nil || profile.Email == "" {
		return nil, Failure
	}
	return &profile, Success
}

// CreateCart creates (or reuses) the customer's active quote and returns its
// identifier.
func (c *Client) CreateCart(ctx context.Context, token string) (string, Outcome) {
	status, body := c.do(ctx, http.MethodPost, c.restURL("carts/mine"), token, nil)
	if out := classify(status); out != Success {
		return "", out
	}

	id := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if id == "" {
		return "", Failure
	}
	return id, Success
}

// GetCart fetches the customer's active cart with its items.
func (c *Client) GetCart(ctx context.Context, token string) (*Cart, Outcome) {
	status, body := c.do(ctx, http.MethodGet, c.restURL("carts/mine"), token, nil)
	if out := classify(status); out != Success {
		return nil, out
	}

	var cart Cart
	if err := json.Unmarshal(body, &cart); err != nil || cart.ID == 0 {
		return nil, Failure
	}
	return &cart, Success
}

// DeleteCartItem removes one line from the cart.
func (c *Client) DeleteCartItem(ctx context.Context, token string, itemID int) Outcome {
	rawURL := c.restURL("carts/mine/items/") + strconv.Itoa(itemID)
	status, body := c.do(ctx, http.MethodDelete, rawURL, token, nil)
	if out := classify(status); out != Success {
		return out
	}
	if strings.TrimSpace(string(body)) != "true" {
		return Failure
	}
	return Success
}

// addItemRequest is the cart-item wrapper Magento expects.
type addItemRequest struct {
	CartItem addItemPayload `json:"cartItem"`
}

type addItemPayload struct {
	Sku           string        `json:"sku"`
	Qty           int           `json:"qty"`
	QuoteID       string        `json:"quote_id"`
	ProductOption productOption `json:"product_option"`
	ProductType   string        `json:"product_type"`
}

type productOption struct {
	ExtensionAttributes extensionAttributes `json:"extension_attributes"`
}

type extensionAttributes struct {
	ConfigurableItemOptions []configurableItemOption `json:"configurable_item_options"`
}

type configurableItemOption struct {
	OptionID    string `json:"option_id"`
	OptionValue int    `json:"option_value"`
}

// AddCartItem adds one unit of the size-specific SKU to the quote. The size's
// attribute id and option value select the variant on the configurable
// product.
func (c *Client) AddCartItem(ctx context.Context, token, quoteID, sku string, size domain.SizeOption) (*CartItem, Outcome) {
	req := addItemRequest{
		CartItem: addItemPayload{
			Sku:     ComposeSku(sku, size.Label),
			Qty:     1,
			QuoteID: quoteID,
			ProductOption: productOption{
				ExtensionAttributes: extensionAttributes{
					ConfigurableItemOptions: []configurableItemOption{
						{OptionID: size.AttributeID, OptionValue: atoiOrZero(size.Value)},
					},
				},
			},
			ProductType: "configurable",
		},
	}

	status, body := c.do(ctx, http.MethodPost, c.restURL("carts/mine/items"), token, req)
	if out := classify(status); out != Success {
		return nil, out
	}

	var item CartItem
	if err := json.Unmarshal(body, &item); err != nil || item.ItemID == 0 {
		return nil, Failure
	}
	return &item, Success
}

// EstimateShipping asks the store for available shipping methods to the given
// saved address.
func (c *Client) EstimateShipping(ctx context.Context, token string, addressID int) ([]ShippingEstimate, Outcome) {
	rawURL := c.restURL("carts/mine/estimate-shipping-methods-by-address-id")
	status, body := c.do(ctx, http.MethodPost, rawURL, token, map[string]int{"addressId": addressID})
	if out := classify(status); out != Success {
		return nil, out
	}

	var estimates []ShippingEstimate
	if err := json.Unmarshal(body, &estimates); err != nil {
		return nil, Failure
	}
	return estimates, Success
}

// SetShippingInformation submits the shipping and billing addresses with the
// chosen carrier and returns the resulting payment information.
func (c *Client) SetShippingInformation(ctx context.Context, token string, info ShippingInformation) (*PaymentInformation, Outcome) {
	status, body := c.do(ctx, http.MethodPost, c.restURL("carts/mine/shipping-information"), token, info)
	if out := classify(status); out != Success {
		return nil, out
	}

	var payment PaymentInformation
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, Failure
	}
	return &payment, Success
}

// transactionData is the redirect-form description the store returns after
// payment submission: parallel field-name and field-value arrays.
type transactionData struct {
	Fields []string `json:"fields"`
	Values []string `json:"values"`
}

// PlaceOrder submits the order and walks the payment redirect: submit
// payment information to the store, fetch the redirect form fields, post them
// to the gateway, then capture the gateway session cookie. All three requests
// share one cookie jar; the session cookie appearing in it is what makes the
// order a Success.
func (c *Client) PlaceOrder(ctx context.Context, token string, payload OrderPayload) (*OrderResult, Outcome) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, Failure
	}
	// Fresh jar per attempt so session state never bleeds between orders.
	client := &http.Client{
		Timeout:   c.httpClient.Timeout,
		Transport: c.httpClient.Transport,
		Jar:       jar,
	}

	status, _ := doWith(ctx, client, http.MethodPost, c.baseURL+"/rest/V1/carts/mine/payment-information", token, payload, log)
	if out := classify(status); out != Success {
		return nil, out
	}

	status, body := doWith(ctx, client, http.MethodGet, c.baseURL+"/ccpp/htmlredirect/gettransactiondata", "", nil, log)
	if classify(status) != Success {
		return nil, Failure
	}

	var tx transactionData
	if err := json.Unmarshal(body, &tx); err != nil || len(tx.Fields) == 0 || len(tx.Fields) != len(tx.Values) {
		return nil, Failure
	}
	fields := make(map[string]string, len(tx.Fields))
	for i, name := range tx.Fields {
		fields[name] = tx.Values[i]
	}

	form := url.Values{}
	for name, value := range fields {
		form.Set(name, value)
	}
	paymentURL := c.paymentBaseURL + "/RedirectV3/Payment"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, paymentURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, Failure
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		log.Debug("payment redirect failed", "error", err)
		return nil, Failure
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	cookie, ok := c.sessionCookie(jar)
	if !ok {
		return nil, Failure
	}

	return &OrderResult{Cookie: cookie, Fields: fields}, Success
}

// sessionCookie extracts the gateway session cookie from the jar.
func (c *Client) sessionCookie(jar http.CookieJar) (domain.Cookie, bool) {
	gateway, err := url.Parse(c.paymentBaseURL)
	if err != nil {
		return domain.Cookie{}, false
	}
	for _, ck := range jar.Cookies(gateway) {
		if ck.Name == sessionCookieName {
			return domain.Cookie{
				Name:   ck.Name,
				Value:  ck.Value,
				Domain: "." + strings.TrimPrefix(gateway.Hostname(), "www."),
			}, true
		}
	}
	return domain.Cookie{}, false
}

// doWith mirrors Client.do but runs on the jar-carrying client PlaceOrder
// builds per attempt.
func doWith(ctx context.Context, client *http.Client, method, rawURL, token string, body any, log *slog.Logger) (int, []byte) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, nil
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Debug("request failed", "method", method, "url", rawURL, "error", err)
		return 0, nil
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil
	}
	return resp.StatusCode, payload
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
