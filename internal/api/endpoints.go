package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"storefront-client/internal/domain"
)

// LoginResult is the successful login payload.
type LoginResult struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token. It is a public call:
// no credential attached, no session side effects on failure.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.send(ctx, http.MethodPost, "/api/user/login", body, "")
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("login: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}
	var result LoginResult
	if err := json.Unmarshal(raw, &result); err != nil || result.Token == "" {
		c.logger.Warn("login response missing token", zap.Error(err))
		return nil, &APIError{Status: resp.StatusCode, Message: "login response missing token"}
	}
	return &result, nil
}

// RegisterInput mirrors the register endpoint payload.
type RegisterInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Register creates an account. The user still logs in afterwards.
func (c *Client) Register(ctx context.Context, in RegisterInput) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/user/register", in, "")
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// NotifyLogout tells the backend the session is over. It deliberately
// bypasses Do: it runs during logout, must not re-trigger the logout
// path, and its outcome is ignored by the caller.
func (c *Client) NotifyLogout(ctx context.Context) error {
	token := c.tokens.Token()
	if token == "" {
		return nil
	}
	resp, err := c.send(ctx, http.MethodPost, "/api/user/logout", nil, token)
	if err != nil {
		return fmt.Errorf("logout notify: %w", err)
	}
	drain(resp)
	return nil
}

// RequestPasswordReset asks the backend to mail a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/password/email", map[string]string{"email": email}, "")
	if err != nil {
		return "", fmt.Errorf("password reset request: %w", err)
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ResetPasswordInput carries the emailed token plus the new password.
type ResetPasswordInput struct {
	Email                string `json:"email"`
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (c *Client) ResetPassword(ctx context.Context, in ResetPasswordInput) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/password/reset", in, "")
	if err != nil {
		return "", fmt.Errorf("password reset: %w", err)
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// CurrentUser fetches the authenticated account.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/user/get_user", nil)
	if err != nil {
		return nil, err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var user domain.User
	c.dataInto(env, &user)
	return &user, nil
}

// UpdateUserInput carries profile changes; empty fields are left as-is
// by the backend.
type UpdateUserInput struct {
	Name                 string `json:"name,omitempty"`
	Email                string `json:"email,omitempty"`
	Password             string `json:"password,omitempty"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, in UpdateUserInput) (string, error) {
	resp, err := c.Do(ctx, http.MethodPut, "/api/user/update", in)
	if err != nil {
		return "", err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Cart fetches the authoritative cart. A malformed list degrades to
// empty rather than an error.
func (c *Client) Cart(ctx context.Context) ([]domain.CartItem, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/user/shopping_cart", nil)
	if err != nil {
		return nil, err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var items []domain.CartItem
	c.dataInto(env, &items)
	return items, nil
}

// AddCartItem appends qty of a product to the cart and returns the
// backend's flash message.
func (c *Client) AddCartItem(ctx context.Context, productID int64, qty int) (string, error) {
	body := map[string]interface{}{"product_id": productID, "qty": qty}
	resp, err := c.Do(ctx, http.MethodPost, "/api/user/shopping_cart", body)
	if err != nil {
		return "", err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// UpdateCartItem sets the quantity of one cart row.
func (c *Client) UpdateCartItem(ctx context.Context, cartItemID int64, qty int) (string, error) {
	body := map[string]interface{}{"qty": qty}
	resp, err := c.Do(ctx, http.MethodPut, "/api/user/shopping_cart/"+strconv.FormatInt(cartItemID, 10), body)
	if err != nil {
		return "", err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// RemoveCartItem deletes one cart row. A bodyless 204 is a success.
func (c *Client) RemoveCartItem(ctx context.Context, cartItemID int64) (string, error) {
	resp, err := c.Do(ctx, http.MethodDelete, "/api/user/shopping_cart/"+strconv.FormatInt(cartItemID, 10), nil)
	if err != nil {
		return "", err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// LatestProducts returns the newest catalog entries for the home view.
func (c *Client) LatestProducts(ctx context.Context) ([]domain.Product, error) {
	return c.publicProductList(ctx, "/api/user/get_latest_products")
}

// Categories lists the catalog categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/user/get_categories", nil, "")
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var categories []domain.Category
	c.dataInto(env, &categories)
	return categories, nil
}

// SearchQuery narrows a catalog search; zero values are omitted.
type SearchQuery struct {
	Keyword  string
	Category string
	Sort     string
	Page     int
}

func (q SearchQuery) encode() string {
	values := url.Values{}
	if q.Keyword != "" {
		values.Set("q", q.Keyword)
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Page > 1 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values.Encode()
}

// SearchProducts runs a catalog search. Browsing works logged out, so
// this is a public call.
func (c *Client) SearchProducts(ctx context.Context, q SearchQuery) ([]domain.Product, error) {
	path := "/api/products/search"
	if encoded := q.encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.publicProductList(ctx, path)
}

// ProductDetail fetches one product by slug.
func (c *Client) ProductDetail(ctx context.Context, slug string) (*domain.Product, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/user/product/"+url.PathEscape(slug)+"/detail", nil, "")
	if err != nil {
		return nil, fmt.Errorf("product detail: %w", err)
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var product domain.Product
	c.dataInto(env, &product)
	if product.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &product, nil
}

func (c *Client) publicProductList(ctx context.Context, path string) ([]domain.Product, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	c.dataInto(env, &products)
	return products, nil
}

// Addresses lists the account's saved addresses.
func (c *Client) Addresses(ctx context.Context) ([]domain.Address, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/user/addresses", nil)
	if err != nil {
		return nil, err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var addresses []domain.Address
	c.dataInto(env, &addresses)
	return addresses, nil
}

// AddressInput mirrors the address create/update payload.
type AddressInput struct {
	RecipientName string `json:"recipient_name"`
	PhoneNumber   string `json:"phone_number"`
	AddressLine   string `json:"address_line"`
	Province      string `json:"province"`
	City          string `json:"city"`
	CityID        string `json:"city_id,omitempty"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

func (c *Client) CreateAddress(ctx context.Context, in AddressInput) (string, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/api/user/addresses", in)
	if err != nil {
		return "", err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) UpdateAddress(ctx context.Context, id int64, in AddressInput) (string, error) {
	resp, err := c.Do(ctx, http.MethodPut, "/api/user/addresses/"+strconv.FormatInt(id, 10), in)
	if err != nil {
		return "", err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) DeleteAddress(ctx context.Context, id int64) (string, error) {
	resp, err := c.Do(ctx, http.MethodDelete, "/api/user/addresses/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return "", err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Orders fetches one page of order history.
func (c *Client) Orders(ctx context.Context, page int) ([]domain.Order, *domain.PageMeta, error) {
	path := "/api/user/user_orders"
	if page > 1 {
		path += "?page=" + strconv.Itoa(page)
	}
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, nil, err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return nil, nil, err
	}
	var orders []domain.Order
	c.dataInto(env, &orders)
	return orders, env.Meta, nil
}

// Order fetches one order with its items and shipment.
func (c *Client) Order(ctx context.Context, id int64) (*domain.Order, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/api/user/user_orders/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var order domain.Order
	c.dataInto(env, &order)
	if order.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &order, nil
}

// ConfirmOrderReceived marks a delivered order as received.
func (c *Client) ConfirmOrderReceived(ctx context.Context, id int64) (string, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/api/user/user_orders/"+strconv.FormatInt(id, 10)+"/confirm-received", nil)
	if err != nil {
		return "", err
	}
	env, err := c.decodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ShippingQuoteInput asks for courier rates to a destination for a
// total weight in grams.
type ShippingQuoteInput struct {
	Destination string `json:"destination"`
	WeightGrams int    `json:"weight"`
	Courier     string `json:"courier"`
	Price       string `json:"price"`
}

// ShippingQuotes returns courier options. The backend answers with a
// bare JSON array rather than the usual envelope.
func (c *Client) ShippingQuotes(ctx context.Context, in ShippingQuoteInput) ([]domain.ShippingOption, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/api/calculate-shipping-cost", in)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("shipping quotes: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	var options []domain.ShippingOption
	if err := json.Unmarshal(raw, &options); err != nil {
		c.logger.Warn("shipping quote shape mismatch", zap.Error(err))
		return nil, nil
	}
	return options, nil
}

// CheckoutInput creates an order from the current cart rows.
type CheckoutInput struct {
	CartItems      []CheckoutItem        `json:"cartItems"`
	AddressID      int64                 `json:"address_id"`
	ShippingOption domain.ShippingOption `json:"shipping_option"`
}

type CheckoutItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"qty"`
}

// CheckoutResult carries the payment widget token and the created order.
type CheckoutResult struct {
	SnapToken   string `json:"snapToken"`
	OrderID     int64  `json:"id"`
	OrderNumber string `json:"order_id"`
}

// Checkout creates the order and returns the payment session token. The
// payment widget itself is outside this client.
func (c *Client) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/api/midtrans/snap-token", in)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("checkout: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	var result CheckoutResult
	if err := json.Unmarshal(raw, &result); err != nil || result.SnapToken == "" {
		c.logger.Warn("checkout response missing snap token", zap.Error(err))
		return nil, &APIError{Status: resp.StatusCode, Message: "payment token missing from response"}
	}
	return &result, nil
}
