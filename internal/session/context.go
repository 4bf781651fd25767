// Package session owns authentication and cart state for the storefront
// client. The Context is the only component that reads or writes the
// persisted credential, and every authenticated request the rest of the
// application issues goes through its API client.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"storefront-client/internal/api"
	"storefront-client/internal/domain"
	"storefront-client/internal/store"
)

// User-facing messages for the session lifecycle.
const (
	MsgSessionNotFound = "Session not found. Please log in again."
	MsgSessionExpired  = "Your session is invalid or has expired."
	MsgSessionEnded    = "Your session has ended."
	MsgInactivity      = "Your session ended due to inactivity."
	MsgNoPermission    = "You do not have permission to perform this action."
	MsgNetworkProblem  = "A network connection problem occurred."
	MsgStockExceeded   = "Not enough product stock."
)

// DefaultInactivityTimeout matches the storefront's 15 minute countdown.
const DefaultInactivityTimeout = 15 * time.Minute

// Config wires a Context. Zero-value hooks fall back to no-ops, so a
// bare Config with BaseURL and Tokens is usable in tests.
type Config struct {
	BaseURL           string
	HTTP              api.Doer
	Tokens            store.TokenStore
	Notifier          Notifier
	Navigator         Navigator
	Logger            *zap.Logger
	InactivityTimeout time.Duration
}

// Context is the session/cart state container.
type Context struct {
	api      *api.Client
	tokens   store.TokenStore
	notifier Notifier
	nav      Navigator
	logger   *zap.Logger

	mu         sync.Mutex
	items      []domain.CartItem
	loading    bool
	generation uint64

	// loggedOut is the single-flight logout latch. It is set once per
	// session; only a fresh credential rearms it.
	loggedOut atomic.Bool

	watchdog *watchdog
}

func New(cfg Config) *Context {
	if cfg.Tokens == nil {
		cfg.Tokens = store.NewMemory()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.Navigator == nil {
		cfg.Navigator = NopNavigator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.InactivityTimeout == 0 {
		cfg.InactivityTimeout = DefaultInactivityTimeout
	}

	c := &Context{
		tokens:   cfg.Tokens,
		notifier: cfg.Notifier,
		nav:      cfg.Navigator,
		logger:   cfg.Logger,
	}
	c.watchdog = newWatchdog(cfg.InactivityTimeout, func() {
		c.logger.Info("inactivity timeout reached")
		c.Logout(MsgInactivity)
	})
	c.api = api.New(api.Options{
		BaseURL: cfg.BaseURL,
		HTTP:    cfg.HTTP,
		Tokens:  cfg.Tokens,
		Logger:  cfg.Logger,
		OnAuthRequired: func(failure api.AuthFailure) {
			if failure == api.AuthMissing {
				c.Logout(MsgSessionNotFound)
				return
			}
			c.Logout(MsgSessionExpired)
		},
		OnForbidden: func() {
			c.notifier.Error(MsgNoPermission)
		},
		OnNetworkError: func() {
			c.notifier.Error(MsgNetworkProblem)
		},
	})

	// A credential may already be in the store (the embedder persisted
	// the session scope itself). Resume it: cart is pending a refresh.
	if c.tokens.Token() != "" {
		c.loading = true
		c.watchdog.arm()
	}
	return c
}

// API exposes the guarded client for request paths the context does not
// wrap itself (profile, addresses, orders, shipping).
func (c *Context) API() *api.Client {
	return c.api
}

// Token returns the current credential, or "" when logged out.
func (c *Context) Token() string {
	return c.tokens.Token()
}

// LoggedIn reports whether a credential is present.
func (c *Context) LoggedIn() bool {
	return c.tokens.Token() != ""
}

// SetToken replaces the credential. An empty token ends the session
// locally: the cart empties and loading completes synchronously, with no
// network round trip. A fresh token marks the cart loading and rearms
// both the logout latch and the inactivity countdown; the caller follows
// up with RefreshCart.
func (c *Context) SetToken(token string) {
	c.mu.Lock()
	prev := c.tokens.Token()
	c.generation++

	if token != "" {
		c.tokens.SetToken(token)
		c.loggedOut.Store(false)
		if prev == "" {
			c.loading = true
		}
		c.mu.Unlock()
		c.logger.Debug("token set")
		c.watchdog.arm()
		return
	}

	c.tokens.Clear()
	c.items = nil
	c.loading = false
	c.mu.Unlock()
	c.logger.Debug("token cleared")
	c.watchdog.disarm()
}

// Logout ends the session at most once per session, no matter how many
// triggers race (inactivity expiry, a 401 mid-flight, explicit user
// action). The backend notify is best effort and never blocks the local
// teardown.
func (c *Context) Logout(reason string) {
	if !c.loggedOut.CompareAndSwap(false, true) {
		return
	}
	if reason == "" {
		reason = MsgSessionEnded
	}
	c.logger.Info("logging out", zap.String("reason", reason))

	if err := c.api.NotifyLogout(context.Background()); err != nil {
		c.logger.Warn("backend logout notify failed", zap.Error(err))
	}

	c.SetToken("")
	if c.nav.Path() != LoginPath {
		c.nav.GoTo(LoginPath)
	}
	c.notifier.Info(reason)
}

// Touch is the user-activity signal; it rearms the inactivity countdown
// while a session is in progress.
func (c *Context) Touch() {
	c.watchdog.touch()
}

// Loading reports whether a cart refresh is pending.
func (c *Context) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Items returns the display list: cart rows whose product reference the
// backend resolved. Broken rows stay in the cart (and its count) but are
// not displayable.
func (c *Context) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartItem, 0, len(c.items))
	for _, it := range c.items {
		if it.Broken() {
			continue
		}
		out = append(out, it)
	}
	return out
}

// BrokenCount reports how many cart rows lost their product reference.
func (c *Context) BrokenCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		if it.Broken() {
			n++
		}
	}
	return n
}

// CartCount is the badge number: total quantity across all rows, broken
// ones included. Pure reader, never touches the network.
func (c *Context) CartCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartCount(c.items)
}

// CartAmount totals unit price times quantity over resolvable rows.
// Pure reader, never touches the network.
func (c *Context) CartAmount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartAmount(c.items)
}

// CartWeight totals item weight in grams, for shipping quotes.
func (c *Context) CartWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartWeight(c.items)
}

// RefreshCart reconciles local cart state with the backend, which owns
// the cart. Without a credential it empties the cart and finishes
// loading without any network call. A refresh that resolves after the
// session changed underneath it is discarded.
func (c *Context) RefreshCart(ctx context.Context) error {
	c.mu.Lock()
	if c.tokens.Token() == "" {
		c.items = nil
		c.loading = false
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	c.loading = true
	c.mu.Unlock()

	items, err := c.api.Cart(ctx)
	if err != nil {
		// Auth rejections already tore the session down through the
		// logout path; anything else leaves an empty, settled cart.
		c.applyCart(gen, nil)
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			c.notifier.Error(orDefault(apiErr.Message, "Could not load your cart."))
		}
		return err
	}
	c.applyCart(gen, items)
	return nil
}

// applyCart installs a refresh result unless the session generation
// moved on while the request was in flight.
func (c *Context) applyCart(gen uint64, items []domain.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("discarding stale cart refresh")
		return
	}
	c.items = items
	c.loading = false
}

// AddToCart guards the requested quantity against available stock before
// going to the network, then resynchronizes from the backend instead of
// inserting locally.
func (c *Context) AddToCart(ctx context.Context, productID int64, qty, availableStock int) error {
	c.mu.Lock()
	inCart := 0
	for _, it := range c.items {
		if it.Product != nil && it.Product.ID == productID {
			inCart += it.Quantity
		}
	}
	c.mu.Unlock()

	if inCart+qty > availableStock {
		c.notifier.Warn(MsgStockExceeded)
		return domain.ErrStockExceeded
	}

	msg, err := c.api.AddCartItem(ctx, productID, qty)
	if err != nil {
		c.notifyAPIError(err, "Could not add the product.")
		return err
	}
	c.notifier.Success(orDefault(msg, "Product added."))
	return c.RefreshCart(ctx)
}

// UpdateQuantity sets a row's quantity; anything below one is a removal,
// never an update with a non-positive quantity.
func (c *Context) UpdateQuantity(ctx context.Context, cartItemID int64, qty int) error {
	if qty < 1 {
		return c.RemoveFromCart(ctx, cartItemID)
	}
	msg, err := c.api.UpdateCartItem(ctx, cartItemID, qty)
	if err != nil {
		c.notifyAPIError(err, "Could not update the quantity.")
		return err
	}
	c.notifier.Success(orDefault(msg, "Quantity updated."))
	return c.RefreshCart(ctx)
}

// RemoveFromCart deletes a row and resynchronizes.
func (c *Context) RemoveFromCart(ctx context.Context, cartItemID int64) error {
	msg, err := c.api.RemoveCartItem(ctx, cartItemID)
	if err != nil {
		c.notifyAPIError(err, "Could not remove the product.")
		return err
	}
	c.notifier.Success(orDefault(msg, "Product removed."))
	return c.RefreshCart(ctx)
}

// Login performs the credential exchange and starts the session.
func (c *Context) Login(ctx context.Context, email, password string) error {
	result, err := c.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	c.SetToken(result.Token)
	c.notifier.Success(orDefault(result.Message, "Welcome back."))
	return c.RefreshCart(ctx)
}

// notifyAPIError surfaces application-level failures. Auth, permission
// and connectivity failures were already surfaced by the client hooks.
func (c *Context) notifyAPIError(err error, fallback string) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		c.notifier.Error(orDefault(apiErr.Message, fallback))
	}
}

func orDefault(msg, def string) string {
	if msg != "" {
		return msg
	}
	return def
}
