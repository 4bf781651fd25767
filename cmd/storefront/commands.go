package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront-client/internal/api"
	"storefront-client/internal/domain"
	"storefront-client/internal/session"
)

type app struct {
	sess *session.Context
	nav  *consoleNavigator
	out  io.Writer
}

// dispatch runs one command line; it returns false when the loop should
// exit.
func (a *app) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	ctx := context.Background()

	switch cmd {
	case "help":
		a.help()
	case "quit", "exit":
		return false
	case "login":
		a.login(ctx, args)
	case "register":
		a.register(ctx, args)
	case "logout":
		a.sess.Logout(session.MsgSessionEnded)
	case "me":
		a.me(ctx)
	case "latest":
		a.products(a.sess.API().LatestProducts(ctx))
	case "search":
		a.products(a.sess.API().SearchProducts(ctx, api.SearchQuery{Keyword: strings.Join(args, " ")}))
	case "categories":
		a.categories(ctx)
	case "view":
		a.view(ctx, args)
	case "cart":
		a.cart(ctx)
	case "add":
		a.add(ctx, args)
	case "update":
		a.update(ctx, args)
	case "remove":
		a.remove(ctx, args)
	case "addresses":
		a.addresses(ctx)
	case "orders":
		a.orders(ctx, args)
	case "order":
		a.order(ctx, args)
	case "checkout":
		a.checkout(ctx)
	default:
		fmt.Fprintf(a.out, "unknown command %q — try 'help'\n", cmd)
	}
	return true
}

func (a *app) help() {
	fmt.Fprint(a.out, `commands:
  login <email> <password>     start a session
  register <name> <email> <password>
  logout                       end the session
  me                           show account
  latest | search <keyword> | categories | view <slug>
  cart                         show cart with totals
  add <product-id> <qty>       add to cart (stock-guarded)
  update <row-id> <qty>        change a row's quantity (0 removes)
  remove <row-id>              remove a row
  addresses | orders [page] | order <id> | checkout
  quit
`)
}

func (a *app) login(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "usage: login <email> <password>")
		return
	}
	if err := a.sess.Login(ctx, args[0], args[1]); err != nil {
		fmt.Fprintln(a.out, "login failed:", err)
		return
	}
	a.nav.path = "/"
}

func (a *app) register(ctx context.Context, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(a.out, "usage: register <name> <email> <password>")
		return
	}
	msg, err := a.sess.API().Register(ctx, api.RegisterInput{
		Name:                 args[0],
		Email:                args[1],
		Password:             args[2],
		PasswordConfirmation: args[2],
	})
	if err != nil {
		fmt.Fprintln(a.out, "registration failed:", err)
		return
	}
	fmt.Fprintln(a.out, msg)
}

func (a *app) me(ctx context.Context) {
	user, err := a.sess.API().CurrentUser(ctx)
	if err != nil {
		return
	}
	fmt.Fprintf(a.out, "%s <%s>\n", user.Name, user.Email)
}

func (a *app) products(items []domain.Product, err error) {
	if err != nil {
		fmt.Fprintln(a.out, "could not load products:", err)
		return
	}
	for _, p := range items {
		fmt.Fprintf(a.out, "  #%d %-24s %s  stock=%d  %s\n", p.ID, p.Name, formatPrice(p.UnitPrice), p.Stock, p.Slug)
	}
}

func (a *app) categories(ctx context.Context) {
	categories, err := a.sess.API().Categories(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "could not load categories:", err)
		return
	}
	for _, c := range categories {
		fmt.Fprintf(a.out, "  %s (%s)\n", c.Name, c.Slug)
	}
}

func (a *app) view(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: view <slug>")
		return
	}
	p, err := a.sess.API().ProductDetail(ctx, args[0])
	if err != nil {
		fmt.Fprintln(a.out, "could not load product:", err)
		return
	}
	fmt.Fprintf(a.out, "  #%d %s\n  %s\n  price=%s stock=%d weight=%dg\n",
		p.ID, p.Name, p.Description, formatPrice(p.UnitPrice), p.Stock, p.WeightGrams)
}

func (a *app) cart(ctx context.Context) {
	if err := a.sess.RefreshCart(ctx); err != nil {
		return
	}
	items := a.sess.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "  cart is empty")
	}
	for _, it := range items {
		fmt.Fprintf(a.out, "  row %d: %dx %s @ %s\n", it.ID, it.Quantity, it.Product.Name, formatPrice(it.Product.UnitPrice))
	}
	if broken := a.sess.BrokenCount(); broken > 0 {
		fmt.Fprintf(a.out, "  (%d unavailable item(s) still on the cart)\n", broken)
	}
	fmt.Fprintf(a.out, "  items: %d  total: %s\n", a.sess.CartCount(), formatPrice(a.sess.CartAmount()))
}

func (a *app) add(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "usage: add <product-id> <qty>")
		return
	}
	productID, err1 := strconv.ParseInt(args[0], 10, 64)
	qty, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(a.out, "usage: add <product-id> <qty>")
		return
	}
	stock := a.lookupStock(ctx, productID)
	_ = a.sess.AddToCart(ctx, productID, qty, stock)
}

// lookupStock finds available stock for the client-side guard, the way
// the product page carries it to the add button.
func (a *app) lookupStock(ctx context.Context, productID int64) int {
	products, err := a.sess.API().SearchProducts(ctx, api.SearchQuery{})
	if err != nil {
		return 0
	}
	for _, p := range products {
		if p.ID == productID {
			return p.Stock
		}
	}
	return 0
}

func (a *app) update(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "usage: update <row-id> <qty>")
		return
	}
	rowID, err1 := strconv.ParseInt(args[0], 10, 64)
	qty, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(a.out, "usage: update <row-id> <qty>")
		return
	}
	_ = a.sess.UpdateQuantity(ctx, rowID, qty)
}

func (a *app) remove(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: remove <row-id>")
		return
	}
	rowID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintln(a.out, "usage: remove <row-id>")
		return
	}
	_ = a.sess.RemoveFromCart(ctx, rowID)
}

func (a *app) addresses(ctx context.Context) {
	addresses, err := a.sess.API().Addresses(ctx)
	if err != nil {
		return
	}
	if len(addresses) == 0 {
		fmt.Fprintln(a.out, "  no saved addresses")
	}
	for _, addr := range addresses {
		marker := " "
		if addr.IsDefault {
			marker = "*"
		}
		fmt.Fprintf(a.out, "  %s %d: %s, %s, %s %s\n", marker, addr.ID, addr.RecipientName, addr.AddressLine, addr.City, addr.PostalCode)
	}
}

func (a *app) orders(ctx context.Context, args []string) {
	page := 1
	if len(args) == 1 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			page = n
		}
	}
	orders, meta, err := a.sess.API().Orders(ctx, page)
	if err != nil {
		return
	}
	for _, o := range orders {
		fmt.Fprintf(a.out, "  %d %s  %s  %s\n", o.ID, o.OrderNumber, o.Status, formatPrice(o.TotalAmount))
	}
	if meta != nil {
		fmt.Fprintf(a.out, "  page %d/%d (%d orders)\n", meta.CurrentPage, meta.LastPage, meta.Total)
	}
}

func (a *app) order(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: order <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintln(a.out, "usage: order <id>")
		return
	}
	o, err := a.sess.API().Order(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, "could not load order:", err)
		return
	}
	fmt.Fprintf(a.out, "  %s  %s  total %s (shipping %s)\n", o.OrderNumber, o.Status, formatPrice(o.TotalAmount), formatPrice(o.ShippingCost))
	for _, it := range o.Items {
		fmt.Fprintf(a.out, "    %dx %s @ %s\n", it.Quantity, it.Name, formatPrice(it.UnitPrice))
	}
}

// checkout quotes shipping to the default address and creates the order
// with the cheapest option, mirroring the place-order view.
func (a *app) checkout(ctx context.Context) {
	if err := a.sess.RefreshCart(ctx); err != nil {
		return
	}
	items := a.sess.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "  cart is empty")
		return
	}

	addresses, err := a.sess.API().Addresses(ctx)
	if err != nil {
		return
	}
	var dest *domain.Address
	for i := range addresses {
		if addresses[i].IsDefault {
			dest = &addresses[i]
			break
		}
	}
	if dest == nil && len(addresses) > 0 {
		dest = &addresses[0]
	}
	if dest == nil {
		fmt.Fprintln(a.out, "  no shipping address on file")
		return
	}

	destination := dest.CityID
	if destination == "" {
		destination = dest.PostalCode
	}
	options, err := a.sess.API().ShippingQuotes(ctx, api.ShippingQuoteInput{
		Destination: destination,
		WeightGrams: a.sess.CartWeight(),
		Courier:     "jne:pos:tiki:sicepat:jnt:anteraja",
		Price:       "lowest",
	})
	if err != nil || len(options) == 0 {
		fmt.Fprintln(a.out, "  no shipping options available")
		return
	}
	shipping := options[0]
	fmt.Fprintf(a.out, "  shipping via %s %s: %s\n", shipping.Code, shipping.Service, formatPrice(shipping.Cost))

	var checkoutItems []api.CheckoutItem
	for _, it := range items {
		checkoutItems = append(checkoutItems, api.CheckoutItem{ProductID: it.Product.ID, Quantity: it.Quantity})
	}
	result, err := a.sess.API().Checkout(ctx, api.CheckoutInput{
		CartItems:      checkoutItems,
		AddressID:      dest.ID,
		ShippingOption: shipping,
	})
	if err != nil {
		fmt.Fprintln(a.out, "checkout failed:", err)
		return
	}
	fmt.Fprintf(a.out, "  order %s created — payment session %s\n", result.OrderNumber, result.SnapToken)
	_ = a.sess.RefreshCart(ctx)
}

func formatPrice(amount int64) string {
	return "Rp " + strconv.FormatInt(amount, 10)
}
