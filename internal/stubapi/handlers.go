package stubapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-client/internal/domain"
)

type handlers struct {
	store  *Store
	logger *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	token, err := h.store.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "message": "Login successful."})
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	if req.Password != req.PasswordConfirmation {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "Invalid input.",
			"errors":  gin.H{"password_confirmation": []string{"Password confirmation does not match."}},
		})
		return
	}
	if err := h.store.Register(req.Name, req.Email, req.Password); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, errEmailTaken) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful. Please log in."})
}

func (h *handlers) logout(c *gin.Context) {
	h.store.RevokeToken(c.GetString(ctxToken))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

func (h *handlers) passwordEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	// The real backend mails the token; the stub hands it back so the
	// reset flow can be exercised without a mailbox.
	token := h.store.IssuePasswordReset(req.Email)
	resp := gin.H{"message": "If the email exists, a reset link has been sent."}
	if token != "" {
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) passwordReset(c *gin.Context) {
	var req struct {
		Email                string `json:"email"`
		Token                string `json:"token"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	if req.Password != req.PasswordConfirmation {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Password confirmation does not match."})
		return
	}
	if err := h.store.ResetPassword(req.Email, req.Token, req.Password); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset."})
}

func (h *handlers) currentUser(c *gin.Context) {
	user, ok := h.store.User(currentUserID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (h *handlers) updateUser(c *gin.Context) {
	var req struct {
		Name                 string `json:"name"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	if req.Password != "" && req.Password != req.PasswordConfirmation {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Password confirmation does not match."})
		return
	}
	if err := h.store.UpdateUser(currentUserID(c), req.Name, req.Email, req.Password); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated."})
}

func (h *handlers) cart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.store.Cart(currentUserID(c))})
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"qty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	if err := h.store.AddCartItem(currentUserID(c), req.ProductID, req.Quantity); err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product added to cart."})
}

func (h *handlers) updateCartItem(c *gin.Context) {
	rowID, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"qty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	if err := h.store.UpdateCartItem(currentUserID(c), rowID, req.Quantity); err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quantity updated."})
}

func (h *handlers) removeCartItem(c *gin.Context) {
	rowID, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.RemoveCartItem(currentUserID(c), rowID); err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart."})
}

func (h *handlers) cartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found."})
	case errors.Is(err, errStock):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Insufficient product stock."})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	}
}

func (h *handlers) latestProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.store.LatestProducts(8)})
}

func (h *handlers) categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.store.Categories()})
}

func (h *handlers) searchProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.store.SearchProducts(c.Query("q"), c.Query("category"))})
}

func (h *handlers) productDetail(c *gin.Context) {
	product, ok := h.store.ProductBySlug(c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (h *handlers) addresses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.store.Addresses(currentUserID(c))})
}

func (h *handlers) addAddress(c *gin.Context) {
	var addr domain.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	if strings.TrimSpace(addr.RecipientName) == "" || strings.TrimSpace(addr.AddressLine) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Recipient name and address line are required."})
		return
	}
	created := h.store.AddAddress(currentUserID(c), addr)
	c.JSON(http.StatusCreated, gin.H{"data": created, "message": "Address saved."})
}

func (h *handlers) updateAddress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var addr domain.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	if err := h.store.UpdateAddress(currentUserID(c), id, addr); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Address not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address updated."})
}

func (h *handlers) deleteAddress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteAddress(currentUserID(c), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Address not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address removed."})
}

func (h *handlers) orders(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	orders, meta := h.store.Orders(currentUserID(c), page)
	c.JSON(http.StatusOK, gin.H{"data": orders, "meta": meta})
}

func (h *handlers) order(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, found := h.store.Order(currentUserID(c), id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *handlers) confirmOrderReceived(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.ConfirmOrderReceived(currentUserID(c), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order marked as received."})
}

type shippingQuoteRequest struct {
	Destination string `json:"destination"`
	WeightGrams int    `json:"weight"`
	Courier     string `json:"courier"`
	Price       string `json:"price"`
}

// courierRates are flat development tariffs per kilogram.
var courierRates = map[string]int64{
	"jne":      12000,
	"pos":      10000,
	"tiki":     11000,
	"sicepat":  9000,
	"jnt":      9500,
	"anteraja": 8500,
}

func (h *handlers) shippingQuotes(c *gin.Context) {
	var req shippingQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	if req.Destination == "" || req.WeightGrams <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Destination and weight are required."})
		return
	}

	kg := int64((req.WeightGrams + 999) / 1000)
	couriers := strings.Split(req.Courier, ":")
	if req.Courier == "" {
		couriers = []string{"jne", "pos", "tiki"}
	}
	var options []domain.ShippingOption
	for _, code := range couriers {
		perKg, ok := courierRates[strings.ToLower(strings.TrimSpace(code))]
		if !ok {
			continue
		}
		options = append(options, domain.ShippingOption{
			Code:        strings.ToLower(strings.TrimSpace(code)),
			Service:     "REG",
			Description: "Regular service",
			Cost:        perKg * kg,
			ETD:         "2-4",
		})
	}
	// The frontend asks for the cheapest option first.
	if req.Price == "lowest" {
		for i := 1; i < len(options); i++ {
			for j := i; j > 0 && options[j].Cost < options[j-1].Cost; j-- {
				options[j], options[j-1] = options[j-1], options[j]
			}
		}
	}
	c.JSON(http.StatusOK, options)
}

type checkoutRequest struct {
	CartItems []struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"qty"`
	} `json:"cartItems"`
	AddressID      int64                 `json:"address_id"`
	ShippingOption domain.ShippingOption `json:"shipping_option"`
}

func (h *handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid input."})
		return
	}
	order, err := h.store.CreateOrder(currentUserID(c), req.AddressID, req.ShippingOption)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapToken": "stub-" + uuid.NewString(),
		"id":        order.ID,
		"order_id":  order.OrderNumber,
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid id."})
		return 0, false
	}
	return id, true
}
