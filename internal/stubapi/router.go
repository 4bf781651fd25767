package stubapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BuildRouter wires the stub's routes. The contract it serves is the
// one the storefront consumes; anything beyond that is out of scope.
func BuildRouter(logger *zap.Logger, st *Store) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())

	// The real backend serves a browser SPA from another origin.
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)

	h := &handlers{store: st, logger: logger}

	authLimiter := newIPLimiter(rate.Every(time.Minute/30), 10)
	router.POST("/api/user/login", rateLimit(authLimiter), h.login)
	router.POST("/api/user/register", rateLimit(authLimiter), h.register)
	router.POST("/api/password/email", rateLimit(authLimiter), h.passwordEmail)
	router.POST("/api/password/reset", rateLimit(authLimiter), h.passwordReset)

	router.GET("/api/user/get_latest_products", h.latestProducts)
	router.GET("/api/user/get_categories", h.categories)
	router.GET("/api/products/search", h.searchProducts)
	router.GET("/api/user/product/:slug/detail", h.productDetail)

	authed := router.Group("/", authRequired(st))
	{
		authed.POST("/api/user/logout", h.logout)
		authed.GET("/api/user/get_user", h.currentUser)
		authed.PUT("/api/user/update", h.updateUser)

		authed.GET("/api/user/shopping_cart", h.cart)
		authed.POST("/api/user/shopping_cart", h.addCartItem)
		authed.PUT("/api/user/shopping_cart/:id", h.updateCartItem)
		authed.DELETE("/api/user/shopping_cart/:id", h.removeCartItem)

		authed.GET("/api/user/addresses", h.addresses)
		authed.POST("/api/user/addresses", h.addAddress)
		authed.PUT("/api/user/addresses/:id", h.updateAddress)
		authed.DELETE("/api/user/addresses/:id", h.deleteAddress)

		authed.GET("/api/user/user_orders", h.orders)
		authed.GET("/api/user/user_orders/:id", h.order)
		authed.POST("/api/user/user_orders/:id/confirm-received", h.confirmOrderReceived)

		authed.POST("/api/calculate-shipping-cost", h.shippingQuotes)
		authed.POST("/api/midtrans/snap-token", h.checkout)
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
