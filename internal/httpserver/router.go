package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	cartsvc "storefront/internal/service/cart"
	checkoutsvc "storefront/internal/service/checkout"
	notificationsvc "storefront/internal/service/notification"
	ordersvc "storefront/internal/service/order"
	sessionsvc "storefront/internal/service/session"
	"storefront/internal/ws"
)

// Deps carries the wired services the handlers need.
type Deps struct {
	SessionSvc  *sessionsvc.Service
	CartSvc     *cartsvc.Service
	Checkout    *checkoutsvc.Machine
	Checkouts   *checkoutsvc.Manager
	OrderWriter *ordersvc.Writer
	Aggregator  *notificationsvc.Aggregator
	Hub         *ws.Hub
	Products    productReader
	Stocks      stockReader
}

// buildRouter wires routes for the API.
func buildRouter(logger *logrus.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.GET("/products/:id", getProductHandler(deps.Products, deps.Stocks))

	router.POST("/session/anonymous", anonymousSessionHandler(deps.SessionSvc))
	router.POST("/session/login", loginSessionHandler(deps.SessionSvc))

	authed := router.Group("/", identityMiddleware(deps.SessionSvc))
	{
		authed.GET("/cart", getCartHandler(deps.CartSvc))
		authed.POST("/cart/items", addItemHandler(deps.CartSvc))
		authed.PATCH("/cart/items", updateQuantityHandler(deps.CartSvc))
		authed.DELETE("/cart/items/:productId/:size", removeItemHandler(deps.CartSvc))
		authed.POST("/cart/promo", applyPromoHandler(deps.CartSvc))
		authed.DELETE("/cart", clearCartHandler(deps.CartSvc))

		authed.POST("/checkout", createCheckoutHandler(deps.Checkouts))
		authed.GET("/checkout/:id", getCheckoutHandler(deps.Checkouts))
		authed.POST("/checkout/:id/shipping", shippingHandler(deps.Checkout, deps.Checkouts))
		authed.POST("/checkout/:id/payment", paymentHandler(deps.Checkout, deps.Checkouts))
		authed.POST("/checkout/:id/back", backHandler(deps.Checkout, deps.Checkouts))
		authed.POST("/checkout/:id/place", placeOrderHandler(deps.Checkout, deps.Checkouts))
		authed.POST("/checkout/:id/review", returnToReviewHandler(deps.Checkout, deps.Checkouts))
	}

	admin := router.Group("/admin", identityMiddleware(deps.SessionSvc), adminMiddleware())
	{
		admin.GET("/notifications", listNotificationsHandler(deps.Aggregator))
		admin.POST("/notifications/:orderId/read", markReadHandler(deps.Aggregator))
		admin.POST("/notifications/read-all", markAllReadHandler(deps.Aggregator))
		admin.POST("/notifications/retry", retryFeedHandler(deps.Aggregator))
		admin.PATCH("/orders/:id/status", updateOrderStatusHandler(deps.OrderWriter))
		admin.GET("/ws", func(c *gin.Context) {
			deps.Hub.HandleWebSocket(c.Writer, c.Request)
		})
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
