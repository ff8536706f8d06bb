package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

type cartResponse struct {
	ID              string            `json:"id"`
	LineItems       []domain.LineItem `json:"lineItems"`
	PromoCode       string            `json:"promoCode,omitempty"`
	DiscountPercent int               `json:"discountPercent"`
	SubtotalCents   int64             `json:"subtotalCents"`
	ItemCount       int               `json:"itemCount"`
}

func toCartResponse(cart *domain.Cart) cartResponse {
	lines := cart.Lines
	if lines == nil {
		lines = []domain.LineItem{}
	}
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return cartResponse{
		ID:              cart.ID,
		LineItems:       lines,
		PromoCode:       cart.PromoCode,
		DiscountPercent: cart.DiscountPercent,
		SubtotalCents:   cart.SubtotalCents(),
		ItemCount:       count,
	}
}

func getCartHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := carts.Get(c.Request.Context(), currentIdentity(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

type lineItemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func addItemHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lineItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cart, err := carts.AddItem(c.Request.Context(), currentIdentity(c).ID, req.ProductID, req.Size, req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

func updateQuantityHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lineItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		cart, err := carts.UpdateQuantity(c.Request.Context(), currentIdentity(c).ID, req.ProductID, req.Size, req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

func removeItemHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID := c.Param("productId")
		size := c.Param("size")
		if strings.TrimSpace(productID) == "" || strings.TrimSpace(size) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId and size required"})
			return
		}
		cart, err := carts.RemoveItem(c.Request.Context(), currentIdentity(c).ID, productID, size)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

type promoRequest struct {
	Code string `json:"code"`
}

func applyPromoHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req promoRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
			return
		}
		result, err := carts.ApplyPromoCode(c.Request.Context(), currentIdentity(c).ID, req.Code)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func clearCartHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.Clear(c.Request.Context(), currentIdentity(c).ID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
