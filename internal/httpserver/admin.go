package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	notificationsvc "storefront/internal/service/notification"
	ordersvc "storefront/internal/service/order"
)

func listNotificationsHandler(agg *notificationsvc.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"unreadCount":   agg.UnreadCount(),
			"notifications": agg.Notifications(),
		}
		if err := agg.SyncErr(); err != nil {
			resp["syncError"] = err.Error()
		}
		c.JSON(http.StatusOK, resp)
	}
}

func markReadHandler(agg *notificationsvc.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("orderId")
		if strings.TrimSpace(orderID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderId required"})
			return
		}
		if err := agg.MarkRead(c.Request.Context(), orderID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unreadCount": agg.UnreadCount()})
	}
}

func markAllReadHandler(agg *notificationsvc.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := agg.MarkAllRead(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unreadCount": agg.UnreadCount()})
	}
}

func retryFeedHandler(agg *notificationsvc.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := agg.Retry(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unreadCount": agg.UnreadCount()})
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func updateOrderStatusHandler(writer *ordersvc.Writer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil || !validStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
			return
		}
		if err := writer.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": req.Status})
	}
}

func validStatus(s string) bool {
	switch s {
	case domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusShipped,
		domain.OrderStatusDelivered, domain.OrderStatusCancelled:
		return true
	}
	return false
}
