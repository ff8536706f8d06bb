package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	checkoutsvc "storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
)

func createCheckoutHandler(manager *checkoutsvc.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := manager.Create(currentIdentity(c).ID)
		c.JSON(http.StatusCreated, sess.Snapshot())
	}
}

func getCheckoutHandler(manager *checkoutsvc.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessionForIdentity(c, manager)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

type shippingRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Line1      string `json:"addressLine"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

func shippingHandler(machine *checkoutsvc.Machine, manager *checkoutsvc.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessionForIdentity(c, manager)
		if err != nil {
			respondError(c, err)
			return
		}
		var req shippingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		info := ordersvc.ShippingInfo{
			Customer: domain.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone},
			Address:  domain.Address{Line1: req.Line1, City: req.City, State: req.State, PostalCode: req.PostalCode},
		}
		if err := machine.SubmitShipping(sess, info); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

type paymentRequest struct {
	Method string            `json:"method"`
	Fields map[string]string `json:"fields"`
}

func paymentHandler(machine *checkoutsvc.Machine, manager *checkoutsvc.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessionForIdentity(c, manager)
		if err != nil {
			respondError(c, err)
			return
		}
		var req paymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		info := ordersvc.PaymentInfo{Method: req.Method, Fields: req.Fields}
		if err := machine.SubmitPayment(c.Request.Context(), sess, info); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

func backHandler(machine *checkoutsvc.Machine, manager *checkoutsvc.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessionForIdentity(c, manager)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := machine.Back(sess); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

func placeOrderHandler(machine *checkoutsvc.Machine, manager *checkoutsvc.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessionForIdentity(c, manager)
		if err != nil {
			respondError(c, err)
			return
		}
		orderID, err := machine.PlaceOrder(c.Request.Context(), sess)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orderId": orderID, "state": checkoutsvc.StatePlaced})
	}
}

func returnToReviewHandler(machine *checkoutsvc.Machine, manager *checkoutsvc.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessionForIdentity(c, manager)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := machine.ReturnToReview(sess); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	}
}

// sessionForIdentity loads the checkout session and refuses access from
// any identity but its owner.
func sessionForIdentity(c *gin.Context, manager *checkoutsvc.Manager) (*checkoutsvc.Session, error) {
	sess, err := manager.Get(c.Param("id"))
	if err != nil {
		return nil, err
	}
	if sess.IdentityID != currentIdentity(c).ID {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}
