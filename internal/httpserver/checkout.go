package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vereau-cart/internal/domain"
)

// checkoutRequest is the payload forwarded from the payment widget's approve
// callback. Cancel and error callbacks never reach this endpoint.
type checkoutRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
}

type checkoutResponse struct {
	State   string            `json:"state"`
	OrderID string            `json:"orderId,omitempty"`
	Lines   []domain.LineItem `json:"lines,omitempty"`
}

func checkoutHandler(svc CheckoutService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user := currentUser(c)
		res, err := svc.Submit(c.Request.Context(), user, req.TransactionID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrEmptyCart):
				c.JSON(http.StatusConflict, gin.H{"error": "cart is empty"})
			case errors.Is(err, domain.ErrCheckoutInFlight):
				c.JSON(http.StatusConflict, gin.H{"error": "checkout already in progress"})
			case errors.Is(err, domain.ErrNoValidLines):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no valid line items"})
			default:
				// Manual re-submission is the only recovery path; the order
				// record, if created, stays behind for reconciliation.
				logger.Printf("checkout for %s failed: %v", user, err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "checkout failed"})
			}
			return
		}

		c.JSON(http.StatusOK, checkoutResponse{
			State:   res.State.String(),
			OrderID: res.Order.ID,
			Lines:   res.Snapshot,
		})
	}
}

func listOrdersHandler(orders OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := orders.ListByUser(c.Request.Context(), currentUser(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "load orders failed"})
			return
		}
		if list == nil {
			list = []domain.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}
