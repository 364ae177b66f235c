package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-checkout/internal/domain"
)

type checkoutRequest struct {
	Delivery domain.DeliveryInfo `json:"delivery"`
	Notes    string              `json:"notes"`
}

type checkoutResponse struct {
	OrderID    string          `json:"orderId,omitempty"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     string          `json:"status"`
}

func checkoutHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		id := deviceID(c)
		rows := deps.CartSvc.Rows(id)
		if len(rows) == 0 {
			// No snapshot in process (restart, new instance) looks the same
			// as an empty cart; the server cart is authoritative, so confirm
			// before rejecting the checkout.
			fetched, err := deps.CartSvc.Fetch(c.Request.Context(), id)
			if err != nil {
				respondError(c, err)
				return
			}
			rows = fetched
		}
		orderID, draft, err := deps.OrderSvc.Checkout(c.Request.Context(), id, rows, req.Delivery, req.Notes)
		if err != nil {
			respondError(c, err)
			return
		}

		// The order is committed; the local snapshot must not offer the same
		// rows for re-ordering.
		deps.CartSvc.Reset(id)

		c.JSON(http.StatusCreated, checkoutResponse{
			OrderID:    orderID,
			TotalPrice: draft.TotalPrice,
			Status:     draft.Status,
		})
	}
}
