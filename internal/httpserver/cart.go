package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/pricing"
)

// cartResponse is the storefront's view of the cart: rows plus the totals
// projection. Error carries a surfaced-but-nonfatal failure, e.g. a fetch
// that degraded to an empty cart or a removal whose server call failed.
type cartResponse struct {
	Items    []domain.CartRow `json:"items"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Tax      decimal.Decimal  `json:"tax"`
	Shipping decimal.Decimal  `json:"shipping"`
	Total    decimal.Decimal  `json:"total"`
	Error    string           `json:"error,omitempty"`
}

func newCartResponse(rows []domain.CartRow, deps Deps, errMsg string) cartResponse {
	if rows == nil {
		rows = []domain.CartRow{}
	}
	return cartResponse{
		Items:    rows,
		Subtotal: pricing.Subtotal(rows).Round(2),
		Tax:      deps.Tax,
		Shipping: deps.Shipping,
		Total:    pricing.Total(rows, deps.Tax, deps.Shipping).Round(2),
		Error:    errMsg,
	}
}

func getCartHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := deps.CartSvc.Fetch(c.Request.Context(), deviceID(c))
		errMsg := ""
		if err != nil {
			// Degrade to an empty cart with the failure surfaced.
			errMsg = err.Error()
		}
		c.JSON(http.StatusOK, newCartResponse(rows, deps, errMsg))
	}
}

type addItemRequest struct {
	ProductID     string            `json:"productId" binding:"required"`
	Quantity      int               `json:"quantity"`
	SelectedSize  string            `json:"selectedSize"`
	SelectedAttrs map[string]string `json:"selectedAttributes"`
}

func addCartItemHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		id := deviceID(c)
		in := backend.AddItemInput{
			ProductID:     req.ProductID,
			Quantity:      req.Quantity,
			SelectedSize:  req.SelectedSize,
			SelectedAttrs: req.SelectedAttrs,
		}
		if err := deps.CartSvc.Add(c.Request.Context(), id, in); err != nil {
			respondError(c, err)
			return
		}
		rows, err := deps.CartSvc.Fetch(c.Request.Context(), id)
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		c.JSON(http.StatusCreated, newCartResponse(rows, deps, errMsg))
	}
}

type adjustQuantityRequest struct {
	Delta int `json:"delta"`
}

func adjustQuantityHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adjustQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Delta == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delta must be a non-zero integer"})
			return
		}
		id := deviceID(c)
		if _, err := deps.CartSvc.AdjustQuantity(id, c.Param("rowId"), req.Delta); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newCartResponse(deps.CartSvc.Rows(id), deps, ""))
	}
}

func removeCartItemHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := deviceID(c)
		err := deps.CartSvc.Remove(c.Request.Context(), id, c.Param("rowId"))
		if err != nil && errors.Is(err, domain.ErrNotFound) {
			respondError(c, err)
			return
		}
		if err != nil {
			// The row is already gone locally; the failed server deletion is
			// reported as an upstream failure, not reversed.
			c.JSON(http.StatusBadGateway, newCartResponse(deps.CartSvc.Rows(id), deps, err.Error()))
			return
		}
		c.JSON(http.StatusOK, newCartResponse(deps.CartSvc.Rows(id), deps, ""))
	}
}
