package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-checkout/internal/domain"
)

// respondError maps domain errors onto HTTP statuses. Backend-side failures
// surface as 502: the checkout service itself is healthy, its upstream is not.
func respondError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "missing": vErr.Missing})
		return
	}
	if errors.Is(err, domain.ErrEmptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrEmptyCart.Error(), "code": "empty_cart"})
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if errors.Is(err, domain.ErrIdentityUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "device identity unavailable"})
		return
	}

	var (
		trErr    *domain.TransportError
		srvErr   *domain.ServerError
		parseErr *domain.ParseError
	)
	if errors.Is(err, domain.ErrAuth) || errors.As(err, &trErr) || errors.As(err, &srvErr) || errors.As(err, &parseErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
