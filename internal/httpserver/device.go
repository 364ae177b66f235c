package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	headerDeviceID = "X-Device-ID"
	deviceCookie   = "device_id"
	deviceCtxKey   = "deviceID"

	deviceCookieMaxAge = 365 * 24 * 60 * 60
)

// deviceIdentityMiddleware resolves the device identity for every /api route.
// An identity presented by the client (cookie or header) is kept as-is; a
// fresh one is issued and set as a cookie otherwise. Requests without a
// resolvable identity are rejected, since every cart is partitioned by it.
func deviceIdentityMiddleware(svc IdentityService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		existing, _ := c.Cookie(deviceCookie)
		if existing == "" {
			existing = c.GetHeader(headerDeviceID)
		}

		id, err := svc.EnsureDeviceID(c.Request.Context(), existing)
		if err != nil || id == "" {
			if err != nil {
				logger.Printf("ensure device identity: %v", err)
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "device identity unavailable"})
			return
		}
		if id != existing {
			c.SetCookie(deviceCookie, id, deviceCookieMaxAge, "/", "", false, true)
		}
		c.Set(deviceCtxKey, id)
		c.Next()
	}
}

func deviceID(c *gin.Context) string {
	return c.GetString(deviceCtxKey)
}
