package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/domain"
)

// IdentityService resolves the device identity for a request.
type IdentityService interface {
	EnsureDeviceID(ctx context.Context, existing string) (string, error)
}

// CartService is the cart repository client plus mutation engine.
type CartService interface {
	Fetch(ctx context.Context, deviceID string) ([]domain.CartRow, error)
	Rows(deviceID string) []domain.CartRow
	AdjustQuantity(deviceID, rowID string, delta int) (domain.CartRow, error)
	Remove(ctx context.Context, deviceID, rowID string) error
	Add(ctx context.Context, deviceID string, in backend.AddItemInput) error
	Reset(deviceID string)
}

// OrderService runs the checkout flow.
type OrderService interface {
	Checkout(ctx context.Context, deviceID string, rows []domain.CartRow, delivery domain.DeliveryInfo, notes string) (string, domain.OrderDraft, error)
}

// Deps carries the services and fixed amounts the routes need.
type Deps struct {
	IdentitySvc IdentityService
	CartSvc     CartService
	OrderSvc    OrderService

	Tax         decimal.Decimal
	Shipping    decimal.Decimal
	CORSOrigins []string
}

// buildRouter wires routes for the checkout API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Content-Type", headerDeviceID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	api.Use(deviceIdentityMiddleware(deps.IdentitySvc, logger))
	{
		api.GET("/cart", getCartHandler(deps))
		api.POST("/cart/items", addCartItemHandler(deps))
		api.PATCH("/cart/items/:rowId/quantity", adjustQuantityHandler(deps))
		api.DELETE("/cart/items/:rowId", removeCartItemHandler(deps))
		api.POST("/checkout", checkoutHandler(deps))
	}

	return router
}
