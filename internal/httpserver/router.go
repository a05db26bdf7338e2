package httpserver

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"vereau-cart/internal/checkout"
	"vereau-cart/internal/domain"
)

// CartStore is the cart surface the handlers need.
type CartStore interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	AddProduct(ctx context.Context, ownerID, productID, sizeID string, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, ownerID string, index, quantity int) (*domain.Cart, error)
	Remove(ctx context.Context, ownerID string, index int) (*domain.Cart, error)
}

// CheckoutService commits a paid cart.
type CheckoutService interface {
	Submit(ctx context.Context, userID, transactionID string) (*checkout.Result, error)
}

// OrderReader serves the user's purchase history.
type OrderReader interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

// Deps carries the collaborators the routes are wired against.
type Deps struct {
	Cart     CartStore
	Checkout CheckoutService
	Orders   OrderReader
}

// Options carries route-level configuration.
type Options struct {
	JWTSecret   string
	CORSOrigins []string
}

// buildRouter wires routes for the storefront API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	api.Use(authMiddleware(opts.JWTSecret))
	{
		api.GET("/cart", getCartHandler(deps.Cart))
		api.POST("/cart/items", addItemHandler(deps.Cart))
		api.PATCH("/cart/items/:index", updateItemHandler(deps.Cart))
		api.DELETE("/cart/items/:index", removeItemHandler(deps.Cart))
		api.POST("/checkout", checkoutHandler(deps.Checkout, logger))
		api.GET("/orders", listOrdersHandler(deps.Orders))
	}

	return router
}
