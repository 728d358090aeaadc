package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketday/backend/internal/infrastructure/logger"
	"github.com/marketday/backend/internal/interfaces/http/handler"
	"github.com/marketday/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles the route handlers the router wires up
type Handlers struct {
	Basket       *handler.BasketHandler
	BasketStream *handler.BasketStreamHandler
	Order        *handler.OrderHandler
}

// New builds the gin engine with all middleware and routes. The ping
// function, when non-nil, backs the health endpoint's store check.
func New(h Handlers, log *zap.Logger, mode string, maxBodySize int64, ping func() error) *gin.Engine {
	gin.SetMode(mode)

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(),
		middleware.BodyLimit(maxBodySize),
	)

	engine.GET("/health", func(c *gin.Context) {
		if ping != nil {
			if err := ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "error"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
	})

	v1 := engine.Group("/api/v1")
	{
		basket := v1.Group("/basket")
		{
			basket.GET("", h.Basket.Get)
			basket.DELETE("", h.Basket.Discard)
			basket.POST("/items", h.Basket.AddItem)
			basket.PUT("/items/:productId/quantity", h.Basket.SetQuantity)
			basket.DELETE("/items/:productId", h.Basket.RemoveItem)
			basket.GET("/changes", h.Basket.Changes)
			basket.GET("/stream", h.BasketStream.Stream)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("/load-open", h.Order.LoadOpen)
			orders.POST("/commit", h.Order.Commit)
			orders.POST("/cancel", h.Order.Cancel)
		}

		v1.GET("/schedule", h.Order.Schedule)
	}

	return engine
}
