package facade

import (
	"context"
	"net/http"
	"time"

	"agribasket/internal/api"
	"agribasket/internal/cart"
	"agribasket/internal/checkout"
	"agribasket/internal/metrics"
	"agribasket/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps is everything the facade serves.
type Deps struct {
	Cart      *cart.Store
	Staging   *checkout.Staging
	Bridge    *session.Bridge
	Backend   *api.Client
	SyncStats *metrics.SyncStats
}

// Server is the local REST surface a rendering layer talks to. Local cart
// mutations always answer 2xx (they cannot fail); only auth endpoints
// surface errors.
type Server struct {
	httpServer *http.Server
	deps       Deps
	limiter    *visitorLimiter
}

func New(addr string, deps Deps, allowedOrigins []string) *Server {
	s := &Server{
		deps:    deps,
		limiter: newVisitorLimiter(),
	}

	router := s.buildRouter(allowedOrigins)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) buildRouter(allowedOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), loggingMiddleware(), s.rateLimitMiddleware())

	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders: []string{"Content-Type", "X-Request-ID"},
		}))
	}

	router.GET("/healthz", s.health)
	router.GET("/metricsz", s.metricsz)

	router.GET("/cart", s.cartItems)
	router.POST("/cart/items", s.cartAdd)
	router.PUT("/cart/items/quantity", s.cartSetQuantity)
	router.DELETE("/cart/items", s.cartRemove)
	router.POST("/cart/clear", s.cartClear)
	router.GET("/cart/summary", s.cartSummary)
	router.GET("/cart/remote", s.cartRemote)
	router.GET("/cart/events", s.cartEvents)

	router.POST("/checkout", s.checkoutBegin)
	router.GET("/checkout", s.checkoutGet)
	router.DELETE("/checkout", s.checkoutClear)

	router.POST("/auth/login", s.authLogin)
	router.POST("/auth/logout", s.authLogout)
	router.GET("/auth/me", s.authMe)

	return router
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
