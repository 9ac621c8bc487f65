package facade

import (
	"net/http"
	"sync"
	"time"

	"agribasket/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// generous: the only client is a local rendering layer
const (
	limitPerVisitor = rate.Limit(50)
	burstPerVisitor = 100
	visitorTTL      = 3 * time.Minute
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		ctx := logger.WithRequestID(c.Request.Context(), reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", reqID)

		c.Next()
	}
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := logger.FromCtx(c.Request.Context())

		c.Next()

		log.Info("incoming request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("duration_ms", time.Since(start)),
		)
	}
}

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type visitorLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
}

func newVisitorLimiter() *visitorLimiter {
	return &visitorLimiter{visitors: make(map[string]*visitor)}
}

func (vl *visitorLimiter) get(key string) *rate.Limiter {
	vl.mu.Lock()
	defer vl.mu.Unlock()

	now := time.Now()
	for k, v := range vl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(vl.visitors, k)
		}
	}

	v, exists := vl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(limitPerVisitor, burstPerVisitor)}
		vl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": http.StatusText(http.StatusTooManyRequests),
			})
			return
		}
		c.Next()
	}
}
