package facade

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// cartEvents streams one SSE event per committed cart mutation so the
// rendering layer can re-render without polling. The payload is a summary;
// consumers re-fetch /cart when they need the lines.
func (s *Server) cartEvents(c *gin.Context) {
	changes := make(chan struct{}, 8)
	unsubscribe := s.deps.Cart.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
			// consumer is behind, it will catch up on the next event
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-changes:
			c.SSEvent("cart", gin.H{
				"count": s.deps.Cart.Count(),
				"total": s.deps.Cart.Total(),
			})
			return true
		}
	})
}
