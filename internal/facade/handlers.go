package facade

import (
	"errors"
	"net/http"

	"agribasket/internal/api"
	"agribasket/internal/cart"
	"agribasket/internal/checkout"

	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) metricsz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cart_sync": s.deps.SyncStats.Snapshot()})
}

// ----------------- Cart -----------------

type lineKeyRequest struct {
	ID        int64  `json:"id" binding:"required"`
	Weight    string `json:"weight"`
	VariantID *int64 `json:"variant_id"`
}

type setQuantityRequest struct {
	ID        int64  `json:"id" binding:"required"`
	Weight    string `json:"weight"`
	Quantity  int    `json:"quantity"`
	VariantID *int64 `json:"variant_id"`
}

func (s *Server) cartItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.itemsOrEmpty()})
}

func (s *Server) cartAdd(c *gin.Context) {
	var line cart.Line
	if err := c.ShouldBindJSON(&line); err != nil || line.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart line"})
		return
	}

	s.deps.Cart.Add(line)
	c.JSON(http.StatusCreated, gin.H{"items": s.itemsOrEmpty()})
}

func (s *Server) cartSetQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity update"})
		return
	}

	s.deps.Cart.SetQuantity(req.ID, req.Weight, req.Quantity, req.VariantID)
	c.JSON(http.StatusOK, gin.H{"items": s.itemsOrEmpty()})
}

func (s *Server) cartRemove(c *gin.Context) {
	var req lineKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid remove request"})
		return
	}

	s.deps.Cart.Remove(req.ID, req.Weight, req.VariantID)
	c.JSON(http.StatusOK, gin.H{"items": s.itemsOrEmpty()})
}

func (s *Server) cartClear(c *gin.Context) {
	s.deps.Cart.Clear()
	c.JSON(http.StatusOK, gin.H{"items": []cart.Line{}})
}

func (s *Server) cartSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count": s.deps.Cart.Count(),
		"total": s.deps.Cart.Total(),
	})
}

func (s *Server) cartRemote(c *gin.Context) {
	lines, err := s.deps.Backend.Lines(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend cart unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

func (s *Server) itemsOrEmpty() []cart.Line {
	items := s.deps.Cart.Items()
	if items == nil {
		items = []cart.Line{}
	}
	return items
}

// ----------------- Checkout -----------------

type beginCheckoutRequest struct {
	Lines []checkout.Line `json:"lines"`
}

func (s *Server) checkoutBegin(c *gin.Context) {
	var req beginCheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout lines"})
			return
		}
	}

	token := s.deps.Staging.Begin(req.Lines)
	c.JSON(http.StatusCreated, gin.H{
		"order_token": token,
		"lines":       s.stagedOrEmpty(),
	})
}

func (s *Server) checkoutGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"order_token": s.deps.Staging.Token(),
		"lines":       s.stagedOrEmpty(),
	})
}

func (s *Server) checkoutClear(c *gin.Context) {
	s.deps.Staging.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) stagedOrEmpty() []checkout.Line {
	lines := s.deps.Staging.Lines()
	if lines == nil {
		lines = []checkout.Line{}
	}
	return lines
}

// ----------------- Auth -----------------

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

func (s *Server) authLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	u, err := s.deps.Bridge.Login(c.Request.Context(), req.Email, req.Password, req.Remember)
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication backend unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (s *Server) authLogout(c *gin.Context) {
	s.deps.Bridge.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (s *Server) authMe(c *gin.Context) {
	u := s.deps.Bridge.CurrentUser()
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
