package desk

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pahana-billing/internal/billing"
	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
)

// Server exposes a Registry over HTTP.
type Server struct {
	httpServer *http.Server
}

func NewServer(addr string, logger *zap.Logger, reg *Registry, corsOrigins []string) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              addr,
		Handler:           buildRouter(logger, reg, corsOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type handlers struct {
	reg    *Registry
	logger *zap.Logger
}

type customerRequest struct {
	AccountNumber string `json:"accountNumber"`
}

type candidateRequest struct {
	ItemID   int64 `json:"itemId" binding:"required"`
	Quantity *int  `json:"quantity"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type checkoutRequest struct {
	Confirm bool `json:"confirm"`
}

type sessionResponse struct {
	ID       string           `json:"id"`
	Snapshot billing.Snapshot `json:"snapshot"`
}

type checkoutResponse struct {
	Snapshot billing.Snapshot `json:"snapshot"`
	Outcome  billing.Outcome  `json:"outcome"`
}

func buildRouter(logger *zap.Logger, reg *Registry, corsOrigins []string) *gin.Engine {
	logger = logging.OrNop(logger)
	router := gin.New()
	router.Use(logging.Middleware(logger), gin.Recovery())
	if len(corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  corsOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
			ExposeHeaders: []string{"X-Request-ID", "Content-Disposition"},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": reg.Len()})
	})

	h := &handlers{reg: reg, logger: logger}
	s := router.Group("/sessions")
	s.POST("", h.create)
	s.GET("/:id", h.get)
	s.DELETE("/:id", h.remove)
	s.PUT("/:id/customer", h.setCustomer)
	s.GET("/:id/items", h.search)
	s.POST("/:id/candidate", h.selectItem)
	s.PUT("/:id/candidate/quantity", h.setQuantity)
	s.POST("/:id/lines", h.addLine)
	s.POST("/:id/lines/:index/edit", h.editLine)
	s.DELETE("/:id/lines/:index", h.removeLine)
	s.POST("/:id/checkout", h.checkout)
	s.GET("/:id/receipt", h.receipt)
	return router
}

func (h *handlers) create(c *gin.Context) {
	id, snap, err := h.reg.Create(c.Request.Context())
	if err != nil {
		h.logger.Error("open session", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not load catalog"})
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{ID: id, Snapshot: snap})
}

func (h *handlers) get(c *gin.Context) {
	snap, err := h.reg.Snapshot(c.Param("id"))
	h.respond(c, snap, err)
}

func (h *handlers) remove(c *gin.Context) {
	if err := h.reg.Delete(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) setCustomer(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	snap, err := h.reg.SetCustomer(c.Param("id"), req.AccountNumber)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, snap)
}

func (h *handlers) search(c *gin.Context) {
	items, err := h.reg.Search(c.Request.Context(), c.Param("id"), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if items == nil {
		items = []domain.Item{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *handlers) selectItem(c *gin.Context) {
	var req candidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId required"})
		return
	}
	snap, err := h.reg.Select(c.Param("id"), req.ItemID, req.Quantity)
	h.respond(c, snap, err)
}

func (h *handlers) setQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity required"})
		return
	}
	snap, err := h.reg.SetQuantity(c.Param("id"), *req.Quantity)
	h.respond(c, snap, err)
}

func (h *handlers) addLine(c *gin.Context) {
	snap, err := h.reg.AddOrUpdate(c.Param("id"))
	h.respond(c, snap, err)
}

func (h *handlers) editLine(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}
	snap, err := h.reg.EditLine(c.Param("id"), index)
	h.respond(c, snap, err)
}

func (h *handlers) removeLine(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}
	snap, err := h.reg.RemoveLine(c.Param("id"), index)
	h.respond(c, snap, err)
}

func (h *handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	snap, out, err := h.reg.Checkout(c.Request.Context(), c.Param("id"), req.Confirm)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutResponse{Snapshot: snap, Outcome: out})
}

func (h *handlers) receipt(c *gin.Context) {
	path, err := h.reg.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *handlers) respond(c *gin.Context, snap billing.Snapshot, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnknownSession):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.logger.Error("desk request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func lineIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return 0, false
	}
	return index, true
}
