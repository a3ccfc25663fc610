// Package httpapi exposes the workflow and product catalog over HTTP.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lprior-repo/orderflow/internal/engine"
	"github.com/lprior-repo/orderflow/internal/order"
	"github.com/lprior-repo/orderflow/internal/store"
)

type Handler struct {
	engine   *engine.Engine
	store    engine.ExecutionStore
	products store.ProductStore
	log      *slog.Logger
}

func NewHandler(eng *engine.Engine, execStore engine.ExecutionStore, products store.ProductStore, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{engine: eng, store: execStore, products: products, log: log}
}

// Register mounts all routes on the gin engine. The auth middleware is
// applied to every route when a token is configured.
func (h *Handler) Register(g *gin.Engine, authToken string) {
	api := g.Group("/")
	if authToken != "" {
		api.Use(BearerAuth(authToken))
	}

	api.POST("/orders", h.startOrder)
	api.GET("/orders/:id", h.getExecution)
	api.POST("/orders/:id/redrive", h.redrive)

	api.PUT("/products/:id", h.putProduct)
	api.GET("/products/:id", h.getProduct)
	api.DELETE("/products/:id", h.deleteProduct)
	api.GET("/products", h.listProducts)
}

// startOrder submits an order and blocks until the workflow reaches a
// terminal state. Negative business outcomes are still 200s: the workflow
// completed, the order did not.
func (h *Handler) startOrder(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request body"})
		return
	}

	in, err := order.DecodeInput(raw)
	if err != nil {
		h.log.WarnContext(c.Request.Context(), "rejecting undecodable order input", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	exec := h.engine.Start(c.Request.Context(), in)
	c.JSON(http.StatusOK, gin.H{
		"executionId": exec.ID,
		"result":      exec.Result(),
	})
}

func (h *Handler) getExecution(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"message": "execution persistence is not configured"})
		return
	}
	exec, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "execution not found"})
			return
		}
		h.log.ErrorContext(c.Request.Context(), "loading execution failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error loading execution"})
		return
	}
	c.JSON(http.StatusOK, exec)
}

func (h *Handler) redrive(c *gin.Context) {
	exec, err := h.engine.Redrive(c.Request.Context(), c.Param("id"))
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "execution not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"executionId": exec.ID,
		"result":      exec.Result(),
	})
}

type productRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"gte=0"`
}

func (h *Handler) putProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed product body"})
		return
	}

	p := store.Product{ID: c.Param("id"), Name: req.Name, Price: req.Price}
	if err := h.products.Put(c.Request.Context(), p); err != nil {
		h.log.ErrorContext(c.Request.Context(), "storing product failed", "product_id", p.ID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error storing product"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
			return
		}
		h.log.ErrorContext(c.Request.Context(), "loading product failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error loading product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.log.ErrorContext(c.Request.Context(), "deleting product failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error deleting product"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.Scan(c.Request.Context())
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "listing products failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error listing products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}
