package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Galleee2002/fueradecontexto-api/internal/adapter/http/middleware"
	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/logging"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

type OrderHandler struct {
	orders usecase.OrderStore
	cache  usecase.OrderCache
}

func NewOrderHandler(orders usecase.OrderStore, cache usecase.OrderCache) *OrderHandler {
	return &OrderHandler{orders: orders, cache: cache}
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	order, err := h.lookup(ctx, id)
	if errors.Is(err, usecase.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}

	// Owners see their own orders; admins see all.
	if order.UserID != middleware.UserID(c) && !middleware.HasPerm(c, "orders.admin") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) lookup(ctx context.Context, id string) (*entity.Order, error) {
	if order, hit, err := h.cache.Get(ctx, id); err == nil && hit {
		return order, nil
	}
	order, err := h.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := h.cache.Set(ctx, order); err != nil {
		logging.FromCtx(ctx).Warn("order cache set failed", "order_id", id, "err", err)
	}
	return order, nil
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.orders.ListByUser(ctx, middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus is the admin fulfillment transition. The lifecycle only moves
// one step forward; anything else is a 400.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	target := entity.OrderStatus(req.Status)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.orders.GetByID(ctx, id)
	if errors.Is(err, usecase.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}

	if !order.Status.CanTransitionTo(target) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_transition",
			"details": gin.H{"from": order.Status, "to": target},
		})
		return
	}

	ok, err := h.orders.UpdateStatus(ctx, id, order.Status, target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}
	if !ok {
		// Lost a race with another transition.
		c.JSON(http.StatusConflict, gin.H{"error": "status_changed_concurrently"})
		return
	}

	if err := h.cache.Invalidate(ctx, id); err != nil {
		logging.From(c).Warn("order cache invalidate failed", "order_id", id, "err", err)
	}

	updated, err := h.orders.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
