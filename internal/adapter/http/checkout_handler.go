package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Galleee2002/fueradecontexto-api/internal/adapter/http/middleware"
	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

// The saga includes a gateway round-trip with its own 5s timeout, so the
// request budget is wider than a plain DB handler's.
const checkoutTimeout = 15 * time.Second

type CheckoutHandler struct {
	checkout *usecase.Checkout
}

func NewCheckoutHandler(checkout *usecase.Checkout) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type checkoutItemReq struct {
	ProductID     string `json:"productId" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
	SelectedSize  string `json:"selectedSize"`
	SelectedColor string `json:"selectedColor"`
}

type checkoutReq struct {
	ShippingAddress entity.Address  `json:"shippingAddress" binding:"required"`
	BillingAddress  *entity.Address `json:"billingAddress"`

	ShippingMethod struct {
		Method    string `json:"method" binding:"required"`
		CostCents int64  `json:"costCents"`
	} `json:"shippingMethod" binding:"required"`

	Items []checkoutItemReq `json:"items" binding:"required,min=1,dive"`
}

type checkoutResp struct {
	Order struct {
		ID          string `json:"id"`
		OrderNumber string `json:"orderNumber"`
		TotalCents  int64  `json:"totalCents"`
	} `json:"order"`
	CheckoutURL string `json:"checkoutUrl"`
}

func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "details": err.Error()})
		return
	}

	items := make([]usecase.CheckoutItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.CheckoutItemInput{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			SelectedSize:  it.SelectedSize,
			SelectedColor: it.SelectedColor,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), checkoutTimeout)
	defer cancel()

	out, err := h.checkout.Execute(ctx, usecase.CheckoutInput{
		UserID:            middleware.UserID(c),
		PayerEmail:        middleware.Email(c),
		ShippingAddress:   req.ShippingAddress,
		BillingAddress:    req.BillingAddress,
		ShippingMethod:    req.ShippingMethod.Method,
		ShippingCostCents: req.ShippingMethod.CostCents,
		Items:             items,
	})
	if err != nil {
		writeCheckoutError(c, err)
		return
	}

	var resp checkoutResp
	resp.Order.ID = out.OrderID
	resp.Order.OrderNumber = out.OrderNumber
	resp.Order.TotalCents = out.TotalCents
	resp.CheckoutURL = out.CheckoutURL
	c.JSON(http.StatusCreated, resp)
}

func writeCheckoutError(c *gin.Context, err error) {
	var (
		vErr *usecase.ValidationError
		sErr *usecase.StockError
		gErr *usecase.GatewayError
	)
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cart", "details": vErr.Msg})
	case errors.As(err, &sErr):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient_stock", "details": sErr.Shortfalls})
	case errors.As(err, &gErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment_gateway_unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout_failed"})
	}
}
