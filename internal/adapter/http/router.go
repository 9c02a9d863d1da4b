package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Galleee2002/fueradecontexto-api/internal/adapter/http/middleware"
	"github.com/Galleee2002/fueradecontexto-api/internal/logging"
)

func NewRouter(ch *CheckoutHandler, oh *OrderHandler, wh *WebhookHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	// The gateway cannot present a JWT; the webhook authenticates (at most)
	// by HMAC signature and is hardened by the confirmation round-trip.
	r.POST("/v1/payments/webhook", wh.Receive)
	r.GET("/v1/payments/webhook", wh.Health)

	v1 := r.Group("/v1")
	{
		v1.POST("/checkout", authz.Require("checkout.write"), ch.Checkout)
		v1.GET("/orders", authz.Require("orders.read"), oh.ListMyOrders)
		v1.GET("/orders/:id", authz.Require("orders.read"), oh.GetOrderByID)
		v1.PATCH("/orders/:id/status", authz.Require("orders.admin"), oh.UpdateStatus)
	}

	return r
}
