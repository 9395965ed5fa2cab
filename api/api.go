// Package api is the sweeper's operational HTTP surface: liveness and
// metrics only. There is no user-facing API.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openkick/ridesweeper/internal/middleware"
	"github.com/openkick/ridesweeper/internal/o11y"
)

type API struct {
	r *gin.Engine
}

func New(obs *o11y.Observability, metricsUsername, metricsPassword string) *API {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logging(obs.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	metrics := r.Group("/")
	if metricsUsername != "" {
		metrics.Use(gin.BasicAuth(gin.Accounts{metricsUsername: metricsPassword}))
	}
	metrics.GET("/metrics", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})))

	return &API{r: r}
}

func (a *API) Router() *gin.Engine {
	return a.r
}
