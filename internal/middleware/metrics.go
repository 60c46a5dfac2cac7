package middleware

import (
	"time"

	"inventory/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records request count and latency per route template, so
// /products/1 and /products/2 share one series.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Label values outlive the request buffers they point into.
		endpoint := c.Route().Path
		if endpoint == "" {
			endpoint = c.Path()
		}
		metrics.ObserveHTTPRequest(
			utils.CopyString(c.Method()),
			utils.CopyString(endpoint),
			responseStatus(c, err),
			time.Since(start),
		)
		return err
	}
}

// PrometheusHandler serves the default registry.
func PrometheusHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
