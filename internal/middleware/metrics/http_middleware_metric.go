package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/homeauto/mercedesme-api/internal/appmetrics"
)

// HTTPMetricsPrometheusMiddleware records per-route request counts and
// response time distributions.
func HTTPMetricsPrometheusMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	method := c.Route().Method

	err := c.Next()
	status := fiber.StatusInternalServerError
	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
	} else {
		status = c.Response().StatusCode()
	}

	path := c.Route().Path
	statusCode := strconv.Itoa(status)

	appmetrics.HTTPRequestCount.WithLabelValues(method, path, statusCode).Inc()
	appmetrics.HTTPResponseTime.With(prometheus.Labels{
		"method": method,
		"path":   path,
		"status": statusCode,
	}).Observe(time.Since(start).Seconds())

	return err
}
