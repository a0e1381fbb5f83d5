package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "teams",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "The latency of the HTTP requests.",
	Buckets:   prometheus.DefBuckets,
}, []string{"api", "method", "route", "code"})

func NewMetricHandler(api string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := strings.Clone(c.Method())
		chainErr := c.Next()

		httpRequestsDuration.With(prometheus.Labels{
			"api":    api,
			"method": method,
			"route":  c.Route().Path,
			"code":   strconv.Itoa(c.Response().StatusCode()),
		}).Observe(time.Since(start).Seconds())

		return chainErr
	}
}

func GetMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
}
