package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promMu      sync.Mutex
	promByName  = map[string]*fiberprometheus.FiberPrometheus{}
	skippedPath = []string{"/metrics", "/health/live", "/health/ready"}
)

// InitMetrics returns the HTTP request collector for serviceName. Collectors
// live in the default registry, so repeated calls share one instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promMu.Lock()
	defer promMu.Unlock()

	if prom, ok := promByName[serviceName]; ok {
		return prom
	}
	prom := fiberprometheus.New(serviceName)
	prom.SetSkipPaths(skippedPath)
	promByName[serviceName] = prom
	return prom
}

// MetricsMiddleware records request counts and latencies.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
