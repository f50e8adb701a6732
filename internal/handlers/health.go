package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Reporter exposes runtime counters. Reports are informational and never
// change the health status.
type Reporter interface {
	Report() map[string]interface{}
}

// HealthCheck reports "ok" when every dependency answers, and 503 with the
// failing dependency otherwise.
func HealthCheck(deps map[string]Pinger, reporters map[string]Reporter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status := fiber.StatusOK
		services := fiber.Map{}
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				services[name] = "unavailable"
				status = fiber.StatusServiceUnavailable
				continue
			}
			services[name] = "connected"
		}

		overall := "ok"
		if status != fiber.StatusOK {
			overall = "degraded"
		}
		body := fiber.Map{
			"status":   overall,
			"services": services,
		}
		if len(reporters) > 0 {
			details := fiber.Map{}
			for name, r := range reporters {
				details[name] = r.Report()
			}
			body["details"] = details
		}
		return c.Status(status).JSON(body)
	}
}
