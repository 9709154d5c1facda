package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mind-engage/mindengage-academy/internal/platform/logger"
)

// Check is one dependency the readiness endpoint pings. A failing optional
// check is reported but leaves the service ready.
type Check struct {
	Name     string
	Ping     func(ctx context.Context) error
	Required bool
}

// GET /readyz
func ReadyHandler(log *logger.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				log.Warn("readiness check failed", "check", c.Name, "required", c.Required, "error", err)
				results[c.Name] = "unavailable"
				if c.Required {
					status = http.StatusServiceUnavailable
				}
				continue
			}
			results[c.Name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "unavailable"
		}
		writeJSON(w, status, map[string]any{"status": state, "checks": results})
	}
}
