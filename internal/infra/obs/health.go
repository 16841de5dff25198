package obs

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const probeTimeout = 2 * time.Second

// Check probes one dependency, such as the Mongo primary or the Scylla cluster.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandlers serves /livez and /readyz. Readiness fails while any check fails.
type HealthHandlers struct {
	Checks []Check
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	status := http.StatusOK
	results := make(gin.H, len(h.Checks))
	for _, check := range h.Checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		err := check.Probe(ctx)
		cancel()
		if err != nil {
			status = http.StatusServiceUnavailable
			results[check.Name] = err.Error()
			continue
		}
		results[check.Name] = "ok"
	}
	if status != http.StatusOK {
		c.JSON(status, gin.H{"status": "not ready", "checks": results})
		return
	}
	c.JSON(status, gin.H{"status": "ready", "checks": results})
}
