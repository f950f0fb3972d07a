package system

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is satisfied by *database.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store   Pinger
	backend string
	started time.Time
}

func NewHealthController(store Pinger, backend string) *HealthController {
	return &HealthController{store: store, backend: backend, started: time.Now()}
}

// Health godoc
// @Summary      Liveness and store connectivity
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (h *HealthController) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := fiber.Map{
		"status":  "ok",
		"backend": h.backend,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	}
	if err := h.store.Ping(ctx); err != nil {
		resp["status"] = "degraded"
		resp["error"] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
