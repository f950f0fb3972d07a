package system

import (
	"go-confops/internal/common/api"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthApi struct {
	controller *HealthController
	gatherer   prometheus.Gatherer
}

func NewHealthApi(controller *HealthController, gatherer prometheus.Gatherer) api.Route {
	return &HealthApi{
		controller: controller,
		gatherer:   gatherer,
	}
}

func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", h.controller.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}
