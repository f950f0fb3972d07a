package cron_feature

import (
	"go-confops/internal/common/api"
	"go-confops/internal/config"
	"go-confops/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CronApi struct {
	cronController *CronController
	config         *config.Config
}

func NewCronApi(
	cronController *CronController,
	config *config.Config,
) api.Route {
	return &CronApi{
		cronController: cronController,
		config:         config,
	}
}

func (h *CronApi) Setup(app *fiber.App) {
	schedules := app.Group("/api/sync/schedules", middleware.AuthMiddleware(h.config.SkipAuth))

	schedules.Get("/", h.cronController.ListSchedules)
	schedules.Post("/:name/run", middleware.RequireRole(h.config.SkipAuth, middleware.RoleAdmin, middleware.RoleSyncOperator), h.cronController.ExecuteSchedule)
}
