package cron_feature

import (
	"errors"

	sync_feature "go-confops/internal/features/sync"

	"github.com/gofiber/fiber/v2"
)

type CronController struct {
	Service CronService
}

func NewCronController(service CronService) *CronController {
	return &CronController{
		Service: service,
	}
}

// ListSchedules godoc
// @Summary List sync schedules
// @Description Registered sync jobs with their next and previous run times
// @Tags cron
// @Produce json
// @Success 200 {array} ScheduledJob
// @Router /api/sync/schedules [get]
func (c *CronController) ListSchedules(ctx *fiber.Ctx) error {
	return ctx.JSON(c.Service.ListJobs())
}

// ExecuteSchedule godoc
// @Summary Execute a scheduled sync now
// @Tags cron
// @Produce json
// @Param name path string true "Job name"
// @Success 200 {object} sync_feature.Result
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/sync/schedules/{name}/run [post]
func (c *CronController) ExecuteSchedule(ctx *fiber.Ctx) error {
	result, err := c.Service.ExecuteJob(ctx.UserContext(), ctx.Params("name"))
	switch {
	case errors.Is(err, ErrJobNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, sync_feature.ErrSyncInProgress):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, sync_feature.ErrSourceUnavailable):
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(result)
}
