package system

import (
	"go-confops/internal/common/api"
	"go-confops/internal/config"
	"go-confops/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DebugApi struct {
	controller *DebugController
	skipAuth   bool
}

func NewDebugApi(controller *DebugController, cfg *config.Config) api.Route {
	return &DebugApi{controller: controller, skipAuth: cfg.SkipAuth}
}

func (h *DebugApi) Setup(app *fiber.App) {
	app.Get("/api/debug/me", middleware.AuthMiddleware(h.skipAuth), h.controller.GetCurrentUser)
}
