package system

import (
	"go-confops/internal/common/api"
	"go-confops/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

type SwaggerApi struct {
	config *config.Config
}

func NewSwaggerApi(cfg *config.Config) api.Route {
	return &SwaggerApi{config: cfg}
}

// Setup serves the API docs UI outside production.
func (h *SwaggerApi) Setup(app *fiber.App) {
	if h.config.IsProduction() {
		return
	}
	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:          "doc.json",
		Title:        "ConfOps Contact Sync API",
		DeepLinking:  true,
		DocExpansion: "list",
	}))
}
