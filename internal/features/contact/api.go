package contact

import (
	"go-confops/internal/common/api"
	"go-confops/internal/config"
	"go-confops/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ContactApi struct {
	controller *ContactController
	config     *config.Config
}

func NewContactApi(controller *ContactController, config *config.Config) api.Route {
	return &ContactApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all contact routes
func (h *ContactApi) Setup(app *fiber.App) {
	contacts := app.Group("/api/contacts", middleware.AuthMiddleware(h.config.SkipAuth))

	contacts.Get("/", h.controller.ListContacts)
	contacts.Get("/stats", h.controller.ContactStats)
	contacts.Get("/export", h.controller.ExportContacts)
	contacts.Get("/:notion_id", h.controller.GetContact)
}
