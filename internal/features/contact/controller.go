package contact

import (
	"bytes"
	"errors"
	"time"

	"go-confops/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type ContactController struct {
	Service ContactService
}

func NewContactController(service ContactService) *ContactController {
	return &ContactController{
		Service: service,
	}
}

func filterFromQuery(c *fiber.Ctx) ContactFilter {
	return ContactFilter{
		Status: SyncStatus(c.Query("status")),
		Sport:  c.Query("sport"),
		Search: c.Query("q"),
		Limit:  int64(c.QueryInt("limit", 100)),
		Offset: int64(c.QueryInt("offset", 0)),
	}
}

// ListContacts godoc
// @Summary List synced contacts
// @Tags contacts
// @Produce json
// @Param status query string false "synced or deleted"
// @Param sport query string false "sport name"
// @Param q query string false "name or email search"
// @Success 200 {object} map[string]interface{}
// @Router /api/contacts [get]
func (ctrl *ContactController) ListContacts(c *fiber.Ctx) error {
	contacts, err := ctrl.Service.List(c.UserContext(), filterFromQuery(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": contacts,
	})
}

// GetContact godoc
// @Summary Get one contact by Notion page id
// @Tags contacts
// @Produce json
// @Param notion_id path string true "Notion page id"
// @Success 200 {object} Contact
// @Router /api/contacts/{notion_id} [get]
func (ctrl *ContactController) GetContact(c *fiber.Ctx) error {
	contact, err := ctrl.Service.Get(c.UserContext(), c.Params("notion_id"))
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(contact)
}

// ContactStats godoc
// @Summary Count contacts by sync status
// @Tags contacts
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/contacts/stats [get]
func (ctrl *ContactController) ContactStats(c *fiber.Ctx) error {
	stats, err := ctrl.Service.Stats(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": stats,
	})
}

// ExportContacts godoc
// @Summary Export contacts as xlsx
// @Tags contacts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /api/contacts/export [get]
func (ctrl *ContactController) ExportContacts(c *fiber.Ctx) error {
	filter := filterFromQuery(c)
	filter.Limit = 0

	var buf bytes.Buffer
	if _, err := ctrl.Service.ExportXLSX(c.UserContext(), filter, &buf); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	name := utils.ExportFilename("xlsx", "contacts", string(filter.Status), time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment(name)
	return c.Send(buf.Bytes())
}
