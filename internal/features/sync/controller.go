package sync

import (
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SyncController struct {
	Service SyncService
	Events  *EventHub
	Logger  *zap.Logger
}

func NewSyncController(service SyncService, events *EventHub, logger *zap.Logger) *SyncController {
	return &SyncController{
		Service: service,
		Events:  events,
		Logger:  logger,
	}
}

func runError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSyncInProgress):
		status = fiber.StatusConflict
	case errors.Is(err, ErrSourceUnavailable):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// RunFullSync godoc
// @Summary Run a full sync from Notion
// @Tags sync
// @Produce json
// @Success 200 {object} Result
// @Failure 409 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/sync/full [post]
func (ctrl *SyncController) RunFullSync(c *fiber.Ctx) error {
	result, err := ctrl.Service.FullSync(c.UserContext(), TriggerAPI)
	if err != nil {
		return runError(c, err)
	}
	return c.JSON(result)
}

type incrementalRequest struct {
	Since *time.Time `json:"since"`
}

// RunIncrementalSync godoc
// @Summary Sync pages edited since a timestamp (default last 24h)
// @Tags sync
// @Accept json
// @Produce json
// @Param since query string false "RFC3339 lower bound"
// @Success 200 {object} Result
// @Failure 400 {object} map[string]interface{}
// @Router /api/sync/incremental [post]
func (ctrl *SyncController) RunIncrementalSync(c *fiber.Ctx) error {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "since must be an RFC3339 timestamp",
			})
		}
		since = &t
	} else if len(c.Body()) > 0 {
		var req incrementalRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
		since = req.Since
	}

	result, err := ctrl.Service.IncrementalSync(c.UserContext(), since, TriggerAPI)
	if err != nil {
		return runError(c, err)
	}
	return c.JSON(result)
}

// SyncContact godoc
// @Summary Re-read one Notion page into the replica
// @Tags sync
// @Produce json
// @Param notion_id path string true "Notion page id"
// @Success 200 {object} Result
// @Router /api/sync/contacts/{notion_id} [post]
func (ctrl *SyncController) SyncContact(c *fiber.Ctx) error {
	result, err := ctrl.Service.SyncRecord(c.UserContext(), c.Params("notion_id"), TriggerAPI)
	if err != nil {
		return runError(c, err)
	}
	return c.JSON(result)
}

// GetStatus godoc
// @Summary Recent sync runs and contact counts
// @Tags sync
// @Produce json
// @Success 200 {object} StatusReport
// @Router /api/sync/status [get]
func (ctrl *SyncController) GetStatus(c *fiber.Ctx) error {
	report, err := ctrl.Service.Status(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(report)
}

// ListSyncLogs godoc
// @Summary List sync log entries, newest first
// @Tags sync
// @Produce json
// @Param limit query int false "max entries (default 20)"
// @Success 200 {object} map[string]interface{}
// @Router /api/sync/logs [get]
func (ctrl *SyncController) ListSyncLogs(c *fiber.Ctx) error {
	logs, err := ctrl.Service.ListLogs(c.UserContext(), c.QueryInt("limit", 20))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"data": logs,
	})
}

// StreamEvents pushes every SyncEvent to the socket until the client goes away.
func (ctrl *SyncController) StreamEvents(conn *websocket.Conn) {
	events, unsubscribe := ctrl.Events.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				ctrl.Logger.Debug("Websocket write failed", zap.Error(err))
				return
			}
		}
	}
}
