package sync

import (
	"strings"

	"go-confops/internal/common/api"
	"go-confops/internal/config"
	"go-confops/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type SyncApi struct {
	controller *SyncController
	config     *config.Config
}

func NewSyncApi(controller *SyncController, config *config.Config) api.Route {
	return &SyncApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all sync routes
func (h *SyncApi) Setup(app *fiber.App) {
	// Browsers cannot set Authorization on a websocket handshake, so the token
	// rides in Sec-WebSocket-Protocol as ["bearer", <token>]. It is never read
	// from the URL, which would leak it into access logs.
	app.Get("/api/sync/ws",
		tokenFromSubprotocol,
		middleware.AuthMiddleware(h.config.SkipAuth),
		requireUpgrade,
		websocket.New(h.controller.StreamEvents, websocket.Config{
			Subprotocols: []string{bearerSubprotocol},
		}),
	)

	syncGroup := app.Group("/api/sync", middleware.AuthMiddleware(h.config.SkipAuth))
	operator := middleware.RequireRole(h.config.SkipAuth, middleware.RoleAdmin, middleware.RoleSyncOperator)

	syncGroup.Post("/full", operator, h.controller.RunFullSync)
	syncGroup.Post("/incremental", operator, h.controller.RunIncrementalSync)
	syncGroup.Post("/contacts/:notion_id", operator, h.controller.SyncContact)
	syncGroup.Get("/status", h.controller.GetStatus)
	syncGroup.Get("/logs", h.controller.ListSyncLogs)
}

const bearerSubprotocol = "bearer"

func tokenFromSubprotocol(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) != "" {
		return c.Next()
	}
	offered := strings.Split(c.Get(fiber.HeaderSecWebSocketProtocol), ",")
	for i := 0; i+1 < len(offered); i++ {
		if strings.TrimSpace(offered[i]) == bearerSubprotocol {
			if token := strings.TrimSpace(offered[i+1]); token != "" {
				c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
			}
			break
		}
	}
	return c.Next()
}

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
