package system

import (
	"time"

	"go-confops/internal/middleware"
	"go-confops/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type DebugController struct{}

func NewDebugController() *DebugController {
	return &DebugController{}
}

// CurrentUser describes the caller as the sync API sees it.
type CurrentUser struct {
	UserID         string   `json:"user_id"`
	Roles          []string `json:"roles"`
	CanTriggerSync bool     `json:"can_trigger_sync"`
	ExpiresAt      string   `json:"expires_at,omitempty"`
}

// GetCurrentUser godoc
// @Summary      Current caller
// @Description  Claims from the bearer token and whether they allow triggering syncs
// @Tags         debug
// @Produce      json
// @Success      200  {object}  CurrentUser
// @Router       /api/debug/me [get]
func (c *DebugController) GetCurrentUser(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	me := CurrentUser{
		UserID:         claims.UserID,
		Roles:          claims.Roles,
		CanTriggerSync: claims.HasRole(middleware.RoleAdmin, middleware.RoleSyncOperator),
	}
	if claims.ExpiresAt != nil {
		me.ExpiresAt = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
	}
	return ctx.JSON(me)
}
