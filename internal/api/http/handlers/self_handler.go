package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/staffdesk/roster-service/internal/api/dto"
	"github.com/staffdesk/roster-service/internal/auth"
	"github.com/staffdesk/roster-service/internal/service"
)

// SelfHandler exposes a staff member's own record.
type SelfHandler struct {
	roster *service.RosterService
}

// NewSelfHandler constructs handler.
func NewSelfHandler(rosterService *service.RosterService) *SelfHandler {
	return &SelfHandler{roster: rosterService}
}

// Get handles GET /api/staff/me.
func (h *SelfHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	record, err := h.roster.Self(c.UserContext(), principal.Identity)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffRecordResponse(record))
}

// Update handles PUT /api/staff/me. Only email and phone may differ from the stored record.
func (h *SelfHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	proposed, err := parseRecord(c)
	if err != nil {
		return err
	}
	result, err := h.roster.UpdateSelf(c.UserContext(), principal.Identity, proposed)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffUpdateResponse(result.Record, result.Changed, result.CredentialsChanged))
}
