package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/staffdesk/roster-service/internal/api/dto"
	"github.com/staffdesk/roster-service/internal/auth"
	"github.com/staffdesk/roster-service/internal/domain"
	"github.com/staffdesk/roster-service/internal/export"
	"github.com/staffdesk/roster-service/internal/repository"
	"github.com/staffdesk/roster-service/internal/service"
	apperrors "github.com/staffdesk/roster-service/pkg/util"
)

// RosterHandler exposes admin roster endpoints.
type RosterHandler struct {
	roster *service.RosterService
	now    func() time.Time
}

// NewRosterHandler constructs handler.
func NewRosterHandler(rosterService *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: rosterService, now: time.Now}
}

// List handles GET /api/admin/staff.
func (h *RosterHandler) List(c *fiber.Ctx) error {
	filter := repository.StaffFilter{
		Search: c.Query("q"),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	records, err := h.roster.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffRecordList(records))
}

// Get handles GET /api/admin/staff/:id.
func (h *RosterHandler) Get(c *fiber.Ctx) error {
	id, err := recordID(c)
	if err != nil {
		return err
	}
	record, err := h.roster.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffRecordResponse(record))
}

// Update handles PUT /api/admin/staff/:id.
func (h *RosterHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	proposed, err := parseRecord(c)
	if err != nil {
		return err
	}

	result, err := h.roster.Update(c.UserContext(), principal.Identity, id, proposed)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStaffUpdateResponse(result.Record, result.Changed, result.CredentialsChanged))
}

// Delete handles DELETE /api/admin/staff/:id.
func (h *RosterHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	id, err := recordID(c)
	if err != nil {
		return err
	}
	if err := h.roster.Delete(c.UserContext(), principal.Identity, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteAll handles DELETE /api/admin/staff/delete-all.
func (h *RosterHandler) DeleteAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	deleted, err := h.roster.DeleteAll(c.UserContext(), principal.Identity)
	if err != nil {
		return err
	}
	return c.JSON(dto.DeleteAllResponse{Deleted: deleted})
}

// Export handles GET /api/admin/staff/export. The whole roster is exported
// regardless of any list search.
func (h *RosterHandler) Export(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	records, err := h.roster.Export(c.UserContext())
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.Filename(format, h.now())))
	return export.Write(c.Response().BodyWriter(), format, records)
}

func recordID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid record id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func parseRecord(c *fiber.Ctx) (domain.StaffRecord, error) {
	var req dto.StaffRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.StaffRecord{}, fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	record, field, err := req.ToDomain()
	if err != nil {
		return domain.StaffRecord{}, apperrors.NewValidationError(
			fmt.Sprintf("%s: %v", *field, err), map[string]any{"field": *field})
	}
	return record, nil
}
