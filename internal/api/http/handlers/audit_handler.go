package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/staffdesk/roster-service/internal/api/dto"
	"github.com/staffdesk/roster-service/internal/service"
)

// AuditHandler exposes the roster audit trail to administrators.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: auditService}
}

// List handles GET /api/admin/audit.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	entries, err := h.audit.Recent(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuditEntryList(entries))
}
