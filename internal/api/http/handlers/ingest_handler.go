package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/staffdesk/roster-service/internal/api/dto"
	"github.com/staffdesk/roster-service/internal/auth"
	"github.com/staffdesk/roster-service/internal/domain"
	"github.com/staffdesk/roster-service/internal/service"
	apperrors "github.com/staffdesk/roster-service/pkg/util"
)

const uploadField = "file"

// IngestHandler exposes the three bulk upload modes.
type IngestHandler struct {
	ingest *service.IngestService
}

// NewIngestHandler constructs handler.
func NewIngestHandler(ingestService *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingestService}
}

type ingestFunc func(context.Context, domain.Identity, service.IngestInput) (*domain.IngestReport, error)

// Upload handles POST /api/admin/upload (replace-all).
func (h *IngestHandler) Upload(c *fiber.Ctx) error {
	return h.handle(c, h.ingest.ReplaceAll)
}

// Append handles POST /api/admin/append. ?on_conflict=skip skips existing file numbers.
func (h *IngestHandler) Append(c *fiber.Ctx) error {
	return h.handle(c, h.ingest.Append)
}

// BulkUpdate handles POST /api/admin/bulk-update. ?on_missing=skip skips unknown file numbers.
func (h *IngestHandler) BulkUpdate(c *fiber.Ctx) error {
	return h.handle(c, h.ingest.BulkUpdate)
}

func (h *IngestHandler) handle(c *fiber.Ctx, run ingestFunc) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	opts, err := ingestOptions(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile(uploadField)
	if err != nil {
		return apperrors.NewValidationError("multipart field \"file\" is required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("could not open uploaded file", nil)
	}
	defer file.Close()

	report, err := run(c.UserContext(), principal.Identity, service.IngestInput{
		Filename: header.Filename,
		Body:     file,
		Options:  opts,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewIngestReportResponse(report))
}

func ingestOptions(c *fiber.Ctx) (service.IngestOptions, error) {
	var opts service.IngestOptions
	switch c.Query("on_conflict") {
	case "", "reject":
	case "skip":
		opts.SkipExisting = true
	default:
		return opts, apperrors.NewValidationError("on_conflict must be reject or skip", nil)
	}
	switch c.Query("on_missing") {
	case "", "reject":
	case "skip":
		opts.SkipMissing = true
	default:
		return opts, apperrors.NewValidationError("on_missing must be reject or skip", nil)
	}
	return opts, nil
}
