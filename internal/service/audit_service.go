package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/staffdesk/roster-service/internal/config"
	"github.com/staffdesk/roster-service/internal/domain"
	"github.com/staffdesk/roster-service/internal/events"
	"github.com/staffdesk/roster-service/internal/repository"
	apperrors "github.com/staffdesk/roster-service/pkg/util"
)

const auditWebhookTimeout = 5 * time.Second

// AuditService records every roster mutation in the log, the audit table and,
// when configured, a webhook.
type AuditService struct {
	dispatcher events.Dispatcher
	entries    repository.AuditRepository
	logger     *zap.Logger
	cfg        config.AuditConfig
	deliver    func(ctx context.Context, url string, event events.Event) error
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, entries repository.AuditRepository, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		entries:    entries,
		logger:     logger,
		cfg:        cfg,
		deliver:    postWebhook,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	a.logger.Info("roster audit",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.String("actor", event.Actor.Username),
		zap.Any("payload", event.Payload))
	if err := a.persist(ctx, event); err != nil {
		return err
	}
	return a.sendWebhook(ctx, event)
}

// Recent returns the newest audit entries first.
func (a *AuditService) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if a.entries == nil {
		return []domain.AuditEntry{}, nil
	}
	if limit < 0 {
		return nil, apperrors.NewValidationError("limit must not be negative", nil)
	}
	entries, err := a.entries.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (a *AuditService) persist(ctx context.Context, event events.Event) error {
	if a.entries == nil {
		return nil
	}
	payload, err := payloadMap(event.Payload)
	if err != nil {
		return fmt.Errorf("audit payload: %w", err)
	}
	entry := &domain.AuditEntry{
		ID:        event.ID,
		EventType: string(event.Type),
		ActorRole: event.Actor.Role,
		ActorName: event.Actor.Username,
		Payload:   payload,
		CreatedAt: event.Timestamp,
	}
	if err := a.entries.Create(ctx, entry); err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	return nil
}

func payloadMap(payload interface{}) (map[string]any, error) {
	out := map[string]any{}
	if payload == nil {
		return out, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *AuditService) sendWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(a.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	if err := a.deliver(ctx, url, event); err != nil {
		return fmt.Errorf("audit webhook: %w", err)
	}
	a.logger.Debug("audit webhook delivered",
		zap.String("url", url),
		zap.String("event_id", event.ID))
	return nil
}

// postWebhook sends the event as JSON, giving up at the earlier of ctx's deadline and auditWebhookTimeout.
func postWebhook(ctx context.Context, url string, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := auditWebhookTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(url).JSON(event).Timeout(timeout)
	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %d", code)
	}
	return nil
}
