package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studystack/studystack-api/internal/models"
	appErrors "github.com/studystack/studystack-api/pkg/errors"
)

type moderationStore interface {
	GetByID(ctx context.Context, id string) (*models.Resource, error)
	SetApproval(ctx context.Context, id string, approved bool, approvedAt *time.Time) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type catalogNotifier interface {
	ResourceChanged(resourceType models.ResourceType)
}

// ModerationService drives the approval workflow. Both transitions are
// idempotent writes against the approval flag: approving an approved record
// restamps it, rejecting a pending one re-asserts pending. Rejection does not
// delete anything; a rejected record simply stays in the queue.
type ModerationService struct {
	store    moderationStore
	audit    auditWriter
	notifier catalogNotifier
	logger   *zap.Logger
}

// NewModerationService constructs the workflow service.
func NewModerationService(store moderationStore, audit auditWriter, notifier catalogNotifier, logger *zap.Logger) *ModerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationService{store: store, audit: audit, notifier: notifier, logger: logger}
}

// Approve publishes a resource: sets the approval flag and stamps the
// decision time. Requires an authenticated actor.
func (s *ModerationService) Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.Resource, error) {
	return s.setApproval(ctx, id, actor, true)
}

// Reject keeps (or puts back) a resource in the moderation queue by
// re-asserting the pending state. Requires an authenticated actor.
func (s *ModerationService) Reject(ctx context.Context, id string, actor *models.JWTClaims) (*models.Resource, error) {
	return s.setApproval(ctx, id, actor, false)
}

func (s *ModerationService) setApproval(ctx context.Context, id string, actor *models.JWTClaims, approved bool) (*models.Resource, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "failed to load resource")
	}

	var approvedAt *time.Time
	if approved {
		now := time.Now().UTC()
		approvedAt = &now
	}
	if err := s.store.SetApproval(ctx, id, approved, approvedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "failed to update approval state")
	}

	res.Approved = approved
	if approved {
		// reject leaves any earlier decision stamp in place; only the
		// approval flag is re-asserted
		res.AdminApprovedAt = approvedAt
	}

	s.writeAudit(ctx, actor, res, approved)
	if s.notifier != nil {
		s.notifier.ResourceChanged(res.ResourceType)
	}

	s.logger.Info("moderation decision applied",
		zap.String("resource_id", id),
		zap.Bool("approved", approved),
		zap.String("moderator", actor.Email))
	return res, nil
}

// audit failures must not undo a published decision
func (s *ModerationService) writeAudit(ctx context.Context, actor *models.JWTClaims, res *models.Resource, approved bool) {
	if s.audit == nil {
		return
	}
	action := models.AuditActionResourceReject
	if approved {
		action = models.AuditActionResourceApprove
	}
	newValues, _ := json.Marshal(map[string]interface{}{
		"approved":          res.Approved,
		"admin_approved_at": res.AdminApprovedAt,
	})
	entry := &models.AuditLog{
		ID:         uuid.New().String(),
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "resources",
		ResourceID: &res.ID,
		NewValues:  newValues,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
}
