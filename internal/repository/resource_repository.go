package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studystack/studystack-api/internal/models"
	appErrors "github.com/studystack/studystack-api/pkg/errors"
)

const resourceColumns = `id, title, degree, branch, semester, subject, resource_type, pdf_url, file_name, file_key, submitted_by, approved, created_at, admin_approved_at`

// ResourceRepository persists catalog records in a single flat resources
// table; the category is a column, not a separate table.
//
// The repository may be constructed without a database handle (store not
// configured). Every method then reports ErrBackendUnavailable and callers
// decide per the read/write asymmetry whether to degrade or to fail.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository. db may be nil.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Ready reports whether a backing store is attached.
func (r *ResourceRepository) Ready() bool {
	return r != nil && r.db != nil
}

// Create inserts a new submission. The identifier is assigned here, the
// approval flag always starts false and createdAt defaults to now.
func (r *ResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	if !r.Ready() {
		return appErrors.ErrBackendUnavailable
	}
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	res.Approved = false
	const query = `INSERT INTO resources
	(id, title, degree, branch, semester, subject, resource_type, pdf_url, file_name, file_key, submitted_by, approved, created_at, admin_approved_at)
	VALUES (:id, :title, :degree, :branch, :semester, :subject, :resource_type, :pdf_url, :file_name, :file_key, :submitted_by, :approved, :created_at, :admin_approved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, res); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// ListApproved returns the approved records of one category, newest first.
func (r *ResourceRepository) ListApproved(ctx context.Context, resourceType models.ResourceType) ([]models.Resource, error) {
	if !r.Ready() {
		return nil, appErrors.ErrBackendUnavailable
	}
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE approved = TRUE AND resource_type = $1 ORDER BY created_at DESC`, resourceColumns)
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, resourceType); err != nil {
		return nil, fmt.Errorf("list approved resources: %w", err)
	}
	return resources, nil
}

// ListPending returns every record awaiting moderation. No order is
// guaranteed.
func (r *ResourceRepository) ListPending(ctx context.Context) ([]models.Resource, error) {
	if !r.Ready() {
		return nil, appErrors.ErrBackendUnavailable
	}
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE approved = FALSE`, resourceColumns)
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query); err != nil {
		return nil, fmt.Errorf("list pending resources: %w", err)
	}
	return resources, nil
}

// GetByID returns one record.
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	if !r.Ready() {
		return nil, appErrors.ErrBackendUnavailable
	}
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE id = $1`, resourceColumns)
	var res models.Resource
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetApproval updates the moderation flag. Approving stamps the approval
// time; rejecting only re-asserts approved=false. The update is idempotent:
// writing the current value again succeeds with the same observable state.
func (r *ResourceRepository) SetApproval(ctx context.Context, id string, approved bool, approvedAt *time.Time) error {
	if !r.Ready() {
		return appErrors.ErrBackendUnavailable
	}
	var (
		res sql.Result
		err error
	)
	if approved {
		res, err = r.db.ExecContext(ctx, `UPDATE resources SET approved = TRUE, admin_approved_at = $2 WHERE id = $1`, id, approvedAt)
	} else {
		res, err = r.db.ExecContext(ctx, `UPDATE resources SET approved = FALSE WHERE id = $1`, id)
	}
	if err != nil {
		return fmt.Errorf("set resource approval: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
