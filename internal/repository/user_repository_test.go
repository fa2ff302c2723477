package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/studystack/studystack-api/internal/models"
	appErrors "github.com/studystack/studystack-api/pkg/errors"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("user-1", "mod@studystack.dev", "hash", "Moderator", "ADMIN", true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("mod@studystack.dev").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "mod@studystack.dev")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ghost@studystack.dev").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByEmail(context.Background(), "ghost@studystack.dev")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{
		UserID:    "user-1",
		Token:     "opaque",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	require.NotEmpty(t, token.ID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE")).
		WithArgs(token.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), token.ID, time.Now()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	userID := "user-1"
	log := &models.AuditLog{
		UserID:   &userID,
		Action:   models.AuditActionResourceApprove,
		Resource: "resource",
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	require.NotEmpty(t, log.ID)
	require.False(t, log.CreatedAt.IsZero())
}

func TestUserRepositoryUnavailableWithoutDB(t *testing.T) {
	repo := NewUserRepository(nil)

	require.False(t, repo.Ready())
	_, err := repo.FindByEmail(context.Background(), "mod@studystack.dev")
	require.ErrorIs(t, err, appErrors.ErrBackendUnavailable)
	_, err = repo.FindByID(context.Background(), "user-1")
	require.ErrorIs(t, err, appErrors.ErrBackendUnavailable)
	require.ErrorIs(t, repo.UpdateLastLogin(context.Background(), "user-1", time.Now()), appErrors.ErrBackendUnavailable)
	require.ErrorIs(t, repo.CreateRefreshToken(context.Background(), &models.RefreshToken{}), appErrors.ErrBackendUnavailable)
	_, err = repo.FindRefreshToken(context.Background(), "opaque")
	require.ErrorIs(t, err, appErrors.ErrBackendUnavailable)
	require.ErrorIs(t, repo.RevokeRefreshToken(context.Background(), "rt-1", time.Now()), appErrors.ErrBackendUnavailable)
	require.ErrorIs(t, repo.CreateAuditLog(context.Background(), &models.AuditLog{}), appErrors.ErrBackendUnavailable)
}
