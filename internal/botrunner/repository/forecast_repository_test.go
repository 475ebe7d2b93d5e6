package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const candidateQuery = `SELECT * FROM "forecasts" WHERE status = $1 AND author_id <> $2 ` +
	`AND NOT EXISTS (SELECT 1 FROM commitments c WHERE c.forecast_id = forecasts.id AND c.user_id = $3)`

func TestFindVoteCandidates_ExcludesOwnAndCommitted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewForecastRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(candidateQuery + ` ORDER BY created_at DESC LIMIT $4`)).
		WithArgs("ACTIVE", "u1", "u1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "status"}).AddRow("f1", "u2", "ACTIVE"))

	forecasts, err := repo.FindVoteCandidates(context.Background(), "u1", nil, 20)
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	assert.Equal(t, "f1", forecasts[0].ID)
}

func TestFindVoteCandidates_TagOverlap(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewForecastRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(candidateQuery + ` AND tags && $4 ORDER BY created_at DESC LIMIT $5`)).
		WithArgs("ACTIVE", "u1", "u1", pq.StringArray{"politics", "economy"}, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	forecasts, err := repo.FindVoteCandidates(context.Background(), "u1", []string{"politics", "economy"}, 20)
	require.NoError(t, err)
	assert.Empty(t, forecasts)
}

func TestPublish_MovesDraftToActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewForecastRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "forecasts" SET .*"status"=.* WHERE id = \$\d+ AND status = \$\d+`).
		WithArgs(sqlmock.AnyArg(), "ACTIVE", sqlmock.AnyArg(), "f1", "DRAFT").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Publish(context.Background(), "f1"))
}

func TestPublish_NonDraftIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewForecastRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "forecasts" SET .* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Publish(context.Background(), "f1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindRecentClaims_ActiveAndPendingOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewForecastRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT "claim_text" FROM "forecasts" WHERE status IN ($1,$2) ORDER BY created_at DESC LIMIT $3`,
	)).
		WithArgs("ACTIVE", "PENDING", 50).
		WillReturnRows(sqlmock.NewRows([]string{"claim_text"}).AddRow("🤖 Rates fall"))

	claims, err := repo.FindRecentClaims(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"🤖 Rates fall"}, claims)
}
