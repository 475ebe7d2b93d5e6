package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lockUserQuery = `SELECT * FROM "users" WHERE id = $1 ORDER BY "users"."id" LIMIT $2 FOR UPDATE`

func userRow(available int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "is_bot", "cu_available", "cu_locked"}).
		AddRow("u1", true, available, 0)
}

func TestRefillIfAtOrBelow_NoOpAboveThreshold(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockUserQuery)).
		WithArgs("u1", 1).
		WillReturnRows(userRow(51))
	mock.ExpectCommit()

	refilled, err := repo.RefillIfAtOrBelow(context.Background(), "u1", 50, 100)
	require.NoError(t, err)
	assert.False(t, refilled)
}

func TestRefillIfAtOrBelow_RefillsAtThreshold(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockUserQuery)).
		WithArgs("u1", 1).
		WillReturnRows(userRow(50))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "cu_transactions"`)).
		WithArgs(sqlmock.AnyArg(), "u1", "BOT_REFILL", 100, 150, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "cu_available"=cu_available + $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	refilled, err := repo.RefillIfAtOrBelow(context.Background(), "u1", 50, 100)
	require.NoError(t, err)
	assert.True(t, refilled)
}

func TestRefillIfAtOrBelow_RollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockUserQuery)).
		WithArgs("u1", 1).
		WillReturnRows(userRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "cu_transactions"`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	refilled, err := repo.RefillIfAtOrBelow(context.Background(), "u1", 50, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, refilled)
}
