package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProjectRepo(mock)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM projects WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "owner_uid", "created_at", "updated_at"}).
			AddRow(id, "Shop", "shop", "alice.testnet", now, now))

	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "alice.testnet", p.OwnerUID)
	assert.Equal(t, "shop", p.Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProjectRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM projects").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	p, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestProjectRepo_GetByID_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewProjectRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM projects").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(errors.New("timeout"))

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "get project by id")
}
