package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"netcore/internal/domain"
)

func TestSQLState(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: sqlstateUniqueViolation})
	assert.Equal(t, sqlstateUniqueViolation, sqlState(wrapped))
	assert.Equal(t, "", sqlState(errors.New("boom")))
}

func TestNullableHelpers(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", deref(nullable("x")))
	assert.Equal(t, "", deref(nil))

	x, y := position(nil)
	assert.Nil(t, x)
	assert.Nil(t, y)
	x, y = position(&domain.Position{X: 1, Y: 2})
	assert.Equal(t, 1.0, *x)
	assert.Equal(t, 2.0, *y)
}

// newTestRepo connects to NETCORE_TEST_POSTGRES_URL and truncates the tables
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("NETCORE_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("NETCORE_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	repo, err := New(ctx, dsn)
	require.NoError(t, err)
	_, err = repo.pool.Exec(ctx, `TRUNCATE links, devices`)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestPostgresDevicesAndLinks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	router := domain.NewDevice("10.0.0.1")
	router.Category = domain.CategoryRouter
	require.NoError(t, repo.CreateDevice(ctx, router))
	nas := domain.NewDevice("10.0.0.2")
	nas.Category = domain.CategoryNAS
	require.NoError(t, repo.CreateDevice(ctx, nas))

	assert.ErrorIs(t, repo.CreateDevice(ctx, domain.NewDevice("10.0.0.1")), domain.ErrDuplicateAddress)

	link := domain.NewLink(router.ID, nas.ID, domain.LinkTypeEthernet)
	require.NoError(t, repo.CreateLink(ctx, link))
	assert.ErrorIs(t, repo.CreateLink(ctx, domain.NewLink(router.ID, "ghost", "")), domain.ErrNotFound)

	require.NoError(t, repo.UpdateStatuses(ctx, []domain.StatusUpdate{
		{DeviceID: router.ID, Status: domain.StatusAlive},
		{DeviceID: nas.ID, Status: domain.StatusUnreachable},
	}))
	got, err := repo.GetDevice(ctx, router.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAlive, got.Status)

	require.NoError(t, repo.DeleteDevice(ctx, nas.ID))
	links, err := repo.ListLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)

	_, err = repo.GetDevice(ctx, nas.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
