package db_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/user-management-api/internal/db"
)

func TestMigrationSource_OrderedVersions(t *testing.T) {
	src, err := db.MigrationSource()
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}

func TestMigrationSource_UsersTableHasEmailUniqueness(t *testing.T) {
	src, err := db.MigrationSource()
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	r, identifier, err := src.ReadUp(1)
	require.NoError(t, err)
	defer r.Close()

	body, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, "create_users_table", identifier)
	assert.Contains(t, string(body), "UNIQUE (email)")
	assert.Contains(t, string(body), "CHECK (estado IN ('activo', 'inactivo'))")
}
