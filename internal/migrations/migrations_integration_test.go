//go:build integration

package migrations_test

import (
	"testing"

	"github.com/amirasaad/voicepay/internal/migrations"
	"github.com/amirasaad/voicepay/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_DownAndUpAgain(t *testing.T) {
	db := testutils.NewPostgresDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	require.NoError(t, migrations.Up(sqlDB))
	for _, table := range []string{"users", "accounts", "transactions", "money_requests", "otps"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	require.NoError(t, migrations.Down(sqlDB))
	assert.False(t, db.Migrator().HasTable("users"))

	require.NoError(t, migrations.Up(sqlDB))
	assert.True(t, db.Migrator().HasTable("money_requests"))
}
