// Package testutils holds database fixtures shared by service and handler tests.
package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amirasaad/voicepay/infra"
	infrarepo "github.com/amirasaad/voicepay/infra/repository"
	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated, private in-memory database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	// A named shared-cache database keeps every pooled connection on the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000", uuid.NewString())
	db, err := infra.OpenSQLite(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.Migrate(db))
	return db
}

// NewPostgresDSN starts a disposable Postgres container with the SQL
// migrations applied and returns its DSN. Only integration-tagged suites
// call it.
func NewPostgresDSN(t testing.TB) string {
	t.Helper()
	ctx := context.Background()
	pg, err := tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("voicepay"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db := openPostgres(t, dsn)
	require.NoError(t, infra.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	return dsn
}

// NewPostgresDB is NewPostgresDSN opened through gorm.
func NewPostgresDB(t testing.TB) *gorm.DB {
	t.Helper()
	return openPostgres(t, NewPostgresDSN(t))
}

func openPostgres(t testing.TB, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedUser inserts a user and an account holding balance rupees.
func SeedUser(t testing.TB, db *gorm.DB, name, phone string, balance string) (*user.User, *account.Account) {
	t.Helper()
	ctx := context.Background()
	u, err := user.New(name, phone)
	require.NoError(t, err)
	require.NoError(t, infrarepo.NewUserRepository(db).Create(ctx, u))
	acc, err := account.New().
		WithUserID(u.ID).
		WithBalance(decimal.RequireFromString(balance)).
		Build()
	require.NoError(t, err)
	require.NoError(t, infrarepo.NewAccountRepository(db).Create(ctx, acc))
	return u, acc
}

// Balance reads the stored balance of an account.
func Balance(t testing.TB, db *gorm.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()
	acc, err := infrarepo.NewAccountRepository(db).Get(context.Background(), accountID)
	require.NoError(t, err)
	return acc.Balance
}

// TransactionCount counts ledger rows.
func TransactionCount(t testing.TB, db *gorm.DB) int64 {
	t.Helper()
	n, err := infrarepo.NewTransactionRepository(db).Count(context.Background())
	require.NoError(t, err)
	return n
}
