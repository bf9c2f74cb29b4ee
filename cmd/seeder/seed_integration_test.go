//go:build integration

package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/voicepay/pkg/testutils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_Postgres(t *testing.T) {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, testutils.NewPostgresDSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(ctx) })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// A real user in the 90001 block but past the demo range is not counted.
	_, err = conn.Exec(ctx,
		"INSERT INTO users (id, name, phone, handle) VALUES ($1, 'Asha', '+919000100020', 'asha@upi')",
		uuid.NewString(),
	)
	require.NoError(t, err)

	n, err := seed(ctx, conn, 10, decimal.RequireFromString("1000"), logger)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	// A second run tops up to the new target only.
	n, err = seed(ctx, conn, 12, decimal.RequireFromString("1000"), logger)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = seed(ctx, conn, 12, decimal.RequireFromString("1000"), logger)
	require.NoError(t, err)
	assert.Zero(t, n)

	var total decimal.Decimal
	var accounts int
	require.NoError(t, conn.QueryRow(ctx, "SELECT COUNT(*), SUM(balance)::text FROM accounts").Scan(&accounts, &total))
	assert.Equal(t, 12, accounts)
	assert.True(t, total.Equal(decimal.RequireFromString("12000")))
}
