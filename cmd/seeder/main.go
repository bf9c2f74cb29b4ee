// Command seeder bulk-loads demo users, each with a funded account, into the
// Postgres database named by DATABASE_URL.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/amirasaad/voicepay/infra/initializer"
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/money"
	log "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const (
	defaultUsers = 1000
	// Demo user i gets phone +91 (phoneBase+i) and handle demoNNNNN@upi.
	phoneBase = 9000100000
	maxUsers  = 100000
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}
	grant, err := money.Parse(cfg.Ledger.InitialGrant)
	if err != nil {
		return err
	}
	n := config.GetEnvAsInt("SEED_USERS", defaultUsers)
	if n < 1 || n > maxUsers {
		return fmt.Errorf("SEED_USERS must be between 1 and %d, got %d", maxUsers, n)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DB.Url)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	defer conn.Close(ctx) //nolint: errcheck

	logger := initializer.NewLogger(os.Stderr, cfg.Log)
	inserted, err := seed(ctx, conn, n, grant, logger)
	if err != nil {
		return err
	}
	logger.Info("Seeding done", "users", inserted)
	return nil
}

// seed inserts up to n demo users and their accounts in one transaction.
// It is a no-op when the demo users are already present.
func seed(ctx context.Context, conn *pgx.Conn, n int, grant decimal.Decimal, logger *slog.Logger) (int64, error) {
	first, last := demoPhoneRange(n)
	var existing int
	// Phones share one fixed-width format, so the range compares lexically.
	err := conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE phone BETWEEN $1 AND $2 AND handle LIKE 'demo%'", first, last,
	).Scan(&existing)
	if err != nil {
		return 0, err
	}
	if existing >= n {
		logger.Info("Demo users already present, skipping", "count", existing)
		return 0, nil
	}

	users, accounts, err := demoRows(existing, n, grant, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	logger.Info("Seeding demo users", "from", existing, "to", n)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint: errcheck

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"users"},
		[]string{"id", "name", "phone", "handle", "created_at", "updated_at"},
		pgx.CopyFromRows(users),
	)
	if err != nil {
		return 0, fmt.Errorf("copy users: %w", err)
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"accounts"},
		[]string{"id", "user_id", "balance", "created_at", "updated_at"},
		pgx.CopyFromRows(accounts),
	); err != nil {
		return 0, fmt.Errorf("copy accounts: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return copied, nil
}

// demoRows builds users from index start up to n.
func demoRows(start, n int, grant decimal.Decimal, now time.Time) (users, accounts [][]any, err error) {
	balance := pgtype.Numeric{Int: grant.Coefficient(), Exp: grant.Exponent(), Valid: true}
	for i := start; i < n; i++ {
		u, err := user.New(fmt.Sprintf("demo%05d", i), demoPhone(i))
		if err != nil {
			return nil, nil, err
		}
		users = append(users, []any{
			pgtype.UUID{Bytes: u.ID, Valid: true}, u.Name, u.Phone, u.Handle, now, now,
		})
		accounts = append(accounts, []any{
			pgtype.UUID{Bytes: uuid.New(), Valid: true},
			pgtype.UUID{Bytes: u.ID, Valid: true},
			balance, now, now,
		})
	}
	return users, accounts, nil
}

func demoPhone(i int) string {
	return fmt.Sprintf("%s%d", user.CountryCode, phoneBase+i)
}

// demoPhoneRange is the first and last phone of n demo users.
func demoPhoneRange(n int) (string, string) {
	return demoPhone(0), demoPhone(n - 1)
}
