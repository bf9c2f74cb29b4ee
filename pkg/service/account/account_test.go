package account_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/amirasaad/voicepay/infra/eventbus"
	infralock "github.com/amirasaad/voicepay/infra/lock"
	infrarepo "github.com/amirasaad/voicepay/infra/repository"
	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/events"
	"github.com/amirasaad/voicepay/pkg/domain/otp"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/money"
	accountsvc "github.com/amirasaad/voicepay/pkg/service/account"
	"github.com/amirasaad/voicepay/pkg/service/ledger"
	"github.com/amirasaad/voicepay/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubVerifier struct {
	err      error
	consumed []string
}

func (v *stubVerifier) RequireVerified(context.Context, string) error { return v.err }

func (v *stubVerifier) Consume(_ context.Context, phone string) error {
	v.consumed = append(v.consumed, phone)
	return nil
}

type fixture struct {
	svc      *accountsvc.Service
	db       *gorm.DB
	bus      *eventbus.MemoryEventBus
	verifier *stubVerifier
}

func newFixture(t *testing.T, opts ...accountsvc.Option) *fixture {
	t.Helper()
	db := testutils.NewSQLiteDB(t)
	uow := infrarepo.NewUoW(db)
	bus := eventbus.NewWithMemory(slog.Default())
	engine := ledger.New(uow, infralock.NewMemoryLocker(), bus, nil, slog.Default())
	verifier := &stubVerifier{}
	opts = append([]accountsvc.Option{accountsvc.WithEventBus(bus)}, opts...)
	return &fixture{
		svc:      accountsvc.New(uow, engine, verifier, slog.Default(), opts...),
		db:       db,
		bus:      bus,
		verifier: verifier,
	}
}

func TestSignUp(t *testing.T) {
	f := newFixture(t, accountsvc.WithInitialGrant(decimal.NewFromInt(1000)))
	ctx := context.Background()

	p, err := f.svc.SignUp(ctx, "Jefin Francis", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "jefinfrancis@upi", p.User.Handle)
	assert.Equal(t, "+919876543210", p.User.Phone)
	assert.True(t, p.Account.Balance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, []string{"+919876543210"}, f.verifier.consumed)

	published := f.bus.Published()
	require.Len(t, published, 1)
	signed, ok := published[0].(events.UserSignedUp)
	require.True(t, ok)
	assert.Equal(t, p.Account.ID, signed.AccountID)

	has, err := f.svc.HasAccount(ctx, "+91 98765 43210")
	require.NoError(t, err)
	assert.True(t, has)

	balance, err := f.svc.GetBalance(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "1000.00", money.Format(balance))
}

func TestSignUp_SameNameTwiceIsNameTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "Jefin", "9876543210")
	require.NoError(t, err)

	_, err = f.svc.SignUp(ctx, "jefin", "9123456789")
	assert.ErrorIs(t, err, user.ErrNameTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.svc.SignUp(ctx, "Someone Else", "9876543210")
	assert.ErrorIs(t, err, user.ErrUserExists)

	has, err := f.svc.HasAccount(ctx, "9123456789")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSignUp_RequiresVerification(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = otp.ErrOTPNotVerified

	_, err := f.svc.SignUp(context.Background(), "Jefin", "9876543210")
	assert.ErrorIs(t, err, otp.ErrOTPNotVerified)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, f.verifier.consumed)
}

func TestSignUp_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "!!!", "9876543210")
	assert.ErrorIs(t, err, user.ErrInvalidName)
	_, err = f.svc.SignUp(ctx, "Jefin", "123")
	assert.ErrorIs(t, err, user.ErrInvalidPhone)
}

func TestTransferByHandleAndPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := testutils.SeedUser(t, f.db, "Anu", "9000000001", "1000")
	_, b := testutils.SeedUser(t, f.db, "Babu", "9000000002", "0")

	res, err := f.svc.TransferByHandle(ctx, "9000000001", "babu@upi", decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.Equal(t, "Successfully sent ₹300 to babu@upi", res.Message())
	assert.True(t, testutils.Balance(t, f.db, a.ID).Equal(decimal.NewFromInt(700)))
	assert.True(t, testutils.Balance(t, f.db, b.ID).Equal(decimal.NewFromInt(300)))

	res, err = f.svc.TransferByPhone(ctx, "9000000002", "+919000000001", decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.Equal(t, "Successfully sent ₹12.50 to anu@upi", res.Message())
	assert.Equal(t, int64(2), testutils.TransactionCount(t, f.db))

	// handle suffix is optional
	_, err = f.svc.TransferByHandle(ctx, "9000000001", "Babu", decimal.NewFromInt(1))
	require.NoError(t, err)
}

func TestTransfer_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutils.SeedUser(t, f.db, "Anu", "9000000001", "100")
	testutils.SeedUser(t, f.db, "Babu", "9000000002", "0")

	_, err := f.svc.TransferByHandle(ctx, "9000000001", "nobody@upi", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = f.svc.TransferByPhone(ctx, "9000000009", "9000000002", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = f.svc.TransferByHandle(ctx, "9000000001", "babu@upi", decimal.NewFromInt(300))
	assert.ErrorIs(t, err, account.ErrInsufficientBalance)

	_, err = f.svc.TransferByHandle(ctx, "9000000001", "anu@upi", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, account.ErrSameAccount)

	_, err = f.svc.TransferByPhone(ctx, "9000000001", "9000000002", decimal.Zero)
	assert.ErrorIs(t, err, money.ErrNonPositiveAmount)

	assert.Zero(t, testutils.TransactionCount(t, f.db))
}

func TestListTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutils.SeedUser(t, f.db, "Anu", "9000000001", "1000")
	testutils.SeedUser(t, f.db, "Babu", "9000000002", "0")
	testutils.SeedUser(t, f.db, "Chitra", "9000000003", "0")

	_, err := f.svc.TransferByPhone(ctx, "9000000001", "9000000002", decimal.NewFromInt(300))
	require.NoError(t, err)
	_, err = f.svc.TransferByPhone(ctx, "9000000001", "9000000003", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = f.svc.TransferByPhone(ctx, "9000000002", "9000000001", decimal.NewFromInt(50))
	require.NoError(t, err)

	h, err := f.svc.ListTransactions(ctx, "9000000001")
	require.NoError(t, err)
	require.Len(t, h.Sent, 2)
	require.Len(t, h.Received, 1)
	assert.Equal(t, "babu@upi", h.Received[0].Counterparty.Handle)
	handles := []string{h.Sent[0].Counterparty.Handle, h.Sent[1].Counterparty.Handle}
	assert.ElementsMatch(t, []string{"babu@upi", "chitra@upi"}, handles)

	again, err := f.svc.ListTransactions(ctx, "9000000001")
	require.NoError(t, err)
	assert.Equal(t, len(h.Sent), len(again.Sent))
	balance, err := f.svc.GetBalance(ctx, "9000000001")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(650)))
}

func TestFindTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutils.SeedUser(t, f.db, "Anu", "9000000001", "100")
	testutils.SeedUser(t, f.db, "Babu", "9000000002", "0")
	testutils.SeedUser(t, f.db, "Chitra", "9000000003", "0")

	res, err := f.svc.TransferByPhone(ctx, "9000000001", "9000000002", decimal.NewFromInt(10))
	require.NoError(t, err)

	tx, err := f.svc.FindTransaction(ctx, "9000000002", res.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Transaction.ID, tx.ID)

	_, err = f.svc.FindTransaction(ctx, "9000000003", res.Transaction.ID)
	assert.ErrorIs(t, err, account.ErrTransactionNotFound)
	_, err = f.svc.FindTransaction(ctx, "9000000001", uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestByHandleOrPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, _ := testutils.SeedUser(t, f.db, "Anu", "9000000001", "0")

	for _, ref := range []string{"anu@upi", "anu", "Anu", "9000000001", "+91 90000 00001"} {
		p, err := f.svc.ByHandleOrPhone(ctx, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, u.ID, p.User.ID, ref)
	}
	_, err := f.svc.ByHandleOrPhone(ctx, "9000000009")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
