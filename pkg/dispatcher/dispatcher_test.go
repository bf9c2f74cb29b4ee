package dispatcher_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/amirasaad/voicepay/infra/eventbus"
	infralock "github.com/amirasaad/voicepay/infra/lock"
	infrarepo "github.com/amirasaad/voicepay/infra/repository"
	"github.com/amirasaad/voicepay/pkg/dispatcher"
	"github.com/amirasaad/voicepay/pkg/metrics"
	"github.com/amirasaad/voicepay/pkg/nlu"
	accountsvc "github.com/amirasaad/voicepay/pkg/service/account"
	"github.com/amirasaad/voicepay/pkg/service/ledger"
	requestsvc "github.com/amirasaad/voicepay/pkg/service/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	anuPhone    = "+919000000001"
	bobPhone    = "9000000002"
	chitraPhone = "9000000003"
)

type openVerifier struct{}

func (openVerifier) RequireVerified(context.Context, string) error { return nil }
func (openVerifier) Consume(context.Context, string) error         { return nil }

type countingRecorder struct {
	metrics.Nop
	mu       sync.Mutex
	commands map[string]int
}

func (r *countingRecorder) CommandDispatched(intent, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[intent+"/"+status]++
}

type fixture struct {
	d        *dispatcher.Dispatcher
	db       *gorm.DB
	recorder *countingRecorder
	anu      uuid.UUID
	bob      uuid.UUID
	chitra   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutils.NewSQLiteDB(t)
	uow := infrarepo.NewUoW(db)
	bus := eventbus.NewWithMemory(slog.Default())
	locker := infralock.NewMemoryLocker()
	engine := ledger.New(uow, locker, bus, nil, slog.Default())
	accounts := accountsvc.New(uow, engine, openVerifier{}, slog.Default())
	requests := requestsvc.New(uow, engine, locker, accounts, bus, nil, slog.Default())

	_, anu := testutils.SeedUser(t, db, "Anu", anuPhone, "1000")
	_, bob := testutils.SeedUser(t, db, "Bob", bobPhone, "0")
	_, chitra := testutils.SeedUser(t, db, "Chitra", chitraPhone, "0")

	rec := &countingRecorder{commands: map[string]int{}}
	interpreter := nlu.NewInterpreter(nil, 0.5, slog.Default())
	return &fixture{
		d:        dispatcher.New(interpreter, accounts, requests, nlu.RuleResponder{}, rec, slog.Default()),
		db:       db,
		recorder: rec,
		anu:      anu.ID,
		bob:      bob.ID,
		chitra:   chitra.ID,
	}
}

func TestHandle_TransferByHandle(t *testing.T) {
	f := newFixture(t)

	res := f.d.Handle(context.Background(), anuPhone, "send 300 to bob@upi")
	assert.Equal(t, dispatcher.StatusSuccess, res.Status)
	assert.Equal(t, dispatcher.CodeOK, res.Code)
	assert.Equal(t, nlu.IntentTransfer, res.Intent)
	assert.Equal(t, "Successfully sent ₹300 to bob@upi", res.Message)
	data, ok := res.Data.(dispatcher.TransferData)
	require.True(t, ok)
	assert.Equal(t, "300.00", data.Amount)

	assert.True(t, testutils.Balance(t, f.db, f.anu).Equal(decimal.NewFromInt(700)))
	assert.True(t, testutils.Balance(t, f.db, f.bob).Equal(decimal.NewFromInt(300)))
	assert.Equal(t, int64(1), testutils.TransactionCount(t, f.db))
	assert.Equal(t, 1, f.recorder.commands["transfer_money/success"])
}

func TestHandle_TargetPrecedence(t *testing.T) {
	f := newFixture(t)

	res := f.d.Handle(context.Background(), anuPhone, "send 10 to bob@upi or 9000000003")
	require.Equal(t, dispatcher.StatusSuccess, res.Status, res.Message)
	assert.True(t, testutils.Balance(t, f.db, f.bob).Equal(decimal.NewFromInt(10)))
	assert.True(t, testutils.Balance(t, f.db, f.chitra).IsZero())

	res = f.d.Handle(context.Background(), anuPhone, "pay chitra 25 at 9000000003")
	require.Equal(t, dispatcher.StatusSuccess, res.Status, res.Message)
	assert.Equal(t, "Successfully sent ₹25 to chitra@upi", res.Message)
	assert.True(t, testutils.Balance(t, f.db, f.chitra).Equal(decimal.NewFromInt(25)))
}

func TestHandle_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		text    string
		code    string
		message string
	}{
		{"send 300 to bob", "NEED_PHONE_OR_HANDLE",
			"Cannot find contact details for Bob. Please provide phone number or UPI ID. Try saying: 'Send ₹300 to Bob at [phone number/UPI ID]'"},
		{"send 300", "NEED_PHONE_OR_HANDLE", "please provide a phone number or UPI ID"},
		{"send money to bob@upi", "MISSING_AMOUNT", "please say the amount"},
		{"send 5000 to bob@upi", "INSUFFICIENT_BALANCE", "insufficient balance"},
		{"send 5 to ghost@upi", "USER_NOT_FOUND", "user not found"},
		{"send 5 to anu@upi", "SAME_ACCOUNT", "cannot transfer to same account"},
		{"request 20 from bob", "NEED_PHONE_OR_HANDLE",
			"Cannot find contact details for Bob. Please provide phone number or UPI ID. Try saying: 'Request ₹20 from Bob at [phone number/UPI ID]'"},
		{"   ", "EMPTY_COMMAND", "command text is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res := f.d.Handle(ctx, anuPhone, tt.text)
			assert.Equal(t, dispatcher.StatusError, res.Status)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, tt.message, res.Message)
		})
	}
	assert.Equal(t, int64(0), testutils.TransactionCount(t, f.db))
	assert.True(t, testutils.Balance(t, f.db, f.anu).Equal(decimal.NewFromInt(1000)))
}

func TestHandle_RequestBalanceAndChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.d.Handle(ctx, anuPhone, "request 50 from 9000000002")
	require.Equal(t, dispatcher.StatusSuccess, res.Status, res.Message)
	assert.Equal(t, nlu.IntentRequest, res.Intent)
	assert.Equal(t, "Money request of ₹50 sent to Bob", res.Message)
	data, ok := res.Data.(dispatcher.RequestData)
	require.True(t, ok)
	assert.Equal(t, "pending", data.Status)
	assert.Equal(t, "bob@upi", data.Requestee)

	res = f.d.Handle(ctx, anuPhone, "what is my balance")
	assert.Equal(t, "Your current balance is ₹1000", res.Message)
	assert.Equal(t, dispatcher.BalanceData{Balance: "1000.00"}, res.Data)

	res = f.d.Handle(ctx, anuPhone, "hello there")
	assert.Equal(t, dispatcher.StatusSuccess, res.Status)
	assert.Equal(t, nlu.IntentOther, res.Intent)
	assert.Contains(t, res.Message, "send money")
}

func TestDispatch_PreInterpreted(t *testing.T) {
	f := newFixture(t)
	amount := decimal.RequireFromString("12.50")

	res := f.d.Dispatch(context.Background(), anuPhone, &nlu.Command{
		Intent:   nlu.IntentTransfer,
		Entities: nlu.Entities{Amount: &amount, PhoneNumber: "+919000000002"},
	})
	require.Equal(t, dispatcher.StatusSuccess, res.Status, res.Message)
	assert.Equal(t, "Successfully sent ₹12.50 to bob@upi", res.Message)

	res = f.d.Dispatch(context.Background(), "+919999999999", &nlu.Command{Intent: nlu.IntentBalance, Text: "balance"})
	assert.Equal(t, "USER_NOT_FOUND", res.Code)
}
