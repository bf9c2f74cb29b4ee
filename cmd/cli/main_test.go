package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/amirasaad/voicepay/infra/eventbus"
	infralock "github.com/amirasaad/voicepay/infra/lock"
	infrarepo "github.com/amirasaad/voicepay/infra/repository"
	"github.com/amirasaad/voicepay/pkg/app"
	pkgtestutils "github.com/amirasaad/voicepay/pkg/testutils"
	"github.com/amirasaad/voicepay/webapi/testutils"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codeRe = regexp.MustCompile(`code is (\d{6})`)

func newTestApp(t *testing.T) (*app.App, *testutils.Outbox) {
	t.Helper()
	color.NoColor = true
	db := pkgtestutils.NewSQLiteDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outbox := &testutils.Outbox{}
	cfg := testutils.Config()
	cfg.Env = "test"
	cfg.Auth.Strategy = "basic"
	a, err := app.New(&app.Deps{
		Uow:      infrarepo.NewUoW(db),
		OTPStore: infrarepo.NewOTPStore(db),
		Locker:   infralock.NewMemoryLocker(),
		EventBus: eventbus.NewWithMemory(logger),
		Sender:   outbox,
		Logger:   logger,
	}, cfg)
	require.NoError(t, err)
	return a, outbox
}

// runSession feeds script line by line and answers code prompts from the
// outbox. wrongCodes are submitted before the real code.
func runSession(t *testing.T, a *app.App, outbox *testutils.Outbox, script string, wrongCodes ...string) string {
	t.Helper()
	var out bytes.Buffer
	s := newSession(a, strings.NewReader(script), &out)
	s.readSecret = func() (string, error) {
		if len(wrongCodes) > 0 {
			code := wrongCodes[0]
			wrongCodes = wrongCodes[1:]
			return code, nil
		}
		msgs := outbox.Messages()
		require.NotEmpty(t, msgs)
		m := codeRe.FindStringSubmatch(msgs[len(msgs)-1].Body)
		require.Len(t, m, 2)
		return m[1], nil
	}
	require.NoError(t, s.run(context.Background()))
	return out.String()
}

func TestSession_SignUpTransferAndLogin(t *testing.T) {
	a, outbox := newTestApp(t)

	out := runSession(t, a, outbox, "9000000001\nAsha\nexit\n")
	assert.Contains(t, out, "No account for this number yet.")
	assert.Contains(t, out, "Welcome, Asha (asha@upi)")

	out = runSession(t, a, outbox, strings.Join([]string{
		"9000000002",
		"Ravi",
		"send 300 to asha@upi",
		"what is my balance",
		"send 5000 to asha@upi",
		"quit",
	}, "\n")+"\n")
	assert.Contains(t, out, "Successfully sent ₹300 to asha@upi")
	assert.Contains(t, out, "Your current balance is ₹700")
	assert.Contains(t, out, "[INSUFFICIENT_BALANCE]")
	assert.Contains(t, out, "Bye!")

	out = runSession(t, a, outbox, "9000000001\nwhat is my balance\n")
	assert.NotContains(t, out, "Choose a UPI name")
	assert.Contains(t, out, "Welcome, Asha")
	assert.Contains(t, out, "Your current balance is ₹1300")
}

func TestSession_RetriesAfterBadInput(t *testing.T) {
	a, outbox := newTestApp(t)

	out := runSession(t, a, outbox, "12\n9000000003\n9000000003\n!!\nMeera\nexit\n", "000000")
	assert.Contains(t, out, "[INVALID_PHONE]")
	assert.Contains(t, out, "[OTP_MISMATCH]")
	assert.Contains(t, out, "[INVALID_NAME]")
	assert.Contains(t, out, "Welcome, Meera (meera@upi)")
}

func TestSession_NameOnlyAsksForHandle(t *testing.T) {
	a, outbox := newTestApp(t)

	out := runSession(t, a, outbox, "9000000004\nKiran\nsend 20 to priya\n")
	assert.Contains(t, out, "[NEED_PHONE_OR_HANDLE]")
}

func TestSession_EOFBeforeLogin(t *testing.T) {
	a, outbox := newTestApp(t)
	out := runSession(t, a, outbox, "")
	assert.Contains(t, out, "Phone number: ")
}
