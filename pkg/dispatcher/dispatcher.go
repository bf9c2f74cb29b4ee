// Package dispatcher executes interpreted voice commands against the
// account and money request services.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/voicepay/pkg/errcode"
	"github.com/amirasaad/voicepay/pkg/metrics"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/amirasaad/voicepay/pkg/nlu"
	accountsvc "github.com/amirasaad/voicepay/pkg/service/account"
	requestsvc "github.com/amirasaad/voicepay/pkg/service/moneyrequest"
	"github.com/shopspring/decimal"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CodeOK is the Result code of a successful command.
const CodeOK = "OK"

// Accounts reads balances and moves money on behalf of the speaker.
type Accounts interface {
	GetBalance(ctx context.Context, phone string) (decimal.Decimal, error)
	TransferByHandle(ctx context.Context, senderPhone, handle string, amount decimal.Decimal) (*accountsvc.TransferResult, error)
	TransferByPhone(ctx context.Context, senderPhone, phone string, amount decimal.Decimal) (*accountsvc.TransferResult, error)
}

// Requests opens money requests from the speaker to another user.
type Requests interface {
	Create(ctx context.Context, requesterPhone, requestee string, amount decimal.Decimal, message string) (*requestsvc.Created, error)
}

// Interpreter turns an utterance into a command.
type Interpreter interface {
	Interpret(ctx context.Context, text string) (*nlu.Command, error)
}

// Result is always returned, for failures too.
type Result struct {
	Status  string     `json:"status"`
	Code    string     `json:"code"`
	Message string     `json:"message"`
	Intent  nlu.Intent `json:"intent,omitempty"`
	Data    any        `json:"data,omitempty"`
}

// TransferData describes a completed payment.
type TransferData struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Receiver      string `json:"receiver"`
}

// RequestData describes a created money request.
type RequestData struct {
	RequestID string `json:"request_id"`
	Amount    string `json:"amount"`
	Requestee string `json:"requestee"`
	Status    string `json:"status"`
}

// BalanceData carries the caller's balance.
type BalanceData struct {
	Balance string `json:"balance"`
}

// Dispatcher runs interpreted commands and phrases the outcome.
type Dispatcher struct {
	interpreter Interpreter
	accounts    Accounts
	requests    Requests
	responder   nlu.Responder
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// New creates a Dispatcher. A nil recorder records nothing.
func New(
	interpreter Interpreter,
	accounts Accounts,
	requests Requests,
	responder nlu.Responder,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Dispatcher {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Dispatcher{
		interpreter: interpreter,
		accounts:    accounts,
		requests:    requests,
		responder:   responder,
		metrics:     recorder,
		logger:      logger.With("component", "dispatcher"),
	}
}

// Handle interprets text spoken by phone's owner and executes it.
func (d *Dispatcher) Handle(ctx context.Context, phone, text string) *Result {
	cmd, err := d.interpreter.Interpret(ctx, text)
	if err != nil {
		return d.finish(nlu.IntentOther, d.failure("", err))
	}
	return d.Dispatch(ctx, phone, cmd)
}

// Interpret only classifies text; nothing is executed.
func (d *Dispatcher) Interpret(ctx context.Context, text string) (*nlu.Command, error) {
	return d.interpreter.Interpret(ctx, text)
}

// Dispatch executes an already interpreted command.
func (d *Dispatcher) Dispatch(ctx context.Context, phone string, cmd *nlu.Command) *Result {
	log := d.logger.With("intent", cmd.Intent, "confidence", cmd.Confidence)
	log.Debug("Dispatch started")

	var res *Result
	switch cmd.Intent {
	case nlu.IntentTransfer:
		res = d.transfer(ctx, phone, cmd.Entities)
	case nlu.IntentRequest:
		res = d.request(ctx, phone, cmd.Entities)
	case nlu.IntentBalance:
		res = d.balance(ctx, phone)
	default:
		res = &Result{Status: StatusSuccess, Code: CodeOK, Message: d.responder.Respond(ctx, cmd.Text)}
	}
	return d.finish(cmd.Intent, res)
}

func (d *Dispatcher) finish(intent nlu.Intent, res *Result) *Result {
	res.Intent = intent
	d.metrics.CommandDispatched(string(intent), res.Status)
	return res
}

func (d *Dispatcher) transfer(ctx context.Context, phone string, e nlu.Entities) *Result {
	if e.Amount == nil {
		return d.failure("", nlu.ErrMissingAmount)
	}
	var (
		tr  *accountsvc.TransferResult
		err error
	)
	switch {
	case e.UPIID != "":
		tr, err = d.accounts.TransferByHandle(ctx, phone, e.UPIID, *e.Amount)
	case e.PhoneNumber != "":
		tr, err = d.accounts.TransferByPhone(ctx, phone, e.PhoneNumber, *e.Amount)
	default:
		return d.needTarget("Send", "to", e)
	}
	if err != nil {
		return d.failure("", err)
	}
	return &Result{
		Status:  StatusSuccess,
		Code:    CodeOK,
		Message: tr.Message(),
		Data: TransferData{
			TransactionID: tr.Transaction.ID.String(),
			Amount:        money.Format(tr.Transaction.Amount),
			Receiver:      tr.Receiver.Handle,
		},
	}
}

func (d *Dispatcher) request(ctx context.Context, phone string, e nlu.Entities) *Result {
	if e.Amount == nil {
		return d.failure("", nlu.ErrMissingAmount)
	}
	target := e.UPIID
	if target == "" {
		target = e.PhoneNumber
	}
	if target == "" {
		return d.needTarget("Request", "from", e)
	}
	c, err := d.requests.Create(ctx, phone, target, *e.Amount, "")
	if err != nil {
		return d.failure("", err)
	}
	return &Result{
		Status:  StatusSuccess,
		Code:    CodeOK,
		Message: c.Message(),
		Data: RequestData{
			RequestID: c.Request.ID.String(),
			Amount:    money.Format(c.Request.Amount),
			Requestee: c.Requestee.Handle,
			Status:    string(c.Request.Status),
		},
	}
}

func (d *Dispatcher) balance(ctx context.Context, phone string) *Result {
	b, err := d.accounts.GetBalance(ctx, phone)
	if err != nil {
		return d.failure("", err)
	}
	return &Result{
		Status:  StatusSuccess,
		Code:    CodeOK,
		Message: "Your current balance is " + money.Display(b),
		Data:    BalanceData{Balance: money.Format(b)},
	}
}

// needTarget explains what to say when only a name (or nothing) identifies
// the other party.
func (d *Dispatcher) needTarget(verb, preposition string, e nlu.Entities) *Result {
	msg := errcode.Message(nlu.ErrNeedPhoneOrHandle)
	if e.RecipientName != "" {
		msg = fmt.Sprintf("Cannot find contact details for %s. Please provide phone number or UPI ID. Try saying: '%s %s %s %s at [phone number/UPI ID]'",
			e.RecipientName, verb, money.Display(*e.Amount), preposition, e.RecipientName)
	}
	return d.failure(msg, nlu.ErrNeedPhoneOrHandle)
}

func (d *Dispatcher) failure(msg string, err error) *Result {
	if !errcode.Known(err) {
		d.logger.Error("command failed", "error", err)
	}
	if msg == "" {
		msg = errcode.Message(err)
	}
	return &Result{Status: StatusError, Code: errcode.Code(err), Message: msg}
}
