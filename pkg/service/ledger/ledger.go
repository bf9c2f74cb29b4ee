// Package ledger is the only code path that changes account balances.
//
// A transfer acquires the account locks in ascending key order, opens one
// database transaction, re-reads both rows FOR UPDATE in ascending id order,
// validates on the locked rows, then writes both balances and the
// transaction row before committing. Events and metrics are published only
// after the commit and after the locks are released.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/events"
	"github.com/amirasaad/voicepay/pkg/eventbus"
	"github.com/amirasaad/voicepay/pkg/lock"
	"github.com/amirasaad/voicepay/pkg/metrics"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithinFunc runs inside the transfer's database transaction after the
// balances and the transaction row are written. Returning an error rolls
// back the whole transfer.
type WithinFunc func(uow repository.UnitOfWork, tx *account.Transaction) error

// Transfer describes one balance movement.
type Transfer struct {
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Amount     decimal.Decimal
	// RequestID links the payment to the money request it settles.
	RequestID *uuid.UUID
	Within    WithinFunc
}

// Engine executes transfers.
type Engine struct {
	uow     repository.UnitOfWork
	locker  lock.Locker
	bus     eventbus.Bus
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an Engine. bus and recorder may be nil.
func New(
	uow repository.UnitOfWork,
	locker lock.Locker,
	bus eventbus.Bus,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Engine {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Engine{
		uow:     uow,
		locker:  locker,
		bus:     bus,
		metrics: recorder,
		logger:  logger.With("service", "ledger"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Transfer moves amount from sender to receiver.
func (e *Engine) Transfer(
	ctx context.Context,
	senderID, receiverID uuid.UUID,
	amount decimal.Decimal,
) (*account.Transaction, error) {
	return e.Execute(ctx, Transfer{SenderID: senderID, ReceiverID: receiverID, Amount: amount})
}

// TransferWithin is Transfer with fn committed atomically alongside it.
func (e *Engine) TransferWithin(
	ctx context.Context,
	senderID, receiverID uuid.UUID,
	amount decimal.Decimal,
	fn WithinFunc,
) (*account.Transaction, error) {
	return e.Execute(ctx, Transfer{SenderID: senderID, ReceiverID: receiverID, Amount: amount, Within: fn})
}

// Execute runs t. Failures leave balances and the transaction log untouched.
func (e *Engine) Execute(ctx context.Context, t Transfer) (*account.Transaction, error) {
	log := e.logger.With(
		"sender", t.SenderID,
		"receiver", t.ReceiverID,
		"amount", money.Format(t.Amount),
	)
	log.Debug("transfer started")

	if err := money.RequirePositive(t.Amount); err != nil {
		return nil, e.fail(log, err)
	}
	if t.SenderID == t.ReceiverID {
		return nil, e.fail(log, account.ErrSameAccount)
	}

	start := time.Now()
	release, err := e.locker.Lock(ctx,
		lock.AccountKey(t.SenderID.String()),
		lock.AccountKey(t.ReceiverID.String()),
	)
	if err != nil {
		return nil, e.fail(log, fmt.Errorf("acquire account locks: %w", err))
	}

	var tx *account.Transaction
	err = e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		var txErr error
		tx, txErr = e.apply(ctx, uow, t)
		return txErr
	})
	release()
	if err != nil {
		return nil, e.fail(log, err)
	}
	took := time.Since(start)

	e.metrics.TransferSucceeded(tx.Amount, took)
	e.emit(ctx, events.TransferCompleted{
		TransactionID: tx.ID,
		SenderID:      tx.SenderID,
		ReceiverID:    tx.ReceiverID,
		Amount:        tx.Amount,
		RequestID:     t.RequestID,
		OccurredAt:    tx.CreatedAt,
	})
	log.Info("transfer successful", "transaction", tx.ID, "took", took)
	return tx, nil
}

func (e *Engine) apply(ctx context.Context, uow repository.UnitOfWork, t Transfer) (*account.Transaction, error) {
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	txs, err := uow.TransactionRepository()
	if err != nil {
		return nil, err
	}

	// Row locks are taken in the same order as the process locks.
	firstID, secondID := t.SenderID, t.ReceiverID
	if bytes.Compare(firstID[:], secondID[:]) > 0 {
		firstID, secondID = secondID, firstID
	}
	first, err := accounts.GetForUpdate(ctx, firstID)
	if err != nil {
		return nil, err
	}
	second, err := accounts.GetForUpdate(ctx, secondID)
	if err != nil {
		return nil, err
	}
	sender, receiver := first, second
	if sender.ID != t.SenderID {
		sender, receiver = second, first
	}

	if err := sender.ValidateTransfer(receiver, t.Amount); err != nil {
		return nil, err
	}
	now := e.now()
	if err := sender.Debit(t.Amount, now); err != nil {
		return nil, err
	}
	if err := receiver.Credit(t.Amount, now); err != nil {
		return nil, err
	}
	if err := accounts.UpdateBalance(ctx, sender); err != nil {
		return nil, err
	}
	if err := accounts.UpdateBalance(ctx, receiver); err != nil {
		return nil, err
	}

	tx := account.NewTransaction(sender.ID, receiver.ID, t.Amount, now)
	if err := txs.Create(ctx, tx); err != nil {
		return nil, err
	}
	if t.Within != nil {
		if err := t.Within(uow, tx); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

func (e *Engine) fail(log *slog.Logger, err error) error {
	e.metrics.TransferFailed(FailureReason(err))
	if domain.Category(err) == nil {
		log.Error("transfer failed", "error", err)
	} else {
		log.Warn("transfer rejected", "error", err)
	}
	return err
}

func (e *Engine) emit(ctx context.Context, event events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Emit(ctx, event); err != nil {
		e.logger.Error("failed to emit event", "type", event.Type(), "error", err)
	}
}

// FailureReason labels err for the transfers metric.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, lock.ErrLockTimeout), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}
	return "error"
}
