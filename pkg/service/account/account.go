// Package account implements signup, balance, transfer and history
// operations addressed by phone number or UPI handle.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/events"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/eventbus"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/amirasaad/voicepay/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Verifier gates signup on a verified phone number.
type Verifier interface {
	RequireVerified(ctx context.Context, phone string) error
	Consume(ctx context.Context, phone string) error
}

// Party is a user together with their account.
type Party struct {
	User    *user.User
	Account *account.Account
}

// TransferResult is a completed transfer as seen by the sender.
type TransferResult struct {
	Transaction *account.Transaction
	Receiver    *user.User
}

// Message is the confirmation read back to the sender.
func (r *TransferResult) Message() string {
	return fmt.Sprintf("Successfully sent %s to %s", money.Display(r.Transaction.Amount), r.Receiver.Handle)
}

// Service provides account operations.
type Service struct {
	uow          repository.UnitOfWork
	engine       *ledger.Engine
	verifier     Verifier
	bus          eventbus.Bus
	initialGrant decimal.Decimal
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithInitialGrant credits every new account with amount.
func WithInitialGrant(amount decimal.Decimal) Option {
	return func(s *Service) { s.initialGrant = amount }
}

// WithEventBus publishes UserSignedUp after signup.
func WithEventBus(bus eventbus.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

// New creates a Service. verifier may be nil only for trusted callers such
// as the seeder.
func New(
	uow repository.UnitOfWork,
	engine *ledger.Engine,
	verifier Verifier,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		uow:      uow,
		engine:   engine,
		verifier: verifier,
		logger:   logger.With("service", "account"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp registers name for an already verified phone and opens its account.
func (s *Service) SignUp(ctx context.Context, name, phone string) (*Party, error) {
	log := s.logger.With("handler", "SignUp")
	u, err := user.New(name, phone)
	if err != nil {
		return nil, err
	}
	log = log.With("handle", u.Handle)
	log.Debug("SignUp started")

	if s.verifier != nil {
		if err := s.verifier.RequireVerified(ctx, u.Phone); err != nil {
			log.Warn("SignUp rejected", "error", err)
			return nil, err
		}
	}

	acc, err := account.New().WithUserID(u.ID).WithBalance(s.initialGrant).Build()
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if exists, err := users.ExistsByPhone(ctx, u.Phone); err != nil {
			return err
		} else if exists {
			return user.ErrUserExists
		}
		if exists, err := users.ExistsByHandle(ctx, u.Handle); err != nil {
			return err
		} else if exists {
			return user.ErrNameTaken
		}
		// The unique indexes settle races between the checks above and the insert.
		if err := users.Create(ctx, u); err != nil {
			switch {
			case errors.Is(err, account.ErrDuplicatePhone):
				return user.ErrUserExists
			case errors.Is(err, account.ErrDuplicateHandle):
				return user.ErrNameTaken
			}
			return err
		}
		return accounts.Create(ctx, acc)
	})
	if err != nil {
		log.Error("SignUp failed", "error", err)
		return nil, err
	}

	if s.verifier != nil {
		if err := s.verifier.Consume(ctx, u.Phone); err != nil {
			log.Error("consume verification failed", "error", err)
		}
	}
	if s.bus != nil {
		err := s.bus.Emit(ctx, events.UserSignedUp{
			UserID:     u.ID,
			AccountID:  acc.ID,
			Name:       u.Name,
			Phone:      u.Phone,
			Handle:     u.Handle,
			OccurredAt: time.Now().UTC(),
		})
		if err != nil {
			log.Error("failed to emit event", "error", err)
		}
	}
	log.Info("SignUp successful", "user", u.ID)
	return &Party{User: u, Account: acc}, nil
}

// HasAccount reports whether phone belongs to a registered user.
func (s *Service) HasAccount(ctx context.Context, phone string) (bool, error) {
	normalized, err := user.NormalizePhone(phone)
	if err != nil {
		return false, err
	}
	users, err := s.uow.UserRepository()
	if err != nil {
		return false, err
	}
	return users.ExistsByPhone(ctx, normalized)
}

// ByPhone resolves a phone number to its user and account.
func (s *Service) ByPhone(ctx context.Context, phone string) (*Party, error) {
	normalized, err := user.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	u, err := users.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	return s.withAccount(ctx, u)
}

// ByHandle resolves a UPI handle. The "@upi" suffix is optional.
func (s *Service) ByHandle(ctx context.Context, handle string) (*Party, error) {
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	u, err := users.GetByHandle(ctx, user.NormalizeHandle(handle))
	if err != nil {
		return nil, err
	}
	return s.withAccount(ctx, u)
}

// ByHandleOrPhone resolves ref as a phone when it reads as one, else as a
// handle.
func (s *Service) ByHandleOrPhone(ctx context.Context, ref string) (*Party, error) {
	if user.IsHandle(ref) {
		return s.ByHandle(ctx, ref)
	}
	if _, err := user.NormalizePhone(ref); err == nil {
		return s.ByPhone(ctx, ref)
	}
	return s.ByHandle(ctx, ref)
}

func (s *Service) withAccount(ctx context.Context, u *user.User) (*Party, error) {
	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	acc, err := accounts.GetByUserID(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Party{User: u, Account: acc}, nil
}

// GetBalance returns the balance of the account owned by phone.
func (s *Service) GetBalance(ctx context.Context, phone string) (decimal.Decimal, error) {
	p, err := s.ByPhone(ctx, phone)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Account.Balance, nil
}

// TransferByHandle pays the owner of receiverHandle.
func (s *Service) TransferByHandle(
	ctx context.Context,
	senderPhone, receiverHandle string,
	amount decimal.Decimal,
) (*TransferResult, error) {
	return s.transfer(ctx, senderPhone, amount, func() (*Party, error) {
		return s.ByHandle(ctx, receiverHandle)
	})
}

// TransferByPhone pays the owner of receiverPhone.
func (s *Service) TransferByPhone(
	ctx context.Context,
	senderPhone, receiverPhone string,
	amount decimal.Decimal,
) (*TransferResult, error) {
	return s.transfer(ctx, senderPhone, amount, func() (*Party, error) {
		return s.ByPhone(ctx, receiverPhone)
	})
}

func (s *Service) transfer(
	ctx context.Context,
	senderPhone string,
	amount decimal.Decimal,
	receiver func() (*Party, error),
) (*TransferResult, error) {
	log := s.logger.With("handler", "Transfer", "amount", money.Format(amount))
	if err := money.RequirePositive(amount); err != nil {
		return nil, err
	}
	sender, err := s.ByPhone(ctx, senderPhone)
	if err != nil {
		log.Warn("Transfer failed: sender", "error", err)
		return nil, err
	}
	to, err := receiver()
	if err != nil {
		log.Warn("Transfer failed: receiver", "error", err)
		return nil, err
	}
	tx, err := s.engine.Transfer(ctx, sender.Account.ID, to.Account.ID, amount)
	if err != nil {
		return nil, err
	}
	return &TransferResult{Transaction: tx, Receiver: to.User}, nil
}

// FindTransaction returns one ledger row visible to phone.
func (s *Service) FindTransaction(ctx context.Context, phone string, id uuid.UUID) (*account.Transaction, error) {
	p, err := s.ByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	txs, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	tx, err := txs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.SenderID != p.Account.ID && tx.ReceiverID != p.Account.ID {
		return nil, account.ErrTransactionNotFound
	}
	return tx, nil
}
