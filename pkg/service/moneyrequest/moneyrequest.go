// Package moneyrequest lets a user ask another to pay them and lets the
// parties resolve that ask exactly once.
package moneyrequest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/events"
	"github.com/amirasaad/voicepay/pkg/domain/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/eventbus"
	"github.com/amirasaad/voicepay/pkg/lock"
	"github.com/amirasaad/voicepay/pkg/metrics"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/amirasaad/voicepay/pkg/repository"
	accountsvc "github.com/amirasaad/voicepay/pkg/service/account"
	"github.com/amirasaad/voicepay/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Directory resolves parties by phone or handle.
type Directory interface {
	ByPhone(ctx context.Context, phone string) (*accountsvc.Party, error)
	ByHandleOrPhone(ctx context.Context, ref string) (*accountsvc.Party, error)
}

// Created is a new pending request as seen by its requester.
type Created struct {
	Request   *moneyrequest.MoneyRequest
	Requestee *user.User
}

// Message is the confirmation read back to the requester.
func (c *Created) Message() string {
	return fmt.Sprintf("Money request of %s sent to %s", money.Display(c.Request.Amount), c.Requestee.Name)
}

// Resolved is the outcome of a transition. Transaction is set on approval.
type Resolved struct {
	Request     *moneyrequest.MoneyRequest
	Transaction *account.Transaction
}

// Service coordinates request creation and resolution.
type Service struct {
	uow       repository.UnitOfWork
	engine    *ledger.Engine
	locker    lock.Locker
	directory Directory
	bus       eventbus.Bus
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Service. bus and recorder may be nil.
func New(
	uow repository.UnitOfWork,
	engine *ledger.Engine,
	locker lock.Locker,
	directory Directory,
	bus eventbus.Bus,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		uow:       uow,
		engine:    engine,
		locker:    locker,
		directory: directory,
		bus:       bus,
		metrics:   recorder,
		logger:    logger.With("service", "moneyrequest"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create asks the owner of requestee (a handle or phone) to pay amount to
// the owner of requesterPhone.
func (s *Service) Create(
	ctx context.Context,
	requesterPhone, requestee string,
	amount decimal.Decimal,
	message string,
) (*Created, error) {
	log := s.logger.With("handler", "Create", "amount", money.Format(amount))
	from, err := s.directory.ByPhone(ctx, requesterPhone)
	if err != nil {
		return nil, err
	}
	to, err := s.directory.ByHandleOrPhone(ctx, requestee)
	if err != nil {
		log.Warn("Create failed: requestee", "error", err)
		return nil, err
	}
	r, err := moneyrequest.New(from.Account.ID, to.Account.ID, amount, message)
	if err != nil {
		return nil, err
	}
	repo, err := s.uow.MoneyRequestRepository()
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, r); err != nil {
		log.Error("Create failed", "error", err)
		return nil, err
	}

	s.metrics.MoneyRequest(string(moneyrequest.StatusPending))
	s.emit(ctx, events.MoneyRequestCreated{
		RequestID:   r.ID,
		RequesterID: r.RequesterID,
		RequesteeID: r.RequesteeID,
		Amount:      r.Amount,
		Message:     r.Message,
		OccurredAt:  r.CreatedAt,
	})
	log.Info("Create successful", "request", r.ID)
	return &Created{Request: r, Requestee: to.User}, nil
}

// Resolve moves the request to target on behalf of actorPhone.
//
// Approval pays requestee -> requester and flips the status in the same
// database transaction; if the payment fails the request stays pending.
func (s *Service) Resolve(
	ctx context.Context,
	requestID uuid.UUID,
	actorPhone string,
	target moneyrequest.Status,
) (*Resolved, error) {
	log := s.logger.With("handler", "Resolve", "request", requestID, "target", target)
	log.Debug("Resolve started")

	actor, err := s.directory.ByPhone(ctx, actorPhone)
	if err != nil {
		return nil, err
	}
	release, err := s.locker.Lock(ctx, lock.RequestKey(requestID.String()))
	if err != nil {
		return nil, fmt.Errorf("acquire request lock: %w", err)
	}
	defer release()

	repo, err := s.uow.MoneyRequestRepository()
	if err != nil {
		return nil, err
	}
	current, err := repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := current.CanTransition(actor.Account.ID, target); err != nil {
		log.Warn("Resolve rejected", "status", current.Status, "error", err)
		return nil, err
	}

	var (
		resolved *moneyrequest.MoneyRequest
		tx       *account.Transaction
	)
	transition := func(uow repository.UnitOfWork) error {
		requests, err := uow.MoneyRequestRepository()
		if err != nil {
			return err
		}
		r, err := requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := r.Resolve(actor.Account.ID, target, s.now()); err != nil {
			return err
		}
		if err := requests.UpdateStatus(ctx, r); err != nil {
			return err
		}
		resolved = r
		return nil
	}

	if target == moneyrequest.StatusApproved {
		tx, err = s.engine.Execute(ctx, ledger.Transfer{
			SenderID:   current.RequesteeID,
			ReceiverID: current.RequesterID,
			Amount:     current.Amount,
			RequestID:  &requestID,
			Within: func(uow repository.UnitOfWork, _ *account.Transaction) error {
				return transition(uow)
			},
		})
	} else {
		err = s.uow.Do(ctx, transition)
	}
	if err != nil {
		log.Warn("Resolve failed", "error", err)
		return nil, err
	}

	s.metrics.MoneyRequest(string(resolved.Status))
	s.emit(ctx, events.MoneyRequestResolved{
		RequestID:   resolved.ID,
		RequesterID: resolved.RequesterID,
		RequesteeID: resolved.RequesteeID,
		Amount:      resolved.Amount,
		Status:      string(resolved.Status),
		OccurredAt:  resolved.UpdatedAt,
	})
	log.Info("Resolve successful", "status", resolved.Status)
	return &Resolved{Request: resolved, Transaction: tx}, nil
}

// Get returns a request visible to phone. Non-parties see ErrRequestNotFound.
func (s *Service) Get(ctx context.Context, phone string, requestID uuid.UUID) (*moneyrequest.MoneyRequest, error) {
	p, err := s.directory.ByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	repo, err := s.uow.MoneyRequestRepository()
	if err != nil {
		return nil, err
	}
	r, err := repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.RequesterID != p.Account.ID && r.RequesteeID != p.Account.ID {
		return nil, moneyrequest.ErrRequestNotFound
	}
	return r, nil
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, event); err != nil {
		s.logger.Error("failed to emit event", "type", event.Type(), "error", err)
	}
}
