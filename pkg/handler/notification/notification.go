// Package notification tells users about events on their account.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/voicepay/pkg/domain/events"
	"github.com/amirasaad/voicepay/pkg/domain/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/eventbus"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/amirasaad/voicepay/pkg/notify"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/google/uuid"
)

// Register subscribes every notification handler on bus.
func Register(bus eventbus.Bus, uow repository.UnitOfWork, sender notify.Sender, logger *slog.Logger) {
	bus.Register(string(events.EventTypeUserSignedUp), Welcome(sender, logger))
	bus.Register(string(events.EventTypeTransferCompleted), TransferCompleted(uow, sender, logger))
	bus.Register(string(events.EventTypeMoneyRequestCreated), RequestCreated(uow, sender, logger))
	bus.Register(string(events.EventTypeMoneyRequestResolved), RequestResolved(uow, sender, logger))
}

// Welcome greets a new user with their handle.
func Welcome(sender notify.Sender, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "Welcome", "event_type", e.Type())
		se, ok := e.(events.UserSignedUp)
		if !ok {
			log.Error("❌ [DISCARD] Unexpected event type", "event", e)
			return nil
		}
		return sender.Send(ctx, notify.Message{
			Phone: se.Phone,
			Kind:  notify.KindWelcome,
			Body:  fmt.Sprintf("Welcome to VoicePay, %s! Your UPI ID is %s.", se.Name, se.Handle),
		})
	}
}

// TransferCompleted tells both parties about a payment.
func TransferCompleted(uow repository.UnitOfWork, sender notify.Sender, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "TransferCompleted", "event_type", e.Type())
		tc, ok := e.(events.TransferCompleted)
		if !ok {
			log.Error("❌ [DISCARD] Unexpected event type", "event", e)
			return nil
		}
		log = log.With("transaction_id", tc.TransactionID)

		owners, err := ownersOf(ctx, uow, tc.SenderID, tc.ReceiverID)
		if err != nil {
			log.Error("❌ [ERROR] Failed to load parties", "error", err)
			return err
		}
		from, to := owners[tc.SenderID], owners[tc.ReceiverID]
		if from == nil || to == nil {
			log.Warn("❌ [DISCARD] Party no longer exists")
			return nil
		}
		amount := money.Display(tc.Amount)
		err = errors.Join(
			sender.Send(ctx, notify.Message{
				Phone: from.Phone,
				Kind:  notify.KindPaymentSent,
				Body:  fmt.Sprintf("You sent %s to %s (%s).", amount, to.Name, to.Handle),
			}),
			sender.Send(ctx, notify.Message{
				Phone: to.Phone,
				Kind:  notify.KindPaymentRecv,
				Body:  fmt.Sprintf("You received %s from %s (%s).", amount, from.Name, from.Handle),
			}),
		)
		if err != nil {
			return err
		}
		log.Info("✅ [SUCCESS] Parties notified")
		return nil
	}
}

// RequestCreated tells the requestee someone is asking them to pay.
func RequestCreated(uow repository.UnitOfWork, sender notify.Sender, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "RequestCreated", "event_type", e.Type())
		rc, ok := e.(events.MoneyRequestCreated)
		if !ok {
			log.Error("❌ [DISCARD] Unexpected event type", "event", e)
			return nil
		}
		owners, err := ownersOf(ctx, uow, rc.RequesterID, rc.RequesteeID)
		if err != nil {
			return err
		}
		from, to := owners[rc.RequesterID], owners[rc.RequesteeID]
		if from == nil || to == nil {
			log.Warn("❌ [DISCARD] Party no longer exists", "request_id", rc.RequestID)
			return nil
		}
		return sender.Send(ctx, notify.Message{
			Phone: to.Phone,
			Kind:  notify.KindRequestCreated,
			Body: fmt.Sprintf("%s (%s) requested %s: %s",
				from.Name, from.Handle, money.Display(rc.Amount), rc.Message),
		})
	}
}

// RequestResolved tells the party who did not act how a request ended.
func RequestResolved(uow repository.UnitOfWork, sender notify.Sender, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "RequestResolved", "event_type", e.Type())
		rr, ok := e.(events.MoneyRequestResolved)
		if !ok {
			log.Error("❌ [DISCARD] Unexpected event type", "event", e)
			return nil
		}
		owners, err := ownersOf(ctx, uow, rr.RequesterID, rr.RequesteeID)
		if err != nil {
			return err
		}
		requester, requestee := owners[rr.RequesterID], owners[rr.RequesteeID]
		if requester == nil || requestee == nil {
			log.Warn("❌ [DISCARD] Party no longer exists", "request_id", rr.RequestID)
			return nil
		}
		amount := money.Display(rr.Amount)

		msg := notify.Message{Kind: notify.KindRequestUpdate}
		if moneyrequest.Status(rr.Status) == moneyrequest.StatusCancelled {
			msg.Phone = requestee.Phone
			msg.Body = fmt.Sprintf("%s cancelled their request of %s.", requester.Name, amount)
		} else {
			msg.Phone = requester.Phone
			msg.Body = fmt.Sprintf("%s %s your request of %s.", requestee.Name, rr.Status, amount)
		}
		return sender.Send(ctx, msg)
	}
}

func ownersOf(ctx context.Context, uow repository.UnitOfWork, ids ...uuid.UUID) (map[uuid.UUID]*user.User, error) {
	repo, err := uow.UserRepository()
	if err != nil {
		return nil, err
	}
	return repo.OwnersOf(ctx, ids)
}
