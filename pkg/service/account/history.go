package account

import (
	"context"
	"sort"

	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// HistoryEntry is one ledger row with the other party resolved.
type HistoryEntry struct {
	Transaction  *account.Transaction
	Counterparty *user.User
}

// History splits an account's ledger rows by direction, newest first.
type History struct {
	Sent     []HistoryEntry
	Received []HistoryEntry
}

// ListTransactions returns every transaction phone's account took part in.
func (s *Service) ListTransactions(ctx context.Context, phone string) (*History, error) {
	p, err := s.ByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	txs, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}

	var sent, received []*account.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sent, err = txs.ListBySender(gctx, p.Account.ID)
		return err
	})
	g.Go(func() error {
		var err error
		received, err = txs.ListByReceiver(gctx, p.Account.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("ListTransactions failed", "error", err)
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(sent)+len(received))
	for _, tx := range sent {
		ids = append(ids, tx.ReceiverID)
	}
	for _, tx := range received {
		ids = append(ids, tx.SenderID)
	}
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	owners, err := users.OwnersOf(ctx, ids)
	if err != nil {
		return nil, err
	}

	h := &History{
		Sent:     make([]HistoryEntry, 0, len(sent)),
		Received: make([]HistoryEntry, 0, len(received)),
	}
	for _, tx := range sent {
		h.Sent = append(h.Sent, HistoryEntry{Transaction: tx, Counterparty: owners[tx.ReceiverID]})
	}
	for _, tx := range received {
		h.Received = append(h.Received, HistoryEntry{Transaction: tx, Counterparty: owners[tx.SenderID]})
	}
	newestFirst(h.Sent)
	newestFirst(h.Received)
	return h, nil
}

func newestFirst(entries []HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Transaction.CreatedAt.After(entries[j].Transaction.CreatedAt)
	})
}
