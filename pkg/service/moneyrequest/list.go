package moneyrequest

import (
	"context"
	"sort"

	"github.com/amirasaad/voicepay/pkg/domain/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Entry is a request with the other party resolved.
type Entry struct {
	Request      *moneyrequest.MoneyRequest
	Counterparty *user.User
}

// Listing holds the requests an account sent and received, newest first.
type Listing struct {
	Sent     []Entry
	Received []Entry
}

// List returns every request phone's account is a party to.
func (s *Service) List(ctx context.Context, phone string) (*Listing, error) {
	p, err := s.directory.ByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	repo, err := s.uow.MoneyRequestRepository()
	if err != nil {
		return nil, err
	}

	var sent, received []*moneyrequest.MoneyRequest
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sent, err = repo.ListByRequester(gctx, p.Account.ID)
		return err
	})
	g.Go(func() error {
		var err error
		received, err = repo.ListByRequestee(gctx, p.Account.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("List failed", "error", err)
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(sent)+len(received))
	for _, r := range sent {
		ids = append(ids, r.RequesteeID)
	}
	for _, r := range received {
		ids = append(ids, r.RequesterID)
	}
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	owners, err := users.OwnersOf(ctx, ids)
	if err != nil {
		return nil, err
	}

	l := &Listing{Sent: make([]Entry, 0, len(sent)), Received: make([]Entry, 0, len(received))}
	for _, r := range sent {
		l.Sent = append(l.Sent, Entry{Request: r, Counterparty: owners[r.RequesteeID]})
	}
	for _, r := range received {
		l.Received = append(l.Received, Entry{Request: r, Counterparty: owners[r.RequesterID]})
	}
	for _, entries := range [][]Entry{l.Sent, l.Received} {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Request.CreatedAt.After(entries[j].Request.CreatedAt)
		})
	}
	return l, nil
}
