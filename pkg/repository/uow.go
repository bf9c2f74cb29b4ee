package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Do runs the given function in a transaction boundary; every repository
// obtained from the UnitOfWork passed to fn shares that transaction.
// Repositories obtained outside Do use the plain connection.
//
//	err := uow.Do(ctx, func(tx UnitOfWork) error {
//	    accounts, err := tx.AccountRepository()
//	    ...
//	})
type UnitOfWork interface {
	// Do executes fn within a transaction. If fn returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type bound to the current session.
	GetRepository(repoType reflect.Type) (any, error)

	AccountRepository() (AccountRepository, error)
	TransactionRepository() (TransactionRepository, error)
	UserRepository() (UserRepository, error)
	MoneyRequestRepository() (MoneyRequestRepository, error)
}
