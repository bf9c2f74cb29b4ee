package repository

import (
	"context"

	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository returns a gorm-backed repository.TransactionRepository.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

var _ repository.TransactionRepository = (*transactionRepository)(nil)

func (r *transactionRepository) Create(ctx context.Context, tx *account.Transaction) error {
	m := Transaction{
		ID:         tx.ID,
		SenderID:   tx.SenderID,
		ReceiverID: tx.ReceiverID,
		Amount:     tx.Amount,
		Status:     string(tx.Status),
		CreatedAt:  tx.CreatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err, account.ErrTransactionNotFound)
	}
	return toDomainTransaction(&m), nil
}

func (r *transactionRepository) ListBySender(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error) {
	return r.list(ctx, "sender_id = ?", accountID)
}

func (r *transactionRepository) ListByReceiver(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error) {
	return r.list(ctx, "receiver_id = ?", accountID)
}

func (r *transactionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Transaction{}).Count(&n).Error
	return n, err
}

func (r *transactionRepository) list(ctx context.Context, query string, id uuid.UUID) ([]*account.Transaction, error) {
	var rows []Transaction
	if err := r.db.WithContext(ctx).Where(query, id).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*account.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainTransaction(&rows[i]))
	}
	return out, nil
}

func toDomainTransaction(m *Transaction) *account.Transaction {
	return account.NewTransactionFromData(
		m.ID,
		m.SenderID,
		m.ReceiverID,
		m.Amount,
		account.TransactionStatus(m.Status),
		m.CreatedAt,
	)
}
