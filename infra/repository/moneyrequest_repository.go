package repository

import (
	"context"

	"github.com/amirasaad/voicepay/pkg/domain/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type moneyRequestRepository struct {
	db *gorm.DB
}

// NewMoneyRequestRepository returns a gorm-backed repository.MoneyRequestRepository.
func NewMoneyRequestRepository(db *gorm.DB) repository.MoneyRequestRepository {
	return &moneyRequestRepository{db: db}
}

var _ repository.MoneyRequestRepository = (*moneyRequestRepository)(nil)

func (r *moneyRequestRepository) Create(ctx context.Context, req *moneyrequest.MoneyRequest) error {
	m := MoneyRequest{
		ID:          req.ID,
		RequesterID: req.RequesterID,
		RequesteeID: req.RequesteeID,
		Amount:      req.Amount,
		Message:     req.Message,
		Status:      string(req.Status),
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *moneyRequestRepository) Get(ctx context.Context, id uuid.UUID) (*moneyrequest.MoneyRequest, error) {
	var m MoneyRequest
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err, moneyrequest.ErrRequestNotFound)
	}
	return toDomainMoneyRequest(&m), nil
}

func (r *moneyRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*moneyrequest.MoneyRequest, error) {
	var m MoneyRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err, moneyrequest.ErrRequestNotFound)
	}
	return toDomainMoneyRequest(&m), nil
}

// UpdateStatus is a compare-and-swap on status = pending, so a second
// resolution can never overwrite the first even without row locks.
func (r *moneyRequestRepository) UpdateStatus(ctx context.Context, req *moneyrequest.MoneyRequest) error {
	res := r.db.WithContext(ctx).
		Model(&MoneyRequest{}).
		Where("id = ? AND status = ?", req.ID, string(moneyrequest.StatusPending)).
		Updates(map[string]any{"status": string(req.Status), "updated_at": req.UpdatedAt})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return moneyrequest.ErrAlreadyResolved
	}
	return nil
}

func (r *moneyRequestRepository) ListByRequester(ctx context.Context, accountID uuid.UUID) ([]*moneyrequest.MoneyRequest, error) {
	return r.list(ctx, "requester_id = ?", accountID)
}

func (r *moneyRequestRepository) ListByRequestee(ctx context.Context, accountID uuid.UUID) ([]*moneyrequest.MoneyRequest, error) {
	return r.list(ctx, "requestee_id = ?", accountID)
}

func (r *moneyRequestRepository) list(ctx context.Context, query string, id uuid.UUID) ([]*moneyrequest.MoneyRequest, error) {
	var rows []MoneyRequest
	if err := r.db.WithContext(ctx).Where(query, id).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*moneyrequest.MoneyRequest, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainMoneyRequest(&rows[i]))
	}
	return out, nil
}

func toDomainMoneyRequest(m *MoneyRequest) *moneyrequest.MoneyRequest {
	return &moneyrequest.MoneyRequest{
		ID:          m.ID,
		RequesterID: m.RequesterID,
		RequesteeID: m.RequesteeID,
		Amount:      m.Amount,
		Message:     m.Message,
		Status:      moneyrequest.Status(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
