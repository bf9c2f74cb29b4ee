package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/amirasaad/voicepay/pkg/domain/account"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a gorm-backed repository.UserRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

var _ repository.UserRepository = (*userRepository)(nil)

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	m := User{
		ID:        u.ID,
		Name:      u.Name,
		Phone:     u.Phone,
		Handle:    u.Handle,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	err := r.db.WithContext(ctx).Create(&m).Error
	if err == nil {
		return nil
	}
	if target, ok := uniqueViolation(err); ok {
		if strings.Contains(target, "handle") {
			return account.ErrDuplicateHandle
		}
		return account.ErrDuplicatePhone
	}
	return MapGormErrorToDomain(err)
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	return r.first(ctx, "phone = ?", phone)
}

func (r *userRepository) GetByHandle(ctx context.Context, handle string) (*user.User, error) {
	return r.first(ctx, "handle = ?", handle)
}

func (r *userRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, "phone = ?", phone)
}

func (r *userRepository) ExistsByHandle(ctx context.Context, handle string) (bool, error) {
	return r.exists(ctx, "handle = ?", handle)
}

func (r *userRepository) OwnersOf(ctx context.Context, accountIDs []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	owners := make(map[uuid.UUID]*user.User, len(accountIDs))
	if len(accountIDs) == 0 {
		return owners, nil
	}
	var accts []Account
	if err := r.db.WithContext(ctx).Select("id", "user_id").Where("id IN ?", accountIDs).Find(&accts).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	userIDs := make([]uuid.UUID, 0, len(accts))
	for _, a := range accts {
		userIDs = append(userIDs, a.UserID)
	}
	var users []User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	byID := make(map[uuid.UUID]*user.User, len(users))
	for i := range users {
		byID[users[i].ID] = toDomainUser(&users[i])
	}
	for _, a := range accts {
		if u, ok := byID[a.UserID]; ok {
			owners[a.ID] = u
		}
	}
	return owners, nil
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		return nil, MapGormErrorToDomain(err, user.ErrUserNotFound)
	}
	return toDomainUser(&m), nil
}

func (r *userRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&User{}).Where(query, arg).Count(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return count > 0, nil
}

func toDomainUser(m *User) *user.User {
	return user.NewFromData(m.ID, m.Name, m.Phone, m.Handle, m.CreatedAt, m.UpdatedAt)
}
