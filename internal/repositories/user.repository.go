package repositories

import (
	"context"

	"guardpost/internal/constants"
	"guardpost/internal/database"
	"guardpost/internal/logger"
	. "guardpost/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetActiveGuards(ctx context.Context, ids []uuid.UUID) ([]User, error)
	ListOperators(ctx context.Context) ([]User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
}

type userRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUserRepository(db database.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	log := r.log.Function("GetByID")

	var user User
	cacheKey := constants.UserCachePrefix + id.String()
	if found, err := database.NewCacheBuilder(r.db.Cache.User, cacheKey).WithContext(ctx).Get(&user); err == nil && found {
		return &user, nil
	}

	if err := r.db.SQLWithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get user", err, "userID", id)
	}

	if err := database.NewCacheBuilder(r.db.Cache.User, cacheKey).
		WithStruct(&user).
		WithTTL(constants.UserCacheExpiry).
		WithContext(ctx).
		Set(); err != nil {
		log.Warn("failed to add user to cache", "userID", id, "error", err)
	}

	return &user, nil
}

// GetActiveGuards resolves the given IDs to active guard accounts. The
// caller compares lengths to detect unknown or non-guard IDs.
func (r *userRepository) GetActiveGuards(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	log := r.log.Function("GetActiveGuards")

	var guards []User
	err := r.db.SQLWithContext(ctx).
		Where("id IN ? AND role = ? AND is_active", ids, RoleGuard).
		Find(&guards).Error
	if err != nil {
		return nil, log.Err("failed to resolve guards", err, "ids", ids)
	}

	return guards, nil
}

// ListOperators returns every active operator account. The broadcast list
// is resolved at send time, not cached.
func (r *userRepository) ListOperators(ctx context.Context) ([]User, error) {
	log := r.log.Function("ListOperators")

	var operators []User
	err := r.db.SQLWithContext(ctx).
		Where("role = ? AND is_active", RoleOperator).
		Find(&operators).Error
	if err != nil {
		return nil, log.Err("failed to list operators", err)
	}

	return operators, nil
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(user).Error; err != nil {
		return log.Err("failed to create user", err, "email", user.Email)
	}

	return nil
}

func (r *userRepository) Update(ctx context.Context, user *User) error {
	log := r.log.Function("Update")

	if err := r.db.SQLWithContext(ctx).Save(user).Error; err != nil {
		return log.Err("failed to update user", err, "userID", user.ID)
	}

	cacheKey := constants.UserCachePrefix + user.ID.String()
	if err := database.NewCacheBuilder(r.db.Cache.User, cacheKey).WithContext(ctx).Delete(); err != nil {
		log.Warn("failed to clear user cache after update", "userID", user.ID, "error", err)
	}

	return nil
}
