package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimlabs/recoveryhub/internal/role/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Insert(ctx context.Context, grant *domain.UserRole) error {
	// Re-granting an existing role is a no-op.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(grant).Error
}

func (r *repo) Delete(ctx context.Context, userID snowflake.ID, role domain.Role) error {
	tx := r.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&domain.UserRole{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (r *repo) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.UserRole, error) {
	var grants []domain.UserRole
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&grants).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return grants, err
}

func (r *repo) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.UserRole{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}
