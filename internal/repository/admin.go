package repository

import (
	"context"
	"strings"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"gorm.io/gorm"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	return translate(r.db.WithContext(ctx).Create(a).Error, errs.ErrNotFound)
}

// FindByEmail looks the admin up case-insensitively.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&a).Error
	if err != nil {
		return nil, translate(err, errs.ErrNotFound)
	}
	return &a, nil
}

func (r *AdminRepository) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	var a model.Admin
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err, errs.ErrNotFound)
	}
	return &a, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]model.Admin, error) {
	var items []model.Admin
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *AdminRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&model.Admin{}).Where("id = ?", id).Update("password_hash", hash)
	return affected(res, errs.ErrNotFound)
}

func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Admin{}, "id = ?", id)
	return affected(res, errs.ErrNotFound)
}
