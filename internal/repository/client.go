package repository

import (
	"context"
	"strings"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"gorm.io/gorm"
)

type ClientFilter struct {
	Status model.ClientStatus
	Limit  int
	Offset int
}

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, c *model.Client) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, errs.ErrNotFound)
}

func (r *ClientRepository) FindByEmail(ctx context.Context, email string) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&c).Error
	if err != nil {
		return nil, translate(err, errs.ErrNotFound)
	}
	return &c, nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, errs.ErrNotFound)
	}
	return &c, nil
}

func (r *ClientRepository) List(ctx context.Context, f ClientFilter) ([]model.Client, int64, error) {
	var items []model.Client
	var total int64
	tx := r.db.WithContext(ctx).Model(&model.Client{})
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	if f.Offset > 0 {
		tx = tx.Offset(f.Offset)
	}
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateProfile applies name/company/phone changes; other columns are not writable here.
func (r *ClientRepository) UpdateProfile(ctx context.Context, id string, changes map[string]interface{}) error {
	for k := range changes {
		switch k {
		case "name", "company", "phone":
		default:
			return errs.Validation("field %q is not editable", k)
		}
	}
	res := r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Updates(changes)
	return affected(res, errs.ErrNotFound)
}

func (r *ClientRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Update("password_hash", hash)
	return affected(res, errs.ErrNotFound)
}

func (r *ClientRepository) SetStatus(ctx context.Context, id string, status model.ClientStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Update("status", status)
	return affected(res, errs.ErrNotFound)
}
