package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/model"
)

type ProviderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Provider, error)
	List(ctx context.Context, onlyAvailable bool) ([]model.Provider, error)
	Create(ctx context.Context, p *model.Provider) error
	Update(ctx context.Context, p *model.Provider) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	var p model.Provider
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProviderRepository) List(ctx context.Context, onlyAvailable bool) ([]model.Provider, error) {
	q := r.db.WithContext(ctx).Model(&model.Provider{})
	if onlyAvailable {
		q = q.Where("available = ?", true)
	}
	var providers []model.Provider
	if err := q.Order("display_name ASC").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *GormProviderRepository) Create(ctx context.Context, p *model.Provider) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *GormProviderRepository) Update(ctx context.Context, p *model.Provider) error {
	res := r.db.WithContext(ctx).
		Model(&model.Provider{}).
		Where("id = ?", p.ID).
		Select("display_name", "specialty", "available", "updated_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the provider. Appointments reference providers with
// ON DELETE RESTRICT, so a provider with bookings cannot be removed.
func (r *GormProviderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booked int64
		if err := tx.Model(&model.Appointment{}).Where("provider_id = ?", id).Count(&booked).Error; err != nil {
			return err
		}
		if booked > 0 {
			return gorm.ErrForeignKeyViolated
		}
		if err := tx.Where("provider_id = ?", id).Delete(&model.ProviderService{}).Error; err != nil {
			return err
		}
		if err := tx.Where("provider_id = ?", id).Delete(&model.Schedule{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.MedicalRecord{}).Where("provider_id = ?", id).Update("provider_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Provider{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
