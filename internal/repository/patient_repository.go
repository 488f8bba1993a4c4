package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/model"
)

type PatientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	FindByEmail(ctx context.Context, email string) (*model.Patient, error)
	Create(ctx context.Context, p *model.Patient) error
}

type GormPatientRepository struct {
	db *gorm.DB
}

func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

func (r *GormPatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GormPatientRepository) FindByEmail(ctx context.Context, email string) (*model.Patient, error) {
	n := normalizeEmail(email)
	if n == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var p model.Patient
	if err := r.db.WithContext(ctx).Where("email = ?", n).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPatientRepository) Create(ctx context.Context, p *model.Patient) error {
	p.Email = normalizeEmail(p.Email)
	return r.db.WithContext(ctx).Create(p).Error
}
