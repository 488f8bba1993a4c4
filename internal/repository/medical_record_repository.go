package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/model"
)

type MedicalRecordRepository interface {
	Create(ctx context.Context, m *model.MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
	// ListByPatient returns the patient's records, newest date first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]model.MedicalRecord, error)
	// Update rewrites everything but the patient.
	Update(ctx context.Context, m *model.MedicalRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormMedicalRecordRepository struct {
	db *gorm.DB
}

func NewGormMedicalRecordRepository(db *gorm.DB) *GormMedicalRecordRepository {
	return &GormMedicalRecordRepository{db: db}
}

func (r *GormMedicalRecordRepository) Create(ctx context.Context, m *model.MedicalRecord) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *GormMedicalRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	var m model.MedicalRecord
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormMedicalRecordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]model.MedicalRecord, error) {
	var out []model.MedicalRecord
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("record_date DESC").
		Order("start_minute DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormMedicalRecordRepository) Update(ctx context.Context, m *model.MedicalRecord) error {
	res := r.db.WithContext(ctx).
		Model(&model.MedicalRecord{}).
		Where("id = ?", m.ID).
		Select("provider_id", "service_id", "record_date", "start_minute", "treatment", "remarks", "updated_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormMedicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.MedicalRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
