package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/model"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// Reschedule moves the appointment and resets its status.
	Reschedule(ctx context.Context, id uuid.UUID, date availability.Date, start availability.TimeOfDay, status model.AppointmentStatus) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, cancelledAt *time.Time) error
	// Complete marks the appointment completed and stores the treatment given.
	Complete(ctx context.Context, id uuid.UUID, treatment, remarks string) error
	UpdateTreatment(ctx context.Context, id uuid.UUID, treatment, remarks string) error
	// ListByProviderAndDate returns the provider's appointments of one day, any status.
	ListByProviderAndDate(ctx context.Context, providerID uuid.UUID, date availability.Date) ([]model.Appointment, error)
	// ListByPatient returns the patient's appointments, newest date first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]model.Appointment, error)
}

type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

// ToDBDate converts a calendar date into the column type.
func ToDBDate(d availability.Date) datatypes.Date {
	return datatypes.Date(d.Time())
}

// FromDBDate is the inverse of ToDBDate.
func FromDBDate(d datatypes.Date) availability.Date {
	return availability.DateOf(time.Time(d))
}

func (r *GormAppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	date availability.Date,
	start availability.TimeOfDay,
	status model.AppointmentStatus,
) error {
	return r.update(ctx, id, map[string]any{
		"appointment_date": ToDBDate(date),
		"start_minute":     int(start),
		"status":           status,
	})
}

func (r *GormAppointmentRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status model.AppointmentStatus,
	cancelledAt *time.Time,
) error {
	update := map[string]any{
		"status": status,
	}
	if cancelledAt != nil {
		update["cancelled_at"] = *cancelledAt
	}
	return r.update(ctx, id, update)
}

func (r *GormAppointmentRepository) Complete(ctx context.Context, id uuid.UUID, treatment, remarks string) error {
	return r.update(ctx, id, map[string]any{
		"status":    model.AppointmentStatusCompleted,
		"treatment": treatment,
		"remarks":   remarks,
	})
}

func (r *GormAppointmentRepository) UpdateTreatment(ctx context.Context, id uuid.UUID, treatment, remarks string) error {
	return r.update(ctx, id, map[string]any{
		"treatment": treatment,
		"remarks":   remarks,
	})
}

func (r *GormAppointmentRepository) update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormAppointmentRepository) ListByProviderAndDate(
	ctx context.Context,
	providerID uuid.UUID,
	date availability.Date,
) ([]model.Appointment, error) {
	var out []model.Appointment
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Where("appointment_date = ?", ToDBDate(date)).
		Order("start_minute ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormAppointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]model.Appointment, error) {
	var out []model.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("appointment_date DESC").
		Order("start_minute DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
