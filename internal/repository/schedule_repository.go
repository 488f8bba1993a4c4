package repository

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/model"
)

type ScheduleRepository interface {
	// ClinicSchedule returns the clinic week; the default week when none is stored.
	ClinicSchedule(ctx context.Context) (availability.WeeklySchedule, error)
	// SetClinicDay creates or replaces one day of the clinic week.
	SetClinicDay(ctx context.Context, day availability.Weekday, ds availability.DaySchedule) error
	// ProviderSchedule returns the provider's intervals that apply on date.
	ProviderSchedule(ctx context.Context, providerID uuid.UUID, on availability.Date) (availability.ProviderWeeklySchedule, error)
	// ListByProvider returns the provider's schedule rows ordered by day and start.
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]model.Schedule, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
	Create(ctx context.Context, s *model.Schedule) error
	Update(ctx context.Context, s *model.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

func (r *GormScheduleRepository) ClinicSchedule(ctx context.Context) (availability.WeeklySchedule, error) {
	var days []model.ClinicDay
	if err := r.db.WithContext(ctx).Find(&days).Error; err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return availability.DefaultClinicSchedule(), nil
	}
	ws := make(availability.WeeklySchedule, len(days))
	for _, d := range days {
		ws[d.Day] = d.DaySchedule()
	}
	return ws, nil
}

func (r *GormScheduleRepository) SetClinicDay(ctx context.Context, day availability.Weekday, ds availability.DaySchedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The first edit materializes the default week so the other days keep
		// their implicit hours.
		var count int64
		if err := tx.Model(&model.ClinicDay{}).Count(&count).Error; err != nil {
			return err
		}
		rows := []model.ClinicDay{clinicDayRow(day, ds)}
		if count == 0 {
			for d, def := range availability.DefaultClinicSchedule() {
				if d != day {
					rows = append(rows, clinicDayRow(d, def))
				}
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_open", "start_minute", "end_minute", "updated_at"}),
		}).Create(&rows).Error
	})
}

func clinicDayRow(day availability.Weekday, ds availability.DaySchedule) model.ClinicDay {
	return model.ClinicDay{
		Day:         day,
		IsOpen:      ds.IsOpen,
		StartMinute: int(ds.Start),
		EndMinute:   int(ds.End),
	}
}

func (r *GormScheduleRepository) ProviderSchedule(ctx context.Context, providerID uuid.UUID, on availability.Date) (availability.ProviderWeeklySchedule, error) {
	rows, err := r.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	ps := make(availability.ProviderWeeklySchedule, 0, len(rows))
	for _, s := range rows {
		if on.IsZero() || s.ActiveOn(on) {
			ps = append(ps, s.Interval())
		}
	}
	return ps, nil
}

func (r *GormScheduleRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	// Monday first, like the clinic editor.
	sort.SliceStable(schedules, func(i, j int) bool {
		di, dj := weekOrder(schedules[i].Day), weekOrder(schedules[j].Day)
		if di != dj {
			return di < dj
		}
		return schedules[i].StartMinute < schedules[j].StartMinute
	})
	return schedules, nil
}

func weekOrder(d availability.Weekday) int {
	return (int(d) + 6) % 7
}

func (r *GormScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	var s model.Schedule
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormScheduleRepository) Create(ctx context.Context, s *model.Schedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *GormScheduleRepository) Update(ctx context.Context, s *model.Schedule) error {
	// Select keeps zero values (Sunday, 00:00, cleared dates).
	return r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("id = ?", s.ID).
		Select("day", "start_minute", "end_minute", "valid_from", "valid_until", "updated_at").
		Updates(s).Error
}

func (r *GormScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Schedule{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
