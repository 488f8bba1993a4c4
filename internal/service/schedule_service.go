package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
)

// ScheduleService edits the clinic week and the providers' working hours.
// Every successful edit is written to the audit log and published.
type ScheduleService struct {
	schedules repository.ScheduleRepository
	providers repository.ProviderRepository
	audit     repository.EventRepository
	bus       events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewScheduleService(
	schedules repository.ScheduleRepository,
	providers repository.ProviderRepository,
	audit repository.EventRepository,
	bus events.Publisher,
	logger *zap.Logger,
) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules: schedules,
		providers: providers,
		audit:     audit,
		bus:       bus,
		logger:    logger,
		now:       time.Now,
	}
}

// IntervalInput describes one block of provider hours.
type IntervalInput struct {
	Day        availability.Weekday
	Start      availability.TimeOfDay
	End        availability.TimeOfDay
	ValidFrom  *availability.Date
	ValidUntil *availability.Date
}

func (s *ScheduleService) ClinicSchedule(ctx context.Context) (availability.WeeklySchedule, error) {
	ws, err := s.schedules.ClinicSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clinic schedule: %w", err)
	}
	return ws, nil
}

// SetClinicDay replaces one day of the clinic week. Hours are checked for
// order only when the day is open.
func (s *ScheduleService) SetClinicDay(ctx context.Context, day availability.Weekday, ds availability.DaySchedule) error {
	if !day.Valid() {
		return fmt.Errorf("%w: unknown weekday %d", ErrInvalidArgument, int(day))
	}
	if !ds.Start.Valid() || !ds.End.Valid() {
		return fmt.Errorf("%w: time out of range", ErrInvalidTimeRange)
	}
	if ds.IsOpen && ds.Start >= ds.End {
		return fmt.Errorf("%w: opening %s is not before closing %s", ErrInvalidTimeRange, ds.Start, ds.End)
	}

	if err := s.schedules.SetClinicDay(ctx, day, ds); err != nil {
		return fmt.Errorf("save clinic day: %w", err)
	}

	s.logger.Info("clinic day updated",
		zap.Stringer("day", day),
		zap.Bool("open", ds.IsOpen),
		zap.Stringer("start", ds.Start),
		zap.Stringer("end", ds.End),
	)
	s.record(ctx, model.EventTypeClinicScheduleUpdated, nil, map[string]any{
		"day":   day.String(),
		"open":  ds.IsOpen,
		"start": ds.Start.String(),
		"end":   ds.End.String(),
	})
	s.publish(ctx, events.Change{Topic: events.TopicClinicSchedule, EntityID: day.String()})
	return nil
}

func (s *ScheduleService) ProviderSchedule(ctx context.Context, providerID uuid.UUID) ([]model.Schedule, error) {
	if err := s.ensureProvider(ctx, providerID); err != nil {
		return nil, err
	}
	rows, err := s.schedules.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list provider schedule: %w", err)
	}
	return rows, nil
}

func (s *ScheduleService) AddProviderInterval(ctx context.Context, providerID uuid.UUID, in IntervalInput) (*model.Schedule, error) {
	if err := validateInterval(in); err != nil {
		return nil, err
	}
	if err := s.ensureProvider(ctx, providerID); err != nil {
		return nil, err
	}

	row := &model.Schedule{ProviderID: providerID}
	applyInterval(row, in)
	if err := s.schedules.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	s.providerChanged(ctx, row, "added")
	return row, nil
}

func (s *ScheduleService) UpdateProviderInterval(ctx context.Context, scheduleID uuid.UUID, in IntervalInput) (*model.Schedule, error) {
	if err := validateInterval(in); err != nil {
		return nil, err
	}
	row, err := s.getSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	applyInterval(row, in)
	if err := s.schedules.Update(ctx, row); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	s.providerChanged(ctx, row, "updated")
	return row, nil
}

func (s *ScheduleService) RemoveProviderInterval(ctx context.Context, scheduleID uuid.UUID) error {
	row, err := s.getSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("delete schedule: %w", err)
	}

	s.providerChanged(ctx, row, "removed")
	return nil
}

func (s *ScheduleService) getSchedule(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	row, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return row, nil
}

func (s *ScheduleService) ensureProvider(ctx context.Context, id uuid.UUID) error {
	if _, err := s.providers.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProviderNotFound
		}
		return fmt.Errorf("load provider: %w", err)
	}
	return nil
}

func (s *ScheduleService) providerChanged(ctx context.Context, row *model.Schedule, action string) {
	s.logger.Info("provider schedule "+action,
		zap.String("provider_id", row.ProviderID.String()),
		zap.String("schedule_id", row.ID.String()),
		zap.Stringer("day", row.Day),
	)
	providerID := row.ProviderID
	s.record(ctx, model.EventTypeProviderScheduleUpdated, &providerID, map[string]any{
		"action":      action,
		"schedule_id": row.ID.String(),
		"day":         row.Day.String(),
		"start":       availability.TimeOfDay(row.StartMinute).String(),
		"end":         availability.TimeOfDay(row.EndMinute).String(),
	})
	s.publish(ctx, events.Change{
		Topic:      events.TopicProviderSchedule,
		EntityID:   row.ID.String(),
		ProviderID: providerID.String(),
	})
}

// record and publish never fail the edit that triggered them.
func (s *ScheduleService) record(ctx context.Context, t model.EventType, providerID *uuid.UUID, details any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, t, providerID, nil, details); err != nil {
		s.logger.Warn("audit record failed", zap.String("event", string(t)), zap.Error(err))
	}
}

func (s *ScheduleService) publish(ctx context.Context, c events.Change) {
	if s.bus == nil {
		return
	}
	c.At = s.now().UTC()
	if err := s.bus.Publish(ctx, c); err != nil {
		s.logger.Warn("publish change failed", zap.String("topic", string(c.Topic)), zap.Error(err))
	}
}

func validateInterval(in IntervalInput) error {
	if !in.Day.Valid() {
		return fmt.Errorf("%w: unknown weekday %d", ErrInvalidArgument, int(in.Day))
	}
	if !in.Start.Valid() || !in.End.Valid() {
		return fmt.Errorf("%w: time out of range", ErrInvalidTimeRange)
	}
	if in.Start >= in.End {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidTimeRange, in.Start, in.End)
	}
	if in.ValidFrom != nil && in.ValidUntil != nil && in.ValidUntil.Before(*in.ValidFrom) {
		return fmt.Errorf("%w: valid_until before valid_from", ErrInvalidArgument)
	}
	return nil
}

func applyInterval(row *model.Schedule, in IntervalInput) {
	row.Day = in.Day
	row.StartMinute = int(in.Start)
	row.EndMinute = int(in.End)
	row.ValidFrom = optionalDate(in.ValidFrom)
	row.ValidUntil = optionalDate(in.ValidUntil)
}
