package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
)

// AvailabilityService feeds the stored schedules into availability.Resolve.
type AvailabilityService struct {
	providers    repository.ProviderRepository
	schedules    repository.ScheduleRepository
	appointments repository.AppointmentRepository

	intervalMinutes int
	logger          *zap.Logger
}

func NewAvailabilityService(
	providers repository.ProviderRepository,
	schedules repository.ScheduleRepository,
	appointments repository.AppointmentRepository,
	intervalMinutes int,
	logger *zap.Logger,
) *AvailabilityService {
	if intervalMinutes <= 0 {
		intervalMinutes = availability.DefaultSlotInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		providers:       providers,
		schedules:       schedules,
		appointments:    appointments,
		intervalMinutes: intervalMinutes,
		logger:          logger,
	}
}

func (s *AvailabilityService) IntervalMinutes() int {
	return s.intervalMinutes
}

// ListSlots resolves the slot starts of a provider on date. A provider that
// is switched off counts as having no hours.
func (s *AvailabilityService) ListSlots(ctx context.Context, providerID uuid.UUID, date availability.Date) (availability.Result, error) {
	if date.IsZero() {
		return availability.Result{}, fmt.Errorf("%w: date is required", ErrInvalidArgument)
	}

	p, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return availability.Result{}, ErrProviderNotFound
		}
		return availability.Result{}, fmt.Errorf("load provider: %w", err)
	}

	clinic, err := s.schedules.ClinicSchedule(ctx)
	if err != nil {
		return availability.Result{}, fmt.Errorf("load clinic schedule: %w", err)
	}

	var provider availability.ProviderWeeklySchedule
	if p.Available {
		provider, err = s.schedules.ProviderSchedule(ctx, providerID, date)
		if err != nil {
			return availability.Result{}, fmt.Errorf("load provider schedule: %w", err)
		}
	}

	res := availability.Resolve(date, clinic, provider, s.intervalMinutes)
	s.logger.Debug("slots resolved",
		zap.String("provider_id", providerID.String()),
		zap.Stringer("date", date),
		zap.Stringer("reason", res.Reason),
		zap.Int("slots", len(res.Slots)),
	)
	return res, nil
}

// OpenSlots is a resolved day with the already booked starts split off.
type OpenSlots struct {
	availability.Result
	Open  []availability.TimeOfDay
	Taken []availability.TimeOfDay
}

// ListOpenSlots is ListSlots minus the starts held by active appointments.
func (s *AvailabilityService) ListOpenSlots(ctx context.Context, providerID uuid.UUID, date availability.Date) (OpenSlots, error) {
	res, err := s.ListSlots(ctx, providerID, date)
	if err != nil {
		return OpenSlots{}, err
	}
	out := OpenSlots{Result: res}
	if !res.Available() {
		return out, nil
	}

	taken, err := s.takenStarts(ctx, providerID, date, uuid.Nil)
	if err != nil {
		return OpenSlots{}, err
	}
	for _, slot := range res.Slots {
		if _, ok := taken[slot]; ok {
			out.Taken = append(out.Taken, slot)
			continue
		}
		out.Open = append(out.Open, slot)
	}
	return out, nil
}

// takenStarts collects the starts of active appointments, ignoring exclude.
func (s *AvailabilityService) takenStarts(
	ctx context.Context,
	providerID uuid.UUID,
	date availability.Date,
	exclude uuid.UUID,
) (map[availability.TimeOfDay]struct{}, error) {
	appts, err := s.appointments.ListByProviderAndDate(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	taken := make(map[availability.TimeOfDay]struct{}, len(appts))
	for _, a := range appts {
		if a.ID == exclude || !a.Active() {
			continue
		}
		taken[availability.TimeOfDay(a.StartMinute)] = struct{}{}
	}
	return taken, nil
}
