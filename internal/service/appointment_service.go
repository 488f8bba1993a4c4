package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/calendar"
	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
)

// AppointmentService books patients into resolved slots.
type AppointmentService struct {
	availability *AvailabilityService
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	services     repository.ServiceRepository
	audit        repository.EventRepository
	bus          events.Publisher
	logger       *zap.Logger

	now func() time.Time
}

func NewAppointmentService(
	avail *AvailabilityService,
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	services repository.ServiceRepository,
	audit repository.EventRepository,
	bus events.Publisher,
	logger *zap.Logger,
) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		availability: avail,
		appointments: appointments,
		patients:     patients,
		services:     services,
		audit:        audit,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock replaces the clock used for past-date checks.
func (s *AppointmentService) WithClock(now func() time.Time) *AppointmentService {
	s.now = now
	return s
}

type BookRequest struct {
	PatientID  uuid.UUID
	ProviderID uuid.UUID
	ServiceID  *uuid.UUID
	Date       availability.Date
	Time       availability.TimeOfDay
	Notes      string
}

// Book creates a pending appointment at a resolved, untaken slot.
func (s *AppointmentService) Book(ctx context.Context, req BookRequest) (*model.Appointment, error) {
	if req.PatientID == uuid.Nil || req.ProviderID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient and provider are required", ErrInvalidArgument)
	}
	if err := s.ensurePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if req.ServiceID != nil {
		if err := s.ensureService(ctx, *req.ServiceID); err != nil {
			return nil, err
		}
	}
	if err := s.checkSlot(ctx, req.ProviderID, req.Date, req.Time, uuid.Nil); err != nil {
		return nil, err
	}

	a := &model.Appointment{
		PatientID:   req.PatientID,
		ProviderID:  req.ProviderID,
		ServiceID:   req.ServiceID,
		Date:        repository.ToDBDate(req.Date),
		StartMinute: int(req.Time),
		Status:      model.AppointmentStatusPending,
		Notes:       req.Notes,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s %s", ErrSlotTaken, req.Date, req.Time)
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", a.ID.String()),
		zap.String("provider_id", a.ProviderID.String()),
		zap.Stringer("date", req.Date),
		zap.Stringer("time", req.Time),
	)
	s.changed(ctx, a, model.EventTypeAppointmentCreated, map[string]any{
		"date": req.Date.String(),
		"time": req.Time.String(),
	})
	return a, nil
}

// Reschedule moves an appointment to another slot of the same provider. The
// appointment goes back to pending.
func (s *AppointmentService) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	date availability.Date,
	at availability.TimeOfDay,
) (*model.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == model.AppointmentStatusCancelled || a.Status == model.AppointmentStatusCompleted {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, a.Status)
	}
	if err := s.checkSlot(ctx, a.ProviderID, date, at, a.ID); err != nil {
		return nil, err
	}

	from := repository.FromDBDate(a.Date)
	fromTime := availability.TimeOfDay(a.StartMinute)
	if err := s.appointments.Reschedule(ctx, id, date, at, model.AppointmentStatusPending); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s %s", ErrSlotTaken, date, at)
		}
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}
	a.Date = repository.ToDBDate(date)
	a.StartMinute = int(at)
	a.Status = model.AppointmentStatusPending

	s.logger.Info("appointment rescheduled",
		zap.String("appointment_id", a.ID.String()),
		zap.Stringer("from", from),
		zap.Stringer("to", date),
		zap.Stringer("time", at),
	)
	s.changed(ctx, a, model.EventTypeAppointmentRescheduled, map[string]any{
		"from_date": from.String(),
		"from_time": fromTime.String(),
		"date":      date.String(),
		"time":      at.String(),
	})
	return a, nil
}

// Cancel frees the slot. Completed appointments cannot be cancelled.
func (s *AppointmentService) Cancel(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	cancelledAt := s.now().UTC()
	return s.transition(ctx, id, model.AppointmentStatusCancelled, model.EventTypeAppointmentCancelled,
		func(a *model.Appointment) error {
			if err := s.appointments.UpdateStatus(ctx, id, model.AppointmentStatusCancelled, &cancelledAt); err != nil {
				return err
			}
			a.CancelledAt = &cancelledAt
			return nil
		},
		model.AppointmentStatusPending, model.AppointmentStatusConfirmed)
}

func (s *AppointmentService) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusConfirmed, model.EventTypeAppointmentConfirmed,
		func(*model.Appointment) error {
			return s.appointments.UpdateStatus(ctx, id, model.AppointmentStatusConfirmed, nil)
		},
		model.AppointmentStatusPending)
}

// Complete closes a confirmed visit and stores the treatment given, which
// then shows up in the patient's medical history.
func (s *AppointmentService) Complete(ctx context.Context, id uuid.UUID, treatment, remarks string) (*model.Appointment, error) {
	treatment = strings.TrimSpace(treatment)
	remarks = strings.TrimSpace(remarks)
	return s.transition(ctx, id, model.AppointmentStatusCompleted, model.EventTypeAppointmentCompleted,
		func(a *model.Appointment) error {
			if err := s.appointments.Complete(ctx, id, treatment, remarks); err != nil {
				return err
			}
			a.Treatment, a.Remarks = treatment, remarks
			return nil
		},
		model.AppointmentStatusConfirmed)
}

// RecordTreatment edits the treatment of a completed appointment.
func (s *AppointmentService) RecordTreatment(ctx context.Context, id uuid.UUID, treatment, remarks string) (*model.Appointment, error) {
	treatment = strings.TrimSpace(treatment)
	if treatment == "" {
		return nil, fmt.Errorf("%w: treatment is required", ErrInvalidArgument)
	}
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AppointmentStatusCompleted && a.Status != model.AppointmentStatusConfirmed {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, a.Status)
	}
	remarks = strings.TrimSpace(remarks)
	if err := s.appointments.UpdateTreatment(ctx, id, treatment, remarks); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("update treatment: %w", err)
	}
	a.Treatment, a.Remarks = treatment, remarks
	s.changed(ctx, a, model.EventTypeTreatmentRecorded, map[string]any{"treatment": treatment})
	return a, nil
}

// ListForPatient pages through a patient's appointments, newest first.
func (s *AppointmentService) ListForPatient(
	ctx context.Context,
	patientID uuid.UUID,
	page, pageSize int,
) (calendar.Page[model.Appointment], error) {
	if err := s.ensurePatient(ctx, patientID); err != nil {
		return calendar.Page[model.Appointment]{}, err
	}
	all, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return calendar.Page[model.Appointment]{}, fmt.Errorf("list appointments: %w", err)
	}
	return calendar.Paginate(all, page, pageSize), nil
}

func (s *AppointmentService) transition(
	ctx context.Context,
	id uuid.UUID,
	to model.AppointmentStatus,
	eventType model.EventType,
	write func(*model.Appointment) error,
	from ...model.AppointmentStatus,
) (*model.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, st := range from {
		if a.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}

	if err := write(a); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	prev := a.Status
	a.Status = to

	s.logger.Info("appointment status changed",
		zap.String("appointment_id", a.ID.String()),
		zap.String("from", string(prev)),
		zap.String("to", string(to)),
	)
	s.changed(ctx, a, eventType, map[string]any{"from": prev, "to": to})
	return a, nil
}

// checkSlot accepts a start only if it is a resolved slot that no other
// active appointment holds. exclude lets an appointment keep its own slot.
func (s *AppointmentService) checkSlot(
	ctx context.Context,
	providerID uuid.UUID,
	date availability.Date,
	at availability.TimeOfDay,
	exclude uuid.UUID,
) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidArgument)
	}
	if !at.Valid() {
		return fmt.Errorf("%w: time out of range", ErrInvalidTimeRange)
	}
	if date.Before(availability.DateOf(s.now())) {
		return fmt.Errorf("%w: %s", ErrPastDate, date)
	}

	res, err := s.availability.ListSlots(ctx, providerID, date)
	if err != nil {
		return err
	}
	if !res.Contains(at) {
		reason := res.Reason
		if reason == availability.Ok {
			reason = availability.NoOverlap
		}
		return &SlotUnavailableError{Date: date, Time: at, Reason: reason}
	}

	taken, err := s.availability.takenStarts(ctx, providerID, date, exclude)
	if err != nil {
		return err
	}
	if _, ok := taken[at]; ok {
		return fmt.Errorf("%w: %s %s", ErrSlotTaken, date, at)
	}
	return nil
}

func (s *AppointmentService) get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return a, nil
}

func (s *AppointmentService) ensurePatient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("load patient: %w", err)
	}
	return nil
}

func (s *AppointmentService) ensureService(ctx context.Context, id uuid.UUID) error {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrServiceNotFound
		}
		return fmt.Errorf("load service: %w", err)
	}
	if !svc.IsActive {
		return fmt.Errorf("%w: service %s is not active", ErrInvalidArgument, svc.Name)
	}
	return nil
}

func (s *AppointmentService) changed(ctx context.Context, a *model.Appointment, t model.EventType, details any) {
	providerID, appointmentID := a.ProviderID, a.ID
	if s.audit != nil {
		if err := s.audit.Record(ctx, t, &providerID, &appointmentID, details); err != nil {
			s.logger.Warn("audit record failed", zap.String("event", string(t)), zap.Error(err))
		}
	}
	if s.bus != nil {
		c := events.Change{
			Topic:      events.TopicAppointment,
			EntityID:   appointmentID.String(),
			ProviderID: providerID.String(),
			At:         s.now().UTC(),
		}
		if err := s.bus.Publish(ctx, c); err != nil {
			s.logger.Warn("publish change failed", zap.String("topic", string(c.Topic)), zap.Error(err))
		}
	}
}

func optionalDate(d *availability.Date) *datatypes.Date {
	if d == nil {
		return nil
	}
	v := repository.ToDBDate(*d)
	return &v
}
