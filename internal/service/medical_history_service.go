package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
)

// Placeholders for history fields staff left empty.
const (
	DefaultVisitTreatment = "Standard consultation and treatment provided"
	DefaultVisitRemarks   = "No additional remarks recorded"
	DefaultRecordRemarks  = "No remarks"
	UnknownProvider       = "Unknown provider"
	UnknownService        = "N/A"
)

type HistoryKind string

const (
	HistoryAppointment HistoryKind = "appointment"
	HistoryManual      HistoryKind = "manual"
)

// HistoryEntry is one line of a patient's medical history.
type HistoryEntry struct {
	Kind HistoryKind
	// ID of the appointment or of the manual record.
	ID   uuid.UUID
	Date availability.Date
	Time *availability.TimeOfDay

	ProviderID   *uuid.UUID
	ProviderName string
	ServiceID    *uuid.UUID
	ServiceName  string

	Treatment string
	Remarks   string
	Status    model.AppointmentStatus
}

// RecordInput is a treatment entered by staff by hand.
type RecordInput struct {
	PatientID  uuid.UUID
	ProviderID *uuid.UUID
	ServiceID  *uuid.UUID
	Date       availability.Date
	Time       *availability.TimeOfDay
	Treatment  string
	Remarks    string
}

// MedicalHistoryService merges finished visits with manual records.
type MedicalHistoryService struct {
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	records      repository.MedicalRecordRepository
	providers    repository.ProviderRepository
	services     repository.ServiceRepository
	notifier
}

func NewMedicalHistoryService(
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	records repository.MedicalRecordRepository,
	providers repository.ProviderRepository,
	services repository.ServiceRepository,
	audit repository.EventRepository,
	bus events.Publisher,
	logger *zap.Logger,
) *MedicalHistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicalHistoryService{
		patients:     patients,
		appointments: appointments,
		records:      records,
		providers:    providers,
		services:     services,
		notifier:     notifier{audit: audit, bus: bus, logger: logger, now: time.Now},
	}
}

// WithClock replaces the clock that decides which confirmed visits are past.
func (s *MedicalHistoryService) WithClock(now func() time.Time) *MedicalHistoryService {
	s.now = now
	return s
}

// ListForPatient returns completed visits, confirmed visits dated today or
// earlier, and manual records, newest first.
func (s *MedicalHistoryService) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]HistoryEntry, error) {
	if err := s.ensurePatient(ctx, patientID); err != nil {
		return nil, err
	}
	appts, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	records, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}

	names := newNameCache(s.providers, s.services)
	today := availability.DateOf(s.now())
	out := make([]HistoryEntry, 0, len(appts)+len(records))

	for _, a := range appts {
		date := repository.FromDBDate(a.Date)
		switch {
		case a.Status == model.AppointmentStatusCompleted:
		case a.Status == model.AppointmentStatusConfirmed && !today.Before(date):
		default:
			continue
		}
		at := availability.TimeOfDay(a.StartMinute)
		providerID := a.ProviderID
		e := HistoryEntry{
			Kind:       HistoryAppointment,
			ID:         a.ID,
			Date:       date,
			Time:       &at,
			ProviderID: &providerID,
			ServiceID:  a.ServiceID,
			Treatment:  orDefault(a.Treatment, DefaultVisitTreatment),
			Remarks:    orDefault(a.Remarks, DefaultVisitRemarks),
			Status:     a.Status,
		}
		e.ProviderName = names.provider(ctx, e.ProviderID)
		e.ServiceName = names.service(ctx, e.ServiceID)
		out = append(out, e)
	}

	for _, r := range records {
		e := HistoryEntry{
			Kind:       HistoryManual,
			ID:         r.ID,
			Date:       repository.FromDBDate(r.Date),
			ProviderID: r.ProviderID,
			ServiceID:  r.ServiceID,
			Treatment:  r.Treatment,
			Remarks:    orDefault(r.Remarks, DefaultRecordRemarks),
			Status:     model.AppointmentStatusCompleted,
		}
		if r.StartMinute != nil {
			at := availability.TimeOfDay(*r.StartMinute)
			e.Time = &at
		}
		e.ProviderName = names.provider(ctx, e.ProviderID)
		e.ServiceName = names.service(ctx, e.ServiceID)
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool { return newerFirst(out[i], out[j]) })
	return out, nil
}

func (s *MedicalHistoryService) AddRecord(ctx context.Context, in RecordInput) (*model.MedicalRecord, error) {
	if err := s.ensurePatient(ctx, in.PatientID); err != nil {
		return nil, err
	}
	m := &model.MedicalRecord{PatientID: in.PatientID}
	if err := s.apply(ctx, m, in); err != nil {
		return nil, err
	}
	if err := s.records.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create medical record: %w", err)
	}

	s.logger.Info("medical record added",
		zap.String("record_id", m.ID.String()),
		zap.String("patient_id", m.PatientID.String()),
	)
	s.recordChanged(ctx, m, model.EventTypeMedicalRecordCreated)
	return m, nil
}

// UpdateRecord rewrites a manual record; the patient cannot change.
func (s *MedicalHistoryService) UpdateRecord(ctx context.Context, id uuid.UUID, in RecordInput) (*model.MedicalRecord, error) {
	m, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, m, in); err != nil {
		return nil, err
	}
	if err := s.records.Update(ctx, m); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("update medical record: %w", err)
	}
	s.recordChanged(ctx, m, model.EventTypeMedicalRecordUpdated)
	return m, nil
}

// DeleteRecord removes a manual record. Visits stay in the history as long
// as the appointment exists.
func (s *MedicalHistoryService) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	m, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("delete medical record: %w", err)
	}
	s.recordChanged(ctx, m, model.EventTypeMedicalRecordDeleted)
	return nil
}

func (s *MedicalHistoryService) apply(ctx context.Context, m *model.MedicalRecord, in RecordInput) error {
	treatment := strings.TrimSpace(in.Treatment)
	if treatment == "" {
		return fmt.Errorf("%w: treatment is required", ErrInvalidArgument)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidArgument)
	}
	if in.Time != nil && !in.Time.Valid() {
		return fmt.Errorf("%w: time out of range", ErrInvalidTimeRange)
	}
	if in.ProviderID != nil {
		if _, err := s.providers.GetByID(ctx, *in.ProviderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProviderNotFound
			}
			return fmt.Errorf("load provider: %w", err)
		}
	}
	if in.ServiceID != nil {
		if _, err := s.services.GetByID(ctx, *in.ServiceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrServiceNotFound
			}
			return fmt.Errorf("load service: %w", err)
		}
	}

	m.ProviderID = in.ProviderID
	m.ServiceID = in.ServiceID
	m.Date = repository.ToDBDate(in.Date)
	m.StartMinute = nil
	if in.Time != nil {
		v := int(*in.Time)
		m.StartMinute = &v
	}
	m.Treatment = treatment
	m.Remarks = strings.TrimSpace(in.Remarks)
	return nil
}

func (s *MedicalHistoryService) getRecord(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	m, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("load medical record: %w", err)
	}
	return m, nil
}

func (s *MedicalHistoryService) ensurePatient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("load patient: %w", err)
	}
	return nil
}

func (s *MedicalHistoryService) recordChanged(ctx context.Context, m *model.MedicalRecord, t model.EventType) {
	s.notify(ctx, notice{
		event:      t,
		topic:      events.TopicMedicalHistory,
		entityID:   m.ID.String(),
		providerID: m.ProviderID,
		details:    map[string]any{"patient_id": m.PatientID.String()},
	})
}

func newerFirst(a, b HistoryEntry) bool {
	if a.Date != b.Date {
		return b.Date.Before(a.Date)
	}
	switch {
	case a.Time == nil:
		return false
	case b.Time == nil:
		return true
	}
	return *a.Time > *b.Time
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// nameCache resolves display names once per listing.
type nameCache struct {
	providerRepo repository.ProviderRepository
	serviceRepo  repository.ServiceRepository
	providers    map[uuid.UUID]string
	services     map[uuid.UUID]string
}

func newNameCache(providers repository.ProviderRepository, services repository.ServiceRepository) *nameCache {
	return &nameCache{
		providerRepo: providers,
		serviceRepo:  services,
		providers:    make(map[uuid.UUID]string),
		services:     make(map[uuid.UUID]string),
	}
}

func (c *nameCache) provider(ctx context.Context, id *uuid.UUID) string {
	if id == nil {
		return UnknownProvider
	}
	if name, ok := c.providers[*id]; ok {
		return name
	}
	name := UnknownProvider
	if p, err := c.providerRepo.GetByID(ctx, *id); err == nil {
		name = p.DisplayName
	}
	c.providers[*id] = name
	return name
}

func (c *nameCache) service(ctx context.Context, id *uuid.UUID) string {
	if id == nil {
		return UnknownService
	}
	if name, ok := c.services[*id]; ok {
		return name
	}
	name := UnknownService
	if svc, err := c.serviceRepo.GetByID(ctx, *id); err == nil {
		name = svc.Name
	}
	c.services[*id] = name
	return name
}
