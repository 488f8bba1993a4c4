package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
)

type PatientInput struct {
	FullName    string
	Email       string
	Phone       string
	DateOfBirth *availability.Date
	Address     string
}

// PatientService registers patients. Email is required and unique.
type PatientService struct {
	patients repository.PatientRepository
	notifier
}

func NewPatientService(patients repository.PatientRepository, audit repository.EventRepository, logger *zap.Logger) *PatientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientService{
		patients: patients,
		notifier: notifier{audit: audit, logger: logger, now: time.Now},
	}
}

func (s *PatientService) Register(ctx context.Context, in PatientInput) (*model.Patient, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidArgument)
	}
	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: bad email %q", ErrInvalidArgument, email)
	}
	switch _, err := s.patients.FindByEmail(ctx, email); {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrPatientExists, email)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find patient: %w", err)
	}

	p := &model.Patient{
		FullName:    name,
		Email:       email,
		Phone:       strings.TrimSpace(in.Phone),
		DateOfBirth: optionalDate(in.DateOfBirth),
		Address:     strings.TrimSpace(in.Address),
	}
	if err := s.patients.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrPatientExists, email)
		}
		return nil, fmt.Errorf("create patient: %w", err)
	}
	s.logger.Info("patient registered", zap.String("patient_id", p.ID.String()))
	s.notify(ctx, notice{event: model.EventTypePatientRegistered, entityID: p.ID.String()})
	return p, nil
}

func (s *PatientService) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return p, nil
}
