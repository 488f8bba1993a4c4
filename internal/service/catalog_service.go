package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/calendar"
	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
)

// CatalogService manages providers and the treatments they offer. Edits are
// audited and published on the provider topic.
type CatalogService struct {
	providers repository.ProviderRepository
	services  repository.ServiceRepository
	notifier
}

func NewCatalogService(
	providers repository.ProviderRepository,
	services repository.ServiceRepository,
	audit repository.EventRepository,
	bus events.Publisher,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		providers: providers,
		services:  services,
		notifier:  notifier{audit: audit, bus: bus, logger: logger, now: time.Now},
	}
}

type ProviderInput struct {
	DisplayName string
	Specialty   string
	Available   bool
}

type ServiceInput struct {
	Name               string
	Description        string
	DefaultDurationMin *int64
	PriceLabel         string
}

func (s *CatalogService) ListProviders(ctx context.Context, onlyAvailable bool) ([]model.Provider, error) {
	providers, err := s.providers.List(ctx, onlyAvailable)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return providers, nil
}

func (s *CatalogService) CreateProvider(ctx context.Context, in ProviderInput) (*model.Provider, error) {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidArgument)
	}
	p := &model.Provider{DisplayName: name, Specialty: strings.TrimSpace(in.Specialty), Available: in.Available}
	if err := s.providers.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	s.logger.Info("provider created", zap.String("provider_id", p.ID.String()))
	s.providerChanged(ctx, p.ID, model.EventTypeProviderCreated, map[string]any{"name": name})
	return p, nil
}

// UpdateProvider rewrites name, specialty and the availability switch.
// Switching a provider off hides every slot without touching the schedule.
func (s *CatalogService) UpdateProvider(ctx context.Context, id uuid.UUID, in ProviderInput) (*model.Provider, error) {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidArgument)
	}
	p, err := s.provider(ctx, id)
	if err != nil {
		return nil, err
	}
	p.DisplayName = name
	p.Specialty = strings.TrimSpace(in.Specialty)
	p.Available = in.Available
	if err := s.providers.Update(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("update provider: %w", err)
	}
	s.providerChanged(ctx, id, model.EventTypeProviderUpdated, map[string]any{"available": p.Available})
	return p, nil
}

// DeleteProvider refuses providers that still have appointments.
func (s *CatalogService) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	if err := s.providers.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrProviderNotFound
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return ErrProviderInUse
		}
		return fmt.Errorf("delete provider: %w", err)
	}
	s.logger.Info("provider deleted", zap.String("provider_id", id.String()))
	s.providerChanged(ctx, id, model.EventTypeProviderDeleted, nil)
	return nil
}

func (s *CatalogService) ListServices(ctx context.Context, onlyActive bool, page, pageSize int) (calendar.Page[model.Service], error) {
	limit, offset := calendar.Bounds(page, pageSize)
	items, total, err := s.services.List(ctx, onlyActive, limit, offset)
	if err != nil {
		return calendar.Page[model.Service]{}, fmt.Errorf("list services: %w", err)
	}
	return calendar.FromQuery(items, page, pageSize, int(total)), nil
}

func (s *CatalogService) CreateService(ctx context.Context, in ServiceInput) (*model.Service, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: service name is required", ErrInvalidArgument)
	}
	if in.DefaultDurationMin != nil && *in.DefaultDurationMin <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	}
	svc := &model.Service{
		Name:               name,
		Description:        strings.TrimSpace(in.Description),
		DefaultDurationMin: in.DefaultDurationMin,
		PriceLabel:         strings.TrimSpace(in.PriceLabel),
		IsActive:           true,
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	s.notify(ctx, notice{
		event:    model.EventTypeServiceCreated,
		topic:    events.TopicProvider,
		entityID: svc.ID.String(),
		details:  map[string]any{"name": name},
	})
	return svc, nil
}

func (s *CatalogService) ListProviderServices(ctx context.Context, providerID uuid.UUID) ([]model.Service, error) {
	if _, err := s.provider(ctx, providerID); err != nil {
		return nil, err
	}
	services, err := s.services.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list provider services: %w", err)
	}
	return services, nil
}

// AssignService lets the provider offer the service. Assigning twice is a no-op.
func (s *CatalogService) AssignService(ctx context.Context, providerID, serviceID uuid.UUID) error {
	if _, err := s.provider(ctx, providerID); err != nil {
		return err
	}
	if _, err := s.services.GetByID(ctx, serviceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrServiceNotFound
		}
		return fmt.Errorf("load service: %w", err)
	}
	if err := s.services.AssignToProvider(ctx, providerID, serviceID); err != nil {
		return fmt.Errorf("assign service: %w", err)
	}
	s.providerChanged(ctx, providerID, model.EventTypeServiceAssigned, map[string]any{"service_id": serviceID.String()})
	return nil
}

func (s *CatalogService) provider(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}
	return p, nil
}

func (s *CatalogService) providerChanged(ctx context.Context, id uuid.UUID, t model.EventType, details any) {
	s.notify(ctx, notice{
		event:      t,
		topic:      events.TopicProvider,
		entityID:   id.String(),
		providerID: &id,
		details:    details,
	})
}
