package rpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/clinic-scheduling/internal/service"
)

// ListProviders: {only_available?} -> {providers: [...]}.
func (s *Server) ListProviders(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	onlyAvailable, _ := boolField(in, "only_available")
	providers, err := s.catalog.ListProviders(ctx, onlyAvailable)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	items := make([]any, 0, len(providers))
	for i := range providers {
		items = append(items, encodeProvider(&providers[i]))
	}
	return newStruct(map[string]any{"providers": items})
}

// CreateProvider: {display_name, specialty?, available?}. New providers are
// bookable unless available is false.
func (s *Server) CreateProvider(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	input := decodeProvider(in, true)
	p, err := s.catalog.CreateProvider(ctx, input)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeProvider(p))
}

// UpdateProvider: {provider_id, display_name, specialty?, available}.
func (s *Server) UpdateProvider(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "provider_id")
	if err != nil {
		return nil, err
	}
	if _, ok := boolField(in, "available"); !ok {
		return nil, status.Error(codes.InvalidArgument, "available is required")
	}
	p, err := s.catalog.UpdateProvider(ctx, id, decodeProvider(in, false))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeProvider(p))
}

// DeleteProvider: {provider_id}. Providers with appointments are kept.
func (s *Server) DeleteProvider(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "provider_id")
	if err != nil {
		return nil, err
	}
	if err := s.catalog.DeleteProvider(ctx, id); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return empty()
}

// ListServices: {only_active?, page?, page_size?}.
func (s *Server) ListServices(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	onlyActive, _ := boolField(in, "only_active")
	page, _ := intField(in, "page")
	pageSize, _ := intField(in, "page_size")

	p, err := s.catalog.ListServices(ctx, onlyActive, page, pageSize)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodePage(encodeServices(p.Items), p.Page, p.PageSize, p.Total, p.HasNext, p.HasPrev))
}

// CreateService: {name, description?, duration_min?, price_label?}.
func (s *Server) CreateService(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	input := service.ServiceInput{
		Name:        stringField(in, "name"),
		Description: stringField(in, "description"),
		PriceLabel:  stringField(in, "price_label"),
	}
	if minutes, ok := intField(in, "duration_min"); ok {
		v := int64(minutes)
		input.DefaultDurationMin = &v
	}
	svc, err := s.catalog.CreateService(ctx, input)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeService(svc))
}

// ListProviderServices: {provider_id} -> {services: [...]}.
func (s *Server) ListProviderServices(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "provider_id")
	if err != nil {
		return nil, err
	}
	list, err := s.catalog.ListProviderServices(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(map[string]any{"provider_id": id.String(), "services": encodeServices(list)})
}

// AssignService: {provider_id, service_id}.
func (s *Server) AssignService(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := requiredUUID(in, "provider_id")
	if err != nil {
		return nil, err
	}
	serviceID, err := requiredUUID(in, "service_id")
	if err != nil {
		return nil, err
	}
	if err := s.catalog.AssignService(ctx, providerID, serviceID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.ListProviderServices(ctx, in)
}

// ListRecentEvents: {limit?} -> {events: [...]}, newest first.
func (s *Server) ListRecentEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	limit, _ := intField(in, "limit")
	list, err := s.audit.Recent(ctx, limit)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	items := make([]any, 0, len(list))
	for i := range list {
		items = append(items, encodeEvent(&list[i]))
	}
	return newStruct(map[string]any{"events": items})
}

func decodeProvider(in *structpb.Struct, availableByDefault bool) service.ProviderInput {
	available, ok := boolField(in, "available")
	if !ok {
		available = availableByDefault
	}
	return service.ProviderInput{
		DisplayName: stringField(in, "display_name"),
		Specialty:   stringField(in, "specialty"),
		Available:   available,
	}
}
