package service

import (
	"context"
	"fmt"

	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
)

const maxRecentEvents = 200

// AuditService reads the audit log written by the other services.
type AuditService struct {
	events repository.EventRepository
}

func NewAuditService(events repository.EventRepository) *AuditService {
	return &AuditService{events: events}
}

// Recent returns the newest entries first; limit is capped.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]model.Event, error) {
	if limit > maxRecentEvents {
		limit = maxRecentEvents
	}
	out, err := s.events.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}
