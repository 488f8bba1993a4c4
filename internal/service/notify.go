package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
)

// notifier writes the audit entry and publishes the change of an admin edit.
// Both are best effort; the edit itself is already stored.
type notifier struct {
	audit  repository.EventRepository
	bus    events.Publisher
	logger *zap.Logger
	now    func() time.Time
}

type notice struct {
	event      model.EventType
	topic      events.Topic
	entityID   string
	providerID *uuid.UUID
	details    any
}

func (n *notifier) notify(ctx context.Context, m notice) {
	if n.audit != nil {
		if err := n.audit.Record(ctx, m.event, m.providerID, nil, m.details); err != nil {
			n.logger.Warn("audit record failed", zap.String("event", string(m.event)), zap.Error(err))
		}
	}
	if n.bus == nil {
		return
	}
	c := events.Change{Topic: m.topic, EntityID: m.entityID, At: n.now().UTC()}
	if m.providerID != nil {
		c.ProviderID = m.providerID.String()
	}
	if err := n.bus.Publish(ctx, c); err != nil {
		n.logger.Warn("publish change failed", zap.String("topic", string(c.Topic)), zap.Error(err))
	}
}
