package events

import (
	"context"
	"time"
)

// Topic names what kind of shared state changed.
type Topic string

const (
	TopicClinicSchedule   Topic = "clinic_schedule"
	TopicProviderSchedule Topic = "provider_schedule"
	TopicAppointment      Topic = "appointment"
	TopicProvider         Topic = "provider"
	TopicMedicalHistory   Topic = "medical_history"
)

// Change tells observers that something they render may be stale.
type Change struct {
	Topic      Topic     `json:"topic"`
	EntityID   string    `json:"entity_id,omitempty"`
	ProviderID string    `json:"provider_id,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

type Subscriber interface {
	// Subscribe delivers changes until ctx is done; the channel is then closed.
	Subscribe(ctx context.Context) (<-chan Change, error)
}

type Bus interface {
	Publisher
	Subscriber
	Close() error
}

var (
	_ Bus = (*LocalBus)(nil)
	_ Bus = (*RedisBus)(nil)
)
