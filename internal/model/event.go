package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Event types of the audit log.
type EventType string

const (
	EventTypeClinicScheduleUpdated   EventType = "clinic_schedule_updated"
	EventTypeProviderScheduleUpdated EventType = "provider_schedule_updated"
	EventTypeAppointmentCreated      EventType = "appointment_created"
	EventTypeAppointmentRescheduled  EventType = "appointment_rescheduled"
	EventTypeAppointmentCancelled    EventType = "appointment_cancelled"
	EventTypeAppointmentConfirmed    EventType = "appointment_confirmed"
	EventTypeAppointmentCompleted    EventType = "appointment_completed"
	EventTypeTreatmentRecorded       EventType = "treatment_recorded"
	EventTypeMedicalRecordCreated    EventType = "medical_record_created"
	EventTypeMedicalRecordUpdated    EventType = "medical_record_updated"
	EventTypeMedicalRecordDeleted    EventType = "medical_record_deleted"
	EventTypeProviderCreated         EventType = "provider_created"
	EventTypeProviderUpdated         EventType = "provider_updated"
	EventTypeProviderDeleted         EventType = "provider_deleted"
	EventTypeServiceCreated          EventType = "service_created"
	EventTypeServiceAssigned         EventType = "service_assigned"
	EventTypePatientRegistered       EventType = "patient_registered"
)

// events
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	ProviderID    *uuid.UUID `gorm:"type:uuid;index"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSON `gorm:"type:jsonb"`
}
