package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// appointments
type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	PatientID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProviderID uuid.UUID  `gorm:"type:uuid;not null;index:idx_appointments_provider_date;uniqueIndex:idx_appointments_active_slot,where:status <> 'cancelled'"`
	ServiceID  *uuid.UUID `gorm:"type:uuid;index"`

	Date        datatypes.Date `gorm:"column:appointment_date;type:date;not null;index:idx_appointments_provider_date;uniqueIndex:idx_appointments_active_slot,where:status <> 'cancelled'"`
	StartMinute int            `gorm:"not null;uniqueIndex:idx_appointments_active_slot,where:status <> 'cancelled'"`

	Status      AppointmentStatus `gorm:"type:varchar(32);not null;index"`
	Notes       string            `gorm:"type:text"`
	CancelledAt *time.Time

	// filled in when the visit is completed
	Treatment string `gorm:"type:text"`
	Remarks   string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Patient  *Patient  `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Service  *Service  `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// Active appointments hold their slot. idx_appointments_active_slot enforces
// the same rule in the database, so two concurrent bookings of one slot cannot
// both be stored.
func (a Appointment) Active() bool {
	return a.Status != AppointmentStatusCancelled
}
