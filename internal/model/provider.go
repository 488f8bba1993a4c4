package model

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a dentist or doctor who takes appointments.
type Provider struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	DisplayName string `gorm:"type:varchar(255);not null"`

	// Specialty, e.g. "Orthodontics".
	Specialty string `gorm:"type:varchar(255)"`

	// Available is the admin switch that hides a provider from booking.
	Available bool `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Services []Service `gorm:"many2many:provider_services;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	Schedules    []Schedule    `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Appointments []Appointment `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
