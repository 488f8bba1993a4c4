package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// medical_records holds treatments entered by staff outside the booking flow.
// Completed appointments carry their own treatment and are not copied here.
type MedicalRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	PatientID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProviderID *uuid.UUID `gorm:"type:uuid;index"`
	ServiceID  *uuid.UUID `gorm:"type:uuid"`

	Date datatypes.Date `gorm:"column:record_date;type:date;not null"`
	// Minutes after midnight; nil when the visit time was not recorded.
	StartMinute *int

	Treatment string `gorm:"type:text;not null"`
	Remarks   string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Patient  *Patient  `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Service  *Service  `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}
