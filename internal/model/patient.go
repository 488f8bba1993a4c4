package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// patients
type Patient struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	FullName    string          `gorm:"type:varchar(255);not null"`
	Email       string          `gorm:"type:varchar(255);uniqueIndex"`
	Phone       string          `gorm:"type:varchar(32)"`
	DateOfBirth *datatypes.Date `gorm:"type:date"`
	Address     string          `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Appointments []Appointment `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
