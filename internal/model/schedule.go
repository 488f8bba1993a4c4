package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
)

// clinic_days: one row per weekday. No rows at all means the default week.
type ClinicDay struct {
	Day availability.Weekday `gorm:"type:smallint;primaryKey;autoIncrement:false"`

	IsOpen      bool `gorm:"not null"`
	StartMinute int  `gorm:"not null"`
	EndMinute   int  `gorm:"not null"`

	UpdatedAt time.Time `gorm:"not null"`
}

func (d ClinicDay) DaySchedule() availability.DaySchedule {
	return availability.DaySchedule{
		IsOpen: d.IsOpen,
		Start:  availability.TimeOfDay(d.StartMinute),
		End:    availability.TimeOfDay(d.EndMinute),
	}
}

// schedules: a recurring block of a provider's working hours.
type Schedule struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`

	Day         availability.Weekday `gorm:"type:smallint;not null;index"`
	StartMinute int                  `gorm:"not null"`
	EndMinute   int                  `gorm:"not null"`

	// Optional validity range, dates only. Nil means open-ended.
	ValidFrom  *datatypes.Date `gorm:"type:date"`
	ValidUntil *datatypes.Date `gorm:"type:date"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// ActiveOn reports whether the block applies on the given date.
func (s Schedule) ActiveOn(d availability.Date) bool {
	if s.ValidFrom != nil && d.Before(availability.DateOf(time.Time(*s.ValidFrom))) {
		return false
	}
	if s.ValidUntil != nil && availability.DateOf(time.Time(*s.ValidUntil)).Before(d) {
		return false
	}
	return true
}

func (s Schedule) Interval() availability.ProviderInterval {
	return availability.ProviderInterval{
		Day:   s.Day,
		Start: availability.TimeOfDay(s.StartMinute),
		End:   availability.TimeOfDay(s.EndMinute),
	}
}
