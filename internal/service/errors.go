package service

import (
	"errors"
	"fmt"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidTimeRange    = errors.New("invalid time range")
	ErrProviderNotFound    = errors.New("provider not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPastDate            = errors.New("date is in the past")
	ErrSlotUnavailable     = errors.New("slot is not available")
	ErrSlotTaken           = errors.New("slot is already booked")
	ErrInvalidTransition   = errors.New("appointment status does not allow this change")
	ErrRecordNotFound      = errors.New("medical record not found")
	ErrProviderInUse       = errors.New("provider has appointments")
	ErrPatientExists       = errors.New("patient already registered")
)

// SlotUnavailableError says why a requested time is not bookable. It matches
// ErrSlotUnavailable with errors.Is.
type SlotUnavailableError struct {
	Date   availability.Date
	Time   availability.TimeOfDay
	Reason availability.Reason
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot %s %s is not available: %s", e.Date, e.Time, e.Reason)
}

func (e *SlotUnavailableError) Is(target error) bool {
	return target == ErrSlotUnavailable
}
