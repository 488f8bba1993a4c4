package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID fills an empty primary key before insert. Postgres could do this
// with gen_random_uuid(), but sqlite has no such default.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Provider) BeforeCreate(*gorm.DB) error    { assignID(&p.ID); return nil }
func (s *Service) BeforeCreate(*gorm.DB) error     { assignID(&s.ID); return nil }
func (s *Schedule) BeforeCreate(*gorm.DB) error    { assignID(&s.ID); return nil }
func (p *Patient) BeforeCreate(*gorm.DB) error     { assignID(&p.ID); return nil }
func (a *Appointment) BeforeCreate(*gorm.DB) error { assignID(&a.ID); return nil }
func (e *Event) BeforeCreate(*gorm.DB) error       { assignID(&e.ID); return nil }

func (m *MedicalRecord) BeforeCreate(*gorm.DB) error { assignID(&m.ID); return nil }
