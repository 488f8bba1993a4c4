package rpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/service"
)

// BookAppointment: {patient_id, provider_id, service_id?, date, time, notes?}.
func (s *Server) BookAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.BookRequest
	var err error
	if req.PatientID, err = requiredUUID(in, "patient_id"); err != nil {
		return nil, err
	}
	if req.ProviderID, err = requiredUUID(in, "provider_id"); err != nil {
		return nil, err
	}
	if req.ServiceID, err = optionalUUID(in, "service_id"); err != nil {
		return nil, err
	}
	if req.Date, err = requiredDate(in, "date"); err != nil {
		return nil, err
	}
	if req.Time, err = requiredTime(in, "time"); err != nil {
		return nil, err
	}
	req.Notes = stringField(in, "notes")

	a, err := s.appointments.Book(ctx, req)
	return s.appointmentReply(ctx, a, err)
}

// RescheduleAppointment: {appointment_id, date, time}.
func (s *Server) RescheduleAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "appointment_id")
	if err != nil {
		return nil, err
	}
	date, err := requiredDate(in, "date")
	if err != nil {
		return nil, err
	}
	at, err := requiredTime(in, "time")
	if err != nil {
		return nil, err
	}

	a, err := s.appointments.Reschedule(ctx, id, date, at)
	return s.appointmentReply(ctx, a, err)
}

// CancelAppointment: {appointment_id}.
func (s *Server) CancelAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "appointment_id")
	if err != nil {
		return nil, err
	}
	a, err := s.appointments.Cancel(ctx, id)
	return s.appointmentReply(ctx, a, err)
}

// ConfirmAppointment: {appointment_id}.
func (s *Server) ConfirmAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "appointment_id")
	if err != nil {
		return nil, err
	}
	a, err := s.appointments.Confirm(ctx, id)
	return s.appointmentReply(ctx, a, err)
}

// CompleteAppointment: {appointment_id, treatment?, remarks?}.
func (s *Server) CompleteAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "appointment_id")
	if err != nil {
		return nil, err
	}
	a, err := s.appointments.Complete(ctx, id, stringField(in, "treatment"), stringField(in, "remarks"))
	return s.appointmentReply(ctx, a, err)
}

// RecordTreatment: {appointment_id, treatment, remarks?} edits a finished visit.
func (s *Server) RecordTreatment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "appointment_id")
	if err != nil {
		return nil, err
	}
	a, err := s.appointments.RecordTreatment(ctx, id, stringField(in, "treatment"), stringField(in, "remarks"))
	return s.appointmentReply(ctx, a, err)
}

// ListPatientAppointments: {patient_id, page?, page_size?}, newest first.
func (s *Server) ListPatientAppointments(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	patientID, err := requiredUUID(in, "patient_id")
	if err != nil {
		return nil, err
	}
	page, _ := intField(in, "page")
	pageSize, _ := intField(in, "page_size")

	p, err := s.appointments.ListForPatient(ctx, patientID, page, pageSize)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeAppointmentPage(p))
}

func (s *Server) appointmentReply(ctx context.Context, a *model.Appointment, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeAppointment(a))
}
