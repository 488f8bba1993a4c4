package rpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/clinic-scheduling/internal/service"
)

// RegisterPatient: {full_name, email, phone?, date_of_birth?, address?}.
func (s *Server) RegisterPatient(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	dob, err := optionalDate(in, "date_of_birth")
	if err != nil {
		return nil, err
	}
	p, err := s.patients.Register(ctx, service.PatientInput{
		FullName:    stringField(in, "full_name"),
		Email:       stringField(in, "email"),
		Phone:       stringField(in, "phone"),
		DateOfBirth: dob,
		Address:     stringField(in, "address"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodePatient(p))
}

// GetPatient: {patient_id}.
func (s *Server) GetPatient(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "patient_id")
	if err != nil {
		return nil, err
	}
	p, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodePatient(p))
}

// GetMedicalHistory: {patient_id} -> {entries: [...]}, newest first.
func (s *Server) GetMedicalHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "patient_id")
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListForPatient(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	items := make([]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, encodeHistoryEntry(e))
	}
	return newStruct(map[string]any{"patient_id": id.String(), "entries": items})
}

// AddMedicalRecord: {patient_id, date, treatment, time?, provider_id?,
// service_id?, remarks?}.
func (s *Server) AddMedicalRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	patientID, err := requiredUUID(in, "patient_id")
	if err != nil {
		return nil, err
	}
	input, err := decodeRecord(in)
	if err != nil {
		return nil, err
	}
	input.PatientID = patientID
	m, err := s.history.AddRecord(ctx, input)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeRecord(m))
}

// UpdateMedicalRecord: {record_id, date, treatment, ...} as for AddMedicalRecord.
func (s *Server) UpdateMedicalRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "record_id")
	if err != nil {
		return nil, err
	}
	input, err := decodeRecord(in)
	if err != nil {
		return nil, err
	}
	m, err := s.history.UpdateRecord(ctx, id, input)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeRecord(m))
}

// DeleteMedicalRecord: {record_id}. Only manual records can be deleted.
func (s *Server) DeleteMedicalRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "record_id")
	if err != nil {
		return nil, err
	}
	if err := s.history.DeleteRecord(ctx, id); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return empty()
}
