package rpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/clinic-scheduling/internal/seed"
)

func (h *harness) watch(t *testing.T, ctx context.Context, req map[string]any) grpc.ClientStream {
	t.Helper()
	stream, err := h.conn.NewStream(ctx, WatchChangesDesc, FullMethod("WatchChanges"))
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	in, _ := structpb.NewStruct(req)
	if err := stream.SendMsg(in); err != nil {
		t.Fatalf("SendMsg: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("CloseSend: %v", err)
	}
	if _, err := stream.Header(); err != nil {
		t.Fatalf("Header: %v", err)
	}
	return stream
}

func TestStopEndsOpenWatchers(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream := h.watch(t, ctx, map[string]any{})

	start := time.Now()
	if !Stop(h.gs, h.srv, 5*time.Second) {
		t.Fatalf("graceful stop timed out with a watcher open")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("graceful stop took %s", elapsed)
	}

	err := stream.RecvMsg(new(structpb.Struct))
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("watcher ended with %v, want Unavailable", err)
	}
}

func TestSetClinicDay_ClosingKeepsHours(t *testing.T) {
	h := newHarness(t)

	out, err := h.call(t, "SetClinicDay", map[string]any{"day": "Tuesday", "is_open": false})
	if err != nil {
		t.Fatalf("SetClinicDay without hours: %v", err)
	}
	tuesday := out.GetFields()["days"].GetListValue().GetValues()[1].GetStructValue().GetFields()
	if tuesday["is_open"].GetBoolValue() || tuesday["start"].GetStringValue() != "09:00" || tuesday["end"].GetStringValue() != "18:00" {
		t.Fatalf("tuesday = %v", tuesday)
	}

	out, err = h.call(t, "SetClinicDay", map[string]any{"day": "Tuesday", "is_open": true, "end": "13:00"})
	if err != nil {
		t.Fatalf("SetClinicDay end only: %v", err)
	}
	tuesday = out.GetFields()["days"].GetListValue().GetValues()[1].GetStructValue().GetFields()
	if !tuesday["is_open"].GetBoolValue() || tuesday["start"].GetStringValue() != "09:00" || tuesday["end"].GetStringValue() != "13:00" {
		t.Fatalf("tuesday = %v", tuesday)
	}

	_, err = h.call(t, "SetClinicDay", map[string]any{"day": "Tuesday", "is_open": true, "start": "9am"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("bad start: code = %s", status.Code(err))
	}
}

func TestProviderIntervals(t *testing.T) {
	h := newHarness(t)
	provider := seed.ProviderID("doc001").String()

	out, err := h.call(t, "ListProviderSchedule", map[string]any{"provider_id": provider})
	if err != nil {
		t.Fatalf("ListProviderSchedule: %v", err)
	}
	intervals := out.GetFields()["intervals"].GetListValue().GetValues()
	if len(intervals) != 5 || intervals[0].GetStructValue().GetFields()["day"].GetStringValue() != "Monday" {
		t.Fatalf("intervals = %v", intervals)
	}

	added, err := h.call(t, "AddProviderInterval", map[string]any{
		"provider_id": provider, "day": "Saturday", "start": "09:00", "end": "12:00", "valid_from": "2025-01-01",
	})
	if err != nil {
		t.Fatalf("AddProviderInterval: %v", err)
	}
	id := added.GetFields()["id"].GetStringValue()
	if added.GetFields()["valid_from"].GetStringValue() != "2025-01-01" {
		t.Fatalf("unexpected interval %v", added)
	}

	slots, err := h.call(t, "ListSlots", map[string]any{"provider_id": provider, "date": "2025-01-11"})
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if got := stringList(slots.GetFields()["slots"]); len(got) != 6 || got[5] != "11:30" {
		t.Fatalf("saturday slots = %v", got)
	}

	updated, err := h.call(t, "UpdateProviderInterval", map[string]any{
		"schedule_id": id, "day": "Saturday", "start": "10:00", "end": "12:00",
	})
	if err != nil {
		t.Fatalf("UpdateProviderInterval: %v", err)
	}
	if updated.GetFields()["start"].GetStringValue() != "10:00" {
		t.Fatalf("unexpected interval %v", updated)
	}
	if _, err := h.call(t, "UpdateProviderInterval", map[string]any{
		"schedule_id": id, "day": "Saturday", "start": "12:00", "end": "10:00",
	}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("inverted interval: code = %s", status.Code(err))
	}

	if _, err := h.call(t, "RemoveProviderInterval", map[string]any{"schedule_id": id}); err != nil {
		t.Fatalf("RemoveProviderInterval: %v", err)
	}
	if _, err := h.call(t, "RemoveProviderInterval", map[string]any{"schedule_id": id}); status.Code(err) != codes.NotFound {
		t.Fatalf("second remove: code = %s", status.Code(err))
	}
}

func TestVisitLifecycleAndHistory(t *testing.T) {
	h := newHarness(t)
	provider := seed.ProviderID("doc002").String()

	booked, err := h.call(t, "BookAppointment", map[string]any{
		"patient_id": h.patientID, "provider_id": provider, "date": monday, "time": "11:00",
	})
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}
	id := booked.GetFields()["id"].GetStringValue()

	if _, err := h.call(t, "CompleteAppointment", map[string]any{"appointment_id": id}); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("complete pending: code = %s", status.Code(err))
	}
	confirmed, err := h.call(t, "ConfirmAppointment", map[string]any{"appointment_id": id})
	if err != nil {
		t.Fatalf("ConfirmAppointment: %v", err)
	}
	if confirmed.GetFields()["status"].GetStringValue() != "confirmed" {
		t.Fatalf("unexpected appointment %v", confirmed)
	}
	done, err := h.call(t, "CompleteAppointment", map[string]any{
		"appointment_id": id, "treatment": "Braces adjustment", "remarks": "Next visit in 4 weeks",
	})
	if err != nil {
		t.Fatalf("CompleteAppointment: %v", err)
	}
	if done.GetFields()["treatment"].GetStringValue() != "Braces adjustment" {
		t.Fatalf("unexpected appointment %v", done)
	}
	if _, err := h.call(t, "RecordTreatment", map[string]any{"appointment_id": id, "treatment": ""}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("blank treatment: code = %s", status.Code(err))
	}

	if _, err := h.call(t, "AddMedicalRecord", map[string]any{
		"patient_id": h.patientID, "date": "2024-11-20", "time": "15:00", "treatment": "Extraction",
		"provider_id": seed.ProviderID("doc003").String(),
	}); err != nil {
		t.Fatalf("AddMedicalRecord: %v", err)
	}

	hist, err := h.call(t, "GetMedicalHistory", map[string]any{"patient_id": h.patientID})
	if err != nil {
		t.Fatalf("GetMedicalHistory: %v", err)
	}
	entries := hist.GetFields()["entries"].GetListValue().GetValues()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", entries)
	}
	visit := entries[0].GetStructValue().GetFields()
	if visit["kind"].GetStringValue() != "appointment" || visit["treatment"].GetStringValue() != "Braces adjustment" ||
		visit["provider_name"].GetStringValue() != "Dr. Carlos Santos" || visit["time_label"].GetStringValue() != "11:00 AM" {
		t.Fatalf("visit = %v", visit)
	}
	manual := entries[1].GetStructValue().GetFields()
	if manual["kind"].GetStringValue() != "manual" || manual["provider_name"].GetStringValue() != "Dr. Ana Reyes" ||
		manual["remarks"].GetStringValue() != "No remarks" {
		t.Fatalf("manual = %v", manual)
	}
	recordID := manual["id"].GetStringValue()

	if _, err := h.call(t, "UpdateMedicalRecord", map[string]any{
		"record_id": recordID, "date": "2024-11-20", "treatment": "Wisdom tooth extraction", "remarks": "Healing well",
	}); err != nil {
		t.Fatalf("UpdateMedicalRecord: %v", err)
	}
	if _, err := h.call(t, "DeleteMedicalRecord", map[string]any{"record_id": recordID}); err != nil {
		t.Fatalf("DeleteMedicalRecord: %v", err)
	}
	if _, err := h.call(t, "DeleteMedicalRecord", map[string]any{"record_id": recordID}); status.Code(err) != codes.NotFound {
		t.Fatalf("second delete: code = %s", status.Code(err))
	}

	page, err := h.call(t, "ListPatientAppointments", map[string]any{"patient_id": h.patientID, "page": 1, "page_size": 5})
	if err != nil {
		t.Fatalf("ListPatientAppointments: %v", err)
	}
	f := page.GetFields()
	if f["total"].GetNumberValue() != 1 || f["has_next"].GetBoolValue() || len(f["items"].GetListValue().GetValues()) != 1 {
		t.Fatalf("page = %v", page)
	}
}

func TestCatalogAndPatients(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream := h.watch(t, ctx, map[string]any{"topics": []any{"provider"}})

	created, err := h.call(t, "CreateProvider", map[string]any{"display_name": "Dr. Paolo Lim", "specialty": "Endodontics"})
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	providerID := created.GetFields()["id"].GetStringValue()
	if !created.GetFields()["available"].GetBoolValue() {
		t.Fatalf("new provider should be available: %v", created)
	}

	change := new(structpb.Struct)
	if err := stream.RecvMsg(change); err != nil {
		t.Fatalf("RecvMsg: %v", err)
	}
	if change.GetFields()["topic"].GetStringValue() != "provider" || change.GetFields()["provider_id"].GetStringValue() != providerID {
		t.Fatalf("unexpected change %v", change)
	}

	if _, err := h.call(t, "UpdateProvider", map[string]any{
		"provider_id": seed.ProviderID("doc002").String(), "display_name": "Dr. Carlos Santos", "available": false,
	}); err != nil {
		t.Fatalf("UpdateProvider: %v", err)
	}
	slots, err := h.call(t, "ListSlots", map[string]any{"provider_id": seed.ProviderID("doc002").String(), "date": monday})
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if got := slots.GetFields()["reason"].GetStringValue(); got != "provider_unavailable" {
		t.Fatalf("reason = %q", got)
	}
	if _, err := h.call(t, "UpdateProvider", map[string]any{"provider_id": providerID, "display_name": "x"}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("missing available: code = %s", status.Code(err))
	}

	listed, err := h.call(t, "ListProviders", map[string]any{"only_available": true})
	if err != nil {
		t.Fatalf("ListProviders: %v", err)
	}
	if n := len(listed.GetFields()["providers"].GetListValue().GetValues()); n != 5 {
		t.Fatalf("expected 5 available providers, got %d", n)
	}

	svc, err := h.call(t, "CreateService", map[string]any{"name": "Root Canal", "duration_min": 90})
	if err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	if svc.GetFields()["duration_min"].GetNumberValue() != 90 {
		t.Fatalf("unexpected service %v", svc)
	}
	assigned, err := h.call(t, "AssignService", map[string]any{
		"provider_id": providerID, "service_id": svc.GetFields()["id"].GetStringValue(),
	})
	if err != nil {
		t.Fatalf("AssignService: %v", err)
	}
	if n := len(assigned.GetFields()["services"].GetListValue().GetValues()); n != 1 {
		t.Fatalf("expected 1 offered service, got %d", n)
	}
	services, err := h.call(t, "ListServices", map[string]any{"only_active": true, "page": 2, "page_size": 10})
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if services.GetFields()["total"].GetNumberValue() != 15 || len(services.GetFields()["items"].GetListValue().GetValues()) != 5 {
		t.Fatalf("services page = %v", services)
	}

	if _, err := h.call(t, "DeleteProvider", map[string]any{"provider_id": providerID}); err != nil {
		t.Fatalf("DeleteProvider: %v", err)
	}

	patient, err := h.call(t, "RegisterPatient", map[string]any{
		"full_name": "Mark Tan", "email": "mark@example.com", "date_of_birth": "1988-02-29",
	})
	if err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}
	got, err := h.call(t, "GetPatient", map[string]any{"patient_id": patient.GetFields()["id"].GetStringValue()})
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if got.GetFields()["date_of_birth"].GetStringValue() != "1988-02-29" {
		t.Fatalf("patient = %v", got)
	}
	if _, err := h.call(t, "RegisterPatient", map[string]any{"full_name": "Jane", "email": "JANE@example.com"}); status.Code(err) != codes.AlreadyExists {
		t.Fatalf("duplicate email: code = %s", status.Code(err))
	}

	recent, err := h.call(t, "ListRecentEvents", map[string]any{"limit": 3})
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	evs := recent.GetFields()["events"].GetListValue().GetValues()
	if len(evs) != 3 || evs[0].GetStructValue().GetFields()["type"].GetStringValue() != "patient_registered" {
		t.Fatalf("events = %v", evs)
	}
}
