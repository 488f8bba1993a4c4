package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/clinic-scheduling/internal/db"
	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
	"github.com/Leganyst/clinic-scheduling/internal/seed"
	"github.com/Leganyst/clinic-scheduling/internal/service"
)

// 2025-01-06 is a Monday; Dr. Santos (doc002) works 10:00-16:00 on Mondays.
const monday = "2025-01-06"

type harness struct {
	conn      *grpc.ClientConn
	gs        *grpc.Server
	srv       *Server
	patientID string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.OpenInMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := seed.Apply(ctx, gdb, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	patient := &model.Patient{FullName: "Jane Roe", Email: "jane@example.com"}
	patients := repository.NewGormPatientRepository(gdb)
	if err := patients.Create(ctx, patient); err != nil {
		t.Fatalf("create patient: %v", err)
	}

	bus := events.NewLocalBus(16)
	providers := repository.NewGormProviderRepository(gdb)
	schedules := repository.NewGormScheduleRepository(gdb)
	appointments := repository.NewGormAppointmentRepository(gdb)
	audit := repository.NewGormEventRepository(gdb)

	services := repository.NewGormServiceRepository(gdb)
	clock := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	avail := service.NewAvailabilityService(providers, schedules, appointments, 30, nil)
	srv := NewServer(Services{
		Availability: avail,
		Schedules:    service.NewScheduleService(schedules, providers, audit, bus, nil),
		Appointments: service.NewAppointmentService(avail, appointments, patients, services, audit, bus, nil).
			WithClock(clock),
		Catalog:  service.NewCatalogService(providers, services, audit, bus, nil),
		Patients: service.NewPatientService(patients, audit, nil),
		History: service.NewMedicalHistoryService(patients, appointments,
			repository.NewGormMedicalRecordRepository(gdb), providers, services, audit, bus, nil).
			WithClock(clock),
		Audit: service.NewAuditService(audit),
	}, bus, nil)

	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(srv, nil)
	go func() { _ = gs.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		gs.Stop()
		_ = bus.Close()
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &harness{conn: conn, gs: gs, srv: srv, patientID: patient.ID.String()}
}

func (h *harness) call(t *testing.T, method string, req map[string]any) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	out := new(structpb.Struct)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = h.conn.Invoke(ctx, FullMethod(method), in, out)
	return out, err
}

func stringList(v *structpb.Value) []string {
	var out []string
	for _, item := range v.GetListValue().GetValues() {
		out = append(out, item.GetStringValue())
	}
	return out
}

func TestListSlots(t *testing.T) {
	h := newHarness(t)

	out, err := h.call(t, "ListSlots", map[string]any{
		"provider_id": seed.ProviderID("doc002").String(),
		"date":        monday,
	})
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	f := out.GetFields()
	if f["reason"].GetStringValue() != "ok" {
		t.Fatalf("reason = %q", f["reason"].GetStringValue())
	}
	slots := stringList(f["slots"])
	if len(slots) != 12 || slots[0] != "10:00" || slots[11] != "15:30" {
		t.Fatalf("slots = %v", slots)
	}
	if labels := stringList(f["labels"]); labels[0] != "10:00 AM" || labels[11] != "3:30 PM" {
		t.Fatalf("labels = %v", labels)
	}
	if f["interval_minutes"].GetNumberValue() != 30 {
		t.Fatalf("interval_minutes = %v", f["interval_minutes"])
	}

	out, err = h.call(t, "ListSlots", map[string]any{
		"provider_id": seed.ProviderID("doc002").String(),
		"date":        "2025-01-05",
	})
	if err != nil {
		t.Fatalf("ListSlots sunday: %v", err)
	}
	if got := out.GetFields()["message"].GetStringValue(); got != "Clinic is closed on Sundays" {
		t.Fatalf("message = %q", got)
	}
}

func TestListSlots_BadRequests(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		req  map[string]any
		code codes.Code
	}{
		{map[string]any{"date": monday}, codes.InvalidArgument},
		{map[string]any{"provider_id": "nope", "date": monday}, codes.InvalidArgument},
		{map[string]any{"provider_id": seed.ProviderID("doc002").String(), "date": "06/01/2025"}, codes.InvalidArgument},
		{map[string]any{"provider_id": seed.ProviderID("missing").String(), "date": monday}, codes.NotFound},
	}
	for _, c := range cases {
		_, err := h.call(t, "ListSlots", c.req)
		if status.Code(err) != c.code {
			t.Fatalf("%v: code = %s, want %s (%v)", c.req, status.Code(err), c.code, err)
		}
	}
}

func TestBookRescheduleCancel(t *testing.T) {
	h := newHarness(t)
	provider := seed.ProviderID("doc002").String()

	booked, err := h.call(t, "BookAppointment", map[string]any{
		"patient_id":  h.patientID,
		"provider_id": provider,
		"service_id":  seed.ServiceID("srv001").String(),
		"date":        monday,
		"time":        "10:00",
	})
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}
	id := booked.GetFields()["id"].GetStringValue()
	if booked.GetFields()["status"].GetStringValue() != "pending" || booked.GetFields()["time_label"].GetStringValue() != "10:00 AM" {
		t.Fatalf("unexpected appointment %v", booked)
	}

	_, err = h.call(t, "BookAppointment", map[string]any{
		"patient_id": h.patientID, "provider_id": provider, "date": monday, "time": "10:00",
	})
	if status.Code(err) != codes.AlreadyExists {
		t.Fatalf("double booking: code = %s", status.Code(err))
	}
	_, err = h.call(t, "BookAppointment", map[string]any{
		"patient_id": h.patientID, "provider_id": provider, "date": monday, "time": "16:00",
	})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("outside hours: code = %s", status.Code(err))
	}

	moved, err := h.call(t, "RescheduleAppointment", map[string]any{
		"appointment_id": id, "date": monday, "time": "14:30",
	})
	if err != nil {
		t.Fatalf("RescheduleAppointment: %v", err)
	}
	if moved.GetFields()["time"].GetStringValue() != "14:30" {
		t.Fatalf("unexpected appointment %v", moved)
	}

	slots, err := h.call(t, "ListSlots", map[string]any{"provider_id": provider, "date": monday})
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if taken := stringList(slots.GetFields()["taken"]); len(taken) != 1 || taken[0] != "14:30" {
		t.Fatalf("taken = %v", taken)
	}

	cancelled, err := h.call(t, "CancelAppointment", map[string]any{"appointment_id": id})
	if err != nil {
		t.Fatalf("CancelAppointment: %v", err)
	}
	if cancelled.GetFields()["status"].GetStringValue() != "cancelled" {
		t.Fatalf("unexpected appointment %v", cancelled)
	}
	if _, err := h.call(t, "CancelAppointment", map[string]any{"appointment_id": id}); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("second cancel: code = %s", status.Code(err))
	}
}

func TestClinicSchedule(t *testing.T) {
	h := newHarness(t)

	out, err := h.call(t, "SetClinicDay", map[string]any{
		"day": "Monday", "is_open": false, "start": "09:00", "end": "18:00",
	})
	if err != nil {
		t.Fatalf("SetClinicDay: %v", err)
	}
	days := out.GetFields()["days"].GetListValue().GetValues()
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	first := days[0].GetStructValue().GetFields()
	if first["day"].GetStringValue() != "Monday" || first["is_open"].GetBoolValue() {
		t.Fatalf("monday = %v", first)
	}

	slots, err := h.call(t, "ListSlots", map[string]any{
		"provider_id": seed.ProviderID("doc002").String(), "date": monday,
	})
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if got := slots.GetFields()["reason"].GetStringValue(); got != "clinic_closed" {
		t.Fatalf("reason = %q", got)
	}

	_, err = h.call(t, "SetClinicDay", map[string]any{
		"day": "Tuesday", "is_open": true, "start": "18:00", "end": "09:00",
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("inverted hours: code = %s", status.Code(err))
	}
	_, err = h.call(t, "SetClinicDay", map[string]any{"day": "Tuesday", "start": "09:00", "end": "18:00"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("missing is_open: code = %s", status.Code(err))
	}
}

func TestWatchChanges(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := h.conn.NewStream(ctx, WatchChangesDesc, FullMethod("WatchChanges"))
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	req, _ := structpb.NewStruct(map[string]any{"topics": []any{"clinic_schedule"}})
	if err := stream.SendMsg(req); err != nil {
		t.Fatalf("SendMsg: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("CloseSend: %v", err)
	}
	if _, err := stream.Header(); err != nil {
		t.Fatalf("Header: %v", err)
	}

	// Filtered out by topic.
	if _, err := h.call(t, "BookAppointment", map[string]any{
		"patient_id": h.patientID, "provider_id": seed.ProviderID("doc002").String(), "date": monday, "time": "11:00",
	}); err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}
	if _, err := h.call(t, "SetClinicDay", map[string]any{
		"day": "Saturday", "is_open": false, "start": "09:00", "end": "18:00",
	}); err != nil {
		t.Fatalf("SetClinicDay: %v", err)
	}

	got := new(structpb.Struct)
	if err := stream.RecvMsg(got); err != nil {
		t.Fatalf("RecvMsg: %v", err)
	}
	f := got.GetFields()
	if f["topic"].GetStringValue() != "clinic_schedule" || f["entity_id"].GetStringValue() != "Saturday" {
		t.Fatalf("unexpected change %v", got)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(h.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %s", resp.GetStatus())
	}
}
