package rpc

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/calendar"
	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
	"github.com/Leganyst/clinic-scheduling/internal/service"
)

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func boolField(in *structpb.Struct, key string) (bool, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return false, false
	}
	_, isBool := v.GetKind().(*structpb.Value_BoolValue)
	return v.GetBoolValue(), isBool
}

func requiredUUID(in *structpb.Struct, key string) (uuid.UUID, error) {
	raw := stringField(in, key)
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s", key)
	}
	return id, nil
}

func optionalUUID(in *structpb.Struct, key string) (*uuid.UUID, error) {
	if stringField(in, key) == "" {
		return nil, nil
	}
	id, err := requiredUUID(in, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func requiredDate(in *structpb.Struct, key string) (availability.Date, error) {
	raw := stringField(in, key)
	if raw == "" {
		return availability.Date{}, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	d, err := availability.ParseDate(raw)
	if err != nil {
		return availability.Date{}, status.Errorf(codes.InvalidArgument, "invalid %s: want YYYY-MM-DD", key)
	}
	return d, nil
}

func requiredTime(in *structpb.Struct, key string) (availability.TimeOfDay, error) {
	raw := stringField(in, key)
	if raw == "" {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	t, err := availability.ParseTimeOfDay(raw)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid %s: want HH:MM", key)
	}
	return t, nil
}

func optionalDate(in *structpb.Struct, key string) (*availability.Date, error) {
	if stringField(in, key) == "" {
		return nil, nil
	}
	d, err := requiredDate(in, key)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalTime(in *structpb.Struct, key string) (*availability.TimeOfDay, error) {
	if stringField(in, key) == "" {
		return nil, nil
	}
	t, err := requiredTime(in, key)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// intField reads a JSON number; fractions are truncated.
func intField(in *structpb.Struct, key string) (int, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, false
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return 0, false
	}
	return int(v.GetNumberValue()), true
}

func requiredWeekday(in *structpb.Struct, key string) (availability.Weekday, error) {
	day, err := availability.ParseWeekday(stringField(in, key))
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid %s", key)
	}
	return day, nil
}

func decodeInterval(in *structpb.Struct) (service.IntervalInput, error) {
	var out service.IntervalInput
	var err error
	if out.Day, err = requiredWeekday(in, "day"); err != nil {
		return out, err
	}
	if out.Start, err = requiredTime(in, "start"); err != nil {
		return out, err
	}
	if out.End, err = requiredTime(in, "end"); err != nil {
		return out, err
	}
	if out.ValidFrom, err = optionalDate(in, "valid_from"); err != nil {
		return out, err
	}
	if out.ValidUntil, err = optionalDate(in, "valid_until"); err != nil {
		return out, err
	}
	return out, nil
}

func decodeRecord(in *structpb.Struct) (service.RecordInput, error) {
	var out service.RecordInput
	var err error
	if out.ProviderID, err = optionalUUID(in, "provider_id"); err != nil {
		return out, err
	}
	if out.ServiceID, err = optionalUUID(in, "service_id"); err != nil {
		return out, err
	}
	if out.Date, err = requiredDate(in, "date"); err != nil {
		return out, err
	}
	if out.Time, err = optionalTime(in, "time"); err != nil {
		return out, err
	}
	out.Treatment = stringField(in, "treatment")
	out.Remarks = stringField(in, "remarks")
	return out, nil
}

func timeList(ts []availability.TimeOfDay) []any {
	out := make([]any, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.String())
	}
	return out
}

func labelList(ts []availability.TimeOfDay) []any {
	out := make([]any, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Format12h())
	}
	return out
}

func encodeOpenSlots(providerID uuid.UUID, res service.OpenSlots) map[string]any {
	return map[string]any{
		"provider_id": providerID.String(),
		"date":        res.Date.String(),
		"day":         res.Day.String(),
		"reason":      res.Reason.String(),
		"message":     res.Reason.Message(res.Day),
		"slots":       timeList(res.Slots),
		"labels":      labelList(res.Slots),
		"open":        timeList(res.Open),
		"taken":       timeList(res.Taken),
	}
}

func encodeClinicWeek(ws availability.WeeklySchedule) map[string]any {
	days := make([]any, 0, len(availability.AllWeekdays))
	for _, d := range availability.AllWeekdays {
		ds, ok := ws.Day(d)
		if !ok {
			days = append(days, map[string]any{"day": d.String(), "is_open": false})
			continue
		}
		days = append(days, map[string]any{
			"day":     d.String(),
			"is_open": ds.IsOpen,
			"start":   ds.Start.String(),
			"end":     ds.End.String(),
		})
	}
	return map[string]any{"days": days}
}

func encodeAppointment(a *model.Appointment) map[string]any {
	at := availability.TimeOfDay(a.StartMinute)
	out := map[string]any{
		"id":          a.ID.String(),
		"patient_id":  a.PatientID.String(),
		"provider_id": a.ProviderID.String(),
		"date":        repository.FromDBDate(a.Date).String(),
		"time":        at.String(),
		"time_label":  at.Format12h(),
		"status":      string(a.Status),
	}
	if a.ServiceID != nil {
		out["service_id"] = a.ServiceID.String()
	}
	if a.Notes != "" {
		out["notes"] = a.Notes
	}
	if a.CancelledAt != nil {
		out["cancelled_at"] = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	if a.Treatment != "" {
		out["treatment"] = a.Treatment
	}
	if a.Remarks != "" {
		out["remarks"] = a.Remarks
	}
	return out
}

func encodeAppointmentPage(p calendar.Page[model.Appointment]) map[string]any {
	items := make([]any, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, encodeAppointment(&p.Items[i]))
	}
	return encodePage(items, p.Page, p.PageSize, p.Total, p.HasNext, p.HasPrev)
}

func encodePage(items []any, page, pageSize, total int, hasNext, hasPrev bool) map[string]any {
	return map[string]any{
		"items":     items,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
		"has_next":  hasNext,
		"has_prev":  hasPrev,
	}
}

func encodeSchedule(row *model.Schedule) map[string]any {
	out := map[string]any{
		"id":          row.ID.String(),
		"provider_id": row.ProviderID.String(),
		"day":         row.Day.String(),
		"start":       availability.TimeOfDay(row.StartMinute).String(),
		"end":         availability.TimeOfDay(row.EndMinute).String(),
	}
	if row.ValidFrom != nil {
		out["valid_from"] = repository.FromDBDate(*row.ValidFrom).String()
	}
	if row.ValidUntil != nil {
		out["valid_until"] = repository.FromDBDate(*row.ValidUntil).String()
	}
	return out
}

func encodeProvider(p *model.Provider) map[string]any {
	return map[string]any{
		"id":           p.ID.String(),
		"display_name": p.DisplayName,
		"specialty":    p.Specialty,
		"available":    p.Available,
	}
}

func encodeService(svc *model.Service) map[string]any {
	out := map[string]any{
		"id":          svc.ID.String(),
		"name":        svc.Name,
		"description": svc.Description,
		"price_label": svc.PriceLabel,
		"is_active":   svc.IsActive,
	}
	if svc.DefaultDurationMin != nil {
		out["duration_min"] = *svc.DefaultDurationMin
	}
	return out
}

func encodeServices(list []model.Service) []any {
	out := make([]any, 0, len(list))
	for i := range list {
		out = append(out, encodeService(&list[i]))
	}
	return out
}

func encodePatient(p *model.Patient) map[string]any {
	out := map[string]any{
		"id":        p.ID.String(),
		"full_name": p.FullName,
		"email":     p.Email,
		"phone":     p.Phone,
		"address":   p.Address,
	}
	if p.DateOfBirth != nil {
		out["date_of_birth"] = repository.FromDBDate(*p.DateOfBirth).String()
	}
	return out
}

func encodeHistoryEntry(e service.HistoryEntry) map[string]any {
	out := map[string]any{
		"kind":          string(e.Kind),
		"id":            e.ID.String(),
		"date":          e.Date.String(),
		"provider_name": e.ProviderName,
		"service_name":  e.ServiceName,
		"treatment":     e.Treatment,
		"remarks":       e.Remarks,
		"status":        string(e.Status),
	}
	if e.Time != nil {
		out["time"] = e.Time.String()
		out["time_label"] = e.Time.Format12h()
	}
	if e.ProviderID != nil {
		out["provider_id"] = e.ProviderID.String()
	}
	if e.ServiceID != nil {
		out["service_id"] = e.ServiceID.String()
	}
	return out
}

func encodeRecord(m *model.MedicalRecord) map[string]any {
	out := map[string]any{
		"id":         m.ID.String(),
		"patient_id": m.PatientID.String(),
		"date":       repository.FromDBDate(m.Date).String(),
		"treatment":  m.Treatment,
		"remarks":    m.Remarks,
	}
	if m.StartMinute != nil {
		out["time"] = availability.TimeOfDay(*m.StartMinute).String()
	}
	if m.ProviderID != nil {
		out["provider_id"] = m.ProviderID.String()
	}
	if m.ServiceID != nil {
		out["service_id"] = m.ServiceID.String()
	}
	return out
}

func encodeEvent(e *model.Event) map[string]any {
	out := map[string]any{
		"id":         e.ID.String(),
		"type":       string(e.EventType),
		"created_at": e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if e.ProviderID != nil {
		out["provider_id"] = e.ProviderID.String()
	}
	if e.AppointmentID != nil {
		out["appointment_id"] = e.AppointmentID.String()
	}
	if len(e.Details) > 0 {
		var details any
		if err := json.Unmarshal(e.Details, &details); err == nil {
			out["details"] = details
		}
	}
	return out
}

func encodeChange(c events.Change) map[string]any {
	out := map[string]any{
		"topic": string(c.Topic),
		"at":    c.At.UTC().Format(time.RFC3339Nano),
	}
	if c.EntityID != "" {
		out["entity_id"] = c.EntityID
	}
	if c.ProviderID != "" {
		out["provider_id"] = c.ProviderID
	}
	return out
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

// statusCode maps service errors onto gRPC codes. Unknown errors are internal.
func statusCode(err error) codes.Code {
	switch {
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrPastDate):
		return codes.InvalidArgument
	case errors.Is(err, service.ErrProviderNotFound),
		errors.Is(err, service.ErrPatientNotFound),
		errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrAppointmentNotFound),
		errors.Is(err, service.ErrRecordNotFound):
		return codes.NotFound
	case errors.Is(err, service.ErrSlotTaken),
		errors.Is(err, service.ErrPatientExists):
		return codes.AlreadyExists
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrProviderInUse):
		return codes.FailedPrecondition
	case errors.Is(err, events.ErrBusClosed):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
