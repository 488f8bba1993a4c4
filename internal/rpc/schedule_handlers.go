package rpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
)

// ListSlots: {provider_id, date} -> resolved slots with the booked ones split off.
func (s *Server) ListSlots(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := requiredUUID(in, "provider_id")
	if err != nil {
		return nil, err
	}
	date, err := requiredDate(in, "date")
	if err != nil {
		return nil, err
	}

	res, err := s.availability.ListOpenSlots(ctx, providerID, date)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	out := encodeOpenSlots(providerID, res)
	out["interval_minutes"] = s.availability.IntervalMinutes()
	return newStruct(out)
}

func (s *Server) GetClinicSchedule(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ws, err := s.schedules.ClinicSchedule(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeClinicWeek(ws))
}

// SetClinicDay: {day, is_open, start?, end?} -> the updated clinic week.
// Omitted hours keep the day's current ones, so a day can be closed with
// just {day, is_open: false}.
func (s *Server) SetClinicDay(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	day, err := requiredWeekday(in, "day")
	if err != nil {
		return nil, err
	}
	open, ok := boolField(in, "is_open")
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "is_open is required")
	}
	start, err := optionalTime(in, "start")
	if err != nil {
		return nil, err
	}
	end, err := optionalTime(in, "end")
	if err != nil {
		return nil, err
	}

	ds := availability.DaySchedule{IsOpen: open}
	if start == nil || end == nil {
		ws, err := s.schedules.ClinicSchedule(ctx)
		if err != nil {
			return nil, s.toStatus(ctx, err)
		}
		current, _ := ws.Day(day)
		ds.Start, ds.End = current.Start, current.End
	}
	if start != nil {
		ds.Start = *start
	}
	if end != nil {
		ds.End = *end
	}

	if err := s.schedules.SetClinicDay(ctx, day, ds); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.GetClinicSchedule(ctx, nil)
}

// ListProviderSchedule: {provider_id} -> {intervals: [...]}, Monday first.
func (s *Server) ListProviderSchedule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := requiredUUID(in, "provider_id")
	if err != nil {
		return nil, err
	}
	rows, err := s.schedules.ProviderSchedule(ctx, providerID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	items := make([]any, 0, len(rows))
	for i := range rows {
		items = append(items, encodeSchedule(&rows[i]))
	}
	return newStruct(map[string]any{"provider_id": providerID.String(), "intervals": items})
}

// AddProviderInterval: {provider_id, day, start, end, valid_from?, valid_until?}.
func (s *Server) AddProviderInterval(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	providerID, err := requiredUUID(in, "provider_id")
	if err != nil {
		return nil, err
	}
	interval, err := decodeInterval(in)
	if err != nil {
		return nil, err
	}
	row, err := s.schedules.AddProviderInterval(ctx, providerID, interval)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeSchedule(row))
}

// UpdateProviderInterval: {schedule_id, day, start, end, valid_from?, valid_until?}.
func (s *Server) UpdateProviderInterval(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "schedule_id")
	if err != nil {
		return nil, err
	}
	interval, err := decodeInterval(in)
	if err != nil {
		return nil, err
	}
	row, err := s.schedules.UpdateProviderInterval(ctx, id, interval)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return newStruct(encodeSchedule(row))
}

// RemoveProviderInterval: {schedule_id}.
func (s *Server) RemoveProviderInterval(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "schedule_id")
	if err != nil {
		return nil, err
	}
	if err := s.schedules.RemoveProviderInterval(ctx, id); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return empty()
}
