package availability

import (
	"reflect"
	"testing"
)

var (
	monday = Date{Year: 2025, Month: 1, Day: 6}
	sunday = Date{Year: 2025, Month: 1, Day: 5}
)

func clinicWeek(start, end string) WeeklySchedule {
	ws := DefaultClinicSchedule()
	for d, ds := range ws {
		ds.Start = MustParseTimeOfDay(start)
		ds.End = MustParseTimeOfDay(end)
		ws[d] = ds
	}
	return ws
}

func interval(day Weekday, start, end string) ProviderInterval {
	return ProviderInterval{Day: day, Start: MustParseTimeOfDay(start), End: MustParseTimeOfDay(end)}
}

func TestResolve_ScenarioA_Overlap(t *testing.T) {
	clinic := clinicWeek("09:00", "18:00")
	provider := ProviderWeeklySchedule{interval(Monday, "10:00", "16:00")}

	res := Resolve(monday, clinic, provider, 30)
	if res.Reason != Ok {
		t.Fatalf("reason = %s, want ok", res.Reason)
	}
	if len(res.Slots) != 12 {
		t.Fatalf("expected 12 slots, got %d: %v", len(res.Slots), res.Slots)
	}
	if res.Slots[0] != At(10, 0) {
		t.Fatalf("first slot = %s, want 10:00", res.Slots[0])
	}
	if last := res.Slots[len(res.Slots)-1]; last != At(15, 30) {
		t.Fatalf("last slot = %s, want 15:30", last)
	}
	if res.Day != Monday {
		t.Fatalf("day = %s, want Monday", res.Day)
	}
}

func TestResolve_ScenarioB_ProviderUnavailable(t *testing.T) {
	clinic := clinicWeek("09:00", "18:00")
	provider := ProviderWeeklySchedule{interval(Tuesday, "10:00", "16:00")}

	res := Resolve(monday, clinic, provider, 30)
	if res.Reason != ProviderUnavailable {
		t.Fatalf("reason = %s, want provider_unavailable", res.Reason)
	}
	if len(res.Slots) != 0 {
		t.Fatalf("expected no slots, got %v", res.Slots)
	}
}

func TestResolve_ScenarioC_ClinicClosedWins(t *testing.T) {
	clinic := DefaultClinicSchedule()
	provider := ProviderWeeklySchedule{interval(Sunday, "10:00", "14:00")}

	res := Resolve(sunday, clinic, provider, 30)
	if res.Reason != ClinicClosed {
		t.Fatalf("reason = %s, want clinic_closed", res.Reason)
	}
	if len(res.Slots) != 0 {
		t.Fatalf("expected no slots, got %v", res.Slots)
	}
}

func TestResolve_ScenarioD_NarrowWindow(t *testing.T) {
	clinic := clinicWeek("09:00", "12:00")
	provider := ProviderWeeklySchedule{interval(Monday, "11:30", "17:00")}

	res := Resolve(monday, clinic, provider, 30)
	want := []TimeOfDay{At(11, 30)}
	if !reflect.DeepEqual(res.Slots, want) {
		t.Fatalf("slots = %v, want %v", res.Slots, want)
	}
	if len(res.Windows) != 1 || res.Windows[0] != (Window{Start: At(11, 30), End: At(12, 0)}) {
		t.Fatalf("unexpected windows %+v", res.Windows)
	}
}

func TestResolve_NoOverlap(t *testing.T) {
	clinic := clinicWeek("09:00", "12:00")
	provider := ProviderWeeklySchedule{interval(Monday, "13:00", "17:00")}

	res := Resolve(monday, clinic, provider, 30)
	if res.Reason != NoOverlap {
		t.Fatalf("reason = %s, want no_overlap", res.Reason)
	}
	if len(res.Slots) != 0 || len(res.Windows) != 0 {
		t.Fatalf("expected nothing, got slots=%v windows=%v", res.Slots, res.Windows)
	}
}

func TestResolve_MissingClinicDayIsClosed(t *testing.T) {
	clinic := WeeklySchedule{Tuesday: {IsOpen: true, Start: At(9, 0), End: At(18, 0)}}
	provider := ProviderWeeklySchedule{interval(Monday, "10:00", "12:00")}

	if res := Resolve(monday, clinic, provider, 30); res.Reason != ClinicClosed {
		t.Fatalf("reason = %s, want clinic_closed", res.Reason)
	}
	if res := Resolve(monday, nil, provider, 30); res.Reason != ClinicClosed {
		t.Fatalf("nil clinic: reason = %s, want clinic_closed", res.Reason)
	}
}

func TestResolve_InvertedProviderHoursYieldNothing(t *testing.T) {
	clinic := clinicWeek("09:00", "18:00")
	provider := ProviderWeeklySchedule{interval(Monday, "16:00", "10:00")}

	res := Resolve(monday, clinic, provider, 30)
	if res.Reason != NoOverlap || len(res.Slots) != 0 {
		t.Fatalf("expected no_overlap and no slots, got %s %v", res.Reason, res.Slots)
	}
}

func TestResolve_LooseBoundaryKeepsLastPartialSlot(t *testing.T) {
	clinic := clinicWeek("09:00", "10:10")
	provider := ProviderWeeklySchedule{interval(Monday, "09:00", "18:00")}

	res := Resolve(monday, clinic, provider, 30)
	want := []TimeOfDay{At(9, 0), At(9, 30), At(10, 0)}
	if !reflect.DeepEqual(res.Slots, want) {
		t.Fatalf("slots = %v, want %v", res.Slots, want)
	}
}

func TestResolve_MultipleIntervalsMergedAndDeduplicated(t *testing.T) {
	clinic := clinicWeek("09:00", "18:00")
	provider := ProviderWeeklySchedule{
		interval(Monday, "14:00", "15:00"),
		interval(Monday, "09:00", "10:00"),
		interval(Monday, "09:30", "10:30"),
	}

	res := Resolve(monday, clinic, provider, 30)
	want := []TimeOfDay{At(9, 0), At(9, 30), At(10, 0), At(14, 0), At(14, 30)}
	if !reflect.DeepEqual(res.Slots, want) {
		t.Fatalf("slots = %v, want %v", res.Slots, want)
	}
	if len(res.Windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(res.Windows))
	}
}

func TestResolve_OneIntervalOutsideClinicStillOk(t *testing.T) {
	clinic := clinicWeek("09:00", "12:00")
	provider := ProviderWeeklySchedule{
		interval(Monday, "07:00", "08:00"),
		interval(Monday, "11:00", "13:00"),
	}

	res := Resolve(monday, clinic, provider, 30)
	want := []TimeOfDay{At(11, 0), At(11, 30)}
	if res.Reason != Ok || !reflect.DeepEqual(res.Slots, want) {
		t.Fatalf("got %s %v, want ok %v", res.Reason, res.Slots, want)
	}
}

func TestResolve_DefaultInterval(t *testing.T) {
	clinic := clinicWeek("09:00", "18:00")
	provider := ProviderWeeklySchedule{interval(Monday, "10:00", "11:00")}

	for _, iv := range []int{0, -15} {
		res := Resolve(monday, clinic, provider, iv)
		if len(res.Slots) != 2 {
			t.Fatalf("interval %d: expected 2 slots, got %v", iv, res.Slots)
		}
	}
}

func TestResolve_SlotProperties(t *testing.T) {
	clinic := clinicWeek("08:15", "19:40")
	provider := ProviderWeeklySchedule{interval(Monday, "07:00", "17:05")}

	for _, step := range []int{5, 10, 15, 20, 25, 30, 45, 60, 90} {
		res := Resolve(monday, clinic, provider, step)
		if res.Reason != Ok {
			t.Fatalf("step %d: reason = %s", step, res.Reason)
		}
		w := res.Windows[0]
		for i, s := range res.Slots {
			if s < w.Start || s >= w.End {
				t.Fatalf("step %d: slot %s outside [%s, %s)", step, s, w.Start, w.End)
			}
			if i > 0 && int(s-res.Slots[i-1]) != step {
				t.Fatalf("step %d: slots %s and %s not %d minutes apart", step, res.Slots[i-1], s, step)
			}
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	clinic := clinicWeek("09:00", "18:00")
	provider := ProviderWeeklySchedule{
		interval(Monday, "13:00", "16:00"),
		interval(Monday, "09:00", "11:00"),
	}

	first := Resolve(monday, clinic, provider, 30)
	second := Resolve(monday, clinic, provider, 30)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
	if provider[0].Start != At(13, 0) {
		t.Fatalf("input schedule was reordered")
	}
}

func TestResult_Contains(t *testing.T) {
	res := Result{Reason: Ok, Slots: []TimeOfDay{At(9, 0), At(9, 30), At(10, 0)}}
	if !res.Contains(At(9, 30)) {
		t.Fatalf("expected 09:30 to be contained")
	}
	if res.Contains(At(9, 45)) {
		t.Fatalf("09:45 must not be contained")
	}
}

func TestReason_Message(t *testing.T) {
	if got := ClinicClosed.Message(Sunday); got != "Clinic is closed on Sundays" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Ok.Message(Monday); got != "" {
		t.Fatalf("ok should have no message, got %q", got)
	}
}
