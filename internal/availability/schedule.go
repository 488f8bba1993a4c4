package availability

import "sort"

// DaySchedule is one day of the clinic week. Start and End are kept when the
// day is closed so that editors can show the previous hours.
type DaySchedule struct {
	IsOpen bool
	Start  TimeOfDay
	End    TimeOfDay
}

// WeeklySchedule is the clinic-wide week. A missing day means closed.
type WeeklySchedule map[Weekday]DaySchedule

// DefaultClinicSchedule is used until somebody edits the clinic week:
// Monday to Saturday 09:00-18:00, closed on Sunday.
func DefaultClinicSchedule() WeeklySchedule {
	ws := make(WeeklySchedule, 7)
	for _, d := range AllWeekdays {
		ws[d] = DaySchedule{IsOpen: d != Sunday, Start: At(9, 0), End: At(18, 0)}
	}
	return ws
}

// Day looks a day up; ok is false for days with no entry.
func (ws WeeklySchedule) Day(d Weekday) (DaySchedule, bool) {
	ds, ok := ws[d]
	return ds, ok
}

// ProviderInterval is one block of a provider's recurring working hours.
type ProviderInterval struct {
	Day   Weekday
	Start TimeOfDay
	End   TimeOfDay
}

// ProviderWeeklySchedule holds a provider's intervals. Several intervals per
// day are allowed.
type ProviderWeeklySchedule []ProviderInterval

// ForDay returns the intervals of one day ordered by start time.
func (ps ProviderWeeklySchedule) ForDay(d Weekday) []ProviderInterval {
	var out []ProviderInterval
	for _, iv := range ps {
		if iv.Day == d {
			out = append(out, iv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Window is a half-open [Start, End) span of a single day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (w Window) Empty() bool {
	return w.Start >= w.End
}

func (w Window) Minutes() int {
	if w.Empty() {
		return 0
	}
	return int(w.End - w.Start)
}
