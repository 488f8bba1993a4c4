package availability

import "sort"

// DefaultSlotInterval is the spacing between slot starts, in minutes.
const DefaultSlotInterval = 30

// Reason explains an empty result.
type Reason int

const (
	Ok Reason = iota
	ClinicClosed
	ProviderUnavailable
	NoOverlap
)

func (r Reason) String() string {
	switch r {
	case Ok:
		return "ok"
	case ClinicClosed:
		return "clinic_closed"
	case ProviderUnavailable:
		return "provider_unavailable"
	case NoOverlap:
		return "no_overlap"
	default:
		return "unknown"
	}
}

// Message is the text shown next to an empty slot list.
func (r Reason) Message(day Weekday) string {
	switch r {
	case ClinicClosed:
		return "Clinic is closed on " + day.String() + "s"
	case ProviderUnavailable:
		return "Dentist not available on " + day.String() + "s"
	case NoOverlap:
		return "No available slots (clinic hours conflict)"
	default:
		return ""
	}
}

// Result is the outcome of Resolve. Slots is empty unless Reason is Ok.
type Result struct {
	Date    Date
	Day     Weekday
	Slots   []TimeOfDay
	Windows []Window
	Reason  Reason
}

func (r Result) Available() bool {
	return r.Reason == Ok && len(r.Slots) > 0
}

// Contains reports whether t is one of the resolved slot starts.
func (r Result) Contains(t TimeOfDay) bool {
	i := sort.Search(len(r.Slots), func(i int) bool { return r.Slots[i] >= t })
	return i < len(r.Slots) && r.Slots[i] == t
}

// Resolve computes the bookable slot starts of a provider on date.
//
// The clinic gate is checked first, so a closed clinic day wins over any
// provider hours. Each provider interval is clipped to the clinic's hours and
// split into slots of intervalMinutes; intervalMinutes <= 0 means
// DefaultSlotInterval.
//
// A slot is emitted while its start is before the end of its window, so the
// last slot may run past closing when the window length is not a multiple of
// the interval.
func Resolve(date Date, clinic WeeklySchedule, provider ProviderWeeklySchedule, intervalMinutes int) Result {
	day := date.Weekday()
	res := Result{Date: date, Day: day}

	clinicDay, ok := clinic.Day(day)
	if !ok || !clinicDay.IsOpen {
		res.Reason = ClinicClosed
		return res
	}

	intervals := provider.ForDay(day)
	if len(intervals) == 0 {
		res.Reason = ProviderUnavailable
		return res
	}

	var slots []TimeOfDay
	for _, iv := range intervals {
		w, ok := EffectiveWindow(clinicDay, iv)
		if !ok {
			continue
		}
		res.Windows = append(res.Windows, w)
		slots = append(slots, GenerateSlots(w, intervalMinutes)...)
	}

	res.Slots = mergeSlots(slots)
	if len(res.Slots) == 0 {
		res.Reason = NoOverlap
		return res
	}
	res.Reason = Ok
	return res
}

// EffectiveWindow intersects the clinic's hours of a day with one provider
// interval. ok is false when nothing is left.
func EffectiveWindow(clinicDay DaySchedule, iv ProviderInterval) (Window, bool) {
	w := Window{
		Start: max(clinicDay.Start, iv.Start),
		End:   min(clinicDay.End, iv.End),
	}
	if w.Empty() {
		return Window{}, false
	}
	return w, true
}

// GenerateSlots walks the window from its start in steps of intervalMinutes.
func GenerateSlots(w Window, intervalMinutes int) []TimeOfDay {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultSlotInterval
	}
	if w.Empty() {
		return nil
	}
	slots := make([]TimeOfDay, 0, (w.Minutes()+intervalMinutes-1)/intervalMinutes)
	for t := w.Start; t < w.End; t += TimeOfDay(intervalMinutes) {
		slots = append(slots, t)
	}
	return slots
}

func mergeSlots(slots []TimeOfDay) []TimeOfDay {
	if len(slots) == 0 {
		return nil
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	out := slots[:1]
	for _, s := range slots[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
