// Package seed loads the clinic's starter data: five dentists, the treatment
// catalogue, the default clinic week and the dentists' weekly hours.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/model"
)

// namespace keeps seeded IDs stable across databases.
var namespace = uuid.MustParse("5d0a3c8e-2f61-4b1e-9a53-7c4f0e2b9d17")

// ProviderID returns the ID a seeded provider gets, e.g. ProviderID("doc001").
func ProviderID(key string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("provider/"+key))
}

func ServiceID(key string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("service/"+key))
}

func ScheduleID(key string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte("schedule/"+key))
}

type provider struct {
	key, name, specialty string
}

var providers = []provider{
	{"doc001", "Dr. Maria Cruz", "General Dentistry"},
	{"doc002", "Dr. Carlos Santos", "Orthodontics"},
	{"doc003", "Dr. Ana Reyes", "Oral Surgery"},
	{"doc004", "Dr. Jose Mendoza", "Prosthodontics"},
	{"doc005", "Dr. Isabella Torres", "Cosmetic Dentistry"},
}

type service struct {
	key, name, description string
	minutes                int64
	price                  string
}

var services = []service{
	{"srv001", "Metallic Braces", "Traditional metal braces for teeth alignment", 60, "₱25,000 - ₱40,000"},
	{"srv002", "Ceramic Braces", "Tooth-colored braces for a more aesthetic look", 60, "₱35,000 - ₱50,000"},
	{"srv003", "Veneers", "Thin shells to improve tooth appearance", 90, "₱8,000 - ₱15,000 per tooth"},
	{"srv004", "Fixed Bridge", "Permanent dental bridge to replace missing teeth", 60, "₱15,000 - ₱25,000"},
	{"srv005", "Jacket Crown", "Full coverage crown for damaged teeth", 45, "₱8,000 - ₱12,000"},
	{"srv006", "Oral Surgery", "Surgical procedures for dental issues", 90, "₱5,000 - ₱20,000"},
	{"srv007", "Restoration", "Dental fillings and tooth restoration", 30, "₱1,500 - ₱3,000"},
	{"srv008", "Dentures", "Complete or partial removable dentures", 60, "₱15,000 - ₱30,000"},
	{"srv009", "Flexi Dentures", "Flexible, comfortable partial dentures", 60, "₱18,000 - ₱35,000"},
	{"srv010", "Root Canal", "Treatment for infected tooth pulp", 90, "₱5,000 - ₱12,000"},
	{"srv011", "Teeth Whitening", "Professional teeth bleaching service", 60, "₱8,000 - ₱15,000"},
	{"srv012", "Panoramic X-Ray", "Full mouth X-ray imaging", 15, "₱800 - ₱1,500"},
	{"srv013", "Periapical X-Ray", "Detailed X-ray of specific tooth", 10, "₱300 - ₱500"},
	{"srv014", "Tooth Extraction", "Removal of damaged or problematic teeth", 30, "₱1,000 - ₱5,000"},
}

type interval struct {
	key, provider string
	day           availability.Weekday
	start, end    string
}

var intervals = []interval{
	{"sch001", "doc001", availability.Monday, "09:00", "17:00"},
	{"sch002", "doc001", availability.Tuesday, "09:00", "17:00"},
	{"sch003", "doc001", availability.Wednesday, "09:00", "17:00"},
	{"sch004", "doc001", availability.Thursday, "09:00", "17:00"},
	{"sch005", "doc001", availability.Friday, "09:00", "17:00"},
	{"sch006", "doc002", availability.Monday, "10:00", "16:00"},
	{"sch007", "doc002", availability.Wednesday, "10:00", "16:00"},
	{"sch008", "doc002", availability.Friday, "10:00", "16:00"},
	{"sch009", "doc003", availability.Monday, "08:00", "14:00"},
	{"sch010", "doc003", availability.Tuesday, "08:00", "14:00"},
	{"sch011", "doc003", availability.Thursday, "08:00", "14:00"},
	{"sch012", "doc004", availability.Tuesday, "09:00", "17:00"},
	{"sch013", "doc004", availability.Wednesday, "09:00", "17:00"},
	{"sch014", "doc004", availability.Thursday, "09:00", "17:00"},
	{"sch015", "doc005", availability.Monday, "11:00", "18:00"},
	{"sch016", "doc005", availability.Wednesday, "11:00", "18:00"},
	{"sch017", "doc005", availability.Friday, "11:00", "18:00"},
}

// Report counts the rows Apply inserted. Rows that already existed are not
// counted.
type Report struct {
	Providers  int64
	Services   int64
	ClinicDays int64
	Intervals  int64
}

func (r Report) Total() int64 {
	return r.Providers + r.Services + r.ClinicDays + r.Intervals
}

// Apply inserts the starter data. Existing rows are left untouched, so edits
// made after a previous run survive and running it twice is a no-op.
func Apply(ctx context.Context, db *gorm.DB, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var rep Report
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := create(tx, providerRows())
		if err != nil {
			return fmt.Errorf("seed providers: %w", err)
		}
		rep.Providers = n

		if n, err = create(tx, serviceRows()); err != nil {
			return fmt.Errorf("seed services: %w", err)
		}
		rep.Services = n

		if n, err = create(tx, clinicRows()); err != nil {
			return fmt.Errorf("seed clinic week: %w", err)
		}
		rep.ClinicDays = n

		if n, err = create(tx, scheduleRows()); err != nil {
			return fmt.Errorf("seed schedules: %w", err)
		}
		rep.Intervals = n
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	logger.Info("seed applied",
		zap.Int64("providers", rep.Providers),
		zap.Int64("services", rep.Services),
		zap.Int64("clinic_days", rep.ClinicDays),
		zap.Int64("intervals", rep.Intervals),
	)
	return rep, nil
}

func create[T any](tx *gorm.DB, rows []T) (int64, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	return res.RowsAffected, res.Error
}

func providerRows() []model.Provider {
	out := make([]model.Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, model.Provider{
			ID:          ProviderID(p.key),
			DisplayName: p.name,
			Specialty:   p.specialty,
			Available:   true,
		})
	}
	return out
}

func serviceRows() []model.Service {
	out := make([]model.Service, 0, len(services))
	for _, s := range services {
		minutes := s.minutes
		out = append(out, model.Service{
			ID:                 ServiceID(s.key),
			Name:               s.name,
			Description:        s.description,
			DefaultDurationMin: &minutes,
			PriceLabel:         s.price,
			IsActive:           true,
		})
	}
	return out
}

func clinicRows() []model.ClinicDay {
	out := make([]model.ClinicDay, 0, 7)
	week := availability.DefaultClinicSchedule()
	for _, d := range availability.AllWeekdays {
		ds := week[d]
		out = append(out, model.ClinicDay{
			Day:         d,
			IsOpen:      ds.IsOpen,
			StartMinute: int(ds.Start),
			EndMinute:   int(ds.End),
		})
	}
	return out
}

func scheduleRows() []model.Schedule {
	out := make([]model.Schedule, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, model.Schedule{
			ID:          ScheduleID(iv.key),
			ProviderID:  ProviderID(iv.provider),
			Day:         iv.day,
			StartMinute: int(availability.MustParseTimeOfDay(iv.start)),
			EndMinute:   int(availability.MustParseTimeOfDay(iv.end)),
		})
	}
	return out
}
