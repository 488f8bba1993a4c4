package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/config"
	"github.com/Leganyst/clinic-scheduling/internal/db"
	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/logging"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/repository"
	"github.com/Leganyst/clinic-scheduling/internal/rpc"
	"github.com/Leganyst/clinic-scheduling/internal/seed"
	"github.com/Leganyst/clinic-scheduling/internal/service"
)

// app holds everything a command needs once config, logger and database are up.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	bus    events.Bus

	services rpc.Services
}

type appOptions struct {
	// memory swaps the configured database for a seeded in-memory one.
	memory bool
	// migrate runs AutoMigrate on the configured database.
	migrate bool
}

// bootstrap loads the configuration and builds the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if cfg.IsProduction() && cfg.Driver == config.DriverSQLite {
		logger.Warn("sqlite in production", zap.String("path", cfg.SQLitePath))
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, logger, err := bootstrap()
	if err != nil {
		return nil, err
	}

	gdb, err := openDB(ctx, cfg, logger, opts)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	bus, err := newBus(ctx, cfg, logger)
	if err != nil {
		closeDB(gdb, logger)
		_ = logger.Sync()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       gdb,
		bus:      bus,
		services: newServices(gdb, bus, cfg, logger),
	}, nil
}

func newServices(gdb *gorm.DB, bus events.Publisher, cfg *config.Config, logger *zap.Logger) rpc.Services {
	providers := repository.NewGormProviderRepository(gdb)
	schedules := repository.NewGormScheduleRepository(gdb)
	appointments := repository.NewGormAppointmentRepository(gdb)
	patients := repository.NewGormPatientRepository(gdb)
	services := repository.NewGormServiceRepository(gdb)
	audit := repository.NewGormEventRepository(gdb)

	avail := service.NewAvailabilityService(providers, schedules, appointments, cfg.SlotIntervalMinutes,
		logger.Named("availability"))

	return rpc.Services{
		Availability: avail,
		Schedules:    service.NewScheduleService(schedules, providers, audit, bus, logger.Named("schedule")),
		Appointments: service.NewAppointmentService(avail, appointments, patients, services, audit, bus,
			logger.Named("appointment")),
		Catalog:  service.NewCatalogService(providers, services, audit, bus, logger.Named("catalog")),
		Patients: service.NewPatientService(patients, audit, logger.Named("patient")),
		History: service.NewMedicalHistoryService(patients, appointments,
			repository.NewGormMedicalRecordRepository(gdb), providers, services, audit, bus,
			logger.Named("history")),
		Audit: service.NewAuditService(audit),
	}
}

func openDB(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts appOptions) (*gorm.DB, error) {
	if opts.memory {
		gdb, err := db.OpenInMemory()
		if err != nil {
			return nil, fmt.Errorf("open in-memory db: %w", err)
		}
		if _, err := seed.Apply(ctx, gdb, logger); err != nil {
			closeDB(gdb, logger)
			return nil, err
		}
		return gdb, nil
	}

	gdb, err := db.NewGormDB(&cfg.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if opts.migrate {
		if err := model.AutoMigrate(gdb); err != nil {
			closeDB(gdb, logger)
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return gdb, nil
}

// newBus uses Redis when REDIS_URL is set so that several instances see each
// other's changes.
func newBus(ctx context.Context, cfg *config.Config, logger *zap.Logger) (events.Bus, error) {
	if cfg.RedisURL == "" {
		return events.NewLocalBus(0), nil
	}
	bus, err := events.NewRedisBus(ctx, cfg.RedisURL, cfg.RedisChannel, logger.Named("events"))
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return bus, nil
}

func closeDB(gdb *gorm.DB, logger *zap.Logger) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("close db", zap.Error(err))
	}
}

func (a *app) Close() {
	if err := a.bus.Close(); err != nil {
		a.logger.Warn("close bus", zap.Error(err))
	}
	closeDB(a.db, a.logger)
	_ = a.logger.Sync()
}
