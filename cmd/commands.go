package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-scheduling/internal/availability"
	"github.com/Leganyst/clinic-scheduling/internal/db"
	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/model"
	"github.com/Leganyst/clinic-scheduling/internal/rpc"
	"github.com/Leganyst/clinic-scheduling/internal/seed"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{migrate: true})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := rpc.NewServer(a.services, a.bus, a.logger.Named("rpc"))
	gs := rpc.NewGRPCServer(srv, a.logger.Named("grpc"))

	lis, err := net.Listen("tcp", a.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.GRPCAddr, err)
	}

	go logChanges(ctx, a.bus, a.logger.Named("changes"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- gs.Serve(lis)
	}()
	a.logger.Info("grpc server listening", zap.String("addr", lis.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("grpc serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down grpc server")
	if !rpc.Stop(gs, srv, shutdownTimeout) {
		a.logger.Warn("graceful stop timed out, closing connections")
	}
	return nil
}

// logChanges writes every change notification to the log.
func logChanges(ctx context.Context, sub events.Subscriber, logger *zap.Logger) {
	ch, err := sub.Subscribe(ctx)
	if err != nil {
		logger.Warn("subscribe to changes", zap.Error(err))
		return
	}
	for c := range ch {
		logger.Debug("change",
			zap.String("topic", string(c.Topic)),
			zap.String("entity_id", c.EntityID),
			zap.String("provider_id", c.ProviderID),
		)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			gdb, err := db.NewGormDB(&cfg.DBConfig)
			if err != nil {
				return fmt.Errorf("init db: %w", err)
			}
			defer closeDB(gdb, logger)

			if err := model.AutoMigrate(gdb); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			logger.Info("schema migrated", zap.String("driver", cfg.Driver))
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the default dentists, services and hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			gdb, err := db.NewGormDB(&cfg.DBConfig)
			if err != nil {
				return fmt.Errorf("init db: %w", err)
			}
			defer closeDB(gdb, logger)

			if err := model.AutoMigrate(gdb); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			rep, err := seed.Apply(cmd.Context(), gdb, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d providers, %d services, %d clinic days, %d intervals\n",
				rep.Providers, rep.Services, rep.ClinicDays, rep.Intervals)
			return nil
		},
	}
}

func slotsCmd() *cobra.Command {
	var (
		providerArg string
		dateArg     string
		days        int
		memory      bool
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print a provider's bookable times for one date",
		Example: "  clinicd slots --provider doc002 --date 2025-01-06 --days 7 --memory\n" +
			"  clinicd slots --provider 0b6c9a4e-... --date 2025-01-06",
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, err := parseProvider(providerArg)
			if err != nil {
				return err
			}
			date := availability.DateOf(time.Now())
			if dateArg != "" {
				if date, err = availability.ParseDate(dateArg); err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", dateArg)
				}
			}

			a, err := newApp(cmd.Context(), appOptions{memory: memory})
			if err != nil {
				return err
			}
			defer a.Close()

			if days < 1 {
				days = 1
			}
			for i := 0; i < days; i++ {
				res, err := a.services.Availability.ListOpenSlots(cmd.Context(), providerID, date.AddDays(i))
				if err != nil {
					return err
				}
				printSlots(cmd, res.Result, res.Taken)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&providerArg, "provider", "", "provider id, or a seeded key such as doc001")
	cmd.Flags().StringVar(&dateArg, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 1, "number of consecutive days to print")
	cmd.Flags().BoolVar(&memory, "memory", false, "use a seeded in-memory database")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

// parseProvider accepts a UUID or the key of a seeded provider.
func parseProvider(arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}
	if arg == "" {
		return uuid.Nil, fmt.Errorf("--provider is required")
	}
	return seed.ProviderID(arg), nil
}

func printSlots(cmd *cobra.Command, res availability.Result, taken []availability.TimeOfDay) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", res.Date, res.Day)
	if !res.Available() {
		fmt.Fprintln(out, res.Reason.Message(res.Day))
		return
	}
	booked := make(map[availability.TimeOfDay]bool, len(taken))
	for _, t := range taken {
		booked[t] = true
	}
	for _, s := range res.Slots {
		if booked[s] {
			fmt.Fprintf(out, "  %s (booked)\n", s.Format12h())
			continue
		}
		fmt.Fprintf(out, "  %s\n", s.Format12h())
	}
}
