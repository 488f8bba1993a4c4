package rpc

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/clinic-scheduling/internal/events"
	"github.com/Leganyst/clinic-scheduling/internal/service"
)

// Services is the service layer the server delegates to.
type Services struct {
	Availability *service.AvailabilityService
	Schedules    *service.ScheduleService
	Appointments *service.AppointmentService
	Catalog      *service.CatalogService
	Patients     *service.PatientService
	History      *service.MedicalHistoryService
	Audit        *service.AuditService
}

// Server implements SchedulingServer on top of the service layer.
type Server struct {
	availability *service.AvailabilityService
	schedules    *service.ScheduleService
	appointments *service.AppointmentService
	catalog      *service.CatalogService
	patients     *service.PatientService
	history      *service.MedicalHistoryService
	audit        *service.AuditService
	changes      events.Subscriber
	logger       *zap.Logger

	// done is closed by Shutdown and ends every WatchChanges stream.
	done     chan struct{}
	stopOnce sync.Once
}

func NewServer(svcs Services, changes events.Subscriber, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		availability: svcs.Availability,
		schedules:    svcs.Schedules,
		appointments: svcs.Appointments,
		catalog:      svcs.Catalog,
		patients:     svcs.Patients,
		history:      svcs.History,
		audit:        svcs.Audit,
		changes:      changes,
		logger:       logger,
		done:         make(chan struct{}),
	}
}

var _ SchedulingServer = (*Server)(nil)

// Shutdown ends open WatchChanges streams so that GracefulStop does not wait
// for clients that never hang up. Safe to call more than once.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() { close(s.done) })
}

// WatchChanges streams change notifications until the client goes away or
// the server shuts down. {topics: [...]} limits the stream to the listed
// topics; {provider_id} limits it to one provider.
func (s *Server) WatchChanges(in *structpb.Struct, stream grpc.ServerStream) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	topics := map[events.Topic]bool{}
	for _, v := range in.GetFields()["topics"].GetListValue().GetValues() {
		topics[events.Topic(v.GetStringValue())] = true
	}
	providerID := stringField(in, "provider_id")

	select {
	case <-s.done:
		return status.Error(codes.Unavailable, "server is shutting down")
	default:
	}
	ch, err := s.changes.Subscribe(ctx)
	if err != nil {
		return s.toStatus(ctx, err)
	}
	// Headers tell the client the subscription is live.
	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}

	for {
		select {
		case <-s.done:
			return status.Error(codes.Unavailable, "server is shutting down")
		case c, ok := <-ch:
			if !ok {
				if err := stream.Context().Err(); err != nil {
					return status.FromContextError(err).Err()
				}
				return status.Error(codes.Unavailable, "change feed closed")
			}
			if len(topics) > 0 && !topics[c.Topic] {
				continue
			}
			if providerID != "" && c.ProviderID != "" && c.ProviderID != providerID {
				continue
			}
			msg, err := newStruct(encodeChange(c))
			if err != nil {
				return err
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

func (s *Server) toStatus(ctx context.Context, err error) error {
	code := statusCode(err)
	if code == codes.Internal {
		s.logger.Error("request failed",
			zap.String("request_id", RequestIDFromContext(ctx)),
			zap.Error(err),
		)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func empty() (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}
