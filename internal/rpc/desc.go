// Package rpc exposes the scheduling services over gRPC. Messages are
// google.protobuf.Struct values, so clients need no generated code.
package rpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "clinic.scheduling.v1.SchedulingService"

// SchedulingServer is the server API of ServiceName.
type SchedulingServer interface {
	ListSlots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetClinicSchedule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetClinicDay(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProviderSchedule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddProviderInterval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProviderInterval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveProviderInterval(context.Context, *structpb.Struct) (*structpb.Struct, error)

	BookAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RescheduleAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordTreatment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPatientAppointments(context.Context, *structpb.Struct) (*structpb.Struct, error)

	ListProviders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProvider(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProvider(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProvider(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListServices(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateService(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProviderServices(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AssignService(context.Context, *structpb.Struct) (*structpb.Struct, error)

	RegisterPatient(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPatient(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMedicalHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddMedicalRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateMedicalRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteMedicalRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)

	ListRecentEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)

	WatchChanges(*structpb.Struct, grpc.ServerStream) error
}

type unaryMethod func(SchedulingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(SchedulingServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchChangesHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SchedulingServer).WatchChanges(in, stream)
}

// FullMethod returns the path clients invoke, e.g.
// "/clinic.scheduling.v1.SchedulingService/ListSlots".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListSlots", SchedulingServer.ListSlots),
		unary("GetClinicSchedule", SchedulingServer.GetClinicSchedule),
		unary("SetClinicDay", SchedulingServer.SetClinicDay),
		unary("ListProviderSchedule", SchedulingServer.ListProviderSchedule),
		unary("AddProviderInterval", SchedulingServer.AddProviderInterval),
		unary("UpdateProviderInterval", SchedulingServer.UpdateProviderInterval),
		unary("RemoveProviderInterval", SchedulingServer.RemoveProviderInterval),

		unary("BookAppointment", SchedulingServer.BookAppointment),
		unary("RescheduleAppointment", SchedulingServer.RescheduleAppointment),
		unary("CancelAppointment", SchedulingServer.CancelAppointment),
		unary("ConfirmAppointment", SchedulingServer.ConfirmAppointment),
		unary("CompleteAppointment", SchedulingServer.CompleteAppointment),
		unary("RecordTreatment", SchedulingServer.RecordTreatment),
		unary("ListPatientAppointments", SchedulingServer.ListPatientAppointments),

		unary("ListProviders", SchedulingServer.ListProviders),
		unary("CreateProvider", SchedulingServer.CreateProvider),
		unary("UpdateProvider", SchedulingServer.UpdateProvider),
		unary("DeleteProvider", SchedulingServer.DeleteProvider),
		unary("ListServices", SchedulingServer.ListServices),
		unary("CreateService", SchedulingServer.CreateService),
		unary("ListProviderServices", SchedulingServer.ListProviderServices),
		unary("AssignService", SchedulingServer.AssignService),

		unary("RegisterPatient", SchedulingServer.RegisterPatient),
		unary("GetPatient", SchedulingServer.GetPatient),
		unary("GetMedicalHistory", SchedulingServer.GetMedicalHistory),
		unary("AddMedicalRecord", SchedulingServer.AddMedicalRecord),
		unary("UpdateMedicalRecord", SchedulingServer.UpdateMedicalRecord),
		unary("DeleteMedicalRecord", SchedulingServer.DeleteMedicalRecord),

		unary("ListRecentEvents", SchedulingServer.ListRecentEvents),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchChanges",
			Handler:       watchChangesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "clinic/scheduling/v1/scheduling.proto",
}

// WatchChangesDesc is the client side description of the WatchChanges stream.
var WatchChangesDesc = &grpc.StreamDesc{StreamName: "WatchChanges", ServerStreams: true}

// NewGRPCServer builds a server with logging interceptors, the scheduling
// service, health checks and reflection.
func NewGRPCServer(srv SchedulingServer, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append(opts,
		grpc.ChainUnaryInterceptor(UnaryRequestID(), UnaryLogging(logger)),
		grpc.ChainStreamInterceptor(StreamLogging(logger)),
	)
	gs := grpc.NewServer(opts...)
	gs.RegisterService(&ServiceDesc, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	reflection.Register(gs)
	return gs
}

// Stop ends open WatchChanges streams, then stops gs gracefully. If in-flight
// calls outlast timeout the remaining connections are closed and Stop
// reports false.
func Stop(gs *grpc.Server, srv *Server, timeout time.Duration) bool {
	srv.Shutdown()

	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		gs.Stop()
		return false
	}
}
