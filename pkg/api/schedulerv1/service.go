package schedulerv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// ServiceName is the fully qualified service name.
	ServiceName = "rostering.scheduler.v1.SchedulerService"

	AllocateProcedure = "/" + ServiceName + "/Allocate"
	GetInfoProcedure  = "/" + ServiceName + "/GetInfo"
)

// SchedulerServiceServer is the server API for SchedulerService.
type SchedulerServiceServer interface {
	Allocate(context.Context, *AllocateRequest) (*AllocateResponse, error)
	GetInfo(context.Context, *InfoRequest) (*InfoResponse, error)
}

// UnimplementedSchedulerServiceServer can be embedded for forward compatibility.
type UnimplementedSchedulerServiceServer struct{}

func (UnimplementedSchedulerServiceServer) Allocate(context.Context, *AllocateRequest) (*AllocateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Allocate not implemented")
}

func (UnimplementedSchedulerServiceServer) GetInfo(context.Context, *InfoRequest) (*InfoResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetInfo not implemented")
}

// RegisterSchedulerServiceServer registers srv on s.
func RegisterSchedulerServiceServer(s grpc.ServiceRegistrar, srv SchedulerServiceServer) {
	s.RegisterService(&SchedulerService_ServiceDesc, srv)
}

func allocateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AllocateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServiceServer).Allocate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AllocateProcedure}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServiceServer).Allocate(ctx, req.(*AllocateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServiceServer).GetInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetInfoProcedure}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SchedulerServiceServer).GetInfo(ctx, req.(*InfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SchedulerService_ServiceDesc is the grpc.ServiceDesc for SchedulerService.
//
//nolint:revive,stylecheck // name mirrors protoc-gen-go-grpc output
var SchedulerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Allocate", Handler: allocateHandler},
		{MethodName: "GetInfo", Handler: getInfoHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rostering/scheduler/v1/scheduler.json",
}

// SchedulerServiceClient is the client API for SchedulerService.
type SchedulerServiceClient interface {
	Allocate(ctx context.Context, in *AllocateRequest, opts ...grpc.CallOption) (*AllocateResponse, error)
	GetInfo(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error)
}

type schedulerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSchedulerServiceClient returns a client that always speaks the JSON codec.
func NewSchedulerServiceClient(cc grpc.ClientConnInterface) SchedulerServiceClient {
	return &schedulerServiceClient{cc: cc}
}

func (c *schedulerServiceClient) Allocate(ctx context.Context, in *AllocateRequest, opts ...grpc.CallOption) (*AllocateResponse, error) {
	out := new(AllocateResponse)
	if err := c.cc.Invoke(ctx, AllocateProcedure, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *schedulerServiceClient) GetInfo(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error) {
	out := new(InfoResponse)
	if err := c.cc.Invoke(ctx, GetInfoProcedure, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
