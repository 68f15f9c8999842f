// Package gateway serves SchedulerService over the Connect protocol (plain
// HTTP/1.1 JSON or h2c), next to /health and /metrics.
package gateway

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/grpc/status"

	"rostering/pkg/api/schedulerv1"
	"rostering/pkg/apperror"
	"rostering/pkg/swagger"
)

// Options configures the gateway mux.
type Options struct {
	// MetricsHandler is mounted on /metrics when non-nil.
	MetricsHandler http.Handler
	// Docs mounts Swagger UI and the OpenAPI document under /swagger/.
	Docs bool
	// Interceptors wrap every Connect call; nil uses DefaultInterceptors().
	Interceptors []connect.Interceptor
}

// NewHandler returns a mux exposing svc through Connect handlers.
func NewHandler(svc schedulerv1.SchedulerServiceServer, opts Options) http.Handler {
	interceptors := opts.Interceptors
	if interceptors == nil {
		interceptors = DefaultInterceptors()
	}
	handlerOpts := []connect.HandlerOption{
		connect.WithCodec(schedulerv1.Codec{}),
		connect.WithInterceptors(interceptors...),
	}

	mux := http.NewServeMux()
	mux.Handle(schedulerv1.AllocateProcedure, connect.NewUnaryHandler(
		schedulerv1.AllocateProcedure,
		func(ctx context.Context, req *connect.Request[schedulerv1.AllocateRequest]) (*connect.Response[schedulerv1.AllocateResponse], error) {
			resp, err := svc.Allocate(ctx, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(resp), nil
		},
		handlerOpts...,
	))
	mux.Handle(schedulerv1.GetInfoProcedure, connect.NewUnaryHandler(
		schedulerv1.GetInfoProcedure,
		func(ctx context.Context, req *connect.Request[schedulerv1.InfoRequest]) (*connect.Response[schedulerv1.InfoResponse], error) {
			resp, err := svc.GetInfo(ctx, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(resp), nil
		},
		handlerOpts...,
	))

	mux.HandleFunc("/health", handleHealth)
	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	}
	if opts.Docs {
		swagger.RegisterRoutes(mux, nil, schedulerv1.OpenAPISpec())
	}
	return mux
}

// toConnectError maps gRPC status and coded application errors onto Connect
// codes. gRPC and Connect share numeric code values.
func toConnectError(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		err = apperror.ToGRPC(appErr)
	}
	if st, ok := status.FromError(err); ok {
		return connect.NewError(connect.Code(st.Code()), errors.New(st.Message()))
	}
	return connect.NewError(connect.CodeInternal, err)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck // health endpoint
}
