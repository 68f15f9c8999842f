package schedulerv1

import (
	"context"
	"net"
	"testing"

	"rostering/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type echoServer struct {
	UnimplementedSchedulerServiceServer
	got *AllocateRequest
}

func (s *echoServer) Allocate(_ context.Context, req *AllocateRequest) (*AllocateResponse, error) {
	s.got = req
	return &AllocateResponse{
		AllocationID: "a-1",
		Feasible:     true,
		Status:       "FEASIBLE",
		Assignment:   req.Preferences,
		RequiredFlow: int64(len(req.Preferences)) * int64(req.SysadminsPerNight),
	}, nil
}

func dial(t *testing.T, srv SchedulerServiceServer) SchedulerServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterSchedulerServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewSchedulerServiceClient(conn)
}

func TestSchedulerService_JSONRoundTrip(t *testing.T) {
	srv := &echoServer{}
	client := dial(t, srv)

	req := &AllocateRequest{
		Preferences:       [][]int32{{1, 0}, {0, 1}},
		SysadminsPerNight: 1,
		MaxUnwantedShifts: 2,
		MinShifts:         1,
		SkipCache:         true,
	}
	resp, err := client.Allocate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, srv.got)
	assert.Equal(t, "a-1", resp.AllocationID)
	assert.Equal(t, [][]int{{1, 0}, {0, 1}}, resp.AssignmentMatrix())
	assert.Equal(t, int64(2), resp.RequiredFlow)
}

func TestSchedulerService_Unimplemented(t *testing.T) {
	client := dial(t, &echoServer{})

	_, err := client.GetInfo(context.Background(), &InfoRequest{})
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestAllocateRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  *AllocateRequest
		code apperror.ErrorCode
	}{
		{"valid", &AllocateRequest{Preferences: [][]int32{{1}}, SysadminsPerNight: 1}, ""},
		{"nil", nil, apperror.CodeInvalidArgument},
		{"empty", &AllocateRequest{SysadminsPerNight: 1}, apperror.CodeEmptyPreferences},
		{"staffing", &AllocateRequest{Preferences: [][]int32{{1}}}, apperror.CodeInvalidStaffing},
		{"unwanted", &AllocateRequest{Preferences: [][]int32{{1}}, SysadminsPerNight: 1, MaxUnwantedShifts: -1}, apperror.CodeNegativeBound},
		{"minimum", &AllocateRequest{Preferences: [][]int32{{1}}, SysadminsPerNight: 1, MinShifts: -3}, apperror.CodeNegativeBound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&InfoResponse{Name: "scheduler", Horizon: 30})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"scheduler","version":"","horizon":30,"algorithm":""}`, string(data))

	var out InfoResponse
	require.NoError(t, c.Unmarshal(nil, &out), "empty payload decodes to the zero message")
	assert.Error(t, c.Unmarshal([]byte("{"), &out))

	_, err = c.Marshal(make(chan int))
	assert.Error(t, err)
}

func TestAllocateRequest_Matrix(t *testing.T) {
	req := &AllocateRequest{Preferences: [][]int32{{1, 0, 1}}}
	assert.Equal(t, [][]int{{1, 0, 1}}, req.Matrix())

	var resp *AllocateResponse
	assert.Nil(t, resp.AssignmentMatrix())
}
