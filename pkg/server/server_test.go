package server

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"rostering/pkg/config"
	"rostering/pkg/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Name: "scheduler-test", Environment: "test"},
		GRPC: config.GRPCConfig{Port: 0},
		HTTP: config.HTTPConfig{ShutdownTimeout: 5 * time.Second},
	}
}

func TestNewServer(t *testing.T) {
	srv := NewWithOptions(testConfig(), &Options{
		Metrics: metrics.InitMetricsWith(prometheus.NewRegistry(), "srv", ""),
	})
	require.NotNil(t, srv)
	assert.NotNil(t, srv.GetEngine())

	services := srv.GetEngine().GetServiceInfo()
	assert.Contains(t, services, "grpc.health.v1.Health")
	assert.NotContains(t, services, "grpc.reflection.v1.ServerReflection", "reflection is development-only")
}

func TestNewServer_Development(t *testing.T) {
	cfg := testConfig()
	cfg.App.Environment = "development"

	srv := NewWithOptions(cfg, &Options{
		Metrics: metrics.InitMetricsWith(prometheus.NewRegistry(), "dev", ""),
	})
	assert.Contains(t, srv.GetEngine().GetServiceInfo(), "grpc.reflection.v1.ServerReflection")
}

func TestServe_HealthAndShutdown(t *testing.T) {
	srv := NewWithOptions(testConfig(), &Options{
		Metrics: metrics.InitMetricsWith(prometheus.NewRegistry(), "serve", ""),
	})

	var hookCalls atomic.Int32
	srv.OnShutdown(func(context.Context) error {
		hookCalls.Add(1)
		return nil
	})

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	hc := grpc_health_v1.NewHealthClient(conn)
	require.Eventually(t, func() bool {
		resp, err := hc.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "scheduler-test"})
		return err == nil && resp.Status == grpc_health_v1.HealthCheckResponse_SERVING
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, int32(1), hookCalls.Load())
}
