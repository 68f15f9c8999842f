package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"rostering/pkg/api/schedulerv1"
	"rostering/pkg/apperror"
)

// SchedulerClient клиент для scheduler-svc
type SchedulerClient struct {
	conn   *grpc.ClientConn
	client schedulerv1.SchedulerServiceClient
	cfg    ClientConfig
}

// NewSchedulerClient dials cfg.Address lazily; the first RPC connects.
func NewSchedulerClient(cfg ClientConfig, extra ...grpc.DialOption) (*SchedulerClient, error) {
	conn, err := NewGRPCClient(cfg, extra...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to scheduler service: %w", err)
	}
	return &SchedulerClient{
		conn:   conn,
		client: schedulerv1.NewSchedulerServiceClient(conn),
		cfg:    cfg,
	}, nil
}

// Close закрывает соединение
func (c *SchedulerClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Allocate calls the remote allocator. gRPC failures come back as
// *apperror.Error so callers handle local and remote errors alike.
func (c *SchedulerClient) Allocate(ctx context.Context, req *schedulerv1.AllocateRequest) (*schedulerv1.AllocateResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Allocate(ctx, req)
	if err != nil {
		return nil, apperror.FromGRPC(err)
	}
	return resp, nil
}

func (c *SchedulerClient) GetInfo(ctx context.Context) (*schedulerv1.InfoResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.GetInfo(ctx, &schedulerv1.InfoRequest{})
	if err != nil {
		return nil, apperror.FromGRPC(err)
	}
	return resp, nil
}

func (c *SchedulerClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}
