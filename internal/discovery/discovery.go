// Package discovery registers the API instance in etcd so a gateway or load
// balancer can find it.
package discovery

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const leaseTTL = 30

type Registry struct {
	client *clientv3.Client
	prefix string
	logger *zap.Logger
}

type Instance struct {
	Name string
	Host string
	Port string
}

func (i Instance) Addr() string { return i.Host + ":" + i.Port }

func (r *Registry) key(i Instance) string {
	return fmt.Sprintf("%s%s/%s", r.prefix, i.Name, i.Addr())
}

func New(endpoints []string, prefix string, dialTimeout time.Duration, logger *zap.Logger) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return &Registry{client: cli, prefix: prefix, logger: logger.Named("discovery")}, nil
}

// Register writes the instance under a leased key and keeps the lease alive
// until ctx ends.
func (r *Registry) Register(ctx context.Context, instance Instance) error {
	lease, err := r.client.Grant(ctx, leaseTTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	if _, err := r.client.Put(ctx, r.key(instance), instance.Addr(), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to keep alive: %w", err)
	}
	go func() {
		for range ch {
		}
		r.logger.Info("lease keep-alive stopped", zap.String("key", r.key(instance)))
	}()

	r.logger.Info("service registered", zap.String("key", r.key(instance)))
	return nil
}

func (r *Registry) Deregister(ctx context.Context, instance Instance) error {
	if _, err := r.client.Delete(ctx, r.key(instance)); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}
