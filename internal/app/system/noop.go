package system

import "context"

// NoopService satisfies Service for components that need a lifecycle slot but
// have nothing to do on start or stop.
type NoopService struct {
	ServiceName string
}

func (n NoopService) Name() string { return n.ServiceName }

func (n NoopService) Start(ctx context.Context) error { return nil }

func (n NoopService) Stop(ctx context.Context) error { return nil }
