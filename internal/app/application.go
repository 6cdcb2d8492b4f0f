package app

import (
	"context"
	"fmt"

	"github.com/R3E-Network/neostream/internal/app/services/streams"
	"github.com/R3E-Network/neostream/internal/app/storage"
	"github.com/R3E-Network/neostream/internal/app/storage/memory"
	"github.com/R3E-Network/neostream/internal/app/system"
	"github.com/R3E-Network/neostream/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Streams storage.StreamStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Streams *streams.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	if stores.Streams == nil {
		stores.Streams = memory.New()
	}

	manager := system.NewManager()

	streamService := streams.New(stores.Streams, log)

	if err := manager.Register(system.NoopService{ServiceName: "streams"}); err != nil {
		return nil, fmt.Errorf("register streams service: %w", err)
	}

	return &Application{
		manager: manager,
		log:     log,
		Streams: streamService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services and closes any attached event publishers.
func (a *Application) Stop(ctx context.Context) error {
	err := a.manager.Stop(ctx)
	if cerr := a.Streams.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
