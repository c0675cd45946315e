package services

import (
	portsrepo "github.com/paygrid/tx_engine_app/internal/core/ports/repositories"
	portssvc "github.com/paygrid/tx_engine_app/internal/core/ports/services"
)

// Container holds all the services and manages their dependencies
type Container struct {
	Ledger    portssvc.LedgerSvcFacade
	Tracker   portssvc.DisputeTrackerSvc
	Processor portssvc.TxProcessorSvc

	// Repos carries the optional persistence layer; fields are nil when no
	// database is configured.
	Repos *portsrepo.RepositoryProvider
}

// NewContainer creates a new service container with properly initialized
// dependencies. laneCount > 1 shards the processor across per-client lanes;
// anything else yields the strictly sequential processor.
func NewContainer(laneCount int, repos *portsrepo.RepositoryProvider) *Container {
	container := &Container{Repos: repos}

	if laneCount > 1 {
		container.Processor = NewShardedProcessor(laneCount)
		// The sharded processor owns one ledger and tracker per lane;
		// the container-level handles stay nil in that mode.
		return container
	}

	container.Ledger = NewLedgerService()
	container.Tracker = NewDisputeTracker(container.Ledger)
	container.Processor = NewStreamProcessor(container.Ledger, container.Tracker)
	return container
}
