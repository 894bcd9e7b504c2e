package health

import "context"

// DBPinger checks store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks a model provider's availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// HaltReporter reports whether the ingestion pipeline is suspended.
type HaltReporter interface {
	Halted() bool
}
