package health

import "context"

// StoragePinger checks persistence backend availability.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// SyncChecker reports whether catalog sync has a usable result.
type SyncChecker interface {
	HealthCheck(ctx context.Context) error
}
