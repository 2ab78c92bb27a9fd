package repositories

import "context"

// MaintenanceController toggles store-side safety mechanisms for privileged maintenance runs.
type MaintenanceController interface {
	// SetOverpaymentGuard enables or disables the trigger that rejects payments exceeding a contract amount.
	SetOverpaymentGuard(ctx context.Context, enabled bool) error
}
