// Package lock serializes work on a key (a company while posting, a contract while correcting,
// or a store-wide maintenance switch).
package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be acquired before the context ended.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker hands out exclusive locks per key.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// CompanyKey is the lock key serializing postings of one company.
func CompanyKey(companyID string) string {
	return "ledger:company:" + companyID
}

// ContractKey is the lock key serializing corrections of one contract.
func ContractKey(companyID, contractID string) string {
	return "reconcile:contract:" + companyID + ":" + contractID
}

// MaintenanceKey is the lock key serializing a store-wide maintenance switch, such as
// the overpayment trigger that is disabled for every company at once.
func MaintenanceKey(name string) string {
	return "maintenance:" + name
}
