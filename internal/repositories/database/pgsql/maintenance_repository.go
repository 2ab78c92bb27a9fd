package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxMaintenanceRepository toggles database triggers for privileged correction runs.
// The connecting role must own the payments table.
type PgxMaintenanceRepository struct {
	BaseRepository
}

func newPgxMaintenanceRepository(pool *pgxpool.Pool) portsrepo.MaintenanceController {
	return &PgxMaintenanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.MaintenanceController = (*PgxMaintenanceRepository)(nil)

// SetOverpaymentGuard enables or disables the prevent_overpayment trigger.
func (r *PgxMaintenanceRepository) SetOverpaymentGuard(ctx context.Context, enabled bool) error {
	query := `ALTER TABLE payments DISABLE TRIGGER prevent_overpayment;`
	if enabled {
		query = `ALTER TABLE payments ENABLE TRIGGER prevent_overpayment;`
	}
	_, err := r.Pool.Exec(ctx, query)
	return translateError("set overpayment guard", err)
}
