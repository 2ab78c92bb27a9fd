package pgsql

import (
	"context"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	"github.com/SscSPs/fleet_finance_engine/internal/models"
	"github.com/SscSPs/fleet_finance_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, company_id, contract_id, payment_number, payment_date, amount, status, notes,
	original_amount, created_at, created_by, last_updated_at, last_updated_by`

// FindPaymentByID retrieves a single payment.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, companyID, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE company_id = $1 AND payment_id = $2;`
	rows, err := r.Pool.Query(ctx, query, companyID, paymentID)
	if err != nil {
		return nil, translateError("find payment", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Payment])
	if err != nil {
		return nil, translateError("find payment", err)
	}
	payment := mapping.ToDomainPayment(m)
	return &payment, nil
}

// ListPaymentsByContract returns all payments of a contract, cancelled ones included.
func (r *PgxPaymentRepository) ListPaymentsByContract(ctx context.Context, contractID string) ([]domain.Payment, error) {
	grouped, err := r.ListPaymentsByContracts(ctx, []string{contractID})
	if err != nil {
		return nil, err
	}
	return grouped[contractID], nil
}

// ListPaymentsByContracts returns payments grouped by contract ID, each group ordered by date.
func (r *PgxPaymentRepository) ListPaymentsByContracts(ctx context.Context, contractIDs []string) (map[string][]domain.Payment, error) {
	grouped := make(map[string][]domain.Payment, len(contractIDs))
	if len(contractIDs) == 0 {
		return grouped, nil
	}

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE contract_id = ANY($1)
		ORDER BY contract_id, payment_date, payment_number;
	`
	rows, err := r.Pool.Query(ctx, query, contractIDs)
	if err != nil {
		return nil, translateError("list payments", err)
	}
	paymentModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Payment])
	if err != nil {
		return nil, translateError("scan payments", err)
	}
	for _, m := range paymentModels {
		grouped[m.ContractID] = append(grouped[m.ContractID], mapping.ToDomainPayment(m))
	}
	return grouped, nil
}

// UpdatePaymentCorrection stores a corrected amount, status, notes and original amount.
// With the prevent_overpayment trigger enabled an update that overpays the contract fails with ErrConflict.
func (r *PgxPaymentRepository) UpdatePaymentCorrection(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	query := `
		UPDATE payments
		SET amount = $3, status = $4, notes = $5, original_amount = $6,
		    last_updated_at = $7, last_updated_by = $8
		WHERE company_id = $1 AND payment_id = $2;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.CompanyID, m.PaymentID, m.Amount, m.Status, m.Notes, m.OriginalAmount,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return translateError("update payment correction", err)
	}
	return expectOneRow("update payment correction", tag)
}
