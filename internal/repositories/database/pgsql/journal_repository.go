package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/fleet_finance_engine/internal/core/ports/repositories"
	"github.com/SscSPs/fleet_finance_engine/internal/models"
	"github.com/SscSPs/fleet_finance_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxJournalRepository implements the journal ports using pgx.
// Every method is its own unit of work; the poster compensates across calls.
type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal data.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const journalEntryColumns = `journal_entry_id, company_id, entry_number, entry_date, description,
	reference_type, reference_id, status, total_debit, total_credit, posted_at,
	created_at, created_by, last_updated_at, last_updated_by`

// FindEntryByID retrieves a journal entry header.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, companyID, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalEntryColumns + ` FROM journal_entries WHERE company_id = $1 AND journal_entry_id = $2;`
	rows, err := r.Pool.Query(ctx, query, companyID, entryID)
	if err != nil {
		return nil, translateError("find journal entry", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.JournalEntry])
	if err != nil {
		return nil, translateError("find journal entry", err)
	}
	entry := mapping.ToDomainJournalEntry(m)
	return &entry, nil
}

// FindEntriesByReference returns every entry recorded for a source document, oldest first.
func (r *PgxJournalRepository) FindEntriesByReference(ctx context.Context, companyID, referenceType, referenceID string) ([]domain.JournalEntry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE company_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY created_at, entry_number;
	`
	rows, err := r.Pool.Query(ctx, query, companyID, referenceType, referenceID)
	if err != nil {
		return nil, translateError("find entries by reference", err)
	}
	entryModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalEntry])
	if err != nil {
		return nil, translateError("scan journal entries", err)
	}
	entries := make([]domain.JournalEntry, 0, len(entryModels))
	for _, m := range entryModels {
		entries = append(entries, mapping.ToDomainJournalEntry(m))
	}
	return entries, nil
}

// FindLinesByEntryID returns the lines of an entry with their account codes.
func (r *PgxJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalEntryLine, error) {
	query := `
		SELECT l.line_id, l.journal_entry_id, l.line_number, l.account_id, a.code,
		       l.line_description, l.debit_amount, l.credit_amount
		FROM journal_entry_lines l
		JOIN accounts a ON a.account_id = l.account_id
		WHERE l.journal_entry_id = $1
		ORDER BY l.line_number;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, translateError("find journal lines", err)
	}
	lineModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalEntryLine])
	if err != nil {
		return nil, translateError("scan journal lines", err)
	}
	lines := make([]domain.JournalEntryLine, 0, len(lineModels))
	for _, m := range lineModels {
		lines = append(lines, mapping.ToDomainJournalEntryLine(m))
	}
	return lines, nil
}

// NextEntrySequence atomically increments and returns the company's entry counter.
func (r *PgxJournalRepository) NextEntrySequence(ctx context.Context, companyID string) (int64, error) {
	query := `
		INSERT INTO journal_entry_sequences (company_id, last_value)
		VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE
		SET last_value = journal_entry_sequences.last_value + 1
		RETURNING last_value;
	`
	var next int64
	if err := r.Pool.QueryRow(ctx, query, companyID).Scan(&next); err != nil {
		return 0, translateError("next entry sequence", err)
	}
	return next, nil
}

// InsertEntryHeader stores a draft entry header.
func (r *PgxJournalRepository) InsertEntryHeader(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	query := `
		INSERT INTO journal_entries (` + journalEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.EntryID, m.CompanyID, m.EntryNumber, m.EntryDate, m.Description,
		m.ReferenceType, m.ReferenceID, m.Status, m.TotalDebit, m.TotalCredit, m.PostedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return translateError("insert journal entry", err)
}

// InsertEntryLines stores all lines of an entry atomically using a batch inside one transaction.
func (r *PgxJournalRepository) InsertEntryLines(ctx context.Context, lines []domain.JournalEntryLine) (err error) {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = r.Rollback(context.WithoutCancel(ctx), tx)
		}
	}()

	query := `
		INSERT INTO journal_entry_lines
			(line_id, journal_entry_id, line_number, account_id, line_description, debit_amount, credit_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		m := mapping.ToModelJournalEntryLine(line)
		batch.Queue(query, m.LineID, m.EntryID, m.LineNumber, m.AccountID, m.LineDescription, m.DebitAmount, m.CreditAmount)
	}

	br := tx.SendBatch(ctx, batch)
	for range lines {
		if _, execErr := br.Exec(); execErr != nil {
			_ = br.Close()
			return translateError("insert journal lines", execErr)
		}
	}
	if err = br.Close(); err != nil {
		return translateError("insert journal lines", err)
	}
	return r.Commit(ctx, tx)
}

// MarkEntryPosted flips a draft entry to posted.
func (r *PgxJournalRepository) MarkEntryPosted(ctx context.Context, entryID string, postedAt time.Time, updatedBy string) error {
	query := `
		UPDATE journal_entries
		SET status = $2, posted_at = $3, last_updated_at = $3, last_updated_by = $4
		WHERE journal_entry_id = $1 AND status = $5;
	`
	tag, err := r.Pool.Exec(ctx, query, entryID, domain.EntryPosted, postedAt, updatedBy, domain.EntryDraft)
	if err != nil {
		return translateError("mark entry posted", err)
	}
	return expectOneRow("mark entry posted", tag)
}

// TransitionEntryStatus moves an entry between statuses. Zero matched rows means the entry
// was not in the from status.
func (r *PgxJournalRepository) TransitionEntryStatus(ctx context.Context, entryID string, from, to domain.EntryStatus, updatedAt time.Time, updatedBy string) error {
	query := `
		UPDATE journal_entries
		SET status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE journal_entry_id = $1 AND status = $2;
	`
	tag, err := r.Pool.Exec(ctx, query, entryID, from, to, updatedAt, updatedBy)
	if err != nil {
		return translateError("transition entry status", err)
	}
	return expectOneRow("transition entry status", tag)
}

// DeleteEntryLines removes all lines of an entry. Deleting zero lines is not an error.
func (r *PgxJournalRepository) DeleteEntryLines(ctx context.Context, entryID string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM journal_entry_lines WHERE journal_entry_id = $1;`, entryID)
	return translateError("delete journal lines", err)
}

// DeleteEntry removes an entry header; lines cascade.
func (r *PgxJournalRepository) DeleteEntry(ctx context.Context, entryID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM journal_entries WHERE journal_entry_id = $1;`, entryID)
	if err != nil {
		return translateError("delete journal entry", err)
	}
	return expectOneRow("delete journal entry", tag)
}
