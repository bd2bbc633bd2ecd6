package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinicbooks/clinicbooks/internal/arrangement"
	"github.com/clinicbooks/clinicbooks/internal/platform/db"
)

// Repository reads the transaction log and clinic arrangements. It never writes.
type Repository interface {
	ListPeriod(ctx context.Context, clinicID string, from, to time.Time) ([]IncomeRecord, []ExpenseRecord, error)
	Arrangement(ctx context.Context, clinicID string) (arrangement.FinancialArrangement, error)
	ActiveClinics(ctx context.Context) ([]string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// ListPeriod returns income and expense records with an entry date inside
// [from, to], both read from one snapshot.
func (r *repository) ListPeriod(ctx context.Context, clinicID string, from, to time.Time) ([]IncomeRecord, []ExpenseRecord, error) {
	var (
		income   []IncomeRecord
		expenses []ExpenseRecord
	)
	err := db.WithSnapshot(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		if income, err = listIncome(ctx, tx, clinicID, from, to); err != nil {
			return err
		}
		expenses, err = listExpenses(ctx, tx, clinicID, from, to)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return income, expenses, nil
}

func listIncome(ctx context.Context, tx pgx.Tx, clinicID string, from, to time.Time) ([]IncomeRecord, error) {
	rows, err := tx.Query(ctx, `SELECT id, clinic_id, entry_date, inputs, calculations, method, gst_percent,
commission_percent, dentist_payable, bas_refund, gst_free, created_at
FROM income_transactions WHERE clinic_id=$1 AND entry_date BETWEEN $2 AND $3 ORDER BY entry_date, id`, clinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger: list income: %w", err)
	}
	defer rows.Close()

	var out []IncomeRecord
	for rows.Next() {
		var (
			rec          IncomeRecord
			entry        time.Time
			inputs       []byte
			calculations []byte
			payable      decimal.NullDecimal
			refund       decimal.NullDecimal
		)
		if err := rows.Scan(&rec.ID, &rec.ClinicID, &entry, &inputs, &calculations, &rec.Method, &rec.GSTPercent,
			&rec.CommissionPercent, &payable, &refund, &rec.GSTFree, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan income: %w", err)
		}
		rec.EntryDate = entry.Format(DateLayout)
		rec.DentistPayable = payable.Decimal
		rec.BASRefund = refund.Decimal
		if err := decodeJSON(inputs, &rec.Inputs); err != nil {
			return nil, fmt.Errorf("ledger: income %s inputs: %w", rec.ID, err)
		}
		if err := decodeJSON(calculations, &rec.Calculations); err != nil {
			return nil, fmt.Errorf("ledger: income %s calculations: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func listExpenses(ctx context.Context, tx pgx.Tx, clinicID string, from, to time.Time) ([]ExpenseRecord, error) {
	rows, err := tx.Query(ctx, `SELECT id, clinic_id, entity_id, entry_date, inputs, calculations, gst_percent, created_at
FROM expense_transactions WHERE clinic_id=$1 AND entry_date BETWEEN $2 AND $3 ORDER BY entry_date, id`, clinicID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger: list expenses: %w", err)
	}
	defer rows.Close()

	var out []ExpenseRecord
	for rows.Next() {
		var (
			rec          ExpenseRecord
			entry        time.Time
			inputs       []byte
			calculations []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ClinicID, &rec.EntityID, &entry, &inputs, &calculations, &rec.GSTPercent, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan expense: %w", err)
		}
		rec.EntryDate = entry.Format(DateLayout)
		if err := decodeJSON(inputs, &rec.Inputs); err != nil {
			return nil, fmt.Errorf("ledger: expense %s inputs: %w", rec.ID, err)
		}
		if err := decodeJSON(calculations, &rec.Calculations); err != nil {
			return nil, fmt.Errorf("ledger: expense %s calculations: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Arrangement loads the clinic's financial arrangement.
func (r *repository) Arrangement(ctx context.Context, clinicID string) (arrangement.FinancialArrangement, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT arrangement FROM clinic_settings WHERE clinic_id=$1`, clinicID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return arrangement.FinancialArrangement{}, ErrNotFound
		}
		return arrangement.FinancialArrangement{}, fmt.Errorf("ledger: load arrangement: %w", err)
	}
	if len(payload) == 0 || string(payload) == "null" {
		return arrangement.FinancialArrangement{}, ErrNotFound
	}
	var a arrangement.FinancialArrangement
	if err := json.Unmarshal(payload, &a); err != nil {
		return arrangement.FinancialArrangement{}, fmt.Errorf("ledger: decode arrangement: %w", err)
	}
	return a, nil
}

// ActiveClinics lists clinics that have settings on file.
func (r *repository) ActiveClinics(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT clinic_id FROM clinic_settings WHERE active ORDER BY clinic_id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list clinics: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// decodeJSON leaves dest untouched for NULL columns so absent calculations stay nil.
func decodeJSON(raw []byte, dest any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
