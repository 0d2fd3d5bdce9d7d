package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const invoiceColumns = `id, number, patient_name, uhid, date, amount, status,
	mode, scheme, items, breakdown, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv           Invoice
		itemsJSON     []byte
		breakdownJSON []byte
	)
	err := row.Scan(&inv.ID, &inv.Number, &inv.PatientName, &inv.UHID,
		&inv.Date, &inv.Amount, &inv.Status, &inv.Mode, &inv.Scheme,
		&itemsJSON, &breakdownJSON, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}
	if breakdownJSON != nil {
		if err := json.Unmarshal(breakdownJSON, &inv.Breakdown); err != nil {
			return nil, fmt.Errorf("decode invoice breakdown: %w", err)
		}
	}
	return &inv, nil
}

func (r *repoPG) Create(ctx context.Context, inv *Invoice) error {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("encode invoice items: %w", err)
	}
	var breakdownJSON []byte
	if inv.Breakdown != nil {
		breakdownJSON, err = json.Marshal(inv.Breakdown)
		if err != nil {
			return fmt.Errorf("encode invoice breakdown: %w", err)
		}
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO invoice (id, number, patient_name, uhid, date, amount,
			status, mode, scheme, items, breakdown, position, created_at,
			updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			nextval('position_seq'), $12, $13)`,
		inv.ID, inv.Number, inv.PatientName, inv.UHID, inv.Date, inv.Amount,
		inv.Status, inv.Mode, inv.Scheme, itemsJSON, breakdownJSON,
		inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoice WHERE id = $1`, id)
	return scanInvoice(row)
}

func (r *repoPG) Update(ctx context.Context, inv *Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoice SET amount = $2, status = $3, mode = $4, updated_at = $5
		WHERE id = $1`,
		inv.ID, inv.Amount, inv.Status, inv.Mode, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*Invoice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoice ORDER BY position DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *repoPG) NextInvoiceSeq(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.pool.QueryRow(ctx, `SELECT nextval('invoice_seq')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("invoice sequence: %w", err)
	}
	return n, nil
}
