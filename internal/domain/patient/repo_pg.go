package patient

import (
	"context"
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

const patientColumns = `id, uhid, name, age, gender, mobile, address, type, status,
	ward_name, bed_number, bed_id, department, admission_date, admission_type,
	legal_status, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UHID, &p.Name, &p.Age, &p.Gender, &p.Mobile,
		&p.Address, &p.Type, &p.Status, &p.Ward, &p.BedNumber, &p.BedID,
		&p.Department, &p.AdmissionDate, &p.AdmissionType, &p.LegalStatus,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (id, uhid, name, age, gender, mobile, address,
			type, status, ward_name, bed_number, bed_id, department,
			admission_date, admission_type, legal_status, position,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, nextval('position_seq'), $17, $18)`,
		p.ID, p.UHID, p.Name, p.Age, p.Gender, p.Mobile, p.Address,
		p.Type, p.Status, p.Ward, p.BedNumber, p.BedID, p.Department,
		p.AdmissionDate, p.AdmissionType, p.LegalStatus,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *repoPG) GetByUHID(ctx context.Context, uhid string) (*Patient, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE uhid = $1`, uhid)
	return scanPatient(row)
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patient SET name = $2, age = $3, gender = $4, mobile = $5,
			address = $6, type = $7, status = $8, ward_name = $9,
			bed_number = $10, bed_id = $11, department = $12,
			admission_date = $13, admission_type = $14, legal_status = $15,
			updated_at = $16
		WHERE id = $1`,
		p.ID, p.Name, p.Age, p.Gender, p.Mobile, p.Address, p.Type,
		p.Status, p.Ward, p.BedNumber, p.BedID, p.Department,
		p.AdmissionDate, p.AdmissionType, p.LegalStatus, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+patientColumns+` FROM patient ORDER BY position DESC`)
	if err != nil {
		return nil, fmt.Errorf("list patient: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) NextUHIDSeq(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.pool.QueryRow(ctx, `SELECT nextval('uhid_seq')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("uhid sequence: %w", err)
	}
	return n, nil
}
