package ward

import (
	"context"

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

func (r *repoPG) Create(ctx context.Context, w *Ward) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO ward (id, name, hospital, department, type)
		VALUES ($1,$2,$3,$4,$5)`,
		w.ID, w.Name, w.Hospital, w.Department, w.Type,
	)
	if err != nil {
		return err
	}
	for i := range w.Beds {
		b := &w.Beds[i]
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO bed (id, ward_id, number, status, patient_id)
			VALUES ($1,$2,$3,$4,$5)`,
			b.ID, w.ID, b.Number, b.Status, b.PatientID,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Ward, error) {
	var w Ward
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, hospital, department, type, created_at
		FROM ward WHERE id = $1`, id).
		Scan(&w.ID, &w.Name, &w.Hospital, &w.Department, &w.Type, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := r.loadBeds(ctx, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repoPG) List(ctx context.Context) ([]*Ward, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, hospital, department, type, created_at
		FROM ward ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wards []*Ward
	for rows.Next() {
		var w Ward
		if err := rows.Scan(&w.ID, &w.Name, &w.Hospital, &w.Department, &w.Type, &w.CreatedAt); err != nil {
			return nil, err
		}
		wards = append(wards, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, w := range wards {
		if err := r.loadBeds(ctx, w); err != nil {
			return nil, err
		}
	}
	return wards, nil
}

// Replace rewrites the occupancy fields of every bed in the ward. Bed
// composition is fixed, so only status and patient linkage change.
func (r *repoPG) Replace(ctx context.Context, w *Ward) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE ward SET name=$2, hospital=$3, department=$4, type=$5
		WHERE id = $1`,
		w.ID, w.Name, w.Hospital, w.Department, w.Type,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	for i := range w.Beds {
		b := &w.Beds[i]
		_, err = tx.Exec(ctx, `
			UPDATE bed SET status=$2, patient_id=$3 WHERE id = $1`,
			b.ID, b.Status, b.PatientID,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *repoPG) loadBeds(ctx context.Context, w *Ward) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, number, status, patient_id
		FROM bed WHERE ward_id = $1 ORDER BY number`, w.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b Bed
		if err := rows.Scan(&b.ID, &b.Number, &b.Status, &b.PatientID); err != nil {
			return err
		}
		w.Beds = append(w.Beds, b)
	}
	return rows.Err()
}
