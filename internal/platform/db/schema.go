package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements for the three core collections. Applied idempotently at
// startup when STORAGE_DRIVER is postgres.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ward (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		hospital TEXT NOT NULL,
		department TEXT NOT NULL,
		type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bed (
		id UUID PRIMARY KEY,
		ward_id UUID NOT NULL REFERENCES ward(id),
		number TEXT NOT NULL,
		status TEXT NOT NULL,
		patient_id UUID,
		UNIQUE (ward_id, number)
	)`,
	`CREATE TABLE IF NOT EXISTS patient (
		id UUID PRIMARY KEY,
		uhid TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		age INTEGER NOT NULL,
		gender TEXT NOT NULL,
		mobile TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		ward_name TEXT,
		bed_number TEXT,
		bed_id UUID,
		department TEXT,
		admission_date TIMESTAMPTZ,
		admission_type TEXT,
		legal_status TEXT,
		position INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS invoice (
		id UUID PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		patient_name TEXT NOT NULL,
		uhid TEXT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		mode TEXT NOT NULL,
		scheme TEXT NOT NULL,
		items JSONB NOT NULL,
		breakdown JSONB,
		position INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE SEQUENCE IF NOT EXISTS uhid_seq`,
	`CREATE SEQUENCE IF NOT EXISTS invoice_seq`,
	`CREATE SEQUENCE IF NOT EXISTS position_seq`,
}

// EnsureSchema creates the core tables when they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
