package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `patient_id, name, tb_type, drug_resistance,
	treatment_outcome, diagnosis_date, region`

func (r *patientRepoPG) scanRow(row pgx.Row) (Record, error) {
	var (
		rec                                   Record
		name, tbType, resistance, outcome, rg *string
		diagnosed                             *time.Time
	)
	if err := row.Scan(&rec.ID, &name, &tbType, &resistance, &outcome, &diagnosed, &rg); err != nil {
		return rec, err
	}
	rec.Name = strVal(name)
	rec.Classification = strVal(tbType)
	rec.ResistanceStatus = strVal(resistance)
	rec.OutcomeStatus = strVal(outcome)
	rec.Region = strVal(rg)
	if diagnosed != nil {
		rec.DiagnosisDate = diagnosed.Format("2006-01-02")
	}
	return rec, nil
}

// ListAll returns the roster in insertion order so first-seen ordering of
// categories matches the order of the imported document.
func (r *patientRepoPG) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM tb_patient ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query tb_patient: %w", err)
	}
	defer rows.Close()

	items := []Record{}
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tb_patient: %w", err)
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

// Upsert writes every record in a single transaction. Unparseable diagnosis
// dates are stored as NULL.
func (r *patientRepoPG) Upsert(ctx context.Context, records []Record) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		var diagnosed *time.Time
		if t, err := rec.DiagnosedOn(); err == nil {
			diagnosed = &t
		}
		batch.Queue(`
			INSERT INTO tb_patient (patient_id, name, tb_type, drug_resistance,
				treatment_outcome, diagnosis_date, region)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (patient_id) DO UPDATE SET
				name = EXCLUDED.name,
				tb_type = EXCLUDED.tb_type,
				drug_resistance = EXCLUDED.drug_resistance,
				treatment_outcome = EXCLUDED.treatment_outcome,
				diagnosis_date = EXCLUDED.diagnosis_date,
				region = EXCLUDED.region,
				updated_at = NOW()`,
			rec.ID, nullable(rec.Name), nullable(rec.Classification), nullable(rec.ResistanceStatus),
			nullable(rec.OutcomeStatus), diagnosed, nullable(rec.Region))
	}

	br := tx.SendBatch(ctx, batch)
	for i := range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("upsert patient %s: %w", records[i].ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close import batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(records), nil
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
