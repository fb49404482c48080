package intake

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `SELECT id, reported_disease, medications, medication_confirmed, history, language, completed_at
		FROM intake_sessions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	var s Session
	var disease sql.NullString
	var confirmed sql.NullBool
	var medsJSON, historyJSON []byte

	err := row.Scan(&s.ID, &disease, &medsJSON, &confirmed, &historyJSON, &s.Language, &s.CompletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("intake session not found")
		}
		return nil, err
	}

	if disease.Valid {
		s.Record.ReportedDisease = &disease.String
	}
	if confirmed.Valid {
		s.Record.MedicationConfirmation = &confirmed.Bool
	}
	if len(medsJSON) > 0 {
		if err := json.Unmarshal(medsJSON, &s.Record.Medications); err != nil {
			return nil, fmt.Errorf("failed to unmarshal medications: %w", err)
		}
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &s.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history: %w", err)
		}
	}

	return &s, nil
}

func (r *postgresRepo) SaveSession(ctx context.Context, s *Session) error {
	medsJSON, err := json.Marshal(s.Record.Medications)
	if err != nil {
		return err
	}
	historyJSON, err := json.Marshal(s.History)
	if err != nil {
		return err
	}

	var disease sql.NullString
	if s.Record.ReportedDisease != nil {
		disease = sql.NullString{String: *s.Record.ReportedDisease, Valid: true}
	}
	var confirmed sql.NullBool
	if s.Record.MedicationConfirmation != nil {
		confirmed = sql.NullBool{Bool: *s.Record.MedicationConfirmation, Valid: true}
	}

	query := `
		INSERT INTO intake_sessions (id, reported_disease, medications, medication_confirmed, history, language, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			reported_disease = $2,
			medications = $3,
			medication_confirmed = $4,
			history = $5,
			language = $6,
			completed_at = $7
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, disease, medsJSON, confirmed, historyJSON, s.Language, s.CompletedAt)
	return err
}
