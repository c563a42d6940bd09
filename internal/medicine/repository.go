package medicine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// Repository provides database operations on the medicines document
// embedded in a user row. Every mutation is a single UPDATE statement that
// rewrites the JSONB array under a row lock, so concurrent writers for the
// same user serialize at the storage layer and the application never does a
// read-then-write.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new medicine repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List retrieves all medicines for a user
func (r *Repository) List(ctx context.Context, userID types.ID) ([]Medicine, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT medicines FROM users WHERE id = $1`, userID,
	).Scan(&raw)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", userID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load medicines")
	}

	var medicines []Medicine
	if err := json.Unmarshal(raw, &medicines); err != nil {
		return nil, errors.Wrap(err, "failed to decode medicines document")
	}
	return medicines, nil
}

// Get retrieves a single medicine by ID
func (r *Repository) Get(ctx context.Context, userID, medicineID types.ID) (*Medicine, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT m
		FROM users, jsonb_array_elements(medicines) AS m
		WHERE users.id = $1 AND m->>'id' = $2`,
		userID, medicineID.String(),
	).Scan(&raw)

	if err == pgx.ErrNoRows {
		return nil, r.notFound(ctx, userID, medicineID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load medicine")
	}

	medicine := &Medicine{}
	if err := json.Unmarshal(raw, medicine); err != nil {
		return nil, errors.Wrap(err, "failed to decode medicine")
	}
	return medicine, nil
}

// Add appends a new medicine to the user's list
func (r *Repository) Add(ctx context.Context, userID types.ID, m *Medicine) error {
	doc, err := json.Marshal([]*Medicine{m})
	if err != nil {
		return errors.Wrap(err, "failed to encode medicine")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET medicines = medicines || $2::jsonb, updated_at = NOW()
		WHERE id = $1`,
		userID, doc,
	)
	if err != nil {
		return errors.Wrap(err, "failed to add medicine")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("user", userID.String())
	}
	return nil
}

// Update writes the mutable fields of the given validated medicine over
// the stored element. The merge document is built here from typed fields,
// so request payloads never reach storage and id, created_at, history and
// the last-status flags are unreachable through this path. Recurrence
// payload keys are always written, clearing stale payloads after a
// frequency change.
func (r *Repository) Update(ctx context.Context, userID, medicineID types.ID, m *Medicine) (*Medicine, error) {
	doc, err := json.Marshal(map[string]any{
		"name":          m.Name,
		"dosage":        m.Dosage,
		"time":          m.Time,
		"notes":         m.Notes,
		"frequency":     m.Frequency,
		"days":          m.Days,
		"days_of_month": m.DaysOfMonth,
		"dates":         m.Dates,
		"updated_at":    time.Now(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode medicine update")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET medicines = (
			SELECT COALESCE(jsonb_agg(
				CASE WHEN m->>'id' = $2 THEN m || $3::jsonb ELSE m END
			), '[]'::jsonb)
			FROM jsonb_array_elements(medicines) AS m
		), updated_at = NOW()
		WHERE id = $1
		  AND medicines @> jsonb_build_array(jsonb_build_object('id', $2::text))`,
		userID, medicineID.String(), doc,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update medicine")
	}
	if tag.RowsAffected() == 0 {
		return nil, r.notFound(ctx, userID, medicineID)
	}

	return r.Get(ctx, userID, medicineID)
}

// Remove deletes a medicine from the user's list
func (r *Repository) Remove(ctx context.Context, userID, medicineID types.ID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET medicines = (
			SELECT COALESCE(jsonb_agg(m), '[]'::jsonb)
			FROM jsonb_array_elements(medicines) AS m
			WHERE m->>'id' <> $2
		), updated_at = NOW()
		WHERE id = $1
		  AND medicines @> jsonb_build_array(jsonb_build_object('id', $2::text))`,
		userID, medicineID.String(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to delete medicine")
	}
	if tag.RowsAffected() == 0 {
		return r.notFound(ctx, userID, medicineID)
	}
	return nil
}

// AppendHistory records one adherence entry and updates last_status (and
// last_taken, when completed) in the same statement. The WHERE clause
// carries the idempotence guard: once a completed entry exists for the
// entry's date, a second completed mark matches nothing and is reported as
// a Conflict. Check and append are one conditional update, so two racing
// marks for the same day cannot both land.
func (r *Repository) AppendHistory(ctx context.Context, userID, medicineID types.ID, entry HistoryEntry) error {
	entryDoc, err := json.Marshal([]HistoryEntry{entry})
	if err != nil {
		return errors.Wrap(err, "failed to encode history entry")
	}

	now := time.Now()
	flags := map[string]any{
		"last_status": entry.Completed,
		"updated_at":  now,
	}
	if entry.Completed {
		flags["last_taken"] = now
	} else {
		flags["last_taken"] = nil
	}
	flagsDoc, err := json.Marshal(flags)
	if err != nil {
		return errors.Wrap(err, "failed to encode status flags")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET medicines = (
			SELECT jsonb_agg(
				CASE WHEN m->>'id' = $2
					THEN jsonb_set(m, '{history}',
						COALESCE(m->'history', '[]'::jsonb) || $3::jsonb) || $4::jsonb
					ELSE m
				END)
			FROM jsonb_array_elements(medicines) AS m
		), updated_at = NOW()
		WHERE id = $1
		  AND medicines @> jsonb_build_array(jsonb_build_object('id', $2::text))
		  AND NOT ($5::boolean AND EXISTS (
			SELECT 1
			FROM jsonb_array_elements(medicines) AS m,
			     jsonb_array_elements(COALESCE(m->'history', '[]'::jsonb)) AS h
			WHERE m->>'id' = $2
			  AND h->>'date' = $6
			  AND (h->>'completed')::boolean
		  ))`,
		userID, medicineID.String(), entryDoc, flagsDoc, entry.Completed, entry.Date.String(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to record medicine status")
	}
	if tag.RowsAffected() == 0 {
		// Nothing matched: absent user, absent medicine, or the
		// idempotence guard fired. Disambiguate with one read.
		if err := r.medicineExists(ctx, userID, medicineID); err != nil {
			return err
		}
		return errors.Conflict("medicine already marked completed today")
	}
	return nil
}

// medicineExists returns nil when the (user, medicine) pair exists, the
// matching NotFound error otherwise.
func (r *Repository) medicineExists(ctx context.Context, userID, medicineID types.ID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM jsonb_array_elements(medicines) AS m
			WHERE m->>'id' = $2
		)
		FROM users WHERE id = $1`,
		userID, medicineID.String(),
	).Scan(&exists)

	if err == pgx.ErrNoRows {
		return errors.NotFound("user", userID.String())
	}
	if err != nil {
		return errors.Wrap(err, "failed to check medicine")
	}
	if !exists {
		return errors.NotFound("medicine", medicineID.String())
	}
	return nil
}

func (r *Repository) notFound(ctx context.Context, userID, medicineID types.ID) error {
	if err := r.medicineExists(ctx, userID, medicineID); err != nil {
		return err
	}
	return errors.NotFound("medicine", medicineID.String())
}
