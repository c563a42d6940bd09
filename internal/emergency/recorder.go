package emergency

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
	"github.com/Asim-Shah-2004/medicine-app/internal/shared/types"
)

// Recorder persists emergency requests. The insert must succeed before
// notification fan-out starts; it is the only step whose failure fails the
// help endpoint.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder creates a new emergency request recorder
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record inserts the request and stamps its ID, status and timestamp.
func (r *Recorder) Record(ctx context.Context, req *Request) error {
	req.ID = types.NewID()
	req.Status = StatusPending
	req.CreatedAt = time.Now()

	health, err := json.Marshal(req.HealthInfo)
	if err != nil {
		return errors.Wrap(err, "failed to encode health snapshot")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO emergency_requests (
			id, user_id, user_name, transcription,
			latitude, longitude, health_info, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.UserID, req.UserName, req.Transcription,
		req.Latitude, req.Longitude, health, req.Status, req.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to record emergency request")
	}

	return nil
}

// ListByUser returns a user's past emergency requests, newest first.
func (r *Recorder) ListByUser(ctx context.Context, userID types.ID) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, user_name, transcription,
			latitude, longitude, health_info, status, created_at
		FROM emergency_requests
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list emergency requests")
	}
	defer rows.Close()

	requests := []Request{}
	for rows.Next() {
		var (
			req    Request
			health []byte
		)
		err := rows.Scan(
			&req.ID, &req.UserID, &req.UserName, &req.Transcription,
			&req.Latitude, &req.Longitude, &health, &req.Status, &req.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan emergency request")
		}
		if err := json.Unmarshal(health, &req.HealthInfo); err != nil {
			return nil, errors.Wrap(err, "failed to decode health snapshot")
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list emergency requests")
	}

	return requests, nil
}
