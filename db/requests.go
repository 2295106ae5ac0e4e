package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type RequestStatus string

const (
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusSuccess    RequestStatus = "success"
	RequestStatusFailed     RequestStatus = "failed"
)

// Request is the audit record of one viseme generation. Timelines are not stored.
type Request struct {
	ID            string        `json:"request_id"`
	Language      string        `json:"language"`
	AudioFilename string        `json:"audio_filename"`
	AlignmentKey  string        `json:"alignment_key"`
	Transcript    string        `json:"transcript"`
	Status        RequestStatus `json:"status"`
	Error         string        `json:"error,omitempty"`
	Cached        bool          `json:"cached"`
	ProcessingMs  int64         `json:"processing_ms"`
	CreatedAt     time.Time     `json:"created_at"`
	FinishedAt    *time.Time    `json:"finished_at,omitempty"`
}

func (db *DB) CreateRequest(ctx context.Context, req *Request) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	if req.Status == "" {
		req.Status = RequestStatusProcessing
	}

	_, err := db.ExecContext(ctx, `
		insert into viseme_requests (
			id,
			language,
			audio_filename,
			alignment_key,
			transcript,
			status,
			created_at
		) values ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID, req.Language, req.AudioFilename, req.AlignmentKey, req.Transcript, string(req.Status), req.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

func (db *DB) FinishRequest(ctx context.Context, id string, status RequestStatus, errMsg string, cached bool, processing time.Duration) error {
	res, err := db.ExecContext(ctx, `
		update viseme_requests set
			status = $1,
			error = $2,
			cached = $3,
			processing_ms = $4,
			finished_at = $5
		where
			id = $6
	`, string(status), errMsg, boolToInt(cached), processing.Milliseconds(), time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to finish request: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish request %s: %w", id, parseErr(sql.ErrNoRows))
	}

	return nil
}

const requestColumns = `
	id,
	language,
	audio_filename,
	alignment_key,
	transcript,
	status,
	error,
	cached,
	processing_ms,
	created_at,
	finished_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var (
		req        Request
		status     string
		cached     int
		createdAt  int64
		finishedAt sql.NullInt64
	)

	if err := row.Scan(
		&req.ID,
		&req.Language,
		&req.AudioFilename,
		&req.AlignmentKey,
		&req.Transcript,
		&status,
		&req.Error,
		&cached,
		&req.ProcessingMs,
		&createdAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}

	req.Status = RequestStatus(status)
	req.Cached = cached != 0
	req.CreatedAt = time.UnixMilli(createdAt)
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64)
		req.FinishedAt = &t
	}

	return &req, nil
}

func (db *DB) GetRequest(ctx context.Context, id string) (*Request, error) {
	req, err := scanRequest(db.QueryRowContext(ctx, `
		select `+requestColumns+`
		from viseme_requests
		where id = $1
	`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get request %s: %w", id, parseErr(err))
	}

	return req, nil
}

// ListRequests returns the latest requests first.
func (db *DB) ListRequests(ctx context.Context, limit int) ([]*Request, error) {
	rows, err := db.QueryContext(ctx, `
		select `+requestColumns+`
		from viseme_requests
		order by created_at desc, id
		limit $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	reqs := make([]*Request, 0, limit)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}

		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	return reqs, nil
}

func (db *DB) CleanRequests(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
		delete from viseme_requests where created_at < $1
	`, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to clean requests: %w", err)
	}

	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
