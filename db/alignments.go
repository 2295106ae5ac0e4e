package db

import (
	"context"
	"fmt"
	"time"
)

// GetAlignment returns a cached aligner document. A miss is ErrCodeNoRows.
func (db *DB) GetAlignment(ctx context.Context, key string) ([]byte, error) {
	var alignment string

	err := db.QueryRowContext(ctx, `
		select alignment from alignments where cache_key = $1
	`, key).Scan(&alignment)
	if err != nil {
		return nil, fmt.Errorf("failed to get alignment: %w", parseErr(err))
	}

	return []byte(alignment), nil
}

func (db *DB) PutAlignment(ctx context.Context, key string, language string, alignment []byte) error {
	_, err := db.ExecContext(ctx, `
		insert into alignments (cache_key, language, alignment, created_at)
		values ($1, $2, $3, $4)
		on conflict (cache_key) do update set
			alignment = excluded.alignment,
			created_at = excluded.created_at
	`, key, language, string(alignment), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to put alignment: %w", err)
	}

	return nil
}

func (db *DB) CleanAlignments(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
		delete from alignments where created_at < $1
	`, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to clean alignments: %w", err)
	}

	return res.RowsAffected()
}
