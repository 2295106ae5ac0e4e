package lipsync

import (
	"context"
	"time"

	"lipsync/db"
	"lipsync/pkg/mfa"
)

// Aligner produces an MFA-format alignment document for one audio/transcript pair.
type Aligner interface {
	Align(ctx context.Context, req mfa.Request) ([]byte, error)
	Version(ctx context.Context) (string, error)
}

// Store keeps the request log and the alignment cache.
type Store interface {
	CreateRequest(ctx context.Context, req *db.Request) error
	FinishRequest(ctx context.Context, id string, status db.RequestStatus, errMsg string, cached bool, processing time.Duration) error
	GetAlignment(ctx context.Context, key string) ([]byte, error)
	PutAlignment(ctx context.Context, key string, language string, alignment []byte) error
}

type Archive interface {
	Archive(ctx context.Context, objectName string, data []byte) error
}

// Converter re-encodes uploads the aligner can not read directly.
type Converter interface {
	Enabled() bool
	ToWav(ctx context.Context, inputPath string) (string, error)
}
