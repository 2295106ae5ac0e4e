package db_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"lipsync/db"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	testDB, err := db.New(context.Background(), &db.Config{
		Driver:  db.DriverSQLite,
		ConnStr: "file:" + filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = testDB.Close()
	})

	return testDB
}

func TestNewUnsupportedDriver(t *testing.T) {
	_, err := db.New(context.Background(), &db.Config{Driver: "mysql"})
	require.Error(t, err)
}

func TestNewIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		testDB, err := db.New(context.Background(), &db.Config{ConnStr: "file:" + path})
		require.NoError(t, err)
		require.NoError(t, testDB.Close())
	}
}

func TestRequests(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	testDB := newTestDB(t)

	req := &db.Request{
		ID:            "req-1",
		Language:      "vi",
		AudioFilename: "speech.wav",
		AlignmentKey:  "abc",
		Transcript:    "xin chào",
	}
	assert.NoError(testDB.CreateRequest(ctx, req))

	got, err := testDB.GetRequest(ctx, "req-1")
	assert.NoError(err)
	assert.Equal(db.RequestStatusProcessing, got.Status)
	assert.Equal("xin chào", got.Transcript)
	assert.Nil(got.FinishedAt)
	assert.Equal(req.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	assert.NoError(testDB.FinishRequest(ctx, "req-1", db.RequestStatusSuccess, "", true, 1500*time.Millisecond))

	got, err = testDB.GetRequest(ctx, "req-1")
	assert.NoError(err)
	assert.Equal(db.RequestStatusSuccess, got.Status)
	assert.True(got.Cached)
	assert.Equal(int64(1500), got.ProcessingMs)
	assert.NotNil(got.FinishedAt)

	_, err = testDB.GetRequest(ctx, "missing")
	assert.Equal(db.ErrCodeNoRows, db.ErrCode(err))

	err = testDB.FinishRequest(ctx, "missing", db.RequestStatusFailed, "boom", false, 0)
	assert.Equal(db.ErrCodeNoRows, db.ErrCode(err))
}

func TestListAndCleanRequests(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	testDB := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		assert.NoError(testDB.CreateRequest(ctx, &db.Request{
			ID:        fmt.Sprintf("req-%d", i),
			Language:  "vi",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	reqs, err := testDB.ListRequests(ctx, 3)
	assert.NoError(err)
	assert.Len(reqs, 3)
	assert.Equal("req-4", reqs[0].ID)
	assert.Equal("req-2", reqs[2].ID)

	n, err := testDB.CleanRequests(ctx, base.Add(2*time.Minute))
	assert.NoError(err)
	assert.Equal(int64(2), n)

	reqs, err = testDB.ListRequests(ctx, 10)
	assert.NoError(err)
	assert.Len(reqs, 3)
}

func TestAlignments(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	testDB := newTestDB(t)

	_, err := testDB.GetAlignment(ctx, "key")
	assert.Equal(db.ErrCodeNoRows, db.ErrCode(err))

	assert.NoError(testDB.PutAlignment(ctx, "key", "vi", []byte(`{"tiers": {}}`)))
	assert.NoError(testDB.PutAlignment(ctx, "key", "vi", []byte(`{"tiers": {"phones": {}}}`)))

	raw, err := testDB.GetAlignment(ctx, "key")
	assert.NoError(err)
	assert.Equal(`{"tiers": {"phones": {}}}`, string(raw))

	n, err := testDB.CleanAlignments(ctx, time.Now().Add(time.Minute))
	assert.NoError(err)
	assert.Equal(int64(1), n)

	_, err = testDB.GetAlignment(ctx, "key")
	assert.Equal(db.ErrCodeNoRows, db.ErrCode(err))
}
