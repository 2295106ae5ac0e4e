package s3client_test

import (
	"testing"

	"lipsync/pkg/s3client"

	"github.com/stretchr/testify/require"
)

func TestEnabled(t *testing.T) {
	assert := require.New(t)

	var cfg *s3client.Config
	assert.False(cfg.Enabled())
	assert.False((&s3client.Config{}).Enabled())
	assert.True((&s3client.Config{Endpoint: "localhost:9000"}).Enabled())
}

func TestNew(t *testing.T) {
	client, err := s3client.New(&s3client.Config{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		Bucket:          "alignments",
	})
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = s3client.New(&s3client.Config{Endpoint: "http://localhost:9000/with/path"})
	require.Error(t, err)
}
