package alignhttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"lipsync/pkg/alignhttp"
	"lipsync/pkg/mfa"

	"github.com/stretchr/testify/require"
)

const alignment = `{"tiers": {"phones": {"entries": [[0.0, 0.1, "a"]]}}}`

func writeInputs(t *testing.T) mfa.Request {
	t.Helper()

	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.wav")
	lab := filepath.Join(dir, "audio.lab")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF-audio"), 0o644))
	require.NoError(t, os.WriteFile(lab, []byte("xin chào"), 0o644))

	return mfa.Request{AudioPath: audio, TranscriptPath: lab, Language: "vi"}
}

func TestAlign(t *testing.T) {
	assert := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/align", r.URL.Path)
		assert.Equal(http.MethodPost, r.Method)

		var body struct {
			Audio      []byte `json:"audio"`
			Transcript string `json:"transcript"`
			Language   string `json:"language"`
		}
		assert.NoError(json.NewDecoder(r.Body).Decode(&body))
		assert.Equal("RIFF-audio", string(body.Audio))
		assert.Equal("xin chào", body.Transcript)
		assert.Equal("vi", body.Language)

		_, _ = w.Write([]byte(alignment))
	}))
	defer srv.Close()

	client := alignhttp.New(http.DefaultClient, &alignhttp.Config{URL: srv.URL})

	res, err := client.Align(context.Background(), writeInputs(t))
	assert.NoError(err)
	assert.JSONEq(alignment, string(res))
}

func TestAlignServerError(t *testing.T) {
	assert := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "aligner crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := alignhttp.New(http.DefaultClient, &alignhttp.Config{URL: srv.URL})

	_, err := client.Align(context.Background(), writeInputs(t))
	assert.Error(err)
	assert.Contains(err.Error(), "aligner crashed")
}

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version": "3.1.0"}`))
	}))
	defer srv.Close()

	client := alignhttp.New(http.DefaultClient, &alignhttp.Config{URL: srv.URL})

	version, err := client.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "3.1.0", version)
}
