package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteJSONUnencodable(t *testing.T) {
	assert := require.New(t)

	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"total_duration": math.Inf(1)})

	assert.Equal(http.StatusInternalServerError, rec.Code)
	assert.Equal("application/json", rec.Header().Get("Content-Type"))

	var res errorResponse
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal("failed to encode response", res.Error)
	assert.Contains(res.Details, "unsupported value")
}

func TestWriteJSON(t *testing.T) {
	assert := require.New(t)

	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]int{"total_visemes": 3})

	assert.Equal(http.StatusCreated, rec.Code)
	assert.JSONEq(`{"total_visemes": 3}`, rec.Body.String())
}
