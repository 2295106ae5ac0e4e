package api

import (
	"fmt"
	"net/http"
	"strconv"

	"lipsync/internal/app/lipsync"

	"github.com/go-chi/chi/v5"
)

const (
	defaultRequestsLimit = 50
	maxRequestsLimit     = 500
)

func (api *API) listRequests(w http.ResponseWriter, r *http.Request) {
	limit := defaultRequestsLimit

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", lipsync.ErrInvalidRequest))
			return
		}
		limit = min(n, maxRequestsLimit)
	}

	reqs, err := api.requests.ListRequests(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reqs)
}

func (api *API) getRequest(w http.ResponseWriter, r *http.Request) {
	req, err := api.requests.GetRequest(r.Context(), chi.URLParam(r, "request_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}
