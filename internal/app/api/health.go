package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

type componentHealth struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

type healthResponse struct {
	Status     string                      `json:"status"`
	Timestamp  string                      `json:"timestamp"`
	Components map[string]*componentHealth `json:"components"`
}

func healthy(details string) *componentHealth {
	return &componentHealth{Status: "healthy", Details: details}
}

func unhealthy(err error) *componentHealth {
	return &componentHealth{Status: "unhealthy", Details: err.Error()}
}

// health reports degraded instead of failing so load balancers can still read the body.
func (api *API) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res := &healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Components: map[string]*componentHealth{
			"api": healthy("running"),
		},
	}

	if info, err := os.Stat(api.generator.WorkRoot()); err != nil {
		res.Components["temp_dir"] = unhealthy(err)
	} else if !info.IsDir() {
		res.Components["temp_dir"] = unhealthy(fmt.Errorf("%s is not a directory", api.generator.WorkRoot()))
	} else {
		res.Components["temp_dir"] = healthy(api.generator.WorkRoot())
	}

	if version, err := api.generator.AlignerVersion(ctx); err != nil {
		res.Components["aligner"] = unhealthy(err)
	} else {
		res.Components["aligner"] = healthy(version)
	}

	if codes := api.generator.Languages().Codes(); len(codes) == 0 {
		res.Components["viseme_mapping"] = &componentHealth{Status: "unhealthy", Details: "no languages configured"}
	} else {
		res.Components["viseme_mapping"] = healthy(fmt.Sprintf("%d languages", len(codes)))
	}

	if err := api.requests.PingContext(ctx); err != nil {
		res.Components["db"] = unhealthy(err)
	} else {
		res.Components["db"] = healthy("")
	}

	for _, c := range res.Components {
		if c.Status != "healthy" {
			res.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, res)
}
