package api

import (
	"net/http"
)

type languageInfo struct {
	Code          string `json:"code"`
	Phonemes      int    `json:"phonemes"`
	Normalization bool   `json:"normalization"`
	Markers       string `json:"markers,omitempty"`
}

func (api *API) languages(w http.ResponseWriter, r *http.Request) {
	langs := api.generator.Languages()

	res := make([]languageInfo, 0)
	for _, code := range langs.Codes() {
		pipeline, err := langs.Get(code)
		if err != nil {
			writeError(w, r, err)
			return
		}

		res = append(res, languageInfo{
			Code:          pipeline.Language,
			Phonemes:      pipeline.Dictionary.Len(),
			Normalization: pipeline.Normalizer != nil,
			Markers:       string(pipeline.Normalizer.Markers()),
		})
	}

	writeJSON(w, http.StatusOK, res)
}
