package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"lipsync/internal/app/lipsync"
	"lipsync/pkg/viseme"
)

const defaultMaxUploadBytes = 100 << 20

type visemeStatistics struct {
	Counts       map[viseme.Code]int `json:"counts"`
	TotalVisemes int                 `json:"total_visemes"`
}

type visemeMetadata struct {
	AudioFilename      string           `json:"audio_filename"`
	AudioDuration      float64          `json:"audio_duration"`
	TotalDuration      float64          `json:"total_duration"`
	VisemeStatistics   visemeStatistics `json:"viseme_statistics"`
	UnresolvedPhonemes []string         `json:"unresolved_phonemes"`
	Cached             bool             `json:"cached"`
	ProcessTimestamp   string           `json:"process_timestamp"`
}

type visemeResponse struct {
	RequestID      string         `json:"request_id"`
	ProcessingTime float64        `json:"processing_time"`
	Status         string         `json:"status"`
	Language       string         `json:"language"`
	VisemeTimeline []viseme.Frame `json:"viseme_timeline"`
	Transcript     string         `json:"transcript"`
	Metadata       visemeMetadata `json:"metadata"`
}

func (api *API) generateViseme(w http.ResponseWriter, r *http.Request) {
	maxUpload := api.cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, &errorResponse{
				Error:   "audio file too large",
				Details: fmt.Sprintf("limit is %d bytes", tooLarge.Limit),
			})
			return
		}

		writeError(w, r, fmt.Errorf("%w: invalid form: %w", lipsync.ErrInvalidRequest, err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: missing audio_file: %w", lipsync.ErrInvalidRequest, err))
		return
	}
	defer file.Close()

	lang := r.FormValue("language")
	if lang == "" {
		lang = "vi"
	}

	res, err := api.generator.Generate(r.Context(), lipsync.GenerateRequest{
		Audio:         file,
		AudioFilename: header.Filename,
		Transcript:    r.FormValue("transcript"),
		Language:      lang,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	tl := res.Timeline

	writeJSON(w, http.StatusOK, &visemeResponse{
		RequestID:      res.RequestID,
		ProcessingTime: res.ProcessingTime.Seconds(),
		Status:         "success",
		Language:       res.Language,
		VisemeTimeline: tl.Frames,
		Transcript:     res.Transcript,
		Metadata: visemeMetadata{
			AudioFilename: res.AudioFilename,
			AudioDuration: res.AudioDuration.Seconds(),
			TotalDuration: tl.Statistics.TotalDuration,
			VisemeStatistics: visemeStatistics{
				Counts:       tl.Statistics.Counts,
				TotalVisemes: tl.Statistics.TotalVisemes,
			},
			UnresolvedPhonemes: tl.Unresolved,
			Cached:             res.Cached,
			ProcessTimestamp:   res.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
}
