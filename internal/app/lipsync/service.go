package lipsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lipsync/db"
	"lipsync/internal/app/monitoring"
	"lipsync/pkg/b3"
	"lipsync/pkg/mfa"
	"lipsync/pkg/slg"
	"lipsync/pkg/viseme"
	"lipsync/pkg/wavinfo"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrAlignmentFailed = errors.New("alignment failed")
)

const workDirPrefix = "lipsync_req_"

type Service struct {
	logger    *slog.Logger
	builder   *viseme.Builder
	aligner   Aligner
	store     Store
	archive   Archive
	converter Converter
	workRoot  string
}

// NewService wires the generation pipeline. archive and converter are optional.
func NewService(logger *slog.Logger, builder *viseme.Builder, aligner Aligner, store Store, archive Archive, converter Converter, workRoot string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if workRoot == "" {
		workRoot = os.TempDir()
	}

	return &Service{
		logger:    logger,
		builder:   builder,
		aligner:   aligner,
		store:     store,
		archive:   archive,
		converter: converter,
		workRoot:  workRoot,
	}
}

type GenerateRequest struct {
	Audio         io.Reader
	AudioFilename string
	Transcript    string
	Language      string
}

type GenerateResult struct {
	RequestID      string
	Language       string
	Transcript     string
	AudioFilename  string
	AudioDuration  time.Duration
	Timeline       *viseme.Timeline
	Cached         bool
	ProcessingTime time.Duration
	CreatedAt      time.Time
}

func (s *Service) Languages() *viseme.Languages {
	return s.builder.Languages()
}

func (s *Service) WorkRoot() string {
	return s.workRoot
}

func (s *Service) AlignerVersion(ctx context.Context) (string, error) {
	return s.aligner.Version(ctx)
}

// Generate runs upload -> alignment -> viseme timeline for one request.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (_ *GenerateResult, err error) {
	timer := prometheus.NewTimer(monitoring.AppMetrics.GenerateTime)
	defer timer.ObserveDuration()

	defer func() {
		if err != nil {
			monitoring.AppMetrics.GenerateErrors.WithLabelValues(errCode(err)).Inc()
		}
	}()

	pipeline, transcript, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &GenerateResult{
		RequestID:     uuid.NewString(),
		Language:      pipeline.Language,
		Transcript:    transcript,
		AudioFilename: filepath.Base(req.AudioFilename),
		CreatedAt:     start,
	}

	logger := slg.GetSlog(ctx).With("request_id", res.RequestID, "language", pipeline.Language)

	monitoring.AppMetrics.GenerateRequests.WithLabelValues(pipeline.Language).Inc()

	workDir := filepath.Join(s.workRoot, workDirPrefix+res.RequestID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("failed to remove work dir", "dir", workDir, "err", err)
		}
	}()

	uploadPath, err := writeUpload(workDir, req.AudioFilename, req.Audio)
	if err != nil {
		return nil, err
	}

	key, err := alignmentKey(uploadPath, transcript, pipeline.Language)
	if err != nil {
		return nil, err
	}

	record := &db.Request{
		ID:            res.RequestID,
		Language:      pipeline.Language,
		AudioFilename: res.AudioFilename,
		AlignmentKey:  key,
		Transcript:    transcript,
		CreatedAt:     start,
	}
	if err := s.store.CreateRequest(ctx, record); err != nil {
		logger.Warn("failed to create request record", "err", err)
	}

	defer func() {
		status, errMsg := db.RequestStatusSuccess, ""
		if err != nil {
			status, errMsg = db.RequestStatusFailed, err.Error()
		}

		// the request ctx may already be cancelled
		if err := s.store.FinishRequest(context.WithoutCancel(ctx), res.RequestID, status, errMsg, res.Cached, time.Since(start)); err != nil {
			logger.Warn("failed to finish request record", "err", err)
		}
	}()

	audioPath, duration, err := s.prepareAudio(ctx, uploadPath)
	if err != nil {
		return nil, err
	}
	res.AudioDuration = duration

	labPath := filepath.Join(workDir, "input.lab")
	if err := os.WriteFile(labPath, []byte(transcript), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write transcript: %w", err)
	}

	raw, cached, err := s.alignment(ctx, logger, key, mfa.Request{
		AudioPath:      audioPath,
		TranscriptPath: labPath,
		Language:       pipeline.Language,
	})
	if err != nil {
		return nil, err
	}

	tl, err := s.builder.Build(raw, pipeline.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}

	res.Timeline = tl
	res.Cached = cached

	if !cached {
		s.remember(ctx, logger, key, pipeline.Language, raw)
	}

	monitoring.AppMetrics.TimelineFrames.Observe(float64(len(tl.Frames)))
	if len(tl.Unresolved) > 0 {
		monitoring.AppMetrics.UnresolvedPhonemes.WithLabelValues(pipeline.Language).Add(float64(len(tl.Unresolved)))
	}

	res.ProcessingTime = time.Since(start)

	logger.Info("Viseme timeline generated",
		"frames", len(tl.Frames),
		"unresolved", len(tl.Unresolved),
		"cached", cached,
		"took", res.ProcessingTime)

	return res, nil
}

// validate runs before anything touches the disk.
func (s *Service) validate(req GenerateRequest) (*viseme.Pipeline, string, error) {
	if req.Audio == nil {
		return nil, "", fmt.Errorf("%w: no audio file", ErrInvalidRequest)
	}

	lang := req.Language
	if strings.TrimSpace(lang) == "" {
		lang = "vi"
	}

	pipeline, err := s.builder.Languages().Get(lang)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	transcript := PrepareTranscript(req.Transcript, pipeline.Language)
	if transcript == "" {
		return nil, "", fmt.Errorf("%w: transcript is empty", ErrInvalidRequest)
	}

	return pipeline, transcript, nil
}

// PrepareTranscript produces the text the aligner sees: NFC, lowercased by the rules of lang, single spaced.
func PrepareTranscript(transcript string, lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Und
	}

	transcript = norm.NFC.String(transcript)
	transcript = cases.Lower(tag).String(transcript)

	return strings.Join(strings.Fields(transcript), " ")
}

func writeUpload(workDir string, filename string, audio io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" {
		ext = ".wav"
	}

	path := filepath.Join(workDir, "input"+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, audio)
	if err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	if n == 0 {
		return "", fmt.Errorf("%w: audio file is empty", ErrInvalidRequest)
	}

	return path, nil
}

func alignmentKey(path string, transcript string, lang string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	return b3.AlignmentKey(f, transcript, lang)
}

// prepareAudio returns a path the aligner can read and the audio duration.
func (s *Service) prepareAudio(ctx context.Context, uploadPath string) (string, time.Duration, error) {
	info, err := inspect(uploadPath)
	if err != nil && !errors.Is(err, wavinfo.ErrNotWav) {
		return "", 0, err
	}

	canConvert := s.converter != nil && s.converter.Enabled()

	switch {
	case err != nil && !canConvert:
		return "", 0, fmt.Errorf("%w: audio file must be a wav file", ErrInvalidRequest)
	case err == nil && (info.AlignerReady() || !canConvert):
		return uploadPath, info.Duration, nil
	}

	wavPath, err := s.converter.ToWav(ctx, uploadPath)
	if err != nil {
		return "", 0, fmt.Errorf("%w: failed to convert audio: %w", ErrInvalidRequest, err)
	}

	info, err = inspect(wavPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to inspect converted audio: %w", err)
	}

	return wavPath, info.Duration, nil
}

func inspect(path string) (*wavinfo.Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	return wavinfo.Inspect(f)
}

func (s *Service) alignment(ctx context.Context, logger *slog.Logger, key string, req mfa.Request) ([]byte, bool, error) {
	raw, err := s.store.GetAlignment(ctx, key)
	if err == nil {
		monitoring.AppMetrics.AlignmentCache.WithLabelValues("hit").Inc()
		logger.Debug("alignment cache hit", "key", key)
		return raw, true, nil
	}

	if db.ErrCode(err) != db.ErrCodeNoRows {
		logger.Warn("failed to read alignment cache", "err", err)
	}
	monitoring.AppMetrics.AlignmentCache.WithLabelValues("miss").Inc()

	timer := prometheus.NewTimer(monitoring.AppMetrics.AlignQueryTime)
	raw, err = s.aligner.Align(ctx, req)
	timer.ObserveDuration()
	if err != nil {
		monitoring.AppMetrics.AlignErrors.WithLabelValues(req.Language).Inc()
		return nil, false, fmt.Errorf("%w: %w", ErrAlignmentFailed, err)
	}

	return raw, false, nil
}

// remember stores a fresh alignment. Failures only cost a future cache miss.
func (s *Service) remember(ctx context.Context, logger *slog.Logger, key string, lang string, raw []byte) {
	if err := s.store.PutAlignment(ctx, key, lang, raw); err != nil {
		logger.Warn("failed to cache alignment", "err", err)
	}

	if s.archive == nil {
		return
	}

	if err := s.archive.Archive(ctx, fmt.Sprintf("alignments/%s/%s.json", lang, key), raw); err != nil {
		logger.Warn("failed to archive alignment", "err", err)
	}
}

// SweepStale removes work dirs left behind by crashed or killed requests.
func (s *Service) SweepStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.workRoot)
	if err != nil {
		return 0, fmt.Errorf("failed to read work root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workDirPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.RemoveAll(filepath.Join(s.workRoot, entry.Name())); err != nil {
			s.logger.Warn("failed to remove stale work dir", "dir", entry.Name(), "err", err)
			continue
		}
		removed++
	}

	return removed, nil
}

func errCode(err error) string {
	var malformed *viseme.MalformedAlignmentError

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrAlignmentFailed):
		return "alignment_failed"
	case errors.As(err, &malformed):
		return "malformed_alignment"
	default:
		return "internal"
	}
}
