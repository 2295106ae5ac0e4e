package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"lipsync/db"
	"lipsync/internal/app/lipsync"
	"lipsync/pkg/slg"
	"lipsync/pkg/viseme"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogchi "github.com/samber/slog-chi"
)

type Config struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type Generator interface {
	Generate(ctx context.Context, req lipsync.GenerateRequest) (*lipsync.GenerateResult, error)
	Languages() *viseme.Languages
	WorkRoot() string
	AlignerVersion(ctx context.Context) (string, error)
}

type RequestLog interface {
	GetRequest(ctx context.Context, id string) (*db.Request, error)
	ListRequests(ctx context.Context, limit int) ([]*db.Request, error)
	PingContext(ctx context.Context) error
}

type API struct {
	logger *slog.Logger

	cfg *Config

	generator Generator

	requests RequestLog

	gatherer prometheus.Gatherer
}

func NewAPI(cfg *Config, logger *slog.Logger, generator Generator, requests RequestLog, gatherer prometheus.Gatherer) *API {
	return &API{
		cfg: cfg,

		logger: logger,

		generator: generator,

		requests: requests,

		gatherer: gatherer,
	}
}

func (api *API) NewRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(slogchi.New(api.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.StripSlashes)

	router.Use(middleware.Recoverer)

	router.Handle("/metrics", promhttp.HandlerFor(api.gatherer, promhttp.HandlerOpts{}))

	router.Get("/", api.index)
	router.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	router.Route("/api", func(router chi.Router) {
		router.Use(api.requestLogger)

		router.Post("/generate-viseme", api.generateViseme)

		router.Get("/health", api.health)
		router.Get("/languages", api.languages)

		router.Get("/requests", api.listRequests)
		router.Get("/requests/{request_id}", api.getRequest)
	})

	return router
}

// requestLogger puts a logger tagged with the chi request id into the request context.
func (api *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := api.logger.With("chi_request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(slg.WithSlog(r.Context(), logger)))
	})
}
