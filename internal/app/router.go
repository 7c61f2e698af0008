package app

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"topikbank/internal/app/observability"
	"topikbank/internal/asset"
	"topikbank/internal/auth"
	"topikbank/internal/exam"
	"topikbank/internal/importer"
	"topikbank/internal/report"
	"topikbank/internal/storage"
)

func NewRouter(cfg Config, db *sql.DB, blobs *storage.FSStore, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	collector := observability.NewCollector(db, logger.Named("http"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.AdminKeyHeader, "Authorization", csrfHeaderName},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(CSRFMiddleware(cfg.CSRFEnforced))

	examSvc := exam.NewService(db)
	examHandler := exam.NewHandler(examSvc)
	importHandler := importer.NewHandler(examSvc, importer.HandlerConfig{
		Options:        importer.Options{StrictAnswers: cfg.ImportStrictAnswers},
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}, logger.Named("import"), collector)
	reportHandler := report.NewHandler(report.NewService(examSvc))
	assetHandler := asset.NewHandler(examSvc, blobs, cfg.MaxUploadBytes(), logger.Named("asset"))
	adminKey := auth.NewAdminKeyAuth(cfg.AdminKeyHash)
	uploadLimiter := NewUploadLimiter(cfg.UploadRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"ok":false}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)
	r.Get("/assets/*", blobs.ServeAssets)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(adminKey.Require)

		api.Get("/formats/{paper}", importHandler.Formats)
		api.Get("/formats/{paper}/template", importHandler.Template)

		api.Post("/imports/preview", importHandler.Preview)
		api.Post("/imports/commit", importHandler.Commit)

		api.Get("/exams", examHandler.ListExams)
		api.Post("/exams", examHandler.CreateExam)
		api.Route("/exams/{id}", func(ex chi.Router) {
			ex.Get("/", examHandler.GetExam)
			ex.Put("/", examHandler.UpdateExam)
			ex.Delete("/", examHandler.DeleteExam)
			ex.Get("/questions", examHandler.ListQuestions)
			ex.Get("/export", importHandler.Export)
			ex.Get("/report", reportHandler.Summary)
			ex.Post("/patch", importHandler.PatchSheet)
			ex.Post("/patch/json", importHandler.PatchJSON)
			ex.With(RateLimitMiddleware(uploadLimiter)).Post("/option-images", assetHandler.UploadOptionImages)
		})
	})

	return r
}
