package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/mahmudshamim/ExamFlow/internal/api/http"
	auth "github.com/mahmudshamim/ExamFlow/internal/auth/middleware"
	"github.com/mahmudshamim/ExamFlow/internal/config"
	"github.com/mahmudshamim/ExamFlow/internal/db"
	"github.com/mahmudshamim/ExamFlow/internal/exam"
	"github.com/mahmudshamim/ExamFlow/internal/notify"
	"github.com/mahmudshamim/ExamFlow/internal/rbac"
	"github.com/mahmudshamim/ExamFlow/internal/submission"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	examStore := exam.NewSQLStore(dbh)
	subStore := submission.NewSQLStore(dbh)

	// --- Result notifier (outbox + background worker) ---
	queue := notify.NewQueue(dbh)
	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTP.Configured() {
		mailer = notify.NewSMTPMailer(cfg.SMTP)
	}
	worker := notify.NewWorker(queue, mailer, cfg.NotifyInterval, cfg.NotifyMaxAttempts)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	svc := submission.NewService(examStore, subStore, queue)

	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash, cfg.HRUser, cfg.HRPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	// Candidate surface: unauthenticated, the CandidateEmail identifies
	// the person taking the exam.
	r.Route("/api", func(pr chi.Router) {
		pr.Get("/exams/{examID}", api.GetExamHandler(examStore))
		pr.Get("/submissions/check-attempts", api.CheckAttemptsHandler(svc))
		pr.Post("/submissions/start", api.StartSubmissionHandler(svc))
		pr.Patch("/submissions/{id}/log-violation", api.LogViolationHandler(svc))
		pr.Patch("/submissions/{id}/autosave", api.AutosaveHandler(svc))
		pr.Post("/submissions", api.SubmitHandler(svc))

		// HR/admin surface (JWT -> role in context -> RBAC)
		pr.Group(func(ar chi.Router) {
			ar.Use(auth.JWTMiddleware(authSvc))

			ar.With(rbac.Require("exam:create")).
				Post("/exams", api.CreateExamHandler(examStore))
			ar.With(rbac.Require("exam:list")).
				Get("/exams", api.ListExamsHandler(examStore))
			ar.With(rbac.Require("exam:update")).
				Put("/exams/{examID}", api.UpdateExamHandler(examStore))
			ar.With(rbac.Require("exam:update")).
				Patch("/exams/{examID}/settings", api.PatchSettingsHandler(examStore))
			ar.With(rbac.Require("exam:delete")).
				Delete("/exams/{examID}", api.DeleteExamHandler(examStore))

			ar.With(rbac.Require("results:send")).
				Post("/exams/{examID}/send-results-bulk", api.BulkSendResultsHandler(examStore, svc, queue))

			ar.With(rbac.Require("submission:view")).
				Get("/submissions/exam/{examID}", api.ListSubmissionsHandler(svc))
			ar.With(rbac.Require("submission:grade")).
				Patch("/submissions/{id}/grade", api.ManualGradeHandler(svc))
			ar.With(rbac.Require("submission:delete")).
				Delete("/submissions/{id}", api.DeleteSubmissionHandler(svc))

			ar.With(rbac.Require("submission:view")).
				Get("/analytics/{examID}", api.AnalyticsHandler(svc))
		})
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
