package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/bon-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(env string, JWTService jwt.Service, bonHandler BonHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "bon-cmlabs"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/bons", func(r chi.Router) {
				r.Get("/", bonHandler.List)
				r.Post("/", bonHandler.Submit)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", bonHandler.Get)
					r.Get("/installments", bonHandler.GetInstallments)
					r.Put("/", bonHandler.Update)

					// Admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.AdminOnly)
						r.Patch("/decision", bonHandler.Decide)
						r.Delete("/", bonHandler.Cancel)
					})
				})
			})

			r.Route("/employees/{employeeId}", func(r chi.Router) {
				r.Get("/bon-eligibility", bonHandler.GetEligibility)
			})

			// Admin only
			r.Route("/installments", func(r chi.Router) {
				r.Use(middleware.AdminOnly)
				r.Post("/process", bonHandler.ProcessPeriod)
				r.Patch("/{id}/status", bonHandler.UpdateInstallmentStatus)
			})
		})
	})
	return r
}
