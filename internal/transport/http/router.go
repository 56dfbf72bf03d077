package http

import (
	"net/http"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"
	"lms-quiz-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services are the use cases the API exposes.
type Services struct {
	Attempts *app.AttemptService
	Quizzes  *app.QuizService
	Courses  *app.CourseService
}

// Options tune the HTTP surface.
type Options struct {
	JWTSecret     string
	CORSOrigins   []string
	RateLimit     float64 // per client IP per second; 0 disables
	RateBurst     int
	Timeout       time.Duration
	TimerInterval time.Duration
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Log           *zap.Logger
}

// NewRouter mounts every route behind the shared middleware stack.
func NewRouter(svc Services, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	auth := NewAuthenticator(opts.JWTSecret)
	attempts := NewAttemptHandler(svc.Attempts, log)
	quizzes := NewQuizHandler(svc.Quizzes, log)
	courses := NewCourseHandler(svc.Courses, log)
	timer := NewTimerHandler(svc.Attempts, log, opts.TimerInterval, opts.CORSOrigins)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(instrument(opts.Metrics))
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if opts.RateLimit > 0 {
		r.Use(newRateLimiter(opts.RateLimit, opts.RateBurst).Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(opts.Timeout), auth.Middleware)

		api.Route("/quiz-attempts", func(ar chi.Router) {
			student := RequireRole(domain.RoleStudent, domain.RoleAdmin)
			ar.With(student).Post("/start", attempts.Start)
			ar.With(student).Post("/submit", attempts.Submit)
			ar.With(student).Get("/student", attempts.ListMine)
			ar.With(student).Get("/course/{courseId}", attempts.ListByCourse)
			ar.Get("/{id}", attempts.Get)
		})

		api.Route("/quizzes", func(qr chi.Router) {
			authors := RequireRole(domain.RoleAdmin, domain.RoleExamManager)
			qr.Get("/", quizzes.List)
			qr.Get("/{id}", quizzes.Get)
			qr.With(authors).Post("/", quizzes.Create)
			qr.With(authors).Put("/{id}", quizzes.Update)
			qr.With(authors).Delete("/{id}", quizzes.Delete)
			qr.With(authors).Patch("/{id}/status", quizzes.ToggleStatus)
		})

		api.Route("/courses", func(cr chi.Router) {
			cr.Get("/", courses.List)
			cr.Get("/{id}", courses.Get)
			cr.With(RequireRole(domain.RoleAdmin, domain.RoleExamManager)).Post("/", courses.Create)
			cr.With(RequireRole(domain.RoleStudent)).Post("/{id}/enroll", courses.Enroll)
		})
		api.With(RequireRole(domain.RoleStudent)).Get("/enrollments/me", courses.MyEnrollments)
	})

	// Long-lived streams stay outside the request timeout.
	r.With(auth.Middleware).Get("/ws/attempts/{id}/timer", timer.ServeWS)

	return r
}
