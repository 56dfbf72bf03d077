package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/config"
	"lms-quiz-service/internal/infra/memory"
	"lms-quiz-service/internal/infra/postgres"
	redisstore "lms-quiz-service/internal/infra/redis"
	"lms-quiz-service/internal/logger"
	"lms-quiz-service/internal/metrics"
	transport "lms-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores bundles the selected persistence backends.
type stores struct {
	quizzes     app.QuizStore
	courses     app.CourseStore
	enrollments app.EnrollmentStore
	attempts    app.AttemptStore
	close       func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := []app.AttemptOption{
		app.WithObserver(m),
		app.WithTimeoutGrace(config.TTLDuration(cfg.Attempts.TimeoutGrace, 0)),
	}
	if cfg.Attempts.RequireEnrollment {
		opts = append(opts, app.WithEnrollmentCheck(st.enrollments))
	}
	attempts := app.NewAttemptService(st.quizzes, st.courses, st.attempts, opts...)

	if cfg.Attempts.TimeoutSweep != "" {
		sweeper, err := app.NewSweeper(attempts, cfg.Attempts.TimeoutSweep, log.Named("sweeper"))
		if err != nil {
			return fmt.Errorf("attempts.timeout_sweep: %w", err)
		}
		sweeper.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			sweeper.Stop(stopCtx)
		}()
		log.Info("attempt timeout sweep enabled", zap.String("schedule", cfg.Attempts.TimeoutSweep))
	}

	handler := transport.NewRouter(transport.Services{
		Attempts: attempts,
		Quizzes:  app.NewQuizService(st.quizzes, st.courses),
		Courses:  app.NewCourseService(st.courses, st.enrollments),
	}, transport.Options{
		JWTSecret:   cfg.Auth.JWTSecret,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
		Timeout:     config.TTLDuration(cfg.Server.Timeout, 30*time.Second),
		Metrics:     m,
		Gatherer:    reg,
		Log:         log.Named("http"),
	})

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "5555"
	}

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting quiz service",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("attempts", attemptDriver(cfg)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	var st stores
	closers := []func(){}
	st.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Storage.Driver {
	case "postgres":
		if err := runMigrations(ctx, cfg, log); err != nil {
			return st, fmt.Errorf("migrate: %w", err)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return st, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		st.quizzes = postgres.NewQuizStore(pool)
		st.courses = postgres.NewCourseStore(pool)
		st.enrollments = postgres.NewEnrollmentStore(pool)
		st.attempts = postgres.NewAttemptStore(pool)
	default:
		st.quizzes = memory.NewQuizStore()
		st.courses = memory.NewCourseStore()
		st.enrollments = memory.NewEnrollmentStore()
		st.attempts = memory.NewAttemptStore()
		log.Warn("using in-memory storage; data is lost on restart")
	}

	if cfg.Attempts.Driver == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			st.close()
			return st, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		st.attempts = redisstore.NewAttemptStore(client)
	}
	return st, nil
}

func attemptDriver(cfg config.Config) string {
	if cfg.Attempts.Driver != "" {
		return cfg.Attempts.Driver
	}
	return cfg.Storage.Driver
}
