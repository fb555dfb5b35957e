package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/changeset-demo/changeset-demo/api"
	"github.com/changeset-demo/changeset-demo/backend"
	"github.com/changeset-demo/changeset-demo/common"
	"github.com/changeset-demo/changeset-demo/configs"
	"github.com/changeset-demo/changeset-demo/db"
	"github.com/changeset-demo/changeset-demo/jobs/cleanup"
	"github.com/changeset-demo/changeset-demo/jobs/maintenance"
	jobsmetrics "github.com/changeset-demo/changeset-demo/jobs/metrics"
	"github.com/changeset-demo/changeset-demo/metrics"
	"github.com/changeset-demo/changeset-demo/services"
	"github.com/changeset-demo/changeset-demo/ui"
	"github.com/changeset-demo/changeset-demo/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	appConfigs, err := configs.NewAppConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
		panic(err)
	}

	if appConfigs.Env == common.LocalEnv {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	metricsService := metrics.NewMetricsService(appConfigs.MetricsEnabled, prometheus.DefaultRegisterer)

	// interfaces stay nil, not typed nil, when the activity log is off
	var activityRecorder services.ActivityRecorder
	var activityReader ui.ActivityReader
	var pinger services.Pinger

	if appConfigs.ActivityLog.Enabled {
		dbPath, err := utils.GetOrCreateActivityDBPath(appConfigs.ActivityLog.DbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get or create activity database path")
			panic(err)
		}

		repo, err := db.NewSQLiteRepo(dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create SQLite repository")
			panic(err)
		}
		defer repo.Close()
		log.Info().Str("path", dbPath).Msg("activity log enabled")

		activityRecorder, activityReader, pinger = repo, repo, repo

		activityCleanupJob := cleanup.NewActivityCleanupJob(repo, metricsService, appConfigs.ActivityLog.Retention, appConfigs.JobsIntervals.ActivityCleanupMs)
		defer activityCleanupJob.Close()
		dbOptimizationJob := maintenance.NewDbOptimizationJob(repo, appConfigs.JobsIntervals.DbOptimizationMs, 30*1000)
		defer dbOptimizationJob.Close()
	}

	proxyClient := backend.NewClient(appConfigs.BackendURL, appConfigs.BackendTimeout, metricsService)
	statusClient := backend.NewClient(appConfigs.PublicBackendURL, appConfigs.BackendTimeout, metricsService)

	emailService := services.NewEmailService(proxyClient, activityRecorder, appConfigs.EmailSubject)
	statusService := services.NewStatusService(proxyClient)
	monitoringService := services.NewMonitoringService(pinger)
	sessionsService := services.NewSessionsService(
		ui.NewHomePageFactory(statusClient, emailService, metricsService, appConfigs),
		appConfigs.SessionIdleTimeout,
		appConfigs.SessionSweepInterval,
		appConfigs.MaxSessions,
		metricsService,
	)
	defer sessionsService.Close()

	if appConfigs.MetricsEnabled {
		backendHealthMetricsJob := jobsmetrics.NewBackendHealthMetricsJob(metricsService, statusService, appConfigs.JobsIntervals.BackendHealthMetricsMs)
		defer backendHealthMetricsJob.Close()
	}

	apiRouter := api.NewRouter(emailService, statusService, monitoringService, metricsService)
	uiRouter := ui.NewRouter(sessionsService, activityReader, appConfigs.Env)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(api.RequestLogger(log.Logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthcheck", apiRouter.Healthcheck)
	if appConfigs.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler())
	}
	router.Mount("/api", apiRouter.NewRouter())
	router.Mount("/", uiRouter.NewRouter())

	// browsers speak HTTP/1.1 to a plain-text server, HTTP/2 clients are welcome too
	var protocols http.Protocols
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)

	server := &http.Server{
		Addr:              appConfigs.Addr,
		Handler:           http.TimeoutHandler(router, appConfigs.ServerConfig.Timeouts.Handle, "timeout"),
		WriteTimeout:      appConfigs.ServerConfig.Timeouts.Write,
		ReadTimeout:       appConfigs.ServerConfig.Timeouts.Read,
		ReadHeaderTimeout: appConfigs.ServerConfig.Timeouts.ReadHeader,
		IdleTimeout:       appConfigs.ServerConfig.Timeouts.Idle,
		Protocols:         &protocols,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", appConfigs.Addr).Msg("server started")
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
		}
		return
	case <-ctx.Done():
		log.Info().Msg("server shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed, closing the server")
		if err := server.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close server")
		}
		return
	}
	log.Info().Msg("server shutdown")
}
