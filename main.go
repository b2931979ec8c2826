package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"analytics-pulse/internal/analytics"
	"analytics-pulse/internal/analytics/mixpanel"
	eventstore "analytics-pulse/internal/analytics/postgres"
	"analytics-pulse/internal/audit"
	"analytics-pulse/internal/auth"
	"analytics-pulse/internal/config"
	"analytics-pulse/internal/observability/metrics"
	"analytics-pulse/internal/report/application"
	reporthttp "analytics-pulse/internal/report/interfaces/http"
	"analytics-pulse/internal/scheduler"
	"analytics-pulse/internal/slack"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var db *sql.DB
	var source analytics.Source
	if cfg.UsesPostgres() {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		source = eventstore.NewEventStore(db)
		logger.Printf("analytics source: postgres event store")
	} else {
		client, err := mixpanel.NewClient(mixpanel.Config{
			Username:  cfg.Mixpanel.Username,
			Secret:    cfg.Mixpanel.Secret,
			ProjectID: cfg.Mixpanel.ProjectID,
			Region:    cfg.Mixpanel.Region,
		})
		if err != nil {
			logger.Fatalf("mixpanel client error: %v", err)
		}
		source = client
		logger.Printf("analytics source: mixpanel (%s)", cfg.Mixpanel.Region)
	}

	metrics.Init(db, logger)

	generator, err := application.NewGenerator(source,
		application.WithMetricSet(cfg.MetricSet()),
		application.WithDashboardURL(cfg.DashboardURL),
		application.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("generator error: %v", err)
	}
	renderer := slack.NewRenderer(cfg.ProductName)

	var notifier *slack.Client
	if cfg.SlackWebhookURL != "" {
		notifier, err = slack.NewClient(cfg.SlackWebhookURL)
		if err != nil {
			logger.Fatalf("slack client error: %v", err)
		}
	} else {
		logger.Printf("slack webhook not configured, reports will not be delivered")
	}

	var reportOpts []reporthttp.ReportOption
	if db != nil {
		reportOpts = append(reportOpts, reporthttp.WithAuditLogger(audit.NewRepository(db)))
	}
	reportHandler, err := reporthttp.NewReportHandler(generator, renderer, notifierOrNil(notifier), logger, reportOpts...)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}
	slashHandler, err := reporthttp.NewSlashHandler(generator, renderer, notifierOrNil(notifier), logger)
	if err != nil {
		logger.Fatalf("slash handler error: %v", err)
	}

	if notifier != nil {
		reportScheduler, err := scheduler.NewScheduler(generator, renderer, notifier, cfg.ScheduleEntries(), logger)
		if err != nil {
			logger.Fatalf("scheduler error: %v", err)
		}
		go reportScheduler.Start(context.Background())
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/slack/command"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/reports", reportHandler)
	mux.Handle("/slack/command", slashHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

// notifierOrNil keeps a nil *slack.Client from becoming a non-nil interface.
func notifierOrNil(client *slack.Client) reporthttp.Notifier {
	if client == nil {
		return nil
	}
	return client
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
