package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/psds-microservice/backoffice-service/internal/config"
	"github.com/psds-microservice/backoffice-service/internal/database"
	"github.com/psds-microservice/backoffice-service/internal/handler"
	"github.com/psds-microservice/backoffice-service/internal/kafka"
	"github.com/psds-microservice/backoffice-service/internal/metrics"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"github.com/psds-microservice/backoffice-service/internal/router"
	"github.com/psds-microservice/backoffice-service/internal/scheduler"
	"github.com/psds-microservice/backoffice-service/internal/searchindex"
	"github.com/psds-microservice/backoffice-service/internal/service"
	"github.com/psds-microservice/backoffice-service/internal/session"
	"go.uber.org/zap"
)

// API приложение: HTTP сервер и фоновые задачи (режим api).
type API struct {
	cfg       *config.Config
	log       *zap.Logger
	httpSrv   *http.Server
	producer  *kafka.Producer
	scheduler *scheduler.Scheduler
	closeDB   func() error
}

// NewAPI создаёт приложение для режима api: миграции, БД, сервисы, роутер.
func NewAPI(cfg *config.Config, log *zap.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := database.MigrateUp(cfg.DatabaseURL(), log); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN(), log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	tokens, err := session.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	admins := repository.NewAdminRepository(db)
	clients := repository.NewClientRepository(db)
	tickets := repository.NewTicketRepository(db)
	hasher := service.NewPasswordHasher(cfg.BcryptCost)

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket, log)
	search := searchindex.NewClient(cfg.SearchServiceURL, log)

	creds := service.NewCredentialService(admins, clients, hasher, cfg.AllowAdminSelfRegister, log)
	auth := service.NewAuthenticator(admins, clients, hasher, tokens)
	login := service.NewLoginResolver(auth, cfg.AdminHome, cfg.ClientHome, log)
	ticketSvc := service.NewTicketService(tickets, clients, admins, log,
		service.WithReopenClosed(cfg.ClosedReplyPolicy == config.ClosedReplyReopen),
		service.WithNotifier(newTicketEvents(producer, search, log)),
	)

	sched := scheduler.New(log)
	if err := sched.AddAutoClose(scheduler.AutoCloseSpec, ticketSvc, cfg.AutoCloseAfter); err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	h := router.New(router.Handlers{
		Health: handler.NewHealthHandler(sqlDB),
		Auth:   handler.NewAuthHandler(login, creds, tokens.TTL(), cfg.SecureCookies(), log),
		Admin:  handler.NewAdminHandler(creds, log),
		Client: handler.NewClientHandler(creds, log),
		Ticket: handler.NewTicketHandler(ticketSvc, log),
	}, router.Options{
		Verifier:    tokens,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:       cfg,
		log:       log,
		httpSrv:   httpSrv,
		producer:  producer,
		scheduler: sched,
		closeDB:   sqlDB.Close,
	}, nil
}

// Run запускает HTTP сервер и планировщик, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info("HTTP server listening",
		zap.String("addr", a.httpSrv.Addr),
		zap.String("swagger", base+"/swagger"),
		zap.String("health", base+"/health"),
		zap.String("metrics", base+"/metrics"),
		zap.String("closed_reply_policy", a.cfg.ClosedReplyPolicy),
		zap.Bool("kafka", a.producer.Enabled()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	a.scheduler.Start()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	a.scheduler.Stop(shutdownCtx)
	if err := a.producer.Close(); err != nil {
		a.log.Warn("kafka close", zap.Error(err))
	}
	if err := a.closeDB(); err != nil {
		a.log.Warn("database close", zap.Error(err))
	}
	a.log.Info("shutdown complete")
	return runErr
}
