package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/config"
	"github.com/xavierca1/lead-marketplace/internal/entity"
	"github.com/xavierca1/lead-marketplace/internal/infra/database"
	"github.com/xavierca1/lead-marketplace/internal/infra/http/handlers"
	"github.com/xavierca1/lead-marketplace/internal/infra/integration/classifier"
	"github.com/xavierca1/lead-marketplace/internal/infra/logger"
	"github.com/xavierca1/lead-marketplace/internal/infra/mail"
	"github.com/xavierca1/lead-marketplace/internal/infra/memory"
	"github.com/xavierca1/lead-marketplace/internal/infra/queue"
	"github.com/xavierca1/lead-marketplace/internal/infra/ratelimit"
	"github.com/xavierca1/lead-marketplace/internal/notify"
	"github.com/xavierca1/lead-marketplace/internal/usecase"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
)

type stores struct {
	leads         entity.LeadRepository
	purchases     entity.PurchaseRepository
	notifications entity.NotificationRepository
	users         entity.UserDirectory
	uow           entity.UnitOfWork
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	var db *sql.DB
	var st stores
	if cfg.DatabaseURL != "" {
		db, err = database.NewDBConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := database.Migrate(db, log.Named("migrate")); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		st = stores{
			leads:         database.NewLeadRepository(db),
			purchases:     database.NewPurchaseRepository(db),
			notifications: database.NewNotificationRepository(db),
			users:         database.NewUserRepository(db),
			uow:           database.NewUnitOfWork(db),
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		users, err := memory.ParseUsers(cfg.MemoryUsers)
		if err != nil {
			log.Fatal("invalid MEMORY_USERS", zap.Error(err))
		}
		if len(users) == 0 {
			log.Warn("MEMORY_USERS is empty, lead notifications have no recipients")
		}
		st = stores{
			leads:         memory.NewLeadStore(),
			purchases:     memory.NewPurchaseStore(),
			notifications: memory.NewNotificationStore(),
			users:         memory.NewDirectory(users...),
			uow:           memory.NewUnitOfWork(log),
		}
	}

	// 2. Notification channels
	var (
		rabbitConn   *amqp.Connection
		emailChannel notify.Channel
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitMQ.Close()
		rabbitConn = rabbitMQ.Conn
		emailChannel = queue.NewEmailProducer(rabbitMQ.Ch)
	} else if cfg.MailHost != "" {
		emailChannel = mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
	} else {
		log.Warn("neither RABBITMQ_URL nor MAIL_HOST set, email notifications disabled")
	}

	fanout := notify.NewFanout(st.users, notify.Options{
		Email:       emailChannel,
		InApp:       notify.NewInAppChannel(st.notifications),
		Concurrency: cfg.FanoutConcurrency,
		Timeout:     cfg.FanoutTimeout,
		BaseURL:     cfg.PublicBaseURL,
	}, log)

	// 3. Rate limiting
	var (
		rdb     *redis.Client
		limiter ratelimit.Limiter
	)
	if cfg.RedisURL != "" {
		rdb, err = ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.IntakeRateLimit, time.Minute)
	} else {
		mem := ratelimit.NewMemoryLimiter(cfg.IntakeRateLimit, time.Minute)
		go mem.Run(ctx)
		limiter = mem
	}

	// 4. Use cases
	analyzer := classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierAPIKey, cfg.ClassifierModel, cfg.AnalysisTimeout, log)
	createLeadUC := usecase.NewCreateLeadUseCase(analyzer, st.leads, fanout, cfg.AnalysisTimeout, log)
	purchaseUC := usecase.NewPurchaseLeadUseCase(st.leads, st.purchases, st.uow, fanout, log)
	marketplace := usecase.NewMarketplaceService(st.leads, st.purchases)
	inbox := usecase.NewNotificationInbox(st.notifications)

	// 5. HTTP
	router := handlers.NewRouter(handlers.RouterConfig{
		Leads:             handlers.NewLeadHandler(createLeadUC, limiter, log),
		Marketplace:       handlers.NewMarketplaceHandler(marketplace, purchaseUC, log),
		Notifications:     handlers.NewNotificationHandler(inbox, log),
		Health:            handlers.NewHealthHandler(db, rabbitConn, rdb, version),
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Logger:            log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	if err := fanout.Shutdown(shutdownCtx); err != nil {
		log.Warn("notifications still in flight at shutdown", zap.Error(err))
	}
}
