package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lob-api/api/swagger"
	"github.com/noah-isme/lob-api/internal/handler"
	"github.com/noah-isme/lob-api/internal/middleware"
	"github.com/noah-isme/lob-api/internal/repository"
	"github.com/noah-isme/lob-api/internal/service"
	"github.com/noah-isme/lob-api/pkg/cache"
	"github.com/noah-isme/lob-api/pkg/config"
	"github.com/noah-isme/lob-api/pkg/database"
	"github.com/noah-isme/lob-api/pkg/email"
	"github.com/noah-isme/lob-api/pkg/jobs"
	"github.com/noah-isme/lob-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lob-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lob-api/pkg/middleware/requestid"
	"github.com/noah-isme/lob-api/pkg/phone"
	"github.com/noah-isme/lob-api/pkg/push"
	"github.com/noah-isme/lob-api/pkg/sms"
	"github.com/noah-isme/lob-api/pkg/storage"
)

// @title LOB API
// @version 1.0.0
// @description Identity, account and profile API for line-of-business web apps
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Embedded {
		pg, err := database.StartEmbedded(&cfg.Database)
		if err != nil {
			logr.Fatal("failed to start embedded postgres", zap.Error(err))
		}
		defer func() {
			if err := pg.Stop(); err != nil {
				logr.Warn("failed to stop embedded postgres", zap.Error(err))
			}
		}()
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.Database.Driver, cfg.Database.MigrationsDir); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc, closeCache := newCache(cfg, metricsSvc, logr)
	defer closeCache()

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logr.Fatal("failed to init blob storage", zap.String("provider", cfg.Storage.Provider), zap.Error(err))
	}

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	credentials := repository.NewWebAuthnRepository(db)
	pushes := repository.NewPushSubscriptionRepository(db)
	payments := repository.NewPaymentRepository(db)

	notifications, err := newNotifications(cfg, pushes, metricsSvc, logr)
	if err != nil {
		logr.Fatal("failed to init notifications", zap.Error(err))
	}
	if cfg.Jobs.AsyncDelivery {
		notifications.StartAsync(ctx, jobs.QueueConfig{
			Workers:    cfg.Jobs.Workers,
			MaxRetries: cfg.Jobs.MaxRetries,
			RetryDelay: cfg.Jobs.RetryDelay,
		})
	}
	defer notifications.Stop()

	tokens := service.NewTokenService(service.TokenConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
	})
	userTokens := service.NewUserTokenService(cfg.Identity.TokenSecret, cfg.WebAuthn.RPDisplayName)
	webAuthn, err := service.NewWebAuthnService(cfg.WebAuthn, credentials, users, cacheSvc, logr)
	if err != nil {
		logr.Fatal("failed to init webauthn", zap.Error(err))
	}

	validate := validator.New()
	identitySvc := service.NewIdentityService(service.IdentityDeps{
		Users:         users,
		Sessions:      sessions,
		Tokens:        userTokens,
		JWT:           tokens,
		Notifications: notifications,
		WebAuthn:      webAuthn,
		Phones:        phone.NewNormalizer(cfg.Identity.DefaultRegion),
		Validator:     validate,
		Metrics:       metricsSvc,
		Logger:        logr,
	}, cfg.Identity)
	userSvc := service.NewUserService(service.UserDeps{
		Users:         users,
		Sessions:      sessions,
		Tokens:        userTokens,
		Notifications: notifications,
		Credentials:   webAuthn,
		Pushes:        pushes,
		Blobs:         blobs,
		Validator:     validate,
		Logger:        logr,
	}, service.UserServiceConfig{Identity: cfg.Identity, ProfileImagesDir: cfg.Storage.UserProfileImagesDir})
	attachmentSvc := service.NewAttachmentService(users, blobs, service.AttachmentConfig{
		ProfileImagesDir: cfg.Storage.UserProfileImagesDir,
		MaxUploadBytes:   cfg.Storage.MaxUploadBytes,
	}, logr)
	statisticsSvc := service.NewStatisticsService(cfg.Statistics, nil, cacheSvc, logr)
	paymentSvc := service.NewPaymentService(service.PaymentDeps{
		Repo:      payments,
		Blobs:     blobs,
		Signer:    storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL),
		Validator: validate,
		Logger:    logr,
	}, cfg.Payment, cfg.Storage.ReceiptsDir)

	r := gin.New()
	r.Use(middleware.Recovery(logr))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsOptions(cfg)))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedExtensions([]string{".png", ".pdf"})))
	r.Use(middleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))

	handler.Routes{
		Identity:   handler.NewIdentityHandler(identitySvc),
		User:       handler.NewUserHandler(userSvc),
		Attachment: handler.NewAttachmentHandler(attachmentSvc),
		Statistics: handler.NewStatisticsHandler(statisticsSvc, int(cfg.Statistics.CacheTTL/time.Second)),
		Payment:    handler.NewPaymentHandler(paymentSvc),
		Navigation: handler.NewNavigationHandler(service.NewNavigationService()),
		Metrics:    handler.NewMetricsHandler(metricsSvc, db),
		Audit:      handler.NewAuditHandler(users),
		Tokens:     tokens,
		AuditLog:   users,
	}.Register(r)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// newCache prefers Redis and falls back to the in-process store when Redis is disabled or unreachable.
func newCache(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err == nil {
			repo := repository.NewCacheRepository(client, logr)
			return service.NewCacheService(repo, metrics, time.Hour, logr), func() {
				if err := repo.Close(); err != nil {
					logr.Warn("failed to close redis", zap.Error(err))
				}
			}
		}
		logr.Warn("redis unavailable, using in-memory cache", zap.Error(err))
	}
	return service.NewCacheService(cache.NewMemoryStore(), metrics, time.Hour, logr), func() {}
}

func newNotifications(cfg *config.Config, subs *repository.PushSubscriptionRepository, metrics *service.MetricsService, logr *zap.Logger) (*service.NotificationService, error) {
	mailer, err := email.NewSender(cfg.Email)
	if err != nil {
		return nil, err
	}
	return service.NewNotificationService(service.NotificationConfig{
		AppName:   cfg.Email.FromName,
		WebAppURL: cfg.Identity.WebAppURL,
	}, mailer, sms.NewSender(cfg.SMS, logr), push.NewSender(cfg.Push), subs, metrics, logr), nil
}

func corsOptions(cfg *config.Config) corsmiddleware.Options {
	opts := corsmiddleware.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ExposedHeaders: []string{reqidmiddleware.Header, "Age", "App-Cache-Response", "Content-Disposition"},
	}
	if cfg.Env != config.EnvDevelopment {
		opts.PreflightMaxAge = 24 * time.Hour
	}
	return opts
}
