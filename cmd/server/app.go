package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"farmvet-auth.backend/internal/config"
	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/internal/infrastructure/jobs"
	"farmvet-auth.backend/internal/infrastructure/notifications"
	"farmvet-auth.backend/internal/infrastructure/ratelimit"
	"farmvet-auth.backend/internal/infrastructure/repositories"
	"farmvet-auth.backend/internal/infrastructure/storage"
	"farmvet-auth.backend/internal/interfaces/http/handlers"
	"farmvet-auth.backend/internal/interfaces/http/middleware"
	"farmvet-auth.backend/internal/usecases"
	"farmvet-auth.backend/pkg/jwt"
	"farmvet-auth.backend/pkg/logger"
	"farmvet-auth.backend/pkg/metrics"
	"farmvet-auth.backend/pkg/redis"
)

const (
	memoryQueueSize     = 1024
	rateLimiterSweepInt = 5 * time.Minute
)

// app holds the router and the background work started next to it
type app struct {
	router      *gin.Engine
	metrics     *metrics.Metrics
	cleanup     *jobs.TokenCleanupJob
	worker      *jobs.NotificationWorker
	httpLimiter *middleware.RateLimiter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newApp(cfg *config.Config, db *gorm.DB, rdb *goredis.Client, sessions *redis.SessionStore) (*app, error) {
	ctx := context.Background()
	m := metrics.New()

	accountRepo := repositories.NewAccountRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	loginOTPRepo := repositories.NewLoginOTPRepository(db)
	uow := repositories.NewUnitOfWork(db)

	queue, err := newNotificationQueue(cfg.Notification, rdb)
	if err != nil {
		return nil, err
	}
	sender, err := newNotificationSender(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.SMS.Enabled && !cfg.SMS.EmailFallback {
		logger.Warn(ctx, "SMS and its email fallback are both disabled; phone codes will not be delivered")
	}

	policy := cfg.Token.Policy()
	tokens := usecases.NewTokenService(tokenRepo, loginOTPRepo, policy, m)
	dispatcher := notifications.NewDispatcher(queue, cfg.Notification.EnqueueTimeout, m)
	notifier := usecases.NewNotifier(dispatcher, usecases.SMSPolicy{
		Enabled:       cfg.SMS.Enabled,
		EmailFallback: cfg.SMS.EmailFallback,
	}, policy)
	otpLimiter, err := newOTPLimiter(cfg.LoginOTP, rdb)
	if err != nil {
		return nil, err
	}
	docs := storage.NewFileStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	authUsecase := usecases.NewAuthUsecase(accountRepo, tokens, notifier, otpLimiter, jwtService, cfg.LoginOTP.Policy(), m).
		WithSessionStore(sessions)
	registrationUsecase := usecases.NewRegistrationUsecase(accountRepo, uow, tokens, notifier, docs)
	verificationUsecase := usecases.NewVerificationUsecase(accountRepo, uow, tokens, notifier, otpLimiter)
	resetUsecase := usecases.NewPasswordResetUsecase(accountRepo, uow, tokens, notifier, otpLimiter)
	adminUsecase := usecases.NewAdminUsecase(accountRepo)

	a := &app{
		metrics:     m,
		cleanup:     jobs.NewTokenCleanupJob(tokenRepo, loginOTPRepo, cfg.Cleanup.Interval, cfg.Cleanup.Retention),
		worker:      jobs.NewNotificationWorker(queue, sender, cfg.Notification.Workers, cfg.Notification.SendTimeout, m),
		httpLimiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(m))
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))

	registerHealthRoute(r)
	registerMetricsRoute(r, m)
	registerAPIV1Routes(r, routeDeps{
		authHandler:         handlers.NewAuthHandler(authUsecase),
		registrationHandler: handlers.NewRegistrationHandler(registrationUsecase),
		verificationHandler: handlers.NewVerificationHandler(verificationUsecase),
		resetHandler:        handlers.NewPasswordResetHandler(resetUsecase),
		adminHandler:        handlers.NewAdminHandler(adminUsecase),
		authMiddleware:      middleware.AuthMiddleware(jwtService, sessions),
		rateLimit:           middleware.RateLimitMiddleware(a.httpLimiter),
	})
	a.router = r
	return a, nil
}

// start runs the background jobs until ctx is cancelled or stop is called
func (a *app) start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		a.cleanup.Start(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.worker.Start(ctx)
	}()
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(rateLimiterSweepInt)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.httpLimiter.Cleanup()
			}
		}
	}()
}

func (a *app) stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
}

func newOTPLimiter(cfg config.LoginOTPConfig, rdb *goredis.Client) (usecases.OTPRateLimiter, error) {
	switch cfg.Limiter {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("otp limiter %q needs a redis client", cfg.Limiter)
		}
		return ratelimit.NewRedisLimiter(rdb, cfg.SendWindow, cfg.SendLimit), nil
	case "memory":
		return ratelimit.NewMemoryLimiter(cfg.SendWindow, cfg.SendLimit), nil
	default:
		return nil, fmt.Errorf("unknown otp limiter %q", cfg.Limiter)
	}
}

func newNotificationQueue(cfg config.NotificationConfig, rdb *goredis.Client) (notifications.Queue, error) {
	switch cfg.Queue {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("notification queue %q needs a redis client", cfg.Queue)
		}
		return notifications.NewRedisQueue(rdb, cfg.QueueKey), nil
	case "memory":
		return notifications.NewMemoryQueue(memoryQueueSize), nil
	default:
		return nil, fmt.Errorf("unknown notification queue %q", cfg.Queue)
	}
}

func newNotificationSender(cfg *config.Config) (notifications.Router, error) {
	ctx := context.Background()
	router := notifications.Router{
		entities.ChannelEmail: notifications.LogSender{},
		entities.ChannelSMS:   notifications.LogSender{},
	}

	if cfg.SMTP.Host != "" {
		smtpSender, err := notifications.NewSMTPSender(notifications.SMTPSettings{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.User,
			Password: cfg.SMTP.Pass,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
			UseTLS:   cfg.SMTP.UseTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("smtp sender: %w", err)
		}
		router[entities.ChannelEmail] = smtpSender
	} else {
		logger.Warn(ctx, "SMTP_HOST not set; emails will be logged instead of sent")
	}

	if cfg.SMS.Enabled {
		if !cfg.Twilio.Configured() {
			return nil, fmt.Errorf("SMS_ENABLED requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER")
		}
		router[entities.ChannelSMS] = notifications.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.Notification.SendTimeout)
		logger.Info(ctx, "SMS delivery enabled", zap.String("provider", "twilio"))
	}
	return router, nil
}
