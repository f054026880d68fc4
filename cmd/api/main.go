package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"member-auth/internal/config"
	"member-auth/internal/db"
	"member-auth/internal/email"
	apihttp "member-auth/internal/http"
	"member-auth/internal/repository"
	"member-auth/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if cfg.AutoMigrate {
		runMigrations(logger, cfg.DatabaseURL)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	pendingRepo := repository.NewPgPendingRegistrationRepository(pool)
	memberRepo := repository.NewPgMemberRepository(pool)
	challengeRepo := repository.NewPgLoginChallengeRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		registry      service.RevocationRegistry
		sendLimiter   service.AttemptLimiter
		verifyLimiter service.AttemptLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			registry = service.NewRedisRevocationRegistry(redisClient)
			sendLimiter = service.NewRedisAttemptLimiter(redisClient, "auth:send:", cfg.SendWindow, cfg.SendMaxAttempts)
			verifyLimiter = service.NewRedisAttemptLimiter(redisClient, "auth:verify:", cfg.VerifyWindow, cfg.VerifyMaxAttempts)
		}
		cancel()
	}
	if registry == nil {
		pgRegistry := service.NewPgRevocationRegistry(repository.NewPgRevokedTokenRepository(pool))
		go purgeRevokedTokens(ctx, logger, pgRegistry, cfg.RevocationPurge)
		registry = pgRegistry
	}
	if sendLimiter == nil {
		sendLimiter = service.NewMemoryAttemptLimiter(cfg.SendWindow, cfg.SendMaxAttempts)
		verifyLimiter = service.NewMemoryAttemptLimiter(cfg.VerifyWindow, cfg.VerifyMaxAttempts)
	}

	tokenSvc, err := service.NewTokenService(service.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	}, registry)
	if err != nil {
		logger.Fatal("token service", zap.Error(err))
	}

	authSvc := service.NewAuthService(logger, service.AuthStores{
		Pending:    pendingRepo,
		Members:    memberRepo,
		Challenges: challengeRepo,
	}, service.NewBcryptHasher(cfg.OTPHashCost), tokenSvc, emailSender, service.AuthConfig{
		RegistrationOTPTTL:  cfg.RegistrationOTPTTL,
		LoginOTPTTL:         cfg.LoginOTPTTL,
		NotifyTimeout:       cfg.NotifyTimeout,
		MemberIDMaxAttempts: cfg.MemberIDMaxTries,
		Revocation: service.RevocationPolicy{
			MatchTokenExpiry: cfg.RevocationTTLMode == config.RevocationModeTokenExpiry,
			Fixed:            cfg.RevocationTTL,
			Grace:            cfg.RevocationTTLGrace,
		},
		SendLimiter:   sendLimiter,
		VerifyLimiter: verifyLimiter,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	service.RegisterMetrics(reg)

	authHandler := apihttp.NewAuthHandler(logger, authSvc)
	memberHandler := apihttp.NewMemberHandler(logger, authSvc)
	router := apihttp.NewRouter(logger, authHandler, memberHandler, tokenSvc, reg)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("revocation_mode", cfg.RevocationTTLMode),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runMigrations(logger *zap.Logger, databaseURL string) {
	migrator, err := db.NewMigrator(databaseURL)
	if err != nil {
		logger.Fatal("migrator init", zap.Error(err))
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Warn("migrator close", zap.Error(err))
		}
	}()
	if err := migrator.Up(); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}
	version, dirty, err := migrator.Version()
	if err != nil {
		logger.Warn("migration version", zap.Error(err))
		return
	}
	logger.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
}

// purgeRevokedTokens libera filas vencidas de revoked_tokens; la validez no depende de esto.
func purgeRevokedTokens(ctx context.Context, logger *zap.Logger, registry *service.PgRevocationRegistry, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := registry.Purge(ctx)
			if err != nil {
				logger.Warn("purge revoked tokens failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged revoked tokens", zap.Int64("rows", n))
			}
		}
	}
}
