package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-keranjang/internal/app"
	"github.com/noah-isme/backend-keranjang/internal/auth"
	"github.com/noah-isme/backend-keranjang/internal/cart"
	"github.com/noah-isme/backend-keranjang/internal/catalog"
	"github.com/noah-isme/backend-keranjang/internal/common"
	"github.com/noah-isme/backend-keranjang/internal/config"
	"github.com/noah-isme/backend-keranjang/internal/delivery"
	"github.com/noah-isme/backend-keranjang/internal/freedelivery"
	"github.com/noah-isme/backend-keranjang/internal/health"
	httpmw "github.com/noah-isme/backend-keranjang/internal/http/middleware"
	"github.com/noah-isme/backend-keranjang/internal/identity"
	"github.com/noah-isme/backend-keranjang/internal/lock"
	"github.com/noah-isme/backend-keranjang/internal/migrate"
	"github.com/noah-isme/backend-keranjang/internal/money"
	"github.com/noah-isme/backend-keranjang/internal/obs"
	"github.com/noah-isme/backend-keranjang/internal/order"
	"github.com/noah-isme/backend-keranjang/internal/ratelimit"
	"github.com/noah-isme/backend-keranjang/internal/security"
	"github.com/noah-isme/backend-keranjang/internal/variant"
	"github.com/noah-isme/backend-keranjang/internal/voucher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "keranjang")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := app.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisClient, err := app.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	if envBool("MIGRATE_ON_START", false) {
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	currency := money.CurrencyFromCode(cfg.CurrencyCode)
	validate := validator.New()

	catalogRepo := catalog.NewPostgresRepository(pool)
	deliveries := delivery.NewPostgresRepository(pool)
	cartStore := cart.NewPostgresStore(pool, deliveries)
	voucherStore := &voucher.PostgresStore{Pool: pool}

	resolver := identity.Resolver{
		Sessions: identity.RedisSessionStore{R: redisClient, TTL: cfg.SessionTTL},
	}

	manager := &cart.Manager{
		Store:      cartStore,
		Catalog:    catalogRepo,
		Deliveries: deliveries,
		Identity:   resolver,
		Limits:     freedelivery.NewConstantResolver(cfg.FreeDeliveryLimit, currency),
		Currency:   currency,
		Log:        logger,
	}
	voucherSvc := &voucher.Service{
		Store:     voucherStore,
		Carts:     manager,
		Describer: voucher.Describer{Catalog: catalogRepo, Currency: currency},
		Locks:     &lock.Locker{R: redisClient},
		Log:       logger,
	}
	manager.Sales = voucherSvc

	cartHandler := &cart.Handler{Manager: manager}
	voucherHandler := &voucher.Handler{Svc: voucherSvc, Validate: validate}
	variantHandler := &variant.Handler{
		Svc: &variant.Service{Catalog: catalogRepo, Currency: currency},
		Log: logger,
	}
	checkoutHandler := &order.Handler{
		Manager:  order.StubManager{Log: logger},
		Carts:    manager,
		Validate: validate,
		Log:      logger,
	}

	verifier, err := auth.NewVerifier(auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   envOrDefault("JWT_ISSUER", ""),
		Audience: envOrDefault("JWT_AUDIENCE", ""),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise token verifier")
	}
	authMW := auth.Middleware{Verifier: verifier}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	voucherRate := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:voucher:"},
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: time.Minute,
			Max:    envInt("VOUCHER_RATE_LIMIT_PER_MINUTE", 30),
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter degraded")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httpmw.SessionHeader, "Idempotency-Key"},
		ExposedHeaders:   []string{httpmw.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker: readinessChecker{db: pool, redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(httpmw.CartSession)
		v.Use(authMW.Authenticate)

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Get("/count", cartHandler.Count)
			c.Get("/delivery-payment", cartHandler.DeliveryPaymentOptions)
			c.Post("/variant-status", variantHandler.CheckStatus)
			c.With(voucherRate.Middleware).Get("/voucher/{code}", voucherHandler.Check)

			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/buy", cartHandler.Buy)
				g.Post("/delivery-payment", cartHandler.SetDeliveryPayment)
				g.Patch("/items/{id}", cartHandler.UpdateItem)
				g.Delete("/items/{id}", cartHandler.DeleteItem)
				g.Delete("/sales/{id}", cartHandler.DeleteSale)
				g.Delete("/", cartHandler.Remove)
				g.With(voucherRate.Middleware).Post("/voucher", voucherHandler.Use)
			})
		})

		v.With(idem.Middleware).Post("/checkout", checkoutHandler.Checkout)

		v.Route("/admin/vouchers", func(admin chi.Router) {
			admin.Use(authMW.RequireAuth)
			admin.Get("/", voucherHandler.Feed)
			admin.Get("/random-code", voucherHandler.RandomCode)
			admin.Post("/", voucherHandler.Create)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-shutdownCtx.Done()
	health.SetReady(false)
	logger.Info().Msg("shutting down")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
