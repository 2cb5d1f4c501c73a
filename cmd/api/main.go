package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barber-booking/internal/auth"
	"barber-booking/internal/availability"
	"barber-booking/internal/blocking"
	"barber-booking/internal/booking"
	"barber-booking/internal/cache"
	"barber-booking/internal/catalog"
	"barber-booking/internal/clients"
	"barber-booking/internal/config"
	"barber-booking/internal/db"
	"barber-booking/internal/handlers"
	"barber-booking/internal/logging"
	"barber-booking/internal/middleware"
	"barber-booking/internal/notifications"
	"barber-booking/internal/quota"
	"barber-booking/internal/slotlock"
	"barber-booking/internal/staff"
	"barber-booking/internal/sweeper"
	"barber-booking/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, logCloser := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logCloser.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	// Sessions and rate limit counters need a real store. Without Redis they
	// live in process memory, which only holds for a single instance.
	var shared cache.Cache
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisCache.Close()
		logger.Info("redis connected")
		shared = redisCache
	} else {
		memory := cache.NewMemory()
		go purgeLoop(runCtx, memory, time.Minute)
		logger.Warn("redis not configured, using in-process cache")
		shared = memory
	}

	var catalogCache cache.Cache = shared
	if cfg.CacheTTL() <= 0 {
		catalogCache = cache.NewNoop()
	}

	var mailer booking.Mailer = notifications.NewLogMailer(logger)
	if brevo := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.ShopName, cfg.BrevoSandbox); brevo != nil {
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
		mailer = brevo
	} else {
		logger.Info("brevo mailer disabled, emails are logged")
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "barber-booking",
		}
	}

	loc := cfg.Timezone
	catalogSvc := catalog.NewService(catalog.NewRepository(cols.Services), catalogCache, cfg.CacheTTL(), loc, logger)
	bookingRepo := booking.NewRepository(cols.Bookings)
	locks := slotlock.NewManager(slotlock.NewRepository(cols.SlotLocks), cfg.LockTTL, logger)
	blocks := blocking.NewRegistry(blocking.NewRepository(cols.BlockedDates), bookingRepo, loc, logger)
	clientRegistry := clients.NewRegistry(clients.NewRepository(cols.Clients, cols.BlockedPhones), loc, logger)
	quotaGuard := quota.NewGuard(quota.NewRepository(cols.EmailUsage), quota.Limits{
		DailyPerRecipient: cfg.EmailDailyLimit,
		PerBooking:        cfg.EmailPerBookingLimit,
		MinInterval:       cfg.EmailMinInterval,
	}, loc, logger)
	calc := availability.NewCalculator(catalogSvc, bookingRepo, locks, blocks, loc, logger)

	lifecycle := booking.NewLifecycle(booking.Deps{
		Repo:     bookingRepo,
		Catalog:  catalogSvc,
		Slots:    calc,
		Locks:    locks,
		Sessions: booking.NewSessions(shared, cfg.SessionTTL),
		Clients:  clientRegistry,
		Quota:    quotaGuard,
		Mailer:   mailer,
	}, loc, logger)

	sweep := sweeper.New(sweeper.Deps{
		Bookings: bookingRepo,
		Expirer:  lifecycle,
		Clients:  clientRegistry,
		Blocks:   blocks,
		Locks:    locks,
	}, sweeper.Options{
		Interval:          cfg.SweepInterval,
		UnverifiedTTL:     cfg.UnverifiedTTL,
		DeclinedRetention: cfg.DeclinedRetention,
	}, loc, logger)
	sweep.Start(runCtx)

	window := cfg.RateLimitWindow()
	server := &handlers.Server{
		Cfg:            cfg,
		Val:            validation.New(),
		Log:            logger,
		Auth:           jwtManager,
		Catalog:        catalogSvc,
		Availability:   calc,
		Bookings:       lifecycle,
		Blocks:         blocks,
		Clients:        clientRegistry,
		Sweeper:        sweep,
		Staff:          staff.NewService(staff.NewRepository(cols.Users), staff.Fallback{Username: cfg.AdminUser, Password: cfg.AdminPassword, SetupKey: cfg.AdminSetupKey}, loc, logger),
		BookingLimiter: middleware.NewRateLimiter("bookings", cfg.RateLimitBookings, window, shared, logger),
		VerifyLimiter:  middleware.NewRateLimiter("verify", cfg.RateLimitVerify, window, shared, logger),
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	r.Route("/api", server.Routes)
	r.Route("/api/v1", server.Routes)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopRun()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}

func purgeLoop(ctx context.Context, m *cache.MemoryCache, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Purge()
		}
	}
}
