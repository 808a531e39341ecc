package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-backend/internal/config"
	"github.com/iliyamo/shop-backend/internal/database"
	"github.com/iliyamo/shop-backend/internal/handler"
	"github.com/iliyamo/shop-backend/internal/logging"
	"github.com/iliyamo/shop-backend/internal/middleware"
	"github.com/iliyamo/shop-backend/internal/queue"
	"github.com/iliyamo/shop-backend/internal/repository"
	"github.com/iliyamo/shop-backend/internal/router"
	"github.com/iliyamo/shop-backend/internal/service"
	"github.com/iliyamo/shop-backend/internal/storage"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("migrate schema")
		}
	}

	// Redis is optional: without it the limiter runs in memory and the
	// catalog is not cached.
	var rdb *redis.Client
	if c, err := config.NewRedisClient(config.LoadRedisConfig()); err != nil {
		log.Warn().Err(err).Msg("redis unavailable; cache and shared rate limit disabled")
	} else {
		rdb = c
		defer rdb.Close()
	}

	events, err := queue.NewPublisher(config.LoadEventsConfig(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("configure events")
	}
	defer events.Close()

	cacheCfg := config.LoadCacheConfig()
	var purger service.CachePurger
	if rdb != nil && cacheCfg.Enabled {
		purger = middleware.RedisPurger{RDB: rdb, Prefix: cacheCfg.Prefix}
	}

	var images service.ImageStore
	if ls, err := storage.NewLocalStore(cfg.MediaDir, cfg.MediaURL, cfg.MediaMaxBytes); err != nil {
		log.Warn().Err(err).Str("dir", cfg.MediaDir).Msg("media storage unavailable; image uploads disabled")
	} else {
		images = ls
	}

	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	carts := repository.NewCartRepo(db)
	orders := repository.NewOrderRepo(db)
	tokens := repository.NewTokenRepo(db)

	authSvc := service.NewAuthService(users, tokens, service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, log)
	userSvc := service.NewUserService(users, tokens, purger, cfg.BcryptCost, log)
	catalogSvc := service.NewCatalogService(products, users, images, purger, log)
	reviewSvc := service.NewReviewService(repository.NewReviewRepo(db), products, purger, log)
	orderSvc := service.NewOrderService(orders, products, carts, events, purger, cfg.PriceSource, log)

	seedAdmin(userSvc, cfg, log)

	e := echo.New()
	e.HideBanner = true
	router.UseGlobal(e, router.Globals{
		Log:       log,
		RDB:       rdb,
		RateLimit: config.LoadRateLimitConfig(),
		BodyLimit: strconv.FormatInt(cfg.MediaMaxBytes+1<<20, 10),
	}, cfg.MediaURL)
	router.RegisterRoutes(e, db, cfg.MediaDir, cfg.MediaURL)
	guard := router.Auth{Secret: cfg.JWTSecret, Accounts: users} // tokens are checked against the live account
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, userSvc, log), guard)
	router.RegisterCatalog(e, handler.NewProductHandler(catalogSvc, reviewSvc, log), guard,
		middleware.NewRedisCache(cacheCfg, rdb, log))
	shop := router.Shop{
		Cart:          handler.NewCartHandler(service.NewCartService(carts, products), log),
		Orders:        handler.NewOrderHandler(orderSvc, log),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(repository.NewNotificationRepo(db)), log),
		Shipping:      handler.NewShippingHandler(service.NewShippingService(repository.NewShippingRepo(db)), log),
		Chat:          handler.NewChatHandler(service.NewChatService(repository.NewChatRepo(db), users), userSvc, log),
	}
	router.RegisterCustomer(e, shop, guard)
	router.RegisterAdmin(e, handler.NewUserAdminHandler(userSvc, log), shop, guard)

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// seedAdmin creates the default admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD when both are set and the account does not exist yet.
func seedAdmin(users *service.UserService, cfg config.Config, log zerolog.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminFullName)
	if err != nil {
		log.Error().Err(err).Msg("seed admin")
		return
	}
	if created {
		log.Info().Str("email", cfg.AdminEmail).Msg("default admin created")
	}
}
