package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/law23sum/trader-exchange/api/routes"
	"github.com/law23sum/trader-exchange/internal/accounts"
	"github.com/law23sum/trader-exchange/internal/auth"
	"github.com/law23sum/trader-exchange/internal/catalog"
	"github.com/law23sum/trader-exchange/internal/conversations"
	"github.com/law23sum/trader-exchange/internal/favorites"
	"github.com/law23sum/trader-exchange/internal/listings"
	"github.com/law23sum/trader-exchange/internal/orders"
	"github.com/law23sum/trader-exchange/internal/providers"
	"github.com/law23sum/trader-exchange/internal/reviews"
	"github.com/law23sum/trader-exchange/pkg/auth/session"
	"github.com/law23sum/trader-exchange/pkg/config"
	"github.com/law23sum/trader-exchange/pkg/db"
	"github.com/law23sum/trader-exchange/pkg/logger"
	"github.com/law23sum/trader-exchange/pkg/metrics"
	"github.com/law23sum/trader-exchange/pkg/migrate"
	"github.com/law23sum/trader-exchange/pkg/outbox"
	"github.com/law23sum/trader-exchange/pkg/redis"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	gdb := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)
	accountsRepo := accounts.NewRepository(gdb)
	providersRepo := providers.NewRepository(gdb)
	directory := providers.NewDirectory(providersRepo)
	listingsRepo := listings.NewRepository(gdb)
	favoritesRepo := favorites.NewRepository(gdb)

	providerService, err := providers.NewService(providers.ServiceParams{
		Repo:         providersRepo,
		Accounts:     accountsRepo,
		Listings:     listingsRepo,
		Interactions: favoritesRepo,
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Logger:       logg,
	})
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Accounts:       accountsRepo,
		Providers:      providerService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	resolver, err := auth.NewResolver(cfg.JWT, sessionManager, accountsRepo)
	if err != nil {
		return err
	}

	listingService, err := listings.NewService(listingsRepo)
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(gdb))
	if err != nil {
		return err
	}

	favoritesService, err := favorites.NewService(favoritesRepo, directory)
	if err != nil {
		return err
	}

	conversationService, err := conversations.NewService(conversations.ServiceParams{
		Repo:         conversations.NewRepository(gdb),
		Tx:           dbClient,
		Providers:    directory,
		Traders:      accountsRepo,
		Interactions: favoritesRepo,
		Logger:       logg,
	})
	if err != nil {
		return err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:         orders.NewRepository(gdb),
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Providers:    directory,
		Listings:     listingsRepo,
		Interactions: favoritesRepo,
		Metrics:      orderMetrics,
		Logger:       logg,
	})
	if err != nil {
		return err
	}

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:      reviews.NewRepository(gdb),
		Tx:        dbClient,
		Providers: directory,
		Outbox:    outboxSvc,
		Metrics:   orderMetrics,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Params{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Resolver:      resolver,
		HTTPMetrics:   httpMetrics,
		Gatherer:      registry,
		Auth:          authService,
		Accounts:      accountsRepo,
		DeadLetters:   outbox.NewDLQRepository(gdb),
		Providers:     providerService,
		Listings:      listingService,
		Catalog:       catalogService,
		Conversations: conversationService,
		Favorites:     favoritesService,
		Orders:        orderService,
		Reviews:       reviewService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
