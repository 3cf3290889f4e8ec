package application

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"topar_market/internal/config"
	"topar_market/internal/domain/service/account"
	"topar_market/internal/domain/service/deal"
	"topar_market/internal/domain/service/listing"
	"topar_market/internal/domain/service/message"
	"topar_market/internal/domain/service/pricing"
	"topar_market/internal/infrastructure/auth"
	"topar_market/internal/infrastructure/cache"
	"topar_market/internal/infrastructure/persistence"
	"topar_market/internal/server"
	"topar_market/internal/worker"
	"topar_market/pkg/application/connectors"
	"topar_market/pkg/application/modules"
	"topar_market/pkg/logx"
	"topar_market/pkg/middlewarex"
)

const logFieldMaxLen = 4096

// Run собирает приложение и держит его до отмены контекста: HTTP API,
// пробы, метрики, asynq-воркер и планировщик задач.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)
	defer pg.Close(ctx)

	rd := &connectors.Redis{
		Address:            cfg.Redis.Address,
		Username:           cfg.Redis.Username,
		Password:           cfg.Redis.Password,
		DatabaseNumber:     cfg.Redis.DatabaseNumber,
		PoolSize:           cfg.Redis.PoolSize,
		MinIdleConnections: cfg.Redis.MinIdleConnections,
		MaxIdleConnections: cfg.Redis.MaxIdleConnections,
	}
	redisClient := rd.Client(ctx)
	defer rd.Close(ctx)

	userRepo := persistence.NewUserRepository(db)
	listingRepo := persistence.NewListingRepository(db)
	dealRepo := persistence.NewDealRepository(db)
	favoriteRepo := persistence.NewFavoriteRepository(db)
	messageRepo := persistence.NewMessageRepository(db)

	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	feedCache := cache.NewFeedCache(redisClient)

	accountService := account.NewService(userRepo, listingRepo, tokenIssuer)
	listingService := listing.NewService(listingRepo, favoriteRepo, accountService, feedCache)
	dealService := deal.NewService(dealRepo, listingRepo, accountService)
	messageService := message.NewService(messageRepo, accountService)
	pricingService := pricing.NewService()

	apiServer := server.NewServer(
		server.NewAccountServer(accountService),
		server.NewListingServer(listingService),
		server.NewDealServer(dealService),
		server.NewMessageServer(messageService),
		server.NewPricingServer(pricingService),
	)

	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.Recovery,
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.RequestLogging(masker, logFieldMaxLen),
		middlewarex.ResponseLogging(masker, logFieldMaxLen),
	)
	apiServer.RegisterRoutes(router, tokenIssuer)

	g, ctx := errgroup.WithContext(ctx)

	modules.HTTPServer{
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}.Run(ctx, g, &http.Server{
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	})

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.HTTP.ProbeListenAddress,
	}.Run(ctx, g)

	modules.MetricServer{
		ListenAddress: cfg.HTTP.MetricsListenAddress,
	}.Run(ctx, g)

	modules.AsynqServer{
		RedisUsername: cfg.Redis.Username,
		RedisPassword: cfg.Redis.Password,
		RedisAddress:  cfg.Redis.Address,
		RedisDB:       cfg.Redis.DatabaseNumber,
	}.Run(ctx, g,
		modules.AsynqQueues{"default": 1},
		modules.AsynqHandler{
			Pattern: worker.TaskListingExpire,
			Handle:  worker.NewListingExpirer(listingService).Handle,
		},
	)

	modules.AsynqScheduler{
		RedisUsername: cfg.Redis.Username,
		RedisPassword: cfg.Redis.Password,
		RedisAddress:  cfg.Redis.Address,
		RedisDB:       cfg.Redis.DatabaseNumber,
	}.Run(ctx, g,
		modules.AsynqSchedule{
			Cronspec: "@every 5m",
			Task:     worker.NewListingExpireTask(),
		},
	)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}
