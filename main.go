package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-social/domain/repository"
	"blog-social/infrastructure/cache"
	"blog-social/infrastructure/clients/social"
	"blog-social/infrastructure/clients/telegram"
	"blog-social/infrastructure/clients/thread"
	"blog-social/infrastructure/clients/vk"
	"blog-social/infrastructure/configuration"
	"blog-social/infrastructure/logger"
	"blog-social/infrastructure/persistence"
	"blog-social/infrastructure/pubsub"
	"blog-social/infrastructure/realtime"
	"blog-social/infrastructure/scheduler"
	"blog-social/infrastructure/servicebus"
	"blog-social/infrastructure/utils"
	httpHandler "blog-social/interfaces/http"
	"blog-social/server"
	"blog-social/usecase"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/errgroup"
)

const (
	vendorPostgres = "postgres"
	vendorMSSQL    = "mssql"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	logger.Configure(configuration.C.Logger.Format, configuration.C.Logger.Level)

	app := configuration.C.App
	socialConf := configuration.C.Social

	db, vendor, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	defer db.Close()

	var (
		accounts     repository.IAccountRepository
		publications repository.IPublicationRepository
	)
	if vendor == vendorMSSQL {
		if err := persistence.EnsureSocialSchemaMSSQL(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring social schema (mssql)")
		}
		accounts = persistence.NewAccountRepositoryMSSQL(db)
		publications = persistence.NewPublicationRepositoryMSSQL(db)
	} else {
		if err := persistence.EnsureSocialSchema(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring social schema")
		}
		accounts = persistence.NewAccountRepository(db)
		publications = persistence.NewPublicationRepository(db)
	}

	var stats repository.IStatsRepository = persistence.NewStatsRepository(db, vendor)
	if mongoClient := initiateMongo(ctx); mongoClient != nil {
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		stats = persistence.NewStatsRepositoryMongo(mongoClient.Database(configuration.C.Database.Mongo.Name))
		logger.GetLogger().Info("Stats snapshots stored in MongoDB")
	}

	postsDb, err := persistence.NewMySQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to the blog database")
		os.Exit(1)
	}
	posts := persistence.NewPostRepository(postsDb, socialConf.PostLinkBase)

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
		configuration.C.RedisClient.DB(),
	)
	var refreshLock repository.IRefreshLock
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - content cache and refresh lock disabled")
	} else {
		defer redisClient.Close()
		refreshLock = cache.NewRefreshLock(redisClient, socialConf.RefreshLockTTL())
		logger.GetLogger().Info("Redis client initialized successfully.")
	}
	contentCache := cache.NewContentCache(redisClient, socialConf.ContentCacheTTL())

	registry, err := initiateRegistry(socialConf)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Adapter registry initialization failed")
		os.Exit(1)
	}

	events, closeEvents := initiateEvents(ctx, socialConf)
	hub := realtime.NewPublicationHub()

	contentUsecase := usecase.NewContentUsecase(posts, contentCache, socialConf.PlaceholderImage)
	socialUsecase := usecase.NewSocialUsecase(
		registry, accounts, publications, stats, contentUsecase, posts,
		usecase.NewTokenRefresher(accounts, refreshLock),
		usecase.WithBroadcaster(hub.BroadcastPublicationStatus),
		usecase.WithEvents(events),
		usecase.WithRequestTimeout(socialConf.RequestTimeout()),
		usecase.WithParallelPublish(socialConf.ParallelPublish),
		usecase.WithClock(utils.GetCurrentTime),
	)

	jobs := scheduler.New(time.Minute)
	scheduled := usecase.NewScheduledPublisher(socialUsecase, socialConf.ScheduleBatch)
	if err := jobs.AddJob("scheduled-publications", socialConf.ScheduleSpec, scheduled.Run); err != nil {
		logger.GetLogger().WithField("error", err).Error("Scheduled publisher disabled")
	}
	jobs.Start()

	healthHandler := httpHandler.NewHealthHandler(func() []string {
		platforms := registry.Platforms()
		out := make([]string, len(platforms))
		for i, p := range platforms {
			out[i] = string(p)
		}
		return out
	})
	socialHandler := httpHandler.NewSocialHandler(socialUsecase)
	router := server.InitiateRouter(healthHandler, socialHandler, hub.Serve, app.SecretKey, app.CORSOrigins)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	jobs.Stop(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)
	closeEvents(shutdownCtx)

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase opens the store for accounts, publications and stats.
// Production (ENV=prod|production) and DB_VENDOR=mssql use Azure SQL, everything else PostgreSQL.
func InitiateDatabase() (*sql.DB, string, error) {
	env := os.Getenv("ENV")
	if os.Getenv("DB_VENDOR") == vendorMSSQL || env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, "", err
		}
		return mssql, vendorMSSQL, nil
	}

	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, "", err
	}
	return postgres, vendorPostgres, nil
}

func initiateMongo(ctx context.Context) *mongo.Client {
	conf := configuration.C.Database.Mongo
	client, err := persistence.NewMongoDb(conf.Host, conf.Port, conf.User, conf.Password)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - stats kept in the SQL store")
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - stats kept in the SQL store")
		_ = client.Disconnect(context.Background())
		return nil
	}
	logger.GetLogger().Info("MongoDB connected successfully")
	return client
}

func initiateRegistry(conf configuration.Social) (*social.Registry, error) {
	client := social.NewAPIClient(social.Options{Timeout: conf.RequestTimeout(), Retry: conf.Retry})
	return social.NewRegistry(
		vk.NewAdapter(vk.Config{
			ClientID:     conf.VK.ClientID,
			ClientSecret: conf.VK.ClientSecret,
			RedirectURI:  conf.VK.RedirectURI,
			APIVersion:   conf.VK.APIVersion,
		}, client),
		telegram.NewAdapter(telegram.Config{BotToken: conf.Telegram.BotToken}, client),
		thread.NewAdapter(thread.Config{
			ClientID:     conf.Thread.ClientID,
			ClientSecret: conf.Thread.ClientSecret,
			RedirectURI:  conf.Thread.RedirectURI,
			APIVersion:   conf.Thread.APIVersion,
		}, client),
	)
}

type eventCloser interface {
	Close(ctx context.Context) error
}

// initiateEvents builds the reconcile event fan-out from whichever transports are configured.
// The returned func flushes and closes them on shutdown.
func initiateEvents(ctx context.Context, conf configuration.Social) (usecase.EventFanout, func(context.Context)) {
	var (
		events  usecase.EventFanout
		closers []eventCloser
	)

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - reconcile events not sent to Pub/Sub")
	} else {
		publisher := pubsub.NewReconcilePublisher(pubSubClient, conf.Topic)
		events = append(events, publisher)
		closers = append(closers, publisher)
	}

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - reconcile events not sent to Service Bus")
	} else {
		sender := servicebus.NewReconcileSender(azServiceBusClient, conf.Queue)
		events = append(events, sender)
		closers = append(closers, sender)
	}

	if len(events) == 0 {
		logger.GetLogger().WithField("failure", "partial_persistence").
			Warn("No event transport configured; unrecorded publications will only be logged")
	}
	return events, func(ctx context.Context) {
		for _, c := range closers {
			if err := c.Close(ctx); err != nil {
				logger.GetLogger().WithField("error", err).Warn("Error closing event transport")
			}
		}
	}
}
