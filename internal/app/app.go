// Package app connects the backing stores and wires repositories, caches
// and services for the server and the seed command.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/cache"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/config"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/payment"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/repository"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/service"
)

const connectAttempts = 5

type App struct {
	Mongo *mongo.Client
	Redis *redis.Client

	SurveyRepo   repository.SurveyRepo
	PurchaseRepo repository.PurchaseRepo
	CodeRepo     repository.PurchaseCodeRepo
	ResponseRepo repository.ResponseRepository
	ReportRepo   repository.ReportRepo

	SurveyCache cache.SurveyCache
	ReportCache cache.ReportCache

	AuthService     *service.AuthService
	SurveyService   *service.SurveyService
	PurchaseService *service.PurchaseService
	ResponseService *service.ResponseService
	ReportService   *service.ReportService
}

// New connects to Mongo and Redis, creates indexes and builds the services
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	processor, err := payment.New(cfg.Payment, log)
	if err != nil {
		return nil, err
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := retry(ctx, log, "mongodb", func(ctx context.Context) error {
		return mongoClient.Ping(ctx, nil)
	}); err != nil {
		mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := retry(ctx, log, "redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		mongoClient.Disconnect(context.Background())
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	db := mongoClient.Database(cfg.MongoDatabase)
	a := &App{
		Mongo:        mongoClient,
		Redis:        rdb,
		SurveyRepo:   repository.NewSurveyRepo(db),
		PurchaseRepo: repository.NewPurchaseRepo(db),
		CodeRepo:     repository.NewPurchaseCodeRepo(db),
		ResponseRepo: repository.NewResponseRepository(db),
		ReportRepo:   repository.NewReportRepo(db),
		SurveyCache:  cache.NewSurveyCache(rdb, cfg.SurveyCacheTTL),
		ReportCache:  cache.NewReportCache(rdb, cfg.ReportCacheTTL),
	}

	if err := repository.EnsureIndexes(ctx, a.SurveyRepo, a.PurchaseRepo, a.CodeRepo, a.ResponseRepo); err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	a.AuthService = service.NewAuthService(cfg)
	a.SurveyService = service.NewSurveyService(a.SurveyRepo, a.PurchaseRepo, a.SurveyCache, log)
	a.PurchaseService = service.NewPurchaseService(a.PurchaseRepo, a.CodeRepo, a.SurveyService, processor, log)
	a.ResponseService = service.NewResponseService(a.PurchaseService, a.SurveyService, a.ResponseRepo, log)
	a.ReportService = service.NewReportService(a.PurchaseService, a.SurveyService, a.ResponseRepo, a.ReportRepo, a.ReportCache, log)

	return a, nil
}

// SetBroadcaster routes service events to b
func (a *App) SetBroadcaster(b service.Broadcaster) {
	a.ResponseService.SetBroadcaster(b)
	a.ReportService.SetBroadcaster(b)
}

// Close releases the store connections
func (a *App) Close(ctx context.Context) {
	a.Redis.Close()
	a.Mongo.Disconnect(ctx)
}

// retry pings a store with exponential backoff while it starts up
func retry(ctx context.Context, log *logger.Logger, name string, ping func(context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := ping(pingCtx)
		if err != nil {
			log.WithError(err).WithField("store", name).WithField("attempt", attempt).Warn("store not ready")
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, connectAttempts), ctx))
}
