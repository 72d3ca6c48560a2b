// Package app wires the engine from a Config. Both binaries build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/localstore"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/config"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/clock"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/workers"
)

type App struct {
	Config *config.Config
	Clock  clock.Clock

	Local *localstore.DB
	DB    *sqlx.DB
	Redis *redis.Client

	Sync          *workers.SyncWorker
	Ledger        *services.CompletionLedger
	Evaluator     *services.DayCompletionEvaluator
	Calculator    *services.StreakCalculator
	Tracker       *services.StreakHistoryTracker
	Stats         *services.StatsService
	Tokens        *services.TokenService
	ProfilesCache *repository.CachedProfileRepository

	StartTime time.Time

	stopSync context.CancelFunc
}

// Options override parts of the wiring, mostly for tests and the CLI.
type Options struct {
	Clock clock.Clock

	// SkipRemote keeps the process offline even when a database is configured.
	SkipRemote bool
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg, Clock: opts.Clock, StartTime: time.Now()}
	if a.Clock == nil {
		a.Clock = clock.System()
	}

	if err := a.openStores(ctx, opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.wire()
	return a, nil
}

func (a *App) openStores(ctx context.Context, opts Options) error {
	localCfg := localstore.DefaultConfig(a.Config.LocalPath)
	if a.Config.LocalInMemory {
		localCfg = localstore.InMemoryConfig()
	}
	local, err := localstore.Open(localCfg)
	if err != nil {
		return err
	}
	a.Local = local

	if a.Config.DatabaseURL != "" && !opts.SkipRemote {
		log.Println("Connecting to database...")
		db, err := sqlx.ConnectContext(ctx, "pgx", a.Config.DatabaseURL)
		if err != nil {
			// The device keeps working from the local store.
			log.Printf("[APP] Remote replica unreachable, running offline: %v", err)
		} else {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(25)
			db.SetConnMaxLifetime(5 * time.Minute)
			a.DB = db
			log.Println("Database connected successfully.")
		}
	}

	if a.Config.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(cache.Options{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
		})
		if err != nil {
			log.Printf("[APP] Redis unreachable, cache and rate limiting disabled: %v", err)
		} else {
			a.Redis = rdb
		}
	}
	return nil
}

func (a *App) wire() {
	loc := a.Config.Location

	var (
		remoteCompletions domain.RemoteCompletionRepository
		tasks             domain.TaskSource    = repository.NewInMemoryTaskSource()
		profiles          domain.ProfileSource = repository.NewInMemoryProfileSource()
		queue             services.SyncQueue
	)

	if a.DB != nil {
		pgCompletions := repository.NewPostgresCompletionRepository(a.DB, loc)
		remoteCompletions = pgCompletions
		tasks = repository.NewPostgresTaskRepository(a.DB, loc)
		profiles = repository.NewPostgresProfileRepository(a.DB)

		a.Sync = workers.NewSyncWorker(pgCompletions, repository.NewPostgresStreakHistoryRepository(a.DB),
			a.Config.SyncQueueSize, a.Config.SyncPerSecond)
		queue = a.Sync
	} else {
		log.Println("[APP] No remote replica configured: tasks and profiles are unavailable, ledger is local only")
	}

	if a.Redis != nil {
		a.ProfilesCache = repository.NewCachedProfileRepository(profiles, a.Redis)
		profiles = a.ProfilesCache
	}

	a.Ledger = services.NewCompletionLedger(repository.NewBadgerCompletionRepository(a.Local.DB, loc), remoteCompletions, queue, a.Clock, loc)
	a.Evaluator = services.NewDayCompletionEvaluator(a.Ledger, tasks, workers.NewMidnightScheduler(a.Clock, loc))
	a.Calculator = services.NewStreakCalculator(a.Ledger, tasks)
	a.Tracker = services.NewStreakHistoryTracker(repository.NewBadgerStreakHistoryRepository(a.Local.DB), queue, a.Clock)
	a.Stats = services.NewStatsService(a.Ledger, tasks, profiles, a.Tracker)
	a.Tokens = services.NewTokenService(a.Config.JWTSecret, a.Config.JWTIssuer, a.Config.TokenTTL)
}

// StartWorkers launches the remote push worker. A no-op when offline.
func (a *App) StartWorkers(ctx context.Context) {
	if a.Sync == nil {
		return
	}
	ctx, a.stopSync = context.WithCancel(ctx)
	a.Sync.Start(ctx)
}

func (a *App) Router() *gin.Engine {
	var invalidator adapterHTTP.ProfileCacheInvalidator
	if a.ProfilesCache != nil {
		invalidator = a.ProfilesCache
	}

	return adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		StatsHandler:      adapterHTTP.NewStatsHandler(a.Stats, a.Config.Location),
		StreakHandler:     adapterHTTP.NewStreakHandler(a.Calculator, a.Tracker),
		CompletionHandler: adapterHTTP.NewCompletionHandler(a.Ledger, a.Evaluator),
		SessionHandler:    adapterHTTP.NewSessionHandler(a.Evaluator, a.Ledger, a.Tracker, invalidator),
		TokenService:      a.Tokens,
		Local:             a.Local,
		DB:                a.DB,
		Redis:             a.Redis,
		RateLimit:         a.Config.RateLimit,
		RateWindow:        a.Config.RateWindow,
		EnableSwagger:     a.Config.EnableSwagger,
		StartTime:         a.StartTime,
	})
}

// Close stops scheduling, drains background work and closes every store.
// Pushes still queued are dropped; the local store already has them.
func (a *App) Close() error {
	if a.Evaluator != nil {
		a.Evaluator.Stop()
	}
	if a.Ledger != nil {
		a.Ledger.Wait()
	}
	if a.stopSync != nil {
		a.stopSync()
		<-a.Sync.Done()
	}

	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Local != nil {
		if err := a.Local.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close local store: %w", err))
		}
	}
	return errors.Join(errs...)
}
