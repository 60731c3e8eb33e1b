package fx

import (
	"context"
	"database/sql"

	"salmon-stats/internal/api"
	"salmon-stats/internal/cache"
	"salmon-stats/internal/config"
	"salmon-stats/internal/database"
	"salmon-stats/internal/logger"
	"salmon-stats/internal/metrics"
	"salmon-stats/internal/repository"
	"salmon-stats/internal/server"
	"salmon-stats/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideNicknameResolver puts the redis cache in front of the nickname
// client when REDIS_ADDR is set.
func ProvideNicknameResolver(lc fx.Lifecycle, cfg *config.Config, client *api.NicknameClient, logger zerolog.Logger) service.NicknameResolver {
	if cfg.RedisAddr == "" {
		return client
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, nickname cache degraded")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return cache.NewNicknameCache(rdb, client, cfg.NicknameCacheTTL, logger)
}

func ProvideResultStore(repo *repository.MatchRepository) service.ResultStore {
	return repo
}

func ProvideFacetRecorder(m *metrics.FacetMetrics) service.FacetRecorder {
	return m
}

// Core wires everything below the transport. The CLI uses it directly.
var Core = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(ProvideResultStore),
	// api client
	fx.Provide(api.NewNicknameClient),
	fx.Provide(ProvideNicknameResolver),
	// metrics
	fx.Provide(metrics.NewFacetMetrics),
	fx.Provide(ProvideFacetRecorder),
	// svc
	fx.Provide(service.NewWaveService),
	fx.Provide(service.NewTotalService),
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(service.NewSummaryService),
	fx.Provide(service.NewWaveRecordService),
	fx.Provide(service.NewWeaponService),
	fx.Provide(service.NewStatsService),
	fx.Invoke(func(lc fx.Lifecycle, db *sql.DB, logger zerolog.Logger) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if err := db.Close(); err != nil {
					logger.Warn().Err(err).Msg("error closing database connection")
				}
				return nil
			},
		})
	}),
)

var Module = fx.Options(
	Core,
	// server
	fx.Provide(server.NewStatsServer),
)
