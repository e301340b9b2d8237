package warning

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/stockledger/internal/clock"
	"github.com/smallbiznis/stockledger/internal/config"
	"github.com/smallbiznis/stockledger/internal/warning/domain"
	"github.com/smallbiznis/stockledger/internal/warning/service"
	"github.com/smallbiznis/stockledger/internal/warning/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("warning.service",
	fx.Provide(NewStore),
	fx.Provide(service.New),
)

// NewStore selects the acknowledgement backend from WARNING_BACKEND.
func NewStore(lc fx.Lifecycle, cfg config.Config, conn *gorm.DB, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) domain.Store {
	if cfg.WarningBackend != config.WarningBackendRedis {
		log.Info("warning acknowledgements stored in database")
		return store.NewGormStore(conn, genID, clk)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	log.Info("warning acknowledgements stored in redis", zap.String("addr", cfg.RedisAddr))
	return store.NewRedisStore(client)
}
