package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/sightline/internal/config"
	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/observability/log"
	"github.com/zeusync/sightline/internal/core/shadow"
	"github.com/zeusync/sightline/internal/core/visibility"
	"github.com/zeusync/sightline/internal/server"
)

// EngineSet builds a visibility engine from a configuration.
var EngineSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideClipper,
	ProvideShadowCache,
	ProvideShadowBuilder,
	ProvideStrategy,
	visibility.NewEngine,
)

// ServerSet adds the HTTP surface on top of EngineSet.
var ServerSet = wire.NewSet(
	EngineSet,
	ProvideServerConfig,
	server.NewServer,
)

func ProvideLogger(cfg *config.Config) *log.Logger {
	return log.New(cfg.LogLevel())
}

func ProvideClipper(cfg *config.Config, logger log.Log) *clipper.Clipper {
	return clipper.New(cfg.ScalingFactor, clipper.WithLogger(logger))
}

// ProvideShadowCache returns nil when the cache is disabled.
func ProvideShadowCache(cfg *config.Config) *shadow.Cache {
	if !cfg.ShadowCache.Enabled {
		return nil
	}
	return shadow.NewCache(cfg.ShadowCache.Size)
}

func ProvideShadowBuilder(cfg *config.Config, cache *shadow.Cache, logger log.Log) *shadow.Builder {
	return shadow.NewBuilder(cfg.MaxThrow, cache, logger)
}

func ProvideStrategy(cfg *config.Config, clip *clipper.Clipper, shadows *shadow.Builder, logger log.Log) (visibility.AreaStrategy, error) {
	kind, err := cfg.StrategyKind()
	if err != nil {
		return nil, err
	}
	return visibility.NewStrategy(kind, clip, shadows, logger)
}

func ProvideServerConfig(cfg *config.Config) server.Config {
	return server.Config{
		ListenAddr:      cfg.Server.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		Workers:         cfg.Workers,
		Token:           cfg.Server.Token,
		Policy:          cfg.Policy(),
	}
}
