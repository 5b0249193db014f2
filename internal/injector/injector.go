//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/sightline/internal/config"
	"github.com/zeusync/sightline/internal/core/visibility"
	"github.com/zeusync/sightline/internal/server"
)

func InitializeEngine(cfg *config.Config) (*visibility.Engine, error) {
	wire.Build(EngineSet)
	return nil, nil
}

func InitializeServer(cfg *config.Config) (*server.Server, error) {
	wire.Build(ServerSet)
	return nil, nil
}
