package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/gavel/internal/auth"
	"github.com/Additional-Code/gavel/internal/broadcast"
	"github.com/Additional-Code/gavel/internal/cache"
	"github.com/Additional-Code/gavel/internal/config"
	"github.com/Additional-Code/gavel/internal/database"
	"github.com/Additional-Code/gavel/internal/logger"
	"github.com/Additional-Code/gavel/internal/messaging"
	"github.com/Additional-Code/gavel/internal/observability"
	repositorybid "github.com/Additional-Code/gavel/internal/repository/bid"
	repositoryitem "github.com/Additional-Code/gavel/internal/repository/item"
	repositoryuser "github.com/Additional-Code/gavel/internal/repository/user"
	"github.com/Additional-Code/gavel/internal/resolver"
	httpserver "github.com/Additional-Code/gavel/internal/server/http"
	serviceauction "github.com/Additional-Code/gavel/internal/service/auction"
	transporthttp "github.com/Additional-Code/gavel/internal/transport/http"
	"github.com/Additional-Code/gavel/internal/worker"
	workerauction "github.com/Additional-Code/gavel/internal/worker/auction"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	broadcast.Module,
	auth.Module,
	repositoryitem.Module,
	repositorybid.Module,
	repositoryuser.Module,
	serviceauction.Module,
)

// HTTP wires the HTTP transport and the auction resolver on top of the
// core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
	resolver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerauction.Module,
)

// Module is the default application wiring (HTTP plus resolver).
var Module = HTTP
