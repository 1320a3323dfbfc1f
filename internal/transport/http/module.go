package http

import (
	"go.uber.org/fx"

	bidtransport "github.com/Additional-Code/gavel/internal/transport/http/bid"
	itemtransport "github.com/Additional-Code/gavel/internal/transport/http/item"
	watchtransport "github.com/Additional-Code/gavel/internal/transport/http/watch"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	itemtransport.Module,
	bidtransport.Module,
	watchtransport.Module,
)
