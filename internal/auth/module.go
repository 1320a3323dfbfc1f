package auth

import "go.uber.org/fx"

// Module provides the identity provider to Fx.
var Module = fx.Provide(
	fx.Annotate(NewDirectoryProvider, fx.As(new(Provider))),
)
