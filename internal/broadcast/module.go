package broadcast

import "go.uber.org/fx"

// Module provides the broadcast hub to Fx.
var Module = fx.Provide(NewHub)
