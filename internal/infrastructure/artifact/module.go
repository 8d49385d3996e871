package artifact

import "go.uber.org/fx"

var Module = fx.Module("artifact",
	fx.Provide(NewStore),
)
