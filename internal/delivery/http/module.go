package http

import (
	"go.uber.org/fx"

	"docuflow/internal/delivery/http/handler"
	"docuflow/internal/delivery/http/router"
)

var Module = fx.Module("http",
	fx.Provide(
		handler.NewDocumentHandler,
		handler.NewSigningHandler,
		handler.NewHealthHandler,
		router.NewRouter,
	),
)
