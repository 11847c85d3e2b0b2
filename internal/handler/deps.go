package handler

import (
	"prismhub/internal/app/hub"
	"prismhub/internal/app/metrics"
	"prismhub/internal/app/store"
	"prismhub/internal/configs"
)

// AppDeps carries the shared dependencies injected into every handler.
type AppDeps struct {
	Hub     *hub.Hub
	Store   *store.Store
	Config  *configs.AppConfig
	Metrics *metrics.Metrics
}
