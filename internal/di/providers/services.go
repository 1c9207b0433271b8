package providers

import (
	"github.com/samber/do/v2"

	"github.com/framemarkapp/framemark-server/internal/auth"
	"github.com/framemarkapp/framemark-server/internal/config"
	"github.com/framemarkapp/framemark-server/internal/logger"
	"github.com/framemarkapp/framemark-server/internal/service"
	"github.com/framemarkapp/framemark-server/internal/store"
	"github.com/framemarkapp/framemark-server/internal/summary"
)

// ProvideSummaryClient provides the HTTP client for the external summary
// endpoint.
func ProvideSummaryClient(i do.Injector) (*summary.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return summary.NewClient(cfg.Summary, log.Logger), nil
}

// ProvideSessionService provides the review session service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	registryHandle := do.MustInvoke[*RegistryHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(registryHandle.Registry, sseHandle.Manager, indexHandle.MarkerIndex, log.Logger), nil
}

// ProvideExportService provides the marker export service.
func ProvideExportService(i do.Injector) (*service.ExportService, error) {
	registryHandle := do.MustInvoke[*RegistryHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewExportService(registryHandle.Registry, log.Logger), nil
}

// ProvideSummaryService provides the session summary service.
func ProvideSummaryService(i do.Injector) (*service.SummaryService, error) {
	client := do.MustInvoke[*summary.Client](i)
	exports := do.MustInvoke[*service.ExportService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSummaryService(client, exports, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	st := do.MustInvoke[*store.Store](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(st, tokenService, log.Logger), nil
}
