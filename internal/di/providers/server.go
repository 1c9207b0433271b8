package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/framemarkapp/framemark-server/internal/api"
	"github.com/framemarkapp/framemark-server/internal/config"
	"github.com/framemarkapp/framemark-server/internal/logger"
	"github.com/framemarkapp/framemark-server/internal/mdns"
	"github.com/framemarkapp/framemark-server/internal/service"
)

// HTTPServerHandle wraps the API server with lifecycle management.
type HTTPServerHandle struct {
	Server *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP API server, already listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	services := &api.Services{
		Auth:    do.MustInvoke[*service.AuthService](i),
		Session: do.MustInvoke[*service.SessionService](i),
		Export:  do.MustInvoke[*service.ExportService](i),
		Summary: do.MustInvoke[*service.SummaryService](i),
	}

	server := api.NewServer(cfg, services, sseHandle.Manager, log.Logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: server}, nil
}

// MDNSServiceHandle wraps the mDNS advertiser with lifecycle management.
type MDNSServiceHandle struct {
	Service *mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started {
		h.Service.Stop()
	}
	return nil
}

// ProvideMDNSService provides mDNS advertisement for local network
// discovery. Advertisement failures are non-fatal; the server is still
// reachable by address.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	authService := do.MustInvoke[*service.AuthService](i)

	handle := &MDNSServiceHandle{
		Service: mdns.NewService(log.Logger),
	}

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled")
		return handle, nil
	}

	var port int
	if _, err := fmt.Sscanf(cfg.Server.Port, "%d", &port); err != nil {
		log.Warn("Cannot parse port for mDNS advertisement", "port", cfg.Server.Port, "error", err)
		return handle, nil
	}

	info := mdns.ServerInfo{
		Name:          cfg.Server.Name,
		RemoteURL:     cfg.Server.RemoteURL,
		SetupComplete: authService.Status(context.Background()).SetupComplete,
	}

	if err := handle.Service.Start(info, port); err != nil {
		log.Warn("Failed to start mDNS advertisement", "error", err)
		return handle, nil
	}

	handle.started = true
	return handle, nil
}
