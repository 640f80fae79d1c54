// Package server wires the enrichment layer, the store and the HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/ideanote/ai"
	"github.com/hrygo/ideanote/ai/enrichment"
	"github.com/hrygo/ideanote/ai/gateway"
	"github.com/hrygo/ideanote/ai/metrics"
	"github.com/hrygo/ideanote/internal/profile"
	apiv1 "github.com/hrygo/ideanote/server/router/api/v1"
	"github.com/hrygo/ideanote/store"
)

// NewEnrichment builds the AI configuration and the provider registry, and
// wires the enrichment service over them.
func NewEnrichment(profile *profile.Profile, exporter *metrics.PrometheusExporter) (*enrichment.Service, *gateway.Registry, error) {
	aiConfig := ai.NewConfigFromProfile(profile)
	if profile.ProvidersFile != "" {
		roster, err := ai.LoadRoster(profile.ProvidersFile)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to load providers file")
		}
		aiConfig.ApplyRoster(roster)
	}
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid AI configuration")
	}

	registry, err := gateway.New(aiConfig.Providers, gateway.WithRecorder(exporter))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create provider registry")
	}
	if !profile.IsAIEnabled() {
		slog.Warn("Primary AI provider not configured, AI features will report PROVIDER_UNAVAILABLE")
	}

	return enrichment.NewService(aiConfig, registry, enrichment.WithRecorder(exporter)), registry, nil
}

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	registry   *gateway.Registry
}

// NewServer builds the AI configuration, the provider registry and the HTTP
// routes. Provider configuration is fixed from here on.
func NewServer(_ context.Context, profile *profile.Profile, store *store.Store, exporter *metrics.PrometheusExporter) (*Server, error) {
	svc, registry, err := NewEnrichment(profile, exporter)
	if err != nil {
		return nil, err
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestID())

	apiv1.NewAPIV1Service(profile, store, svc, exporter).RegisterRoutes(echoServer)

	return &Server{
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
		registry:   registry,
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	// Warmup is best effort: a failure only costs the first request its latency.
	go func() {
		warmupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		s.registry.Warmup(warmupCtx)
	}()

	s.echoServer.Listener = listener
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("Server listening", "address", listener.Addr().String())
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("ideanote stopped properly")
}
