// ABOUTME: Wiring shared by every command: config, logger, API clients, poller and local store
// ABOUTME: Awaited tasks are recorded in the store for the tasks history command

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/automation-console/internal/api"
	"github.com/2389/automation-console/internal/auth"
	"github.com/2389/automation-console/internal/config"
	"github.com/2389/automation-console/internal/resources"
	"github.com/2389/automation-console/internal/store"
	"github.com/2389/automation-console/internal/task"
)

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
	paths  api.Paths

	clients map[resources.Service]*api.Client
	poller  *task.Poller
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	var token *auth.BearerToken
	if cfg.Auth.Token != "" {
		token, err = auth.ParseBearer(cfg.Auth.Token)
		if err != nil {
			return nil, fmt.Errorf("auth.token: %w", err)
		}
		if exp := token.ExpiresAt(); exp != nil {
			logger.Debug("using bearer token", "subject", token.Subject(), "expires", exp.Format(time.RFC3339))
		}
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  s,
		paths: api.Paths{
			ControllerPrefix: cfg.Servers.Controller.APIPrefix,
			EDAPrefix:        cfg.Servers.EDA.APIPrefix,
			HubPrefix:        api.HubPrefix(cfg.Servers.Hub.APIPrefix, cfg.Servers.Hub.Type),
		},
		clients: make(map[resources.Service]*api.Client),
	}

	servers := map[resources.Service]config.ServerConfig{
		resources.ServiceController: cfg.Servers.Controller,
		resources.ServiceEDA:        cfg.Servers.EDA,
		resources.ServiceHub:        cfg.Servers.Hub,
	}
	for service, server := range servers {
		if server.URL == "" {
			continue
		}
		client, err := api.New(server.URL, api.Options{
			CSRFCookie: cfg.Auth.CSRFCookie,
			CSRFHeader: cfg.Auth.CSRFHeader,
			Token:      token,
			Logger:     logger.With("component", "api", "service", string(service)),
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("servers.%s: %w", service, err)
		}
		a.clients[service] = client
	}

	if hub, ok := a.clients[resources.ServiceHub]; ok {
		a.poller = task.NewPoller(hub, a.paths, task.Options{
			PollDelay:         cfg.Tasks.PollDelay,
			MaxRetries:        cfg.Tasks.MaxRetries,
			MaxNetworkRetries: cfg.Tasks.MaxNetworkRetries,
			Logger:            logger.With("component", "task"),
		})
	}

	return a, nil
}

// client returns the API client of service.
func (a *app) client(service resources.Service) (*api.Client, error) {
	c, ok := a.clients[service]
	if !ok {
		return nil, fmt.Errorf("servers.%s.url is not configured", service)
	}
	return c, nil
}

// waiter returns a task waiter that records every awaited task under
// action, or nil when no hub server is configured.
func (a *app) waiter(action string) resources.TaskWaiter {
	if a.poller == nil {
		return nil
	}
	return &recordingWaiter{
		poller: a.poller,
		store:  a.store,
		action: action,
		logger: a.logger,
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing database", "error", err)
	}
}

// recordingWaiter waits for tasks and records their outcome.
type recordingWaiter struct {
	poller resources.TaskWaiter
	store  store.Store
	action string
	logger *slog.Logger
}

func (w *recordingWaiter) WaitHref(ctx context.Context, href string) (*task.Task, error) {
	started := time.Now()
	t, err := w.poller.WaitHref(ctx, href)

	rec := &store.TaskRecord{
		TaskID:     task.TaskRef(href),
		Action:     w.action,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	switch {
	case errors.Is(err, task.ErrTimeout):
		rec.State = "timeout"
	case t != nil:
		rec.State = string(t.State)
	default:
		rec.State = "error"
	}
	if err != nil {
		rec.Error = err.Error()
	}

	// Recorded even when ctx was canceled
	if recErr := w.store.RecordTask(context.WithoutCancel(ctx), rec); recErr != nil {
		w.logger.Warn("failed to record task", "task", rec.TaskID, "error", recErr)
	}
	return t, err
}
