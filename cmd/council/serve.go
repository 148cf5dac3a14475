// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/councilrun/council/pkg/auth"
	"github.com/councilrun/council/pkg/checkpoint"
	"github.com/councilrun/council/pkg/config"
	"github.com/councilrun/council/pkg/coordination"
	"github.com/councilrun/council/pkg/council"
	"github.com/councilrun/council/pkg/governance"
	"github.com/councilrun/council/pkg/mcp"
	"github.com/councilrun/council/pkg/memory"
	"github.com/councilrun/council/pkg/observability"
	"github.com/councilrun/council/pkg/ratelimit"
	"github.com/councilrun/council/pkg/router"
	"github.com/councilrun/council/pkg/store"
	"github.com/councilrun/council/pkg/task"
	"github.com/councilrun/council/pkg/toolregistry"
	"github.com/councilrun/council/pkg/vector"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd starts the council MCP/A2A HTTP server.
type ServeCmd struct {
	ProjectRoot string `name:"project-root" help:"Directory for task/checkpoint state." default:"."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	var cfg *config.Config
	if cli.Config != "" {
		loaded, loader, err := config.LoadConfigFile(ctx, cli.Config)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		defer loader.Close()
		cfg = loaded
	} else {
		cfg = &config.Config{}
		cfg.SetDefaults()
		slog.Info("no --config given, using defaults")
	}

	tasks, err := task.NewManager(c.ProjectRoot, "")
	if err != nil {
		return fmt.Errorf("failed to create task manager: %w", err)
	}

	graph, err := memory.NewKnowledgeGraph(filepath.Join(c.ProjectRoot, ".council", "knowledge_graph.json"))
	if err != nil {
		return fmt.Errorf("failed to create knowledge graph: %w", err)
	}

	vectorProvider, err := vector.NewProvider(&vector.ProviderConfig{Type: vector.ProviderType(cfg.Memory.VectorStore)})
	if err != nil {
		return fmt.Errorf("failed to create vector provider: %w", err)
	}
	fabric := memory.New(vectorProvider, *cfg.Memory)

	rt := router.New(c.ProjectRoot)
	orch := council.New(tasks, rt, graph)

	backend, err := coordination.New(cfg.Coordination.Backend, cfg.Coordination.Endpoints)
	if err != nil {
		return fmt.Errorf("failed to create coordination backend: %w", err)
	}
	slog.Info("coordination backend ready", "backend", cfg.Coordination.Backend)

	var checkpoints checkpoint.Store
	if cfg.Store != nil {
		pool := store.NewDBPool()
		defer pool.Close()
		checkpoints, err = store.NewCheckpointStore(ctx, pool, cfg.Store)
		if err != nil {
			return fmt.Errorf("failed to create SQL checkpoint store: %w", err)
		}
		slog.Info("checkpoint store ready", "driver", cfg.Store.Driver)
	} else {
		checkpoints, err = checkpoint.NewFileStore(filepath.Join(c.ProjectRoot, ".council", "checkpoints"))
		if err != nil {
			return fmt.Errorf("failed to create checkpoint store: %w", err)
		}
	}

	tools := toolregistry.New()
	pluginLoader := toolregistry.NewExternalLoader()
	defer pluginLoader.CloseAll()
	for _, p := range cfg.Plugins {
		loaded, err := pluginLoader.Load(p.Name, p.Path)
		if err != nil {
			return fmt.Errorf("failed to load plugin %s: %w", p.Name, err)
		}
		tools.RegisterExternal(toolregistry.Definition{Name: p.Name, Category: toolregistry.CategoryOther}, loaded)
		slog.Info("loaded tool plugin", "name", p.Name, "path", p.Path)
	}

	gateway := governance.New(cfg.Governance.AutoApproveQuorum)

	obs, err := observability.NewManager(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("failed to create observability manager: %w", err)
	}
	defer obs.Shutdown(context.Background())
	if obs.MetricsEnabled() {
		observability.SetGlobalMetrics(obs.Metrics())
		slog.Info("metrics enabled", "endpoint", obs.MetricsEndpoint())
	}
	if obs.TracingEnabled() {
		slog.Info("tracing enabled")
	}

	authValidator, err := auth.NewValidatorFromConfig(cfg.Server.Auth)
	if err != nil {
		return fmt.Errorf("failed to create auth validator: %w", err)
	}
	if authValidator != nil {
		defer authValidator.Close()
		slog.Info("inbound JWT validation enabled", "issuer", cfg.Server.Auth.Issuer)
	}

	var limiterMiddleware func(http.Handler) http.Handler
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		limiter, err := ratelimit.NewRateLimiter(&ratelimit.Config{
			Enabled: true,
			Limits: []ratelimit.LimitRule{
				{Type: ratelimit.LimitTypeCount, Window: ratelimit.WindowMinute, Limit: cfg.RateLimit.RequestsPerMin},
				{Type: ratelimit.LimitTypeCount, Window: ratelimit.WindowHour, Limit: cfg.RateLimit.RequestsPerHour},
			},
		}, ratelimit.NewMemoryStore())
		if err != nil {
			return fmt.Errorf("failed to create rate limiter: %w", err)
		}
		limiterMiddleware = ratelimit.SimpleMiddleware(limiter, "/healthz")
		slog.Info("rate limiting enabled", "per_minute", cfg.RateLimit.RequestsPerMin, "per_hour", cfg.RateLimit.RequestsPerHour)
	}

	handler := mcp.NewProtocolHandler()
	registerCouncilTools(handler, tasks, orch, backend, fabric, checkpoints, tools, gateway)

	mux := chi.NewRouter()
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	mux.Use(observability.HTTPMiddleware(obs.Tracer(), obs.Metrics()))
	if limiterMiddleware != nil {
		mux.Use(limiterMiddleware)
	}
	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle(obs.MetricsEndpoint(), obs.MetricsHandler())

	mcpHandler := func(w http.ResponseWriter, r *http.Request) {
		var req mcp.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		resp := handler.HandleRequest(req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
	if authValidator != nil {
		mux.With(authValidator.HTTPMiddleware).Post("/mcp", mcpHandler)
	} else {
		mux.Post("/mcp", mcpHandler)
	}

	addr := cfg.Server.Address
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("council server ready\n")
	fmt.Printf("  MCP endpoint: http://%s/mcp\n", addr)
	fmt.Printf("  Health:       http://%s/healthz\n", addr)
	fmt.Println("\npress Ctrl+C to stop")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
