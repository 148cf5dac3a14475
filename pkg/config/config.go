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

// Package config provides configuration loading for the council runtime.
//
// The runtime is config-first: sandboxes, memory tiers, hooks, governance
// policy, and agent rosters are all declared in one YAML document.
//
// Example config:
//
//	version: "1"
//	name: my-council
//
//	sandbox:
//	  provider: local
//	  timeout_sec: 60
//
//	memory:
//	  vector_store: chromem
//	  similarity_threshold: 0.85
//	  rrf_k: 60
//
//	governance:
//	  auto_approve_quorum: 0.66
//
//	agents:
//	  architect:
//	    model: planner-default
//	    role: planner
package config

import (
	"fmt"

	"github.com/councilrun/council/pkg/observability"
)

// Config is the root configuration structure for a council runtime.
type Config struct {
	// Version of the config schema.
	Version string `yaml:"version,omitempty"`

	// Name of this council deployment (for logging/display).
	Name string `yaml:"name,omitempty"`

	Logger     *LoggerConfig     `yaml:"logger,omitempty"`
	Sandbox    *SandboxConfig    `yaml:"sandbox,omitempty"`
	Reducer    *ReducerConfig    `yaml:"reducer,omitempty"`
	Memory     *MemoryConfig     `yaml:"memory,omitempty"`
	Hooks      *HooksConfig      `yaml:"hooks,omitempty"`
	Governance *GovernanceConfig `yaml:"governance,omitempty"`
	Router     *RouterConfig     `yaml:"router,omitempty"`
	Healing    *HealingConfig    `yaml:"healing,omitempty"`
	ModelExec  *ModelExecConfig  `yaml:"model_exec,omitempty"`

	Agents map[string]*AgentConfig `yaml:"agents,omitempty"`

	Coordination  *CoordinationConfig    `yaml:"coordination,omitempty"`
	Server        *ServerConfig          `yaml:"server,omitempty"`
	Observability *observability.Config  `yaml:"observability,omitempty"`
	RateLimit     *RateLimitConfig       `yaml:"rate_limit,omitempty"`

	// Store configures the optional SQL-backed task/checkpoint store
	// (pkg/store). Nil means tasks stay in the JSON file store
	// (pkg/task.Manager) and checkpoints stay in pkg/checkpoint.FileStore.
	Store *DatabaseConfig `yaml:"store,omitempty"`

	// Plugins lists out-of-process tool binaries (pkg/toolregistry) to
	// load at startup.
	Plugins []PluginConfig `yaml:"plugins,omitempty"`
}

// PluginConfig names one out-of-process tool plugin binary (C4).
type PluginConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string `yaml:"level,omitempty"` // debug|info|warn|error
	Format string `yaml:"format,omitempty"` // simple|verbose; any other value uses slog's text format
}

// SandboxConfig configures the default sandbox provider (C1).
type SandboxConfig struct {
	Provider   string `yaml:"provider,omitempty"` // local|container|remote
	TimeoutSec int    `yaml:"timeout_sec,omitempty"`
	WorkingDir string `yaml:"working_dir,omitempty"`
}

// ReducerConfig configures the data reducer (C2).
type ReducerConfig struct {
	MaxChars int `yaml:"max_chars,omitempty"`
}

// MemoryConfig configures the memory fabric (C5).
type MemoryConfig struct {
	VectorStore           string  `yaml:"vector_store,omitempty"` // chromem|qdrant|pinecone|chroma|weaviate
	SimilarityThreshold    float64 `yaml:"similarity_threshold,omitempty"`
	RRFK                   int     `yaml:"rrf_k,omitempty"`
	AutoPromoteThreshold   int     `yaml:"auto_promote_threshold,omitempty"`
	DecayFactor            float64 `yaml:"decay_factor,omitempty"`
	ConsolidateThreshold   int     `yaml:"consolidate_threshold,omitempty"`
	RollingContextMaxTok   int     `yaml:"rolling_context_max_tokens,omitempty"`
	CompressionThreshold   float64 `yaml:"compression_threshold,omitempty"`
	SemanticCacheTTLSec    int     `yaml:"semantic_cache_ttl_sec,omitempty"`
	SemanticCacheMaxEntry  int     `yaml:"semantic_cache_max_entries,omitempty"`
	KnowledgeGraphPath     string  `yaml:"knowledge_graph_path,omitempty"`
}

// HooksConfig configures the hook pipeline (C6).
type HooksConfig struct {
	MaxRecursionDepth int  `yaml:"max_recursion_depth,omitempty"`
	EnableFormat      bool `yaml:"enable_format,omitempty"`
	EnableLint        bool `yaml:"enable_lint,omitempty"`
	EnableTest        bool `yaml:"enable_test,omitempty"`
	MaxRetries        int  `yaml:"max_retries,omitempty"`
}

// GovernanceConfig configures the governance gateway (C7).
type GovernanceConfig struct {
	AutoApproveQuorum float64 `yaml:"auto_approve_quorum,omitempty"`
}

// RouterConfig configures the adaptive router (C9).
type RouterConfig struct {
	WaldScoreQuorum float64 `yaml:"wald_score_quorum,omitempty"`
}

// HealingConfig configures the self-healing loop (C11).
type HealingConfig struct {
	TestCommand   string `yaml:"test_command,omitempty"`
	MaxIterations int    `yaml:"max_iterations,omitempty"`
}

// ModelExecConfig configures the multi-model executor (C12).
type ModelExecConfig struct {
	MaxConcurrent  int `yaml:"max_concurrent,omitempty"`
	DefaultTimeout int `yaml:"default_timeout_sec,omitempty"`
	RetryCount     int `yaml:"retry_count,omitempty"`
}

// AgentConfig declares one council agent (C13).
type AgentConfig struct {
	Model string `yaml:"model,omitempty"`
	Role  string `yaml:"role,omitempty"` // planner|executor|reviewer|expert|general
}

// CoordinationConfig selects the distributed lock backend (C14 supplement).
type CoordinationConfig struct {
	Backend   string   `yaml:"backend,omitempty"` // etcd|consul|zookeeper|none
	Endpoints []string `yaml:"endpoints,omitempty"`
}

// ServerConfig configures the MCP/A2A transport (C15).
type ServerConfig struct {
	Address string      `yaml:"address,omitempty"`
	Auth    *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig configures JWT validation for inbound MCP/A2A requests.
type AuthConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	JWKSURL  string `yaml:"jwks_url,omitempty"`
	Issuer   string `yaml:"issuer,omitempty"`
	Audience string `yaml:"audience,omitempty"`
}

// RateLimitConfig throttles inbound MCP requests per session/user.
type RateLimitConfig struct {
	Enabled         bool  `yaml:"enabled,omitempty"`
	RequestsPerMin  int64 `yaml:"requests_per_minute,omitempty"`
	RequestsPerHour int64 `yaml:"requests_per_hour,omitempty"`
}

// SetDefaults fills in zero-valued fields with production defaults.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Logger == nil {
		c.Logger = &LoggerConfig{}
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Sandbox == nil {
		c.Sandbox = &SandboxConfig{}
	}
	if c.Sandbox.Provider == "" {
		c.Sandbox.Provider = "local"
	}
	if c.Sandbox.TimeoutSec == 0 {
		c.Sandbox.TimeoutSec = 60
	}
	if c.Reducer == nil {
		c.Reducer = &ReducerConfig{}
	}
	if c.Reducer.MaxChars == 0 {
		c.Reducer.MaxChars = 2000
	}
	if c.Memory == nil {
		c.Memory = &MemoryConfig{}
	}
	if c.Memory.VectorStore == "" {
		c.Memory.VectorStore = "chromem"
	}
	if c.Memory.SimilarityThreshold == 0 {
		c.Memory.SimilarityThreshold = 0.85
	}
	if c.Memory.RRFK == 0 {
		c.Memory.RRFK = 60
	}
	if c.Memory.AutoPromoteThreshold == 0 {
		c.Memory.AutoPromoteThreshold = 3
	}
	if c.Memory.DecayFactor == 0 {
		c.Memory.DecayFactor = 0.9
	}
	if c.Memory.ConsolidateThreshold == 0 {
		c.Memory.ConsolidateThreshold = 5
	}
	if c.Memory.RollingContextMaxTok == 0 {
		c.Memory.RollingContextMaxTok = 4000
	}
	if c.Memory.CompressionThreshold == 0 {
		c.Memory.CompressionThreshold = 0.7
	}
	if c.Memory.SemanticCacheTTLSec == 0 {
		c.Memory.SemanticCacheTTLSec = 3600
	}
	if c.Memory.SemanticCacheMaxEntry == 0 {
		c.Memory.SemanticCacheMaxEntry = 1000
	}
	if c.Hooks == nil {
		c.Hooks = &HooksConfig{}
	}
	if c.Hooks.MaxRecursionDepth == 0 {
		c.Hooks.MaxRecursionDepth = 3
	}
	if c.Hooks.MaxRetries == 0 {
		c.Hooks.MaxRetries = 3
	}
	if c.Governance == nil {
		c.Governance = &GovernanceConfig{}
	}
	if c.Governance.AutoApproveQuorum == 0 {
		c.Governance.AutoApproveQuorum = 0.66
	}
	if c.Router == nil {
		c.Router = &RouterConfig{}
	}
	if c.Router.WaldScoreQuorum == 0 {
		c.Router.WaldScoreQuorum = 0.66
	}
	if c.Healing == nil {
		c.Healing = &HealingConfig{}
	}
	if c.Healing.MaxIterations == 0 {
		c.Healing.MaxIterations = 5
	}
	if c.ModelExec == nil {
		c.ModelExec = &ModelExecConfig{}
	}
	if c.ModelExec.MaxConcurrent == 0 {
		c.ModelExec.MaxConcurrent = 5
	}
	if c.ModelExec.DefaultTimeout == 0 {
		c.ModelExec.DefaultTimeout = 30
	}
	if c.Coordination == nil {
		c.Coordination = &CoordinationConfig{Backend: "none"}
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Store != nil {
		c.Store.SetDefaults()
	}
	if c.Observability == nil {
		c.Observability = &observability.Config{}
	}
	c.Observability.SetDefaults()
	if c.RateLimit == nil {
		c.RateLimit = &RateLimitConfig{}
	}
	if c.RateLimit.RequestsPerMin == 0 {
		c.RateLimit.RequestsPerMin = 60
	}
	if c.RateLimit.RequestsPerHour == 0 {
		c.RateLimit.RequestsPerHour = 1000
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Sandbox.Provider {
	case "local", "container", "docker", "remote":
	default:
		return fmt.Errorf("sandbox.provider: unknown provider %q", c.Sandbox.Provider)
	}
	if c.Memory.SimilarityThreshold < 0 || c.Memory.SimilarityThreshold > 1 {
		return fmt.Errorf("memory.similarity_threshold must be in [0,1], got %v", c.Memory.SimilarityThreshold)
	}
	if c.Memory.DecayFactor <= 0 || c.Memory.DecayFactor > 1 {
		return fmt.Errorf("memory.decay_factor must be in (0,1], got %v", c.Memory.DecayFactor)
	}
	if c.Governance.AutoApproveQuorum < 0 || c.Governance.AutoApproveQuorum > 1 {
		return fmt.Errorf("governance.auto_approve_quorum must be in [0,1], got %v", c.Governance.AutoApproveQuorum)
	}
	if c.RateLimit != nil && c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMin <= 0 {
			return fmt.Errorf("rate_limit.requests_per_minute must be positive, got %v", c.RateLimit.RequestsPerMin)
		}
	}
	switch c.Coordination.Backend {
	case "none", "etcd", "consul", "zookeeper":
	default:
		return fmt.Errorf("coordination.backend: unknown backend %q", c.Coordination.Backend)
	}
	for name, a := range c.Agents {
		switch a.Role {
		case "", "planner", "executor", "reviewer", "expert", "general":
		default:
			return fmt.Errorf("agents.%s.role: unknown role %q", name, a.Role)
		}
	}
	if c.Store != nil {
		if err := c.Store.Validate(); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	for i, p := range c.Plugins {
		if p.Name == "" || p.Path == "" {
			return fmt.Errorf("plugins[%d]: name and path are required", i)
		}
	}
	if c.Observability != nil {
		if err := c.Observability.Validate(); err != nil {
			return fmt.Errorf("observability: %w", err)
		}
	}
	return nil
}
