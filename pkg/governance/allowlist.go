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

package governance

import (
	"fmt"
	"strings"
	"sync"
)

// Permission is a single tool's allowlist entry: whether it's allowed,
// whether it needs explicit approval even when allowed, an optional call
// cap, and an optional set of path prefixes it's scoped to.
type Permission struct {
	Name             string
	Allowed          bool
	RequiresApproval bool
	MaxCallsPerSession int // <= 0 means unlimited
	AllowedPaths     []string
}

// ToolAllowlist enforces least-privilege tool access: deny by default,
// explicitly allow what's needed, track per-session call counts.
type ToolAllowlist struct {
	mu           sync.Mutex
	defaultAllow bool
	permissions  map[string]Permission
	callCounts   map[string]int
}

// NewToolAllowlist builds an allowlist. defaultAllow governs tools with no
// explicit entry — production configurations should leave this false.
func NewToolAllowlist(defaultAllow bool) *ToolAllowlist {
	return &ToolAllowlist{
		defaultAllow: defaultAllow,
		permissions:  make(map[string]Permission),
		callCounts:   make(map[string]int),
	}
}

// Allow adds a tool to the allowlist, returning the allowlist for chaining.
func (a *ToolAllowlist) Allow(toolName string, requiresApproval bool, maxCalls int, paths []string) *ToolAllowlist {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.permissions[toolName] = Permission{
		Name:               toolName,
		Allowed:            true,
		RequiresApproval:   requiresApproval,
		MaxCallsPerSession: maxCalls,
		AllowedPaths:       paths,
	}
	return a
}

// Deny removes a tool from the allowlist explicitly.
func (a *ToolAllowlist) Deny(toolName string) *ToolAllowlist {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.permissions[toolName] = Permission{Name: toolName, Allowed: false}
	return a
}

// CanExecute reports whether toolName may run against the given path right
// now, and if not, why.
func (a *ToolAllowlist) CanExecute(toolName, path string) (bool, string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	perm, ok := a.permissions[toolName]
	if !ok {
		if a.defaultAllow {
			return true, ""
		}
		return false, fmt.Sprintf("tool %q not in allowlist", toolName)
	}

	if !perm.Allowed {
		return false, fmt.Sprintf("tool %q is denied", toolName)
	}

	if perm.MaxCallsPerSession > 0 {
		if a.callCounts[toolName] >= perm.MaxCallsPerSession {
			return false, fmt.Sprintf("tool %q exceeded max calls (%d)", toolName, perm.MaxCallsPerSession)
		}
	}

	if path != "" && len(perm.AllowedPaths) > 0 {
		ok := false
		for _, p := range perm.AllowedPaths {
			if strings.HasPrefix(path, p) {
				ok = true
				break
			}
		}
		if !ok {
			return false, fmt.Sprintf("path %q not in allowed paths for %q", path, toolName)
		}
	}

	return true, ""
}

// RecordCall increments the per-session call counter for a tool.
func (a *ToolAllowlist) RecordCall(toolName string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callCounts[toolName]++
}

// ResetCounts clears every per-session call counter.
func (a *ToolAllowlist) ResetCounts() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callCounts = make(map[string]int)
}

// AllowlistStats summarizes the current allowlist state.
type AllowlistStats struct {
	AllowedTools []string
	DeniedTools  []string
	CallCounts   map[string]int
}

// Stats reports the current allowlist state.
func (a *ToolAllowlist) Stats() AllowlistStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := AllowlistStats{CallCounts: make(map[string]int, len(a.callCounts))}
	for name, perm := range a.permissions {
		if perm.Allowed {
			stats.AllowedTools = append(stats.AllowedTools, name)
		} else {
			stats.DeniedTools = append(stats.DeniedTools, name)
		}
	}
	for k, v := range a.callCounts {
		stats.CallCounts[k] = v
	}
	return stats
}

// DefaultAllowlist builds the safe-mode default allowlist: read-only and
// search tools allowed freely, mutating tools requiring approval.
func DefaultAllowlist() *ToolAllowlist {
	return NewToolAllowlist(false).
		Allow("read_file", false, -1, nil).
		Allow("list_dir", false, -1, nil).
		Allow("search_files", false, -1, nil).
		Allow("grep", false, -1, nil).
		Allow("write_file", true, -1, nil).
		Allow("search_replace", true, -1, nil).
		Allow("run_command", true, 20, nil).
		Allow("git_push", true, 1, nil)
}
