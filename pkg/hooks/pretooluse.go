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

package hooks

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var defaultDangerousCommands = map[string]bool{
	"rm -rf":          true,
	"rm -r /":         true,
	"rm -rf /":        true,
	"dd if=":          true,
	"mkfs":            true,
	"format c:":       true,
	"> /dev/sda":      true,
	"chmod -r 777":    true,
	"chmod 777 /":     true,
}

var defaultSensitivePaths = map[string]bool{
	".ssh": true, ".ssh/": true, ".gnupg": true, ".gnupg/": true,
	".env": true, ".env.local": true, ".env.production": true,
	"secrets/": true, "credentials/": true,
	"/etc/passwd": true, "/etc/shadow": true,
	"~/.bashrc": true, "~/.zshrc": true,
}

var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)rm\s+-[rf]+\s+/(?:\s|$)`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)__import__\s*\(`),
	regexp.MustCompile(`(?i)os\.system\s*\(`),
	regexp.MustCompile(`(?i)DROP\s+(?:TABLE|DATABASE)`),
	regexp.MustCompile(`(?i)DELETE\s+FROM\s+\w+\s*;?\s*$`),
}

// PreToolUseHook is a safety gate that runs before every tool call: a
// tool whitelist, a dangerous-command blacklist, a sensitive-path
// blacklist, and a shell-specific check for bash-style tools. A
// SudoToken, if set, downgrades a block to a logged override.
type PreToolUseHook struct {
	DangerousCommands map[string]bool
	SensitivePaths    map[string]bool
	AllowedTools      map[string]bool // nil means allow all
	SudoToken         string
	priority          int
}

// NewPreToolUseHook builds a hook with the default command/path
// blacklists merged with any extras supplied.
func NewPreToolUseHook(extraCommands, extraPaths map[string]bool, allowedTools map[string]bool) *PreToolUseHook {
	h := &PreToolUseHook{
		DangerousCommands: mergeSets(defaultDangerousCommands, extraCommands),
		SensitivePaths:    mergeSets(defaultSensitivePaths, extraPaths),
		AllowedTools:      allowedTools,
		priority:          50,
	}
	return h
}

func mergeSets(base, extra map[string]bool) map[string]bool {
	out := make(map[string]bool, len(base)+len(extra))
	for k := range base {
		out[k] = true
	}
	for k := range extra {
		out[k] = true
	}
	return out
}

func (h *PreToolUseHook) Name() string   { return "pre_tool_use" }
func (h *PreToolUseHook) Priority() int  { return h.priority }
func (h *PreToolUseHook) HookType() Type { return TypePreToolUse }

// Execute runs the safety checks described on PreToolUseHook.
func (h *PreToolUseHook) Execute(ctx context.Context, hc Context) Result {
	meta := map[string]any{"tool_name": hc.ToolName, "checks_performed": []string{}}
	performed := func(check string) {
		meta["checks_performed"] = append(meta["checks_performed"].([]string), check)
	}

	if h.AllowedTools != nil && !h.AllowedTools[hc.ToolName] {
		return Result{Action: ActionBlock, Message: fmt.Sprintf("tool %q is not in the allowed list", hc.ToolName), Metadata: withReason(meta, "tool_not_allowed")}
	}
	performed("tool_whitelist")

	content := extractContent(hc.ToolArgs)
	if content != "" {
		if match := h.checkDangerousContent(content); match != "" {
			if h.SudoToken != "" {
				meta["sudo_override"] = true
			} else {
				return Result{Action: ActionBlock, Message: fmt.Sprintf("dangerous command blocked: %s", match), Metadata: withReason(meta, "dangerous_command", "pattern", match)}
			}
		}
	}
	performed("dangerous_commands")

	for _, p := range extractPaths(hc.ToolArgs) {
		if h.isSensitivePath(p) {
			if h.SudoToken != "" {
				meta["sudo_override"] = true
			} else {
				return Result{Action: ActionBlock, Message: fmt.Sprintf("access to sensitive path blocked: %s", p), Metadata: withReason(meta, "sensitive_path", "path", p)}
			}
		}
	}
	performed("sensitive_paths")

	if isShellTool(hc.ToolName) {
		if match := h.checkDangerousContent(content); match != "" && h.SudoToken == "" {
			return Result{Action: ActionBlock, Message: fmt.Sprintf("shell command blocked: %s", match), Metadata: withReason(meta, "shell_command", "detail", match)}
		}
	}
	performed("shell_specific")

	return Result{Action: ActionAllow, Message: "all checks passed", Metadata: meta}
}

// withReason copies meta, annotated with a block reason and any
// key/value pairs describing what triggered it. The original map is left
// untouched since it may still be mutated by later checks on the allow path.
func withReason(meta map[string]any, reason string, kv ...string) map[string]any {
	out := make(map[string]any, len(meta)+len(kv)/2+1)
	for k, v := range meta {
		out[k] = v
	}
	out["reason"] = reason
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

func (h *PreToolUseHook) checkDangerousContent(content string) string {
	lower := strings.ToLower(content)
	for cmd := range h.DangerousCommands {
		if strings.Contains(lower, cmd) {
			return cmd
		}
	}
	for _, p := range dangerousPatterns {
		if p.MatchString(content) {
			return p.String()
		}
	}
	return ""
}

func (h *PreToolUseHook) isSensitivePath(path string) bool {
	lower := strings.ToLower(path)
	for p := range h.SensitivePaths {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func isShellTool(name string) bool {
	switch name {
	case "bash", "shell", "execute", "run_command":
		return true
	default:
		return false
	}
}

func extractContent(args map[string]any) string {
	for _, key := range []string{"command", "content", "code", "script"} {
		if v, ok := args[key].(string); ok {
			return v
		}
	}
	return ""
}

func extractPaths(args map[string]any) []string {
	var out []string
	for _, key := range []string{"path", "file_path", "directory", "dir"} {
		if v, ok := args[key].(string); ok {
			out = append(out, v)
		}
	}
	return out
}

var _ Hook = (*PreToolUseHook)(nil)
