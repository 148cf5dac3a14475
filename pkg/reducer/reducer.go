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

// Package reducer compresses raw tool/process output down to a high-signal
// summary: PII is redacted, a token/char budget is enforced, and anomalies
// (errors, warnings, security hits) are surfaced separately from the
// truncated text.
package reducer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// piiPattern pairs a detector with its redaction placeholder.
type piiPattern struct {
	re          *regexp.Regexp
	replacement string
}

var piiPatterns = []piiPattern{
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL]"},
	{regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`), "[PHONE]"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN]"},
	{regexp.MustCompile(`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14})\b`), "[CREDIT_CARD]"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "[IP_ADDRESS]"},
	{regexp.MustCompile(`(?i)password\s*[=:]\s*\S+`), "[PASSWORD_REDACTED]"},
	{regexp.MustCompile(`(?i)api[_-]?key\s*[=:]\s*\S+`), "[API_KEY_REDACTED]"},
	{regexp.MustCompile(`(?i)secret\s*[=:]\s*\S+`), "[SECRET_REDACTED]"},
	{regexp.MustCompile(`(?i)token\s*[=:]\s*\S+`), "[TOKEN_REDACTED]"},
}

// AnomalyType classifies a detected anomaly.
type AnomalyType string

const (
	AnomalyError       AnomalyType = "error"
	AnomalyWarning     AnomalyType = "warning"
	AnomalyCritical    AnomalyType = "critical"
	AnomalyPerformance AnomalyType = "performance"
	AnomalySecurity    AnomalyType = "security"
)

var severityByType = map[AnomalyType]int{
	AnomalyCritical:    10,
	AnomalySecurity:    9,
	AnomalyError:       7,
	AnomalyPerformance: 5,
	AnomalyWarning:     4,
}

type anomalyPattern struct {
	re   *regexp.Regexp
	kind AnomalyType
}

var anomalyPatterns = []anomalyPattern{
	{regexp.MustCompile(`(?i)\berror\b`), AnomalyError},
	{regexp.MustCompile(`(?i)\bwarning\b`), AnomalyWarning},
	{regexp.MustCompile(`(?i)\bcritical\b`), AnomalyCritical},
	{regexp.MustCompile(`(?i)\bfailed\b`), AnomalyError},
	{regexp.MustCompile(`(?i)\bexception\b`), AnomalyError},
	{regexp.MustCompile(`(?i)\btimeout\b`), AnomalyPerformance},
	{regexp.MustCompile(`(?i)\bunauthorized\b`), AnomalySecurity},
	{regexp.MustCompile(`(?i)\bdenied\b`), AnomalySecurity},
}

// Anomaly is a single detected high-signal event within reduced data.
type Anomaly struct {
	Type        AnomalyType
	Description string
	LineNumber  int
	Context     string
	Severity    int
}

// Stats summarizes raw data volume and hit counts.
type Stats struct {
	TotalLines   int
	TotalChars   int
	ErrorCount   int
	WarningCount int
}

// Reducer compresses process/tool output to a bounded, PII-free summary.
type Reducer struct {
	MaxChars     int
	FilterPII    bool
	ExtractStats bool
}

// New returns a Reducer with the given character budget.
func New(maxChars int) *Reducer {
	if maxChars <= 0 {
		maxChars = 2000
	}
	return &Reducer{MaxChars: maxChars, FilterPII: true, ExtractStats: true}
}

// Reduce compresses stdout/stderr into a summary no longer than maxTokens
// characters (falls back to r.MaxChars when maxTokens is 0).
func (r *Reducer) Reduce(stdout, stderr string, maxTokens int) string {
	maxChars := r.MaxChars
	if maxTokens > 0 {
		maxChars = maxTokens
	}

	if r.FilterPII {
		stdout = r.filterPII(stdout)
		stderr = r.filterPII(stderr)
	}

	combined := combineOutput(stdout, stderr)
	if len(combined) <= maxChars {
		return combined
	}

	return r.smartCompress(combined, maxChars)
}

func (r *Reducer) filterPII(text string) string {
	for _, p := range piiPatterns {
		text = p.re.ReplaceAllString(text, p.replacement)
	}
	return text
}

func combineOutput(stdout, stderr string) string {
	stdout = strings.TrimSpace(stdout)
	stderr = strings.TrimSpace(stderr)

	if stdout != "" && stderr == "" {
		return stdout
	}

	var parts []string
	if stdout != "" {
		parts = append(parts, "=== STDOUT ===\n"+stdout)
	}
	if stderr != "" {
		parts = append(parts, "=== STDERR ===\n"+stderr)
	}
	if len(parts) == 0 {
		return "(no output)"
	}
	return strings.Join(parts, "\n\n")
}

var compressKeywords = []string{"error", "warning", "failed", "success", "result", "total", "count"}

func (r *Reducer) smartCompress(text string, maxChars int) string {
	lines := strings.Split(text, "\n")

	var important []string
	head := lines
	if len(lines) > 20 {
		head = lines[:20]
	}
	important = append(important, head...)

	if len(lines) > 30 {
		for _, line := range lines[20 : len(lines)-10] {
			lower := strings.ToLower(line)
			for _, kw := range compressKeywords {
				if strings.Contains(lower, kw) {
					important = append(important, line)
					break
				}
			}
		}
	}

	if len(lines) > 10 {
		important = append(important, lines[len(lines)-10:]...)
	}

	summary := strings.Join(important, "\n")
	if len(summary) > maxChars {
		cut := maxChars - 100
		if cut < 0 {
			cut = 0
		}
		if cut > len(summary) {
			cut = len(summary)
		}
		summary = fmt.Sprintf("%s\n\n... [truncated, original %d chars]", summary[:cut], len(text))
	}

	if r.ExtractStats {
		stats := ExtractStatistics(text)
		statsLine := fmt.Sprintf("\nstats: %d lines, %d errors, %d warnings", stats.TotalLines, stats.ErrorCount, stats.WarningCount)
		if len(summary)+len(statsLine) <= maxChars {
			summary += statsLine
		}
	}

	return summary
}

var (
	errorRe   = regexp.MustCompile(`(?i)\berror\b`)
	warningRe = regexp.MustCompile(`(?i)\bwarning\b`)
)

// ExtractStatistics computes basic volume/hit counters over data.
func ExtractStatistics(data string) Stats {
	lines := strings.Split(data, "\n")
	stats := Stats{TotalLines: len(lines), TotalChars: len(data)}

	for _, line := range lines {
		if errorRe.MatchString(line) {
			stats.ErrorCount++
		}
		if warningRe.MatchString(line) {
			stats.WarningCount++
		}
	}

	return stats
}

// ExtractAnomalies scans data line by line for known error/warning/security
// signals, returning at most 20 deduplicated hits ordered by severity.
func ExtractAnomalies(data string) []Anomaly {
	lines := strings.Split(data, "\n")

	var anomalies []Anomaly
	for i, line := range lines {
		lineNo := i + 1
		for _, p := range anomalyPatterns {
			if !p.re.MatchString(line) {
				continue
			}

			start := i - 2
			if start < 0 {
				start = 0
			}
			end := i + 3
			if end > len(lines) {
				end = len(lines)
			}
			context := strings.Join(lines[start:end], "\n")
			if len(context) > 500 {
				context = context[:500]
			}

			desc := strings.TrimSpace(line)
			if len(desc) > 200 {
				desc = desc[:200]
			}

			anomalies = append(anomalies, Anomaly{
				Type:        p.kind,
				Description: desc,
				LineNumber:  lineNo,
				Context:     context,
				Severity:    severityByType[p.kind],
			})
		}
	}

	anomalies = deduplicate(anomalies)
	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Severity > anomalies[j].Severity
	})

	if len(anomalies) > 20 {
		anomalies = anomalies[:20]
	}
	return anomalies
}

func deduplicate(anomalies []Anomaly) []Anomaly {
	type key struct {
		kind AnomalyType
		desc string
	}
	seen := make(map[key]bool, len(anomalies))
	unique := make([]Anomaly, 0, len(anomalies))

	for _, a := range anomalies {
		d := a.Description
		if len(d) > 50 {
			d = d[:50]
		}
		k := key{a.Type, d}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, a)
	}
	return unique
}
