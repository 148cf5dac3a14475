// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ingest extracts plain text from documents (PDF, DOCX, XLSX)
// so they can be chunked and embedded into the memory fabric's long-term
// vector store.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Result is the text and metadata extracted from one document.
type Result struct {
	Content          string
	Title            string
	Author           string
	Metadata         map[string]string
	ProcessingTimeMs int64
}

// Extractor parses a single document family.
type Extractor interface {
	CanParse(filePath string) bool
	Extract(ctx context.Context, filePath string, fileSize int64) (*Result, error)
	SupportedExtensions() []string
}

// Registry dispatches a document to the extractor registered for its
// extension.
type Registry struct {
	extractors []Extractor
}

// NewRegistry returns a registry with the PDF and Office extractors
// registered.
func NewRegistry() *Registry {
	return &Registry{
		extractors: []Extractor{
			&pdfExtractor{},
			&officeExtractor{},
		},
	}
}

// Extract finds the extractor for filePath and runs it.
func (r *Registry) Extract(ctx context.Context, filePath string, fileSize int64) (*Result, error) {
	for _, e := range r.extractors {
		if e.CanParse(filePath) {
			return e.Extract(ctx, filePath, fileSize)
		}
	}
	return nil, fmt.Errorf("no extractor available for file: %s", filepath.Ext(filePath))
}

// SupportedExtensions lists every extension any registered extractor
// handles.
func (r *Registry) SupportedExtensions() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range r.extractors {
		for _, ext := range e.SupportedExtensions() {
			if !seen[ext] {
				seen[ext] = true
				out = append(out, ext)
			}
		}
	}
	return out
}

func hasExt(filePath string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
