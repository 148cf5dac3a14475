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

package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

type pdfExtractor struct{}

func (p *pdfExtractor) CanParse(filePath string) bool { return hasExt(filePath, ".pdf") }

func (p *pdfExtractor) SupportedExtensions() []string { return []string{".pdf"} }

func (p *pdfExtractor) Extract(ctx context.Context, filePath string, fileSize int64) (*Result, error) {
	start := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	reader, err := pdf.NewReader(file, fileSize)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	var parts []string
	totalPages := reader.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			parts = append(parts, fmt.Sprintf("--- Page %d (extraction failed: %v) ---", pageNum, err))
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", pageNum, text))
		}
	}

	content := strings.Join(parts, "\n\n")
	metadata := map[string]string{
		"pages": fmt.Sprintf("%d", totalPages),
		"type":  "pdf",
	}
	if info, err := os.Stat(filePath); err == nil {
		metadata["file_size"] = fmt.Sprintf("%d", info.Size())
	}

	return &Result{
		Content:          content,
		Title:            filePath,
		Metadata:         metadata,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}
