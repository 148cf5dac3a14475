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
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

type officeExtractor struct{}

func (o *officeExtractor) CanParse(filePath string) bool {
	return hasExt(filePath, ".docx", ".xlsx")
}

func (o *officeExtractor) SupportedExtensions() []string { return []string{".docx", ".xlsx"} }

func (o *officeExtractor) Extract(ctx context.Context, filePath string, fileSize int64) (*Result, error) {
	start := time.Now()

	var content string
	var metadata map[string]string
	var err error

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".docx":
		content, metadata, err = o.extractWord(filePath)
	case ".xlsx":
		content, metadata, err = o.extractExcel(ctx, filePath)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Content:          content,
		Title:            filepath.Base(filePath),
		Metadata:         metadata,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func (o *officeExtractor) extractWord(filePath string) (string, map[string]string, error) {
	doc, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	metadata := map[string]string{
		"type":       "docx",
		"paragraphs": fmt.Sprintf("%d", len(strings.Split(content, "\n\n"))),
	}
	return content, metadata, nil
}

func (o *officeExtractor) extractExcel(ctx context.Context, filePath string) (string, map[string]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	metadata := map[string]string{
		"type":   "xlsx",
		"sheets": fmt.Sprintf("%d", len(sheets)),
	}

	var parts []string
	const maxCellsPerSheet = 1000

	for _, sheetName := range sheets {
		select {
		case <-ctx.Done():
			return strings.Join(parts, "\n\n"), metadata, nil
		default:
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("--- Sheet: %s ---\n", sheetName))

		rows, err := f.GetRows(sheetName)
		if err != nil {
			sb.WriteString(fmt.Sprintf("error reading sheet: %v\n", err))
			continue
		}

		cellCount := 0
		for rowIndex, row := range rows {
			if cellCount >= maxCellsPerSheet {
				sb.WriteString("... (truncated)\n")
				break
			}
			for colIndex, cell := range row {
				if cellCount >= maxCellsPerSheet {
					break
				}
				if text := strings.TrimSpace(cell); text != "" {
					sb.WriteString(fmt.Sprintf("%s%d: %s\n", columnLetter(colIndex), rowIndex+1, text))
					cellCount++
				}
			}
		}

		if text := strings.TrimSpace(sb.String()); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), metadata, nil
}

// columnLetter converts a 0-based column index to its Excel column
// letter (A, B, ..., Z, AA, AB, ...).
func columnLetter(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}
