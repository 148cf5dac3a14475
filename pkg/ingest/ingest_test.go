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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRejectsUnsupportedExtension(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(context.Background(), "file.unknown", 0)
	require.Error(t, err)
}

func TestRegistrySupportedExtensions(t *testing.T) {
	r := NewRegistry()
	exts := r.SupportedExtensions()
	require.Contains(t, exts, ".pdf")
	require.Contains(t, exts, ".docx")
	require.Contains(t, exts, ".xlsx")
}

func TestColumnLetter(t *testing.T) {
	require.Equal(t, "A", columnLetter(0))
	require.Equal(t, "Z", columnLetter(25))
	require.Equal(t, "AA", columnLetter(26))
}
