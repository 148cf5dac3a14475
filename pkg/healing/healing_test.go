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

package healing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSucceedsImmediatelyWhenTestsPass(t *testing.T) {
	l := New("true", 3, t.TempDir())
	report := l.Run(context.Background())
	require.Equal(t, StatusSuccess, report.Status)
	require.Equal(t, 0, report.TotalIterations)
}

func TestRunEscalatesToHumanWithNopPatcher(t *testing.T) {
	l := New("false", 2, t.TempDir())
	report := l.Run(context.Background())
	require.True(t, report.RequiresHuman)
	require.Contains(t, []Status{StatusMaxIterations, StatusPartial}, report.Status)
}

func TestApplyPatchRejectsLowConfidence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main\nfunc old() {}\n"), 0o644))

	l := New("true", 1, dir)
	applied := l.ApplyPatch(Patch{FilePath: file, OriginalContent: "old", PatchedContent: "new", Confidence: 0.2})
	require.False(t, applied)
}

func TestApplyAndRollbackPatch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main\nfunc old() {}\n"), 0o644))

	l := New("true", 1, dir)
	p := Patch{FilePath: file, OriginalContent: "func old() {}", PatchedContent: "func fixed() {}", Confidence: 0.9}
	require.True(t, l.ApplyPatch(p))

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(content), "func fixed()")

	rolled := l.RollbackPatches()
	require.Equal(t, 1, rolled)

	content, err = os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(content), "func old()")
}

func TestNopPatcherAlwaysZeroConfidence(t *testing.T) {
	p, err := NopPatcher{}.GeneratePatch(context.Background(), Diagnosis{FailedTest: "TestFoo"})
	require.NoError(t, err)
	require.Equal(t, 0.0, p.Confidence)
}
