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

package blastradius

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "leaf"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "core"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "userone"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "usertwo"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(root, "leaf", "leaf.go"), []byte(`package leaf

func Noop() {}
`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(root, "core", "core.go"), []byte(`package core

func Shared() {}
`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(root, "userone", "userone.go"), []byte(`package userone

import "example.com/app/core"

func Use() { core.Shared() }
`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(root, "usertwo", "usertwo.go"), []byte(`package usertwo

import "example.com/app/core"

func Use() { core.Shared() }
`), 0o644))
}

func TestCalculateImpactLeafIsLow(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root)

	a := New(root)
	analysis := a.CalculateImpact([]string{"leaf/leaf.go"})
	require.Equal(t, LevelLow, analysis.Level)
	require.Equal(t, 0, analysis.IncomingDeps)
	require.True(t, a.ShouldFastTrack([]string{"leaf/leaf.go"}))
}

func TestCalculateImpactSharedIsMedium(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root)

	a := New(root)
	analysis := a.CalculateImpact([]string{"core/core.go"})
	require.Equal(t, LevelMedium, analysis.Level)
	require.Equal(t, 2, analysis.IncomingDeps)
	require.False(t, a.ShouldFastTrack([]string{"core/core.go"}))
}

func TestClearCacheForcesRebuild(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root)

	a := New(root)
	first := a.CalculateImpact([]string{"core/core.go"})
	require.Equal(t, 2, first.IncomingDeps)

	require.NoError(t, os.Remove(filepath.Join(root, "usertwo", "usertwo.go")))
	a.ClearCache()

	second := a.CalculateImpact([]string{"core/core.go"})
	require.Equal(t, 1, second.IncomingDeps)
}

func TestMalformedFileIsSkippedWithoutError(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "leaf", "broken.go"), []byte("not valid go {{{"), 0o644))

	a := New(root)
	require.NotPanics(t, func() {
		a.CalculateImpact([]string{"leaf/leaf.go"})
	})
}
