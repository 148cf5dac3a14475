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

package logger

import (
	"context"
	"io"
	"log"
	"log/slog"

	"github.com/hashicorp/go-hclog"
)

// hclogAdapter routes hashicorp/go-plugin's subprocess logging through
// this package's slog-based handler, so plugin output gets the same
// level filtering and formatting as the rest of the council runtime
// instead of hclog's own default writer.
type hclogAdapter struct {
	name string
	l    *slog.Logger
}

// NewHCLogAdapter wraps GetLogger() as an hclog.Logger, for passing to
// hashicorp/go-plugin's ClientConfig.Logger.
func NewHCLogAdapter(name string) hclog.Logger {
	return &hclogAdapter{name: name, l: GetLogger().With("component", name)}
}

func (a *hclogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		a.l.Debug(msg, args...)
	case hclog.Warn:
		a.l.Warn(msg, args...)
	case hclog.Error:
		a.l.Error(msg, args...)
	default:
		a.l.Info(msg, args...)
	}
}

func (a *hclogAdapter) Trace(msg string, args ...interface{}) { a.l.Debug(msg, args...) }
func (a *hclogAdapter) Debug(msg string, args ...interface{}) { a.l.Debug(msg, args...) }
func (a *hclogAdapter) Info(msg string, args ...interface{})  { a.l.Info(msg, args...) }
func (a *hclogAdapter) Warn(msg string, args ...interface{})  { a.l.Warn(msg, args...) }
func (a *hclogAdapter) Error(msg string, args ...interface{}) { a.l.Error(msg, args...) }

func (a *hclogAdapter) IsTrace() bool { return a.l.Enabled(context.Background(), slog.LevelDebug) }
func (a *hclogAdapter) IsDebug() bool { return a.l.Enabled(context.Background(), slog.LevelDebug) }
func (a *hclogAdapter) IsInfo() bool  { return a.l.Enabled(context.Background(), slog.LevelInfo) }
func (a *hclogAdapter) IsWarn() bool  { return a.l.Enabled(context.Background(), slog.LevelWarn) }
func (a *hclogAdapter) IsError() bool { return a.l.Enabled(context.Background(), slog.LevelError) }

func (a *hclogAdapter) ImpliedArgs() []interface{} { return nil }

func (a *hclogAdapter) With(args ...interface{}) hclog.Logger {
	return &hclogAdapter{name: a.name, l: a.l.With(args...)}
}

func (a *hclogAdapter) Name() string { return a.name }

func (a *hclogAdapter) Named(name string) hclog.Logger {
	if a.name != "" {
		name = a.name + "." + name
	}
	return &hclogAdapter{name: name, l: a.l.With("component", name)}
}

func (a *hclogAdapter) ResetNamed(name string) hclog.Logger {
	return &hclogAdapter{name: name, l: a.l.With("component", name)}
}

func (a *hclogAdapter) SetLevel(hclog.Level) {}

func (a *hclogAdapter) GetLevel() hclog.Level { return hclog.Info }

func (a *hclogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(a.StandardWriter(opts), "", 0)
}

func (a *hclogAdapter) StandardWriter(*hclog.StandardLoggerOptions) io.Writer {
	return &hclogWriter{a: a}
}

// hclogWriter adapts io.Writer.Write calls (used by go-plugin to forward
// a subprocess's raw stderr lines) into slog records.
type hclogWriter struct{ a *hclogAdapter }

func (w *hclogWriter) Write(p []byte) (int, error) {
	w.a.l.Info(string(p))
	return len(p), nil
}

var _ hclog.Logger = (*hclogAdapter)(nil)
