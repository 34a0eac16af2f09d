// ECMO Console Core
// Copyright (c) 2026 The ECMO Console Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ECMO Console Core.
//
// ECMO Console Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ECMO Console Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ECMO Console Core.  If not, see <http://www.gnu.org/licenses/>.

// Package reporting sends error level log events to Sentry when the operator
// opts in. Patient data carried in log fields is removed before sending.
package reporting

import (
	"fmt"
	"regexp"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/ecmo-console/ecmo-core/pkg/helpers"
	"github.com/getsentry/sentry-go"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	flushTimeout = 2 * time.Second
	redacted     = "[redacted]"
)

// telemetryFields are log fields that carry raw device traffic, which can
// hold patient readings.
var telemetryFields = map[string]struct{}{
	"line":    {},
	"command": {},
	"sample":  {},
}

var homeDir = regexp.MustCompile(`(?i)/home/[^/]+/`)

type reporter struct {
	writer *sentryzerolog.Writer
	closed sync.Once
}

var active atomic.Pointer[reporter]

// Init starts Sentry reporting if cfg enables it and tees the global logger
// into it. A disabled config is not an error.
func Init(cfg config.ErrorReporting, deviceID, protocol string) error {
	if !cfg.Enabled {
		log.Debug().Msg("error reporting disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Release:          fmt.Sprintf("%s@%s", config.AppName, config.AppVersion),
		AttachStacktrace: true,
		MaxBreadcrumbs:   0,
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrub(e)
		},
	})
	if err != nil {
		return fmt.Errorf("starting sentry: %w", err)
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: deviceID})
		scope.SetTags(map[string]string{
			"protocol": protocol,
			"os":       runtime.GOOS,
			"arch":     runtime.GOARCH,
		})
	})

	w, err := sentryzerolog.NewWithHub(sentry.CurrentHub(), sentryzerolog.Options{
		Levels:       []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		FlushTimeout: flushTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating sentry log writer: %w", err)
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(helpers.LogWriter(), w)).
		With().Timestamp().Caller().Logger()

	active.Store(&reporter{writer: w})
	log.Info().Str("release", config.AppVersion).Msg("error reporting enabled")
	return nil
}

// Close flushes pending events. Safe to call more than once.
func Close() {
	r := active.Load()
	if r == nil {
		return
	}
	r.closed.Do(func() {
		if err := r.writer.Close(); err != nil {
			log.Debug().Err(err).Msg("closing sentry log writer")
		}
		sentry.Flush(flushTimeout)
	})
}

func Enabled() bool {
	return active.Load() != nil
}

// scrub drops the host name, telemetry fields and home directory names
// from an event before it leaves the console.
func scrub(e *sentry.Event) *sentry.Event {
	e.ServerName = ""
	e.Message = stripHome(e.Message)

	for k, v := range e.Extra {
		if _, ok := telemetryFields[k]; ok {
			e.Extra[k] = redacted
			continue
		}
		if s, ok := v.(string); ok {
			e.Extra[k] = stripHome(s)
		}
	}

	for i := range e.Exception {
		ex := &e.Exception[i]
		ex.Value = stripHome(ex.Value)
		if ex.Stacktrace == nil {
			continue
		}
		for j := range ex.Stacktrace.Frames {
			f := &ex.Stacktrace.Frames[j]
			f.AbsPath = stripHome(f.AbsPath)
			f.Filename = stripHome(f.Filename)
		}
	}
	return e
}

func stripHome(s string) string {
	return homeDir.ReplaceAllString(s, "/home/<user>/")
}
