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

package reporting

import (
	"testing"

	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	t.Parallel()

	require.NoError(t, Init(config.ErrorReporting{}, "device", "dual"))
	assert.False(t, Enabled())
	Close()
}

func TestStripHome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "/usr/local/bin/ecmo-core", want: "/usr/local/bin/ecmo-core"},
		{in: "/home/perfusion/ecmo/config.toml", want: "/home/<user>/ecmo/config.toml"},
		{in: "open /Home/Nurse/x: denied", want: "open /home/<user>/x: denied"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, stripHome(tt.in))
		})
	}
}

func TestScrub(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "bed-4",
		Message:    "failed to read /home/perfusion/config.toml",
		Extra: map[string]any{
			"line":    "97.1,36.5,99.0,37.0,45.0,3.2",
			"command": "M:1500",
			"sample":  map[string]any{"o2_saturation_inlet": 97.1},
			"link":    "/dev/ttyACM0@9600",
		},
		Exception: []sentry.Exception{{
			Value: "open /home/perfusion/.config/ecmo-core/config.toml: permission denied",
			Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{{
				AbsPath:  "/home/dev/ecmo-core/pkg/link/link.go",
				Filename: "link.go",
			}}},
		}},
	}

	got := scrub(event)

	assert.Empty(t, got.ServerName)
	assert.Equal(t, "failed to read /home/<user>/config.toml", got.Message)
	assert.Equal(t, "[redacted]", got.Extra["line"])
	assert.Equal(t, "[redacted]", got.Extra["command"])
	assert.Equal(t, "[redacted]", got.Extra["sample"])
	assert.Equal(t, "/dev/ttyACM0@9600", got.Extra["link"])
	assert.Equal(t, "open /home/<user>/.config/ecmo-core/config.toml: permission denied", got.Exception[0].Value)
	assert.Equal(t, "/home/<user>/ecmo-core/pkg/link/link.go", got.Exception[0].Stacktrace.Frames[0].AbsPath)
}
