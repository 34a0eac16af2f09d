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

package helpers

import (
	"path/filepath"
	"testing"

	"github.com/ecmo-console/ecmo-core/pkg/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestConfigDir is where test configs live on the in-memory filesystem.
const TestConfigDir = "/etc/ecmo"

// NewTestConfig creates a config on an in-memory filesystem. contents is
// written as the config file first when not empty, otherwise the defaults
// are used.
func NewTestConfig(t *testing.T, contents string) *config.Instance {
	t.Helper()

	fs := afero.NewMemMapFs()
	if contents != "" {
		require.NoError(t, fs.MkdirAll(TestConfigDir, 0o750))
		require.NoError(t, afero.WriteFile(fs, filepath.Join(TestConfigDir, config.CfgFile), []byte(contents), 0o600))
	}

	cfg, err := config.NewConfigWithFs(fs, TestConfigDir, config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}
