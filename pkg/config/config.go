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

// Package config loads the console's TOML settings file. Values missing
// from the file keep their defaults, and the file is written on first run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/ecmo-console/ecmo-core/pkg/helpers/syncutil"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	// CfgEnv names a config file to use instead of the one in the config dir.
	CfgEnv = "ECMO_CFG"
)

var (
	ErrNoPath         = errors.New("config path not set")
	ErrSchemaMismatch = errors.New("unsupported config schema")
)

type Values struct {
	Protocol     string   `toml:"protocol" validate:"omitempty,oneof=single dual"`
	LogDir       string   `toml:"log_dir,omitempty"`
	Links        Links    `toml:"links"`
	Actuator     Actuator `toml:"actuator,omitempty"`
	Poll         Poll     `toml:"poll,omitempty"`
	Service      Service  `toml:"service,omitempty"`
	ConfigSchema int      `toml:"config_schema"`
	DebugLogging bool     `toml:"debug_logging"`
}

// BaseDefaults matches the reference console: a dedicated sensor board on
// ttyACM1 and the pump controller on ttyACM0.
var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Protocol:     "dual",
	Links: Links{
		Sensor:   LinkConfig{Path: "/dev/ttyACM1", BaudRate: 9600},
		Actuator: LinkConfig{Path: "/dev/ttyACM0", BaudRate: 115200},
	},
}

type Instance struct {
	fs       afero.Fs
	path     string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // defaults are copied so callers cannot mutate them later
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	return NewConfigWithFs(afero.NewOsFs(), configDir, defaults)
}

//nolint:gocritic // defaults are copied so callers cannot mutate them later
func NewConfigWithFs(fs afero.Fs, configDir string, defaults Values) (*Instance, error) {
	path := filepath.Join(configDir, CfgFile)
	if override := os.Getenv(CfgEnv); override != "" {
		log.Debug().Str("path", override).Msg("config path set from environment")
		path = override
	}

	c := &Instance{
		fs:       fs,
		path:     path,
		vals:     defaults,
		defaults: defaults,
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("checking config file: %w", err)
	}
	if !exists {
		log.Info().Str("path", path).Msg("no config file, writing defaults")
		if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating config dir: %w", err)
		}
		if err := c.Save(); err != nil {
			return nil, err
		}
	}

	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load rereads the file. On any error the current values are kept.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return ErrNoPath
	}
	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	vals, err := decode(data, c.defaults)
	if err != nil {
		return fmt.Errorf("%s: %w", c.path, err)
	}
	c.vals = vals
	return nil
}

//nolint:gocritic // defaults copied on purpose, decode overlays the file on them
func decode(data []byte, defaults Values) (Values, error) {
	vals := defaults
	if err := toml.Unmarshal(data, &vals); err != nil {
		return Values{}, fmt.Errorf("parsing config: %w", err)
	}
	if vals.ConfigSchema != SchemaVersion {
		return Values{}, fmt.Errorf("%w: file has %d, want %d",
			ErrSchemaMismatch, vals.ConfigSchema, SchemaVersion)
	}
	if err := configValidator.Struct(&vals); err != nil {
		return Values{}, fmt.Errorf("invalid config: %w", err)
	}
	return vals, nil
}

// Save writes the current values, assigning a device id on first save. The
// file is replaced through a rename so a crash never leaves it truncated.
func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return ErrNoPath
	}

	c.vals.ConfigSchema = SchemaVersion
	if c.vals.Service.DeviceID == "" {
		c.vals.Service.DeviceID = uuid.NewString()
		log.Info().Str("device_id", c.vals.Service.DeviceID).Msg("assigned device id")
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := c.fs.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// view reads from the values under the read lock.
func view[T any](c *Instance, f func(v *Values) T) T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return f(&c.vals)
}

func (c *Instance) update(f func(v *Values)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(&c.vals)
}

func orDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func (c *Instance) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

func (c *Instance) Protocol() string {
	return view(c, func(v *Values) string { return v.Protocol })
}

// LogDir defaults to the logs directory under the XDG data home.
func (c *Instance) LogDir() string {
	return view(c, func(v *Values) string {
		if v.LogDir == "" {
			return filepath.Join(xdg.DataHome, AppName, LogsDir)
		}
		return v.LogDir
	})
}

func (c *Instance) DebugLogging() bool {
	return view(c, func(v *Values) bool { return v.DebugLogging })
}

// SetDebugLogging also switches the global log level.
func (c *Instance) SetDebugLogging(enabled bool) {
	c.update(func(v *Values) { v.DebugLogging = enabled })
	level := zerolog.InfoLevel
	if enabled {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

var configValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateLinks, Links{})
	return v
}()
