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

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ecmo-console/ecmo-core/pkg/config"
)

// APIClient is the slice of the websocket API the command line uses.
// Params and results travel as raw JSON text.
type APIClient interface {
	Call(ctx context.Context, method, params string) (string, error)
	// WaitNotification returns the params of the next broadcast named
	// method. A negative timeout waits until ctx is done.
	WaitNotification(ctx context.Context, timeout time.Duration, method string) (string, error)
}

// LocalAPIClient dials the service described by cfg for every call.
type LocalAPIClient struct {
	cfg *config.Instance
}

var _ APIClient = (*LocalAPIClient)(nil)

func NewLocalAPIClient(cfg *config.Instance) *LocalAPIClient {
	return &LocalAPIClient{cfg: cfg}
}

func (c *LocalAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	res, err := LocalClient(ctx, c.cfg, method, params)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", method, err)
	}
	return res, nil
}

func (c *LocalAPIClient) WaitNotification(ctx context.Context, timeout time.Duration, method string) (string, error) {
	params, err := WaitNotification(ctx, timeout, c.cfg, method)
	if err != nil {
		return "", fmt.Errorf("waiting for %s: %w", method, err)
	}
	return params, nil
}
