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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ecmo-console/ecmo-core/internal/reporting"
	"github.com/ecmo-console/ecmo-core/pkg/api/client"
	"github.com/ecmo-console/ecmo-core/pkg/cli"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)

	exit, err := flags.Pre(os.Args[1:], os.Stdout)
	if exit || err != nil {
		return err
	}

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, err := cli.Setup(*flags.ConfigDir, logWriters)
	if err != nil {
		return err
	}
	defer reporting.Close()

	handled, err := flags.Post(context.Background(), client.NewLocalAPIClient(cfg), os.Stdout)
	if handled {
		return err
	}

	return cli.RunApp(cfg, *flags.Daemon, os.Stdout)
}
