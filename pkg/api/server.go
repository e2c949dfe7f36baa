// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package api

import (
	"context"
	"log/slog"

	"github.com/NVIDIA/gitops-portal/pkg/config"
	"github.com/NVIDIA/gitops-portal/pkg/logging"
	"github.com/NVIDIA/gitops-portal/pkg/portal"
	"github.com/NVIDIA/gitops-portal/pkg/server"
)

const (
	name           = "portald"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/NVIDIA/gitops-portal/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the API server and blocks until shutdown. Configuration
// errors are returned before anything listens.
func Serve() error {
	ctx := context.Background()

	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	s, err := newServer(config.ResolvePath(""))
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		return err
	}

	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}

	return nil
}

func newServer(configPath string) (*server.Server, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	svc, err := portal.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("portal configured",
		"provider", cfg.Provider,
		"registry", cfg.Registry.Type,
		"project", cfg.Registry.Project,
		"cleanupOnFailure", cfg.CleanupOnFailure)

	return server.New(
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(svc.Handlers()),
	), nil
}
