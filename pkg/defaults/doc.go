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

// Package defaults provides centralized configuration constants for the portal.
//
// This package defines timeout values, cache windows, page sizes and the
// fixed workload shape used across the codebase. Centralizing these values
// ensures consistency and makes tuning easier.
//
// # Categories
//
//   - Registry: cache TTL, page sizes, fallback tag
//   - Workload: container port and GitOps path layout
//   - Handler timeouts: for HTTP request processing
//   - Server timeouts: for HTTP server configuration
//   - HTTP client timeouts: for outbound registry and Git host requests
//
// # Usage
//
//	import "github.com/NVIDIA/gitops-portal/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.SubmitHandlerTimeout)
//	defer cancel()
package defaults
