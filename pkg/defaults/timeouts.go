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

package defaults

import "time"

// Registry query defaults.
const (
	// RegistryCacheTTL bounds how long repository and tag listings are served
	// from cache before the registry is queried again.
	RegistryCacheTTL = 5 * time.Minute

	// RegistryRepositoryPageSize is the page_size sent when listing repositories.
	RegistryRepositoryPageSize = 100

	// RegistryArtifactPageSize is the page_size sent when listing artifacts.
	RegistryArtifactPageSize = 50

	// FallbackTag is returned when a tag listing cannot be fetched.
	FallbackTag = "latest"
)

// Workload shape shared by every generated manifest set.
const (
	// ContainerPort is the port exposed by the container, probed for
	// readiness and targeted by the service.
	ContainerPort = 8501

	// ContainerPortName names the container and service port.
	ContainerPortName = "http"

	// MaxReplicas is the upper bound accepted for a deployment request.
	MaxReplicas = 5

	// MinReplicas is the lower bound accepted for a deployment request.
	MinReplicas = 1

	// AppsPathPrefix is the directory in the GitOps repository holding one
	// subdirectory per application.
	AppsPathPrefix = "apps"

	// BranchPrefix prefixes every generated deploy branch.
	BranchPrefix = "deploy"

	// BranchSuffixLength is the number of hex characters in a branch suffix.
	BranchSuffixLength = 6
)

// Handler timeouts for HTTP request processing.
const (
	// RegistryHandlerTimeout is the timeout for repository and tag listings.
	RegistryHandlerTimeout = 30 * time.Second

	// SubmitHandlerTimeout is the timeout for change request submission.
	// Longer than the others since it chains several Git host calls.
	SubmitHandlerTimeout = 90 * time.Second

	// BranchCleanupTimeout bounds deleting a deploy branch after a failed
	// submission.
	BranchCleanupTimeout = 15 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	// Must cover SubmitHandlerTimeout.
	ServerWriteTimeout = 100 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound requests.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second

	// HTTPExpectContinueTimeout is the timeout for Expect: 100-continue.
	HTTPExpectContinueTimeout = 1 * time.Second
)
