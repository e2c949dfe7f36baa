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

package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindRepositories = "repositories"
	kindTags         = "tags"
)

var (
	registryCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_registry_cache_hits_total",
			Help: "Total number of registry listings served from cache",
		},
		[]string{"kind"},
	)
	registryCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_registry_cache_misses_total",
			Help: "Total number of registry listings fetched from the registry",
		},
		[]string{"kind"},
	)
	registryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_registry_failures_total",
			Help: "Total number of registry listings that degraded to a fallback result",
		},
		[]string{"kind"},
	)
)
