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

// Package manifest renders the Kubernetes manifests committed for a deployment.
//
// A DeploymentRequest always yields the same four documents, in this order:
//
//	deployments.yaml    apps/v1 Deployment
//	services.yaml       v1 Service
//	ingress.yaml        networking.k8s.io/v1 Ingress
//	kustomization.yaml  kustomize Kustomization listing the three above
//
// Every document carries the app.kubernetes.io/name and
// app.kubernetes.io/instance labels set to the app name, and the container
// port, readiness probe and service target port all use the same port.
//
// Generation is a pure function. Documents are built from typed API objects,
// converted to unstructured maps, stripped of server-populated fields and
// encoded with sorted keys, so identical requests produce byte-identical
// output.
//
// Usage:
//
//	image, err := manifest.ImageReference(cfg.Registry.URL, cfg.Registry.Project,
//	    manifest.ImageSelection{Repository: "orders-api", Tag: "v3"})
//	set, err := manifest.Generate(manifest.DeploymentRequest{
//	    AppName:  "orders-api",
//	    Image:    image,
//	    Replicas: 2,
//	    Host:     "orders-api",
//	})
//	for _, f := range set.Files() {
//	    fmt.Println(f.Name, len(f.Content))
//	}
package manifest
