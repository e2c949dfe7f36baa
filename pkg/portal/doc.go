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

// Package portal is the deployment pipeline behind every surface of the
// GitOps portal: pick an image from the registry, render its manifests and
// propose them to the GitOps repository as a pull or merge request.
//
// The HTTP API, the CLI and the MCP server all drive the same Service:
//
//	svc, err := portal.FromConfig(cfg)
//	if err != nil {
//		return err
//	}
//	res, err := svc.Submit(ctx, portal.Request{
//		DeploymentRequest: manifest.DeploymentRequest{AppName: "orders-api"},
//		Selection:         &manifest.ImageSelection{Repository: "orders-api", Tag: "v2"},
//	})
//
// Registry listings never fail; provider errors are returned as they were
// classified by pkg/scm.
package portal
