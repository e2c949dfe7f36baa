// Package api runs the GitOps portal as an HTTP service.
//
// Serve loads the configuration named by PORTAL_CONFIG (default portal.yaml),
// wires the registry client and the configured Git provider into a
// portal.Service and hands its routes to pkg/server, which owns middleware,
// probes, metrics and graceful shutdown.
//
// # Endpoints
//
// Application endpoints (rate limited):
//   - GET  /v1/repositories            - repositories of the registry project
//   - GET  /v1/tags?repository={name}  - tags of one repository, newest first
//   - POST /v1/manifests               - render manifests for a deployment request
//   - POST /v1/changes                 - render and open a pull or merge request
//
// System endpoints:
//   - GET /health  - liveness probe
//   - GET /ready   - readiness probe
//   - GET /metrics - Prometheus metrics
package api
