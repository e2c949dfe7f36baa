// Package server is the HTTP server behind the portal API daemon.
//
// Handlers are registered by path and wrapped in a fixed middleware chain:
// Prometheus metrics, API version negotiation, request ID, panic recovery,
// token bucket rate limiting, then request logging. The system endpoints
// /health, /ready and /metrics bypass the chain.
//
// Usage:
//
//	s := server.New(
//	    server.WithName("portald"),
//	    server.WithVersion(version),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "/v1/repositories": svc.HandleRepositories,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// # Errors
//
// Every error reply has the same JSON shape:
//
//	{
//	  "code": "BRANCH_NOT_FOUND",
//	  "message": "base branch not found",
//	  "details": {"branch": "main", "error": "GET ...: 404 Not Found []"},
//	  "requestId": "550e8400-e29b-41d4-a716-446655440000",
//	  "timestamp": "2025-12-22T12:00:00Z",
//	  "retryable": false
//	}
//
// WriteErrorFromErr derives status, code and details from a structured error;
// HTTPStatusFromCode holds the mapping.
//
// # Configuration
//
// PORT overrides the listen port and SHUTDOWN_TIMEOUT_SECONDS the graceful
// shutdown window.
package server
