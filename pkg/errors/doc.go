// Package errors provides structured error types for better observability
// and programmatic error handling across the portal.
//
// Registry, manifest and Git provider failures all surface as a
// StructuredError carrying an ErrorCode, so callers can branch on the
// failure class without string matching:
//
//	_, err := provider.SubmitChangeRequest(ctx, cr)
//	if errors.IsCode(err, errors.ErrCodeBranchNotFound) {
//	    // base branch is missing, nothing was created remotely
//	}
//
// Context carries provider details such as the HTTP status and the branch
// involved:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeBranchCreationFailed,
//	    "failed to create branch",
//	    cause,
//	    map[string]any{
//	        "branch": "deploy/orders-api-1a2b3c",
//	        "status": 422,
//	    },
//	)
package errors
