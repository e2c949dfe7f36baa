// Package registry lists container image repositories and tags.
//
// A Backend speaks one registry API and reports failures. The Client handed
// to callers wraps a Backend with a TTL cache and best-effort degradation:
// it never returns an error. When the registry cannot be reached,
// ListRepositories returns an empty slice, which callers must read as
// "unknown, let the user type a name" rather than "no repositories", and
// ListTags returns a single fallback tag so there is always a selectable
// default.
//
// Two backends are provided:
//
//   - Harbor: the Harbor v2.0 REST API, scoped to one project.
//   - OCI: the generic OCI distribution API (/v2/_catalog, tags/list),
//     filtered to the project prefix.
//
// Results are cached per (registry URL, project, credentials) and, for tags,
// per repository. Concurrent misses for the same key share one outbound call.
// Staleness up to the TTL is accepted; failures are never cached.
package registry
