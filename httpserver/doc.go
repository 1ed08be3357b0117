// Package httpserver exposes the registry backend over HTTP: read queries
// through the proxy reader, signed meta-transaction submission for both
// forwarding schemes, minter relay submission, metadata retrieval, and the
// operational endpoints (liveness, readiness, drain, pprof).
//
// The server carries no authentication of its own. Mutating endpoints
// accept only signed payloads; the signature, not the HTTP caller, is the
// authority.
package httpserver
