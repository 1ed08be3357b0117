// Package common holds process-level metadata and logging setup shared by
// all binaries in this repository.
package common

// PackageName is the service identifier used for metrics namespacing and
// log tagging.
const PackageName = "naming-registry-backend"

// Version is set at build time via -ldflags.
var Version = "dev"
