// Package main (cmd/registryserver) runs the naming registry backend.
//
// The server hosts one or two in-memory registry generations behind a proxy
// reader, the generic and legacy signed-request forwarders, the minting
// manager with its relay endpoint, an optional DNS gateway answering from
// dns.* records, and content-addressed metadata storage aggregated from the
// configured backend URIs.
//
// Configuration is handled through command-line flags, with separate
// settings for listen addresses, chain binding, namespace routing, storage,
// and logging. The server implements graceful shutdown on SIGINT/SIGTERM
// and exposes health checks, Prometheus metrics, and optional profiling
// endpoints.
//
// Example usage:
//
//	registryserver --listen-addr=0.0.0.0:8080 \
//	    --chain-id=1337 \
//	    --root=crypto --root=wallet \
//	    --storage-uri=file:///var/lib/registry \
//	    --dns-listen-addr=0.0.0.0:5353
package main
