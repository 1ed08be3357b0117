// Package storage provides content-addressed backends for token metadata
// documents and relay audit exports. Documents are addressed by their
// Keccak-256 hash, so identical content stored through any backend resolves
// to the same id.
//
// Backends are created from location URIs by the factory:
//
//	file:///var/lib/registry/metadata
//	s3://ACCESS:SECRET@bucket/prefix?region=us-east-1
//	ipfs://127.0.0.1:5001/?timeout=30s
//	vault://TOKEN@vault.example.com:8200/secret/registry
//
// Several backends can be aggregated into a multi-backend that stores to
// every available backend and fetches from the first one holding the
// content.
package storage
