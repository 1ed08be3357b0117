// Package registry implements the record store: per-token ownership,
// approvals, key/value records, resolver pointers, and the shared
// replay-protection nonce table consulted by both forwarding schemes.
//
// The store is the authoritative ledger for its registry instance. Every
// mutating operation is a single atomic transition serialized by the store's
// lock: validation happens first, and only a fully validated operation
// mutates state, so failures leave no partial effects. Accepted mutating
// operations advance the nonce of the key they are scoped to by exactly one.
package registry
