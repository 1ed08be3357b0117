// Package forwarder implements the meta-transaction layer: verification of
// signed requests and their dispatch against the record store on behalf of
// the signer.
//
// Two schemes coexist. The generic forwarder verifies a structured,
// domain-separated request envelope carrying ABI-encoded call data. The
// legacy forwarder keeps one entry point per mutating operation, verified
// with a simpler packed-hash scheme, and is retained for backward
// compatibility. Both consult and consume the same per-key nonce counters
// in the record store, so a pending signature under either scheme is
// invalidated by any accepted request against the same key.
//
// Call data is not interpreted by reflection: a closed ABI describes the
// permitted record store operations, and the dispatcher refuses anything
// outside it.
package forwarder
