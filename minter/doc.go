// Package minter maintains the minter role set and routes second-level mint
// and claim operations to the registry owning each root namespace.
//
// Role transitions that carry value (closure, rotation) move the balance and
// the role in one critical section, so a failed transfer leaves the role
// untouched. The relay entry point accepts pre-signed call data from
// untrusted relayers, restricted to a fixed allow-list of mint selectors and
// to signers holding an active minter role.
package minter
