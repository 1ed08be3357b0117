// Package namehash derives hierarchical token identifiers.
//
// A child identifier is the Keccak-256 hash of the parent identifier
// concatenated with the Keccak-256 hash of the label's UTF-8 bytes. The
// derivation is pure and must stay bit-for-bit stable: identifiers computed
// by earlier deployments have to resolve identically here.
package namehash
