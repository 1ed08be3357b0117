// Package interfaces defines the shared types, errors, and component
// interfaces used across the naming registry backend.
//
// The package contains no implementation logic. It exists so that the
// registry, forwarder, minting manager, proxy reader, storage, and HTTP
// server packages can depend on common definitions without depending on
// each other.
//
// # Identifiers
//
// Every entity in the naming tree is addressed by a 256-bit TokenID derived
// from its parent and label (see the namehash package). Accounts are
// standard 20-byte addresses. Replay-protection nonces are keyed by a
// common.Hash that is either a token id or an address left-padded to
// 32 bytes, so one counter table serves both key spaces.
//
// # Errors
//
// The error taxonomy follows the authorization model: signature failures
// are distinguishable (empty, malformed, wrong signer, stale nonce) but all
// match ErrSignatureInvalid via errors.Is. Authorization failures
// (ErrNotApprovedOrOwner, ErrCallerIsNotMinter, ...) name the role that was
// missing.
package interfaces
