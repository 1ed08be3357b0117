package interfaces

import (
	"github.com/ethereum/go-ethereum/common"
)

// Forwarder verifies structured signed requests and dispatches them against
// the record store on behalf of the signer.
type Forwarder interface {
	// NonceOf exposes the counter a request for the given key must carry.
	NonceOf(key NonceKey) uint64

	// Verify checks the signature and nonce of a request without executing
	// or consuming anything.
	Verify(req ForwardRequest, signature []byte) error

	// Execute verifies req, consumes its nonce, and dispatches the call
	// data as req.From. A verification failure returns an error and
	// consumes nothing. Once verification passes the nonce is consumed
	// exactly once regardless of the dispatched call's outcome, and the
	// outcome is reported as (success, returnData) without error.
	Execute(req ForwardRequest, signature []byte) (bool, []byte, error)
}

// RelayDispatcher accepts pre-signed minter-authorized call data from an
// untrusted relayer.
type RelayDispatcher interface {
	// Relay decodes the leading selector of data, checks it against the
	// minting allow-list, recovers the signer, and requires an active
	// minter role. Verification failures return an error; the dispatched
	// mint's own outcome is reported as (success, returnData).
	Relay(relayer common.Address, data, signature []byte) (bool, []byte, error)
}
