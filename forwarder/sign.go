package forwarder

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignDigest produces a 65-byte [R || S || V] signature over a digest.
// Client-side counterpart of RecoverSigner, used by the signer tooling and
// tests.
func SignDigest(digest common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	return crypto.Sign(digest.Bytes(), key)
}
