package forwarder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// Domain constants for the structured request scheme. Changing either
// invalidates every signature ever produced against this forwarder.
const (
	domainName    = "RegistryForwarder"
	domainVersion = "1"
)

var (
	domainTypehash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	forwardRequestTypehash = crypto.Keccak256Hash(
		[]byte("ForwardRequest(address from,uint256 gas,uint256 tokenId,uint256 nonce,bytes data)"))

	ethSignedMessagePrefix = []byte("\x19Ethereum Signed Message:\n32")
)

func u256(v uint64) []byte {
	return common.BigToHash(new(big.Int).SetUint64(v)).Bytes()
}

func padAddress(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

// DomainSeparator binds signatures to one forwarder deployment: the chain
// and the registry instance address.
func DomainSeparator(chainID *big.Int, verifyingContract common.Address) common.Hash {
	return crypto.Keccak256Hash(
		domainTypehash.Bytes(),
		crypto.Keccak256([]byte(domainName)),
		crypto.Keccak256([]byte(domainVersion)),
		common.BigToHash(chainID).Bytes(),
		padAddress(verifyingContract),
	)
}

// TypedDigest computes the structured digest of a forward request under the
// given domain separator.
func TypedDigest(domain common.Hash, req interfaces.ForwardRequest) common.Hash {
	structHash := crypto.Keccak256Hash(
		forwardRequestTypehash.Bytes(),
		padAddress(req.From),
		u256(req.Gas),
		req.TokenID.Bytes(),
		u256(req.Nonce),
		crypto.Keccak256(req.Data),
	)
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domain.Bytes(), structHash.Bytes())
}

// LegacyDigest computes the raw-hash scheme digest retained for backward
// compatibility: a wallet-style personal-message hash over the packed call
// encoding, the instance address, and the current nonce.
func LegacyDigest(instance common.Address, data []byte, nonce uint64) common.Hash {
	inner := crypto.Keccak256Hash(
		crypto.Keccak256(data),
		instance.Bytes(),
		u256(nonce),
	)
	return ethSignedMessageHash(inner)
}

// RelayDigest computes the minter relay digest: call data bound to the
// manager instance, with no nonce. Replay safety of relayed operations
// relies on their own idempotence.
func RelayDigest(instance common.Address, data []byte) common.Hash {
	inner := crypto.Keccak256Hash(
		crypto.Keccak256(data),
		instance.Bytes(),
	)
	return ethSignedMessageHash(inner)
}

func ethSignedMessageHash(h common.Hash) common.Hash {
	return crypto.Keccak256Hash(ethSignedMessagePrefix, h.Bytes())
}

// RecoverSigner recovers the signing address from a 65-byte [R || S || V]
// signature over digest. Empty and malformed signatures are distinct
// failures from a well-formed signature by the wrong key; all match
// ErrSignatureInvalid.
func RecoverSigner(digest common.Hash, signature []byte) (common.Address, error) {
	switch {
	case len(signature) == 0:
		return common.Address{}, interfaces.ErrSignatureEmpty
	case len(signature) != crypto.SignatureLength:
		return common.Address{}, interfaces.ErrSignatureMalformed
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return common.Address{}, interfaces.ErrSignatureMalformed
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", interfaces.ErrSignatureMalformed, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
