package interfaces

import (
	"github.com/ethereum/go-ethereum/common"
)

// TokenID is a 256-bit hierarchical entity identifier. Root identifiers are
// assigned at bootstrap; all others are derived from (parent, label) by the
// namehash package.
type TokenID = common.Hash

// NonceKey scopes a replay-protection counter. Signed requests that target a
// specific token use the token id; requests with no token target (blanket
// operator approvals) use the signer's address, left-padded to 32 bytes.
type NonceKey = common.Hash

// AddressNonceKey builds the address-scoped nonce key for an account.
func AddressNonceKey(addr common.Address) NonceKey {
	return common.BytesToHash(addr.Bytes())
}

// ForwardRequest is the structured meta-transaction envelope verified by the
// generic forwarder. Data carries an ABI-encoded call against the registry.
type ForwardRequest struct {
	From    common.Address `json:"from"`
	Gas     uint64         `json:"gas"`
	TokenID TokenID        `json:"tokenId"`
	Nonce   uint64         `json:"nonce"`
	Data    []byte         `json:"data"`
}

// NonceKeyFor returns the counter key the request is verified and consumed
// against: the token id when one is set, otherwise the sender's address key.
func (r ForwardRequest) NonceKeyFor() NonceKey {
	if r.TokenID != (TokenID{}) {
		return r.TokenID
	}
	return AddressNonceKey(r.From)
}

// RelayRecord is the audit entry emitted for every accepted minter relay.
type RelayRecord struct {
	Relayer    common.Address `json:"relayer"`
	Signer     common.Address `json:"signer"`
	Selector   [4]byte        `json:"selector"`
	DataDigest common.Hash    `json:"dataDigest"`
}
