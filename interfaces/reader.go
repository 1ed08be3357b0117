package interfaces

import (
	"github.com/ethereum/go-ethereum/common"
)

// ProxyReader aggregates read-only queries across the current-generation
// registry and the legacy registry during the migration period. Unknown ids
// yield zero-value sentinels rather than errors.
type ProxyReader interface {
	// OwnerOf returns the owner from whichever registry holds id, or the
	// zero address.
	OwnerOf(id TokenID) common.Address

	// BalanceOf sums the account's holdings across both registries.
	BalanceOf(owner common.Address) int

	// ResolverOf returns the resolver from whichever registry holds id, or
	// the zero address.
	ResolverOf(id TokenID) common.Address

	// GetData returns resolver, owner, and record values for the keys in
	// one call.
	GetData(keys []string, id TokenID) (common.Address, common.Address, []string)

	// GetDataByHash is GetData for a batch of ids.
	GetDataByHash(keys []string, ids []TokenID) ([]common.Address, []common.Address, [][]string)

	// RegistryOf returns the address of the registry holding id, or the
	// zero address if neither does.
	RegistryOf(id TokenID) common.Address
}
