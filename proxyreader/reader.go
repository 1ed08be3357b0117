package proxyreader

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// Reader implements interfaces.ProxyReader over a primary (current
// generation) and a secondary (legacy) registry. The secondary may be nil
// for single-registry deployments.
type Reader struct {
	primary   interfaces.RegistryReader
	secondary interfaces.RegistryReader
}

func New(primary, secondary interfaces.RegistryReader) *Reader {
	return &Reader{primary: primary, secondary: secondary}
}

// holderOf returns the registry holding id, primary first.
func (r *Reader) holderOf(id interfaces.TokenID) interfaces.RegistryReader {
	if r.primary.Exists(id) {
		return r.primary
	}
	if r.secondary != nil && r.secondary.Exists(id) {
		return r.secondary
	}
	return nil
}

// OwnerOf returns the owner from whichever registry holds id, or the zero
// address.
func (r *Reader) OwnerOf(id interfaces.TokenID) common.Address {
	reg := r.holderOf(id)
	if reg == nil {
		return common.Address{}
	}
	owner, err := reg.OwnerOf(id)
	if err != nil {
		return common.Address{}
	}
	return owner
}

// BalanceOf sums the account's holdings across both registries.
func (r *Reader) BalanceOf(owner common.Address) int {
	total := r.primary.BalanceOf(owner)
	if r.secondary != nil {
		total += r.secondary.BalanceOf(owner)
	}
	return total
}

// ResolverOf returns the resolver from whichever registry holds id, or the
// zero address.
func (r *Reader) ResolverOf(id interfaces.TokenID) common.Address {
	reg := r.holderOf(id)
	if reg == nil {
		return common.Address{}
	}
	resolver, err := reg.ResolverOf(id)
	if err != nil {
		return common.Address{}
	}
	return resolver
}

// GetData returns resolver, owner, and record values for the keys in one
// call. Unknown ids yield zero addresses and empty strings for every key.
func (r *Reader) GetData(keys []string, id interfaces.TokenID) (common.Address, common.Address, []string) {
	values := make([]string, len(keys))

	reg := r.holderOf(id)
	if reg == nil {
		return common.Address{}, common.Address{}, values
	}

	resolver, _ := reg.ResolverOf(id)
	owner, _ := reg.OwnerOf(id)
	if got, err := reg.GetMany(keys, id); err == nil {
		values = got
	}
	return resolver, owner, values
}

// GetDataByHash is GetData for a batch of ids, index-aligned.
func (r *Reader) GetDataByHash(keys []string, ids []interfaces.TokenID) ([]common.Address, []common.Address, [][]string) {
	resolvers := make([]common.Address, len(ids))
	owners := make([]common.Address, len(ids))
	values := make([][]string, len(ids))

	for i, id := range ids {
		resolvers[i], owners[i], values[i] = r.GetData(keys, id)
	}
	return resolvers, owners, values
}

// RegistryOf returns the address of the registry holding id, or the zero
// address if neither does.
func (r *Reader) RegistryOf(id interfaces.TokenID) common.Address {
	reg := r.holderOf(id)
	if reg == nil {
		return common.Address{}
	}
	return reg.Address()
}
