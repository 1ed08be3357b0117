package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// lockedRegistry is the store view handed to ExecuteChecked callbacks. The
// write lock is already held, so every method delegates to the unexported
// locked bodies.
type lockedRegistry struct {
	r *Registry
}

var _ interfaces.Registry = (*lockedRegistry)(nil)

func (v *lockedRegistry) Address() common.Address {
	return v.r.address
}

func (v *lockedRegistry) Exists(id interfaces.TokenID) bool {
	return v.r.existsLocked(id)
}

func (v *lockedRegistry) OwnerOf(id interfaces.TokenID) (common.Address, error) {
	return v.r.ownerOfLocked(id)
}

func (v *lockedRegistry) ResolverOf(id interfaces.TokenID) (common.Address, error) {
	return v.r.resolverOfLocked(id)
}

func (v *lockedRegistry) BalanceOf(owner common.Address) int {
	return v.r.balances[owner]
}

func (v *lockedRegistry) Get(key string, id interfaces.TokenID) (string, error) {
	return v.r.getLocked(key, id)
}

func (v *lockedRegistry) GetMany(keys []string, id interfaces.TokenID) ([]string, error) {
	return v.r.getManyLocked(keys, id)
}

func (v *lockedRegistry) NonceOf(key interfaces.NonceKey) uint64 {
	return v.r.nonces[key]
}

func (v *lockedRegistry) InvalidateNonce(key interfaces.NonceKey) {
	v.r.nonces[key]++
}

func (v *lockedRegistry) IsApprovedOrOwner(account common.Address, id interfaces.TokenID) bool {
	return v.r.isApprovedOrOwnerLocked(account, id)
}

func (v *lockedRegistry) TokenURI(id interfaces.TokenID) (string, error) {
	return v.r.tokenURILocked(id)
}

func (v *lockedRegistry) ExecuteChecked(key interfaces.NonceKey, expected uint64, consumeOnFailure bool, fn func(interfaces.Registry) error) error {
	if v.r.nonces[key] != expected {
		return interfaces.ErrNonceInvalid
	}

	err := fn(v)
	if err != nil && consumeOnFailure && v.r.nonces[key] == expected {
		v.r.nonces[key]++
	}
	return err
}

func (v *lockedRegistry) AddController(caller, controller common.Address) error {
	if controller == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}
	if caller != v.r.admin {
		return interfaces.ErrCallerIsNotOwner
	}
	v.r.controllers[controller] = true
	return nil
}

func (v *lockedRegistry) Mint(caller, to common.Address, id interfaces.TokenID, label string) error {
	return v.r.mintWithRecordsLocked(caller, to, id, label, nil, nil)
}

func (v *lockedRegistry) SafeMint(caller, to common.Address, id interfaces.TokenID, label string, data []byte) error {
	return v.r.mintWithRecordsLocked(caller, to, id, label, nil, nil)
}

func (v *lockedRegistry) MintWithRecords(caller, to common.Address, id interfaces.TokenID, label string, keys, values []string) error {
	return v.r.mintWithRecordsLocked(caller, to, id, label, keys, values)
}

func (v *lockedRegistry) SetOwner(caller, to common.Address, id interfaces.TokenID) error {
	return v.r.setOwnerLocked(caller, to, id)
}

func (v *lockedRegistry) TransferFrom(caller, from, to common.Address, id interfaces.TokenID) error {
	return v.r.transferFromLocked(caller, from, to, id)
}

func (v *lockedRegistry) SafeTransferFrom(caller, from, to common.Address, id interfaces.TokenID, data []byte) error {
	return v.r.transferFromLocked(caller, from, to, id)
}

func (v *lockedRegistry) Burn(caller common.Address, id interfaces.TokenID) error {
	return v.r.burnLocked(caller, id)
}

func (v *lockedRegistry) Reset(caller common.Address, id interfaces.TokenID) error {
	return v.r.resetLocked(caller, id)
}

func (v *lockedRegistry) Set(caller common.Address, key, value string, id interfaces.TokenID) error {
	return v.r.setRecordsLocked(caller, []string{key}, []string{value}, id, false)
}

func (v *lockedRegistry) SetMany(caller common.Address, keys, values []string, id interfaces.TokenID) error {
	return v.r.setRecordsLocked(caller, keys, values, id, false)
}

func (v *lockedRegistry) Reconfigure(caller common.Address, keys, values []string, id interfaces.TokenID) error {
	return v.r.setRecordsLocked(caller, keys, values, id, true)
}

func (v *lockedRegistry) Approve(caller, to common.Address, id interfaces.TokenID) error {
	return v.r.approveLocked(caller, to, id)
}

func (v *lockedRegistry) SetApprovalForAll(caller, operator common.Address, approved bool) error {
	return v.r.setApprovalForAllLocked(caller, operator, approved)
}

func (v *lockedRegistry) SetResolver(caller common.Address, id interfaces.TokenID, resolver common.Address) error {
	return v.r.setResolverLocked(caller, id, resolver)
}

func (v *lockedRegistry) SetDefaultResolver(caller, resolver common.Address) error {
	if caller != v.r.admin {
		return interfaces.ErrCallerIsNotOwner
	}
	v.r.defaultResolver = resolver
	return nil
}

func (v *lockedRegistry) SetTokenURIPrefix(caller common.Address, prefix string) error {
	if caller != v.r.admin {
		return interfaces.ErrCallerIsNotOwner
	}
	v.r.uriPrefix = prefix
	return nil
}
