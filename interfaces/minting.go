package interfaces

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MintingManager maintains the minter role set and routes mint and claim
// operations to the registry owning each root namespace.
type MintingManager interface {
	RelayDispatcher

	// IsMinter reports whether addr holds an active minter role.
	IsMinter(addr common.Address) bool

	// AddMinter activates addr. Administrator only.
	AddMinter(caller, addr common.Address) error

	// CloseMinter deactivates the caller's minter role, forwarding value
	// from the caller's balance to receiver in the same transition.
	CloseMinter(caller, receiver common.Address, value *big.Int) error

	// RotateMinter atomically deactivates the caller and activates addr,
	// forwarding value to addr in the same transition.
	RotateMinter(caller, addr common.Address, value *big.Int) error

	// MintSLD mints label under the root namespace, routed to the registry
	// owning that root. Minter only.
	MintSLD(caller, to common.Address, root TokenID, label string) error

	// SafeMintSLD is MintSLD with an extra opaque payload.
	SafeMintSLD(caller, to common.Address, root TokenID, label string, data []byte) error

	// MintSLDWithRecords mints with an initial record set.
	MintSLDWithRecords(caller, to common.Address, root TokenID, label string, keys, values []string) error

	// SafeMintSLDWithRecords is MintSLDWithRecords with an extra payload.
	SafeMintSLDWithRecords(caller, to common.Address, root TokenID, label string, keys, values []string, data []byte) error

	// Claim mints the caller a prefixed label under root. A second claim of
	// the same derived id fails with ErrAlreadyMinted.
	Claim(caller common.Address, root TokenID, label string) error

	// ClaimTo is Claim with an explicit recipient.
	ClaimTo(caller, to common.Address, root TokenID, label string) error

	// AuditTrail returns the relay records accepted so far, oldest first.
	AuditTrail() []RelayRecord
}

// Ledger is the native balance substrate used for atomic value forwarding
// during minter closure and rotation.
type Ledger interface {
	// BalanceOf returns the current balance of addr.
	BalanceOf(addr common.Address) *big.Int

	// Deposit credits addr. Negative amounts are rejected.
	Deposit(addr common.Address, value *big.Int) error

	// Transfer atomically moves value from one account to another. Fails
	// with ErrInsufficientBalance without partial effects.
	Transfer(from, to common.Address, value *big.Int) error
}
