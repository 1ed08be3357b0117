package interfaces

import (
	"github.com/ethereum/go-ethereum/common"
)

// RegistryReader is the read-only surface of a record store. The proxy
// reader aggregates two of these during the migration period.
type RegistryReader interface {
	// Address returns the identity of this registry instance, bound into
	// signature digests to prevent cross-deployment replay.
	Address() common.Address

	// Exists reports whether the id has an owner.
	Exists(id TokenID) bool

	// OwnerOf returns the owner of id, or ErrTokenInvalid.
	OwnerOf(id TokenID) (common.Address, error)

	// ResolverOf returns the resolver responsible for id's records.
	ResolverOf(id TokenID) (common.Address, error)

	// BalanceOf returns the number of tokens owned by an account.
	BalanceOf(owner common.Address) int

	// Get returns the record value for key on id. Absent keys read as the
	// empty string; a missing token is ErrTokenInvalid.
	Get(key string, id TokenID) (string, error)

	// GetMany returns the values for several keys on id, in key order.
	GetMany(keys []string, id TokenID) ([]string, error)

	// NonceOf returns the current replay-protection counter for a key.
	// Counters exist implicitly at zero for keys never referenced.
	NonceOf(key NonceKey) uint64

	// IsApprovedOrOwner reports whether account may mutate id.
	IsApprovedOrOwner(account common.Address, id TokenID) bool

	// TokenURI renders the external metadata locator for id.
	TokenURI(id TokenID) (string, error)
}

// Registry is the full record store: reads plus caller-attributed mutating
// operations. Every mutating call is an atomic state transition; on error
// no state changes, on success the nonce for the operation's key advances
// by exactly one.
type Registry interface {
	RegistryReader

	// ExecuteChecked verifies that key's counter equals expected and runs
	// fn against the store in the same state transition. fn receives a
	// store view sharing that transition, so no other accepted mutating
	// call can land between the counter check and fn's operations. A
	// counter mismatch is ErrNonceInvalid and fn is not run. When
	// consumeOnFailure is set and fn fails without advancing the counter,
	// the counter is advanced anyway.
	ExecuteChecked(key NonceKey, expected uint64, consumeOnFailure bool, fn func(Registry) error) error

	// AddController authorizes an address to mint on this registry.
	// Administrator only.
	AddController(caller, controller common.Address) error

	// Mint assigns id to owner. Fails with ErrAlreadyMinted if id has an
	// owner, ErrReceiverIsEmpty for the zero address,
	// ErrCallerIsNotController unless caller is the administrator or an
	// authorized controller.
	Mint(caller, to common.Address, id TokenID, label string) error

	// SafeMint is Mint with an extra opaque payload recorded for the
	// receiver. The payload does not affect registry state.
	SafeMint(caller, to common.Address, id TokenID, label string, data []byte) error

	// MintWithRecords mints and installs the initial record set in the
	// same transition.
	MintWithRecords(caller, to common.Address, id TokenID, label string, keys, values []string) error

	// SetOwner replaces the owner without clearing approvals or records.
	SetOwner(caller, to common.Address, id TokenID) error

	// TransferFrom moves ownership and clears the token approval.
	TransferFrom(caller, from, to common.Address, id TokenID) error

	// SafeTransferFrom is TransferFrom with an extra opaque payload.
	SafeTransferFrom(caller, from, to common.Address, id TokenID, data []byte) error

	// Burn removes the token, its records, and its approval. The nonce
	// survives the burn.
	Burn(caller common.Address, id TokenID) error

	// Reset clears all records but keeps ownership. Idempotent.
	Reset(caller common.Address, id TokenID) error

	// Set writes a single record.
	Set(caller common.Address, key, value string, id TokenID) error

	// SetMany writes several records.
	SetMany(caller common.Address, keys, values []string, id TokenID) error

	// Reconfigure replaces the whole record set (reset + setMany).
	Reconfigure(caller common.Address, keys, values []string, id TokenID) error

	// Approve sets the single approved operator for id.
	Approve(caller, to common.Address, id TokenID) error

	// SetApprovalForAll grants or revokes operator over all of caller's
	// tokens. Consumes the caller's address-scoped nonce.
	SetApprovalForAll(caller, operator common.Address, approved bool) error

	// SetResolver points id's record resolution at a new address.
	SetResolver(caller common.Address, id TokenID, resolver common.Address) error

	// SetDefaultResolver replaces the resolver assigned at mint time.
	// Administrator only.
	SetDefaultResolver(caller, resolver common.Address) error

	// InvalidateNonce advances the counter for a key. Counters exist for
	// ids that were never minted, so a pre-signed request can be
	// invalidated before the mint it targets.
	InvalidateNonce(key NonceKey)

	// SetTokenURIPrefix replaces the metadata locator prefix.
	// Administrator only.
	SetTokenURIPrefix(caller common.Address, prefix string) error
}
