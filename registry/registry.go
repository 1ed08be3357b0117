package registry

import (
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// token is the per-id entry. A token that was never minted has no entry;
// its nonce still lives in the store's nonce table.
type token struct {
	owner    common.Address
	resolver common.Address
	approved common.Address
	uri      string
	records  map[string]string
}

// Registry is an in-memory record store for one registry instance.
//
// Public operations lock the store and delegate to unexported locked
// bodies; ExecuteChecked reuses those bodies to run a nonce check and a
// dispatched operation as one state transition.
type Registry struct {
	mu sync.RWMutex

	address         common.Address
	admin           common.Address
	defaultResolver common.Address
	uriPrefix       string

	tokens      map[interfaces.TokenID]*token
	operators   map[common.Address]map[common.Address]bool
	controllers map[common.Address]bool
	nonces      map[interfaces.NonceKey]uint64
	balances    map[common.Address]int

	log *slog.Logger
}

// New creates a registry instance identified by address and administered by
// admin. Minted tokens self-resolve by default; use SetDefaultResolver to
// point a legacy instance at an external resolver.
func New(address, admin common.Address, log *slog.Logger) *Registry {
	return &Registry{
		address:         address,
		admin:           admin,
		defaultResolver: address,
		uriPrefix:       "/",
		tokens:          make(map[interfaces.TokenID]*token),
		operators:       make(map[common.Address]map[common.Address]bool),
		controllers:     make(map[common.Address]bool),
		nonces:          make(map[interfaces.NonceKey]uint64),
		balances:        make(map[common.Address]int),
		log:             log,
	}
}

// Address returns the instance identity bound into signature digests.
func (r *Registry) Address() common.Address {
	return r.address
}

// Exists reports whether id has an owner.
func (r *Registry) Exists(id interfaces.TokenID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.existsLocked(id)
}

func (r *Registry) existsLocked(id interfaces.TokenID) bool {
	_, ok := r.tokens[id]
	return ok
}

// OwnerOf returns the owner of id.
func (r *Registry) OwnerOf(id interfaces.TokenID) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ownerOfLocked(id)
}

func (r *Registry) ownerOfLocked(id interfaces.TokenID) (common.Address, error) {
	tok, ok := r.tokens[id]
	if !ok {
		return common.Address{}, interfaces.ErrTokenInvalid
	}
	return tok.owner, nil
}

// ResolverOf returns the resolver responsible for id's records.
func (r *Registry) ResolverOf(id interfaces.TokenID) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolverOfLocked(id)
}

func (r *Registry) resolverOfLocked(id interfaces.TokenID) (common.Address, error) {
	tok, ok := r.tokens[id]
	if !ok {
		return common.Address{}, interfaces.ErrTokenInvalid
	}
	return tok.resolver, nil
}

// BalanceOf returns the number of tokens owned by owner.
func (r *Registry) BalanceOf(owner common.Address) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[owner]
}

// Get returns the record value for key on id. Absent keys read as "".
func (r *Registry) Get(key string, id interfaces.TokenID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getLocked(key, id)
}

func (r *Registry) getLocked(key string, id interfaces.TokenID) (string, error) {
	tok, ok := r.tokens[id]
	if !ok {
		return "", interfaces.ErrTokenInvalid
	}
	return tok.records[key], nil
}

// GetMany returns values for keys on id, in key order.
func (r *Registry) GetMany(keys []string, id interfaces.TokenID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getManyLocked(keys, id)
}

func (r *Registry) getManyLocked(keys []string, id interfaces.TokenID) ([]string, error) {
	tok, ok := r.tokens[id]
	if !ok {
		return nil, interfaces.ErrTokenInvalid
	}

	values := make([]string, len(keys))
	for i, key := range keys {
		values[i] = tok.records[key]
	}
	return values, nil
}

// NonceOf returns the current counter for a nonce key. Keys never
// referenced read as zero.
func (r *Registry) NonceOf(key interfaces.NonceKey) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nonces[key]
}

// InvalidateNonce advances the counter for a key. Counters exist for ids
// that were never minted, so a pre-signed request can be invalidated before
// the mint it targets.
func (r *Registry) InvalidateNonce(key interfaces.NonceKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nonces[key]++
}

// IsApprovedOrOwner reports whether account may mutate id.
func (r *Registry) IsApprovedOrOwner(account common.Address, id interfaces.TokenID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isApprovedOrOwnerLocked(account, id)
}

func (r *Registry) isApprovedOrOwnerLocked(account common.Address, id interfaces.TokenID) bool {
	tok, ok := r.tokens[id]
	if !ok {
		return false
	}
	if tok.owner == account || tok.approved == account {
		return true
	}
	return r.operators[tok.owner][account]
}

// TokenURI renders the external metadata locator for id.
func (r *Registry) TokenURI(id interfaces.TokenID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokenURILocked(id)
}

func (r *Registry) tokenURILocked(id interfaces.TokenID) (string, error) {
	tok, ok := r.tokens[id]
	if !ok {
		return "", interfaces.ErrTokenInvalid
	}
	return r.uriPrefix + tok.uri, nil
}

// ExecuteChecked verifies that key's counter equals expected and applies fn
// against the store in the same state transition, so no other accepted
// mutating call can land between the check and the dispatched operation.
// The counter mismatch is ErrNonceInvalid and fn is not run. When
// consumeOnFailure is set and fn fails without advancing the counter, the
// counter is advanced anyway, in the same transition.
func (r *Registry) ExecuteChecked(key interfaces.NonceKey, expected uint64, consumeOnFailure bool, fn func(interfaces.Registry) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nonces[key] != expected {
		return interfaces.ErrNonceInvalid
	}

	err := fn(&lockedRegistry{r})
	if err != nil && consumeOnFailure && r.nonces[key] == expected {
		r.nonces[key]++
	}
	return err
}

// AddController authorizes controller to mint on this registry.
// Administrator only.
func (r *Registry) AddController(caller, controller common.Address) error {
	if controller == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return interfaces.ErrCallerIsNotOwner
	}
	r.controllers[controller] = true
	r.log.Info("minting controller authorized", "controller", controller)
	return nil
}

// Mint assigns id to owner.
func (r *Registry) Mint(caller, to common.Address, id interfaces.TokenID, label string) error {
	return r.MintWithRecords(caller, to, id, label, nil, nil)
}

// SafeMint is Mint with an opaque payload for the receiver. The payload is
// logged but does not affect state.
func (r *Registry) SafeMint(caller, to common.Address, id interfaces.TokenID, label string, data []byte) error {
	if err := r.Mint(caller, to, id, label); err != nil {
		return err
	}
	r.log.Debug("safe mint payload", "tokenId", id, "bytes", len(data))
	return nil
}

// MintWithRecords mints id and installs the initial record set atomically.
// Only the administrator and authorized minting controllers may mint.
func (r *Registry) MintWithRecords(caller, to common.Address, id interfaces.TokenID, label string, keys, values []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mintWithRecordsLocked(caller, to, id, label, keys, values)
}

func (r *Registry) mintWithRecordsLocked(caller, to common.Address, id interfaces.TokenID, label string, keys, values []string) error {
	if to == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}
	if len(keys) != len(values) {
		return interfaces.ErrKeyValueMismatch
	}
	if caller != r.admin && !r.controllers[caller] {
		return interfaces.ErrCallerIsNotController
	}

	if _, ok := r.tokens[id]; ok {
		return interfaces.ErrAlreadyMinted
	}

	tok := &token{
		owner:    to,
		resolver: r.defaultResolver,
		uri:      label,
		records:  make(map[string]string, len(keys)),
	}
	for i, key := range keys {
		tok.records[key] = values[i]
	}

	r.tokens[id] = tok
	r.balances[to]++
	r.nonces[id]++

	r.log.Info("minted", "tokenId", id, "owner", to, "label", label)
	return nil
}

// SetOwner replaces the owner without touching approvals or records.
func (r *Registry) SetOwner(caller, to common.Address, id interfaces.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setOwnerLocked(caller, to, id)
}

func (r *Registry) setOwnerLocked(caller, to common.Address, id interfaces.TokenID) error {
	if to == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}

	tok, ok := r.tokens[id]
	if !ok {
		return interfaces.ErrTokenInvalid
	}
	if !r.isApprovedOrOwnerLocked(caller, id) {
		return interfaces.ErrNotApprovedOrOwner
	}

	r.balances[tok.owner]--
	r.balances[to]++
	tok.owner = to
	r.nonces[id]++
	return nil
}

// TransferFrom moves ownership from from to to and clears the token
// approval.
func (r *Registry) TransferFrom(caller, from, to common.Address, id interfaces.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transferFromLocked(caller, from, to, id)
}

func (r *Registry) transferFromLocked(caller, from, to common.Address, id interfaces.TokenID) error {
	if to == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}

	tok, ok := r.tokens[id]
	if !ok {
		return interfaces.ErrTokenInvalid
	}
	if tok.owner != from {
		return interfaces.ErrTokenInvalid
	}
	if !r.isApprovedOrOwnerLocked(caller, id) {
		return interfaces.ErrNotApprovedOrOwner
	}

	r.balances[from]--
	r.balances[to]++
	tok.owner = to
	tok.approved = common.Address{}
	r.nonces[id]++

	r.log.Info("transferred", "tokenId", id, "from", from, "to", to)
	return nil
}

// SafeTransferFrom is TransferFrom with an opaque payload.
func (r *Registry) SafeTransferFrom(caller, from, to common.Address, id interfaces.TokenID, data []byte) error {
	if err := r.TransferFrom(caller, from, to, id); err != nil {
		return err
	}
	r.log.Debug("safe transfer payload", "tokenId", id, "bytes", len(data))
	return nil
}

// Burn removes the token, its records and its approval. The nonce entry
// survives so that pre-signed requests against the id stay invalidated.
func (r *Registry) Burn(caller common.Address, id interfaces.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.burnLocked(caller, id)
}

func (r *Registry) burnLocked(caller common.Address, id interfaces.TokenID) error {
	tok, ok := r.tokens[id]
	if !ok {
		return interfaces.ErrTokenInvalid
	}
	if !r.isApprovedOrOwnerLocked(caller, id) {
		return interfaces.ErrNotApprovedOrOwner
	}

	r.balances[tok.owner]--
	delete(r.tokens, id)
	r.nonces[id]++

	r.log.Info("burned", "tokenId", id)
	return nil
}

// Reset clears all records but keeps ownership. Applying it to an already
// empty record set is a no-op success.
func (r *Registry) Reset(caller common.Address, id interfaces.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetLocked(caller, id)
}

func (r *Registry) resetLocked(caller common.Address, id interfaces.TokenID) error {
	tok, ok := r.tokens[id]
	if !ok {
		return interfaces.ErrTokenInvalid
	}
	if !r.isApprovedOrOwnerLocked(caller, id) {
		return interfaces.ErrNotApprovedOrOwner
	}

	tok.records = make(map[string]string)
	r.nonces[id]++
	return nil
}

// Set writes a single record.
func (r *Registry) Set(caller common.Address, key, value string, id interfaces.TokenID) error {
	return r.SetMany(caller, []string{key}, []string{value}, id)
}

// SetMany writes several records.
func (r *Registry) SetMany(caller common.Address, keys, values []string, id interfaces.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setRecordsLocked(caller, keys, values, id, false)
}

// Reconfigure atomically replaces the whole record set.
func (r *Registry) Reconfigure(caller common.Address, keys, values []string, id interfaces.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setRecordsLocked(caller, keys, values, id, true)
}

func (r *Registry) setRecordsLocked(caller common.Address, keys, values []string, id interfaces.TokenID, replace bool) error {
	if len(keys) != len(values) {
		return interfaces.ErrKeyValueMismatch
	}

	tok, ok := r.tokens[id]
	if !ok {
		return interfaces.ErrTokenInvalid
	}
	if !r.isApprovedOrOwnerLocked(caller, id) {
		return interfaces.ErrNotApprovedOrOwner
	}

	if replace {
		tok.records = make(map[string]string, len(keys))
	}
	for i, key := range keys {
		tok.records[key] = values[i]
	}
	r.nonces[id]++
	return nil
}

// Approve sets the single approved operator for id.
func (r *Registry) Approve(caller, to common.Address, id interfaces.TokenID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.approveLocked(caller, to, id)
}

func (r *Registry) approveLocked(caller, to common.Address, id interfaces.TokenID) error {
	tok, ok := r.tokens[id]
	if !ok {
		return interfaces.ErrTokenInvalid
	}
	if tok.owner != caller && !r.operators[tok.owner][caller] {
		return interfaces.ErrNotApprovedOrOwner
	}

	tok.approved = to
	r.nonces[id]++
	return nil
}

// SetApprovalForAll grants or revokes operator over all of caller's tokens.
// The operation has no token target; it consumes the caller's
// address-scoped nonce.
func (r *Registry) SetApprovalForAll(caller, operator common.Address, approved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setApprovalForAllLocked(caller, operator, approved)
}

func (r *Registry) setApprovalForAllLocked(caller, operator common.Address, approved bool) error {
	if operator == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}

	if r.operators[caller] == nil {
		r.operators[caller] = make(map[common.Address]bool)
	}
	r.operators[caller][operator] = approved
	r.nonces[interfaces.AddressNonceKey(caller)]++
	return nil
}

// SetResolver points id's record resolution at a new address.
func (r *Registry) SetResolver(caller common.Address, id interfaces.TokenID, resolver common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setResolverLocked(caller, id, resolver)
}

func (r *Registry) setResolverLocked(caller common.Address, id interfaces.TokenID, resolver common.Address) error {
	tok, ok := r.tokens[id]
	if !ok {
		return interfaces.ErrTokenInvalid
	}
	if !r.isApprovedOrOwnerLocked(caller, id) {
		return interfaces.ErrNotApprovedOrOwner
	}

	tok.resolver = resolver
	r.nonces[id]++
	return nil
}

// SetDefaultResolver replaces the resolver assigned to newly minted tokens.
// Administrator only.
func (r *Registry) SetDefaultResolver(caller, resolver common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return interfaces.ErrCallerIsNotOwner
	}
	r.defaultResolver = resolver
	return nil
}

// SetTokenURIPrefix replaces the metadata locator prefix. Administrator
// only.
func (r *Registry) SetTokenURIPrefix(caller common.Address, prefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return interfaces.ErrCallerIsNotOwner
	}
	r.uriPrefix = prefix
	r.log.Info("token URI prefix updated", "prefix", prefix)
	return nil
}
