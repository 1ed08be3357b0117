package minter

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hierreg/naming-registry-backend/interfaces"
	"github.com/hierreg/naming-registry-backend/metrics"
	"github.com/hierreg/naming-registry-backend/namehash"
)

// ClaimPrefix is prepended to claimed labels so that self-service names
// cannot collide with minter-issued ones.
const ClaimPrefix = "devtest-"

// Route binds a root namespace to the registry that owns it.
type Route struct {
	// Name is the root's dotted suffix ("crypto"), used to render token
	// URIs for minted children.
	Name     string
	Registry interfaces.Registry
}

// Manager implements interfaces.MintingManager.
type Manager struct {
	mu      sync.Mutex
	address common.Address
	admin   common.Address
	minters map[common.Address]bool
	routes  map[interfaces.TokenID]Route
	ledger  interfaces.Ledger
	audit   []interfaces.RelayRecord

	// store, when set, receives a metadata document for every minted name
	// and a JSON export of every accepted relay.
	store interfaces.MetadataBackend

	relayABI relayABI
	log      *slog.Logger
}

// New creates a manager with no routes and no active minters.
func New(address, admin common.Address, ledger interfaces.Ledger, log *slog.Logger) (*Manager, error) {
	parsed, err := parseRelayABI()
	if err != nil {
		return nil, err
	}

	return &Manager{
		address:  address,
		admin:    admin,
		minters:  make(map[common.Address]bool),
		routes:   make(map[interfaces.TokenID]Route),
		ledger:   ledger,
		relayABI: parsed,
		log:      log,
	}, nil
}

// Address returns the manager's instance identity, bound into relay digests.
func (m *Manager) Address() common.Address {
	return m.address
}

// AddRoute registers the registry owning a root namespace and authorizes
// the manager as a minting controller on it. Administrator only.
func (m *Manager) AddRoute(caller common.Address, root interfaces.TokenID, name string, reg interfaces.Registry) error {
	if caller != m.admin {
		return interfaces.ErrCallerIsNotOwner
	}
	if err := reg.AddController(caller, m.address); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[root] = Route{Name: name, Registry: reg}
	m.log.Info("namespace routed", "root", root, "name", name, "registry", reg.Address())
	return nil
}

// SetArtifactStore attaches a storage backend for token metadata documents
// and relay audit exports.
func (m *Manager) SetArtifactStore(store interfaces.MetadataBackend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = store
}

// IsMinter reports whether addr holds an active minter role.
func (m *Manager) IsMinter(addr common.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minters[addr]
}

// AddMinter activates addr. Administrator only.
func (m *Manager) AddMinter(caller, addr common.Address) error {
	if caller != m.admin {
		return interfaces.ErrCallerIsNotOwner
	}
	if addr == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.minters[addr] = true
	m.log.Info("minter activated", "minter", addr)
	return nil
}

// CloseMinter deactivates the caller's role, forwarding value from the
// caller's balance to receiver in the same transition.
func (m *Manager) CloseMinter(caller, receiver common.Address, value *big.Int) error {
	if receiver == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.minters[caller] {
		return interfaces.ErrCallerIsNotMinter
	}
	if err := m.ledger.Transfer(caller, receiver, value); err != nil {
		return err
	}

	delete(m.minters, caller)
	m.log.Info("minter closed", "minter", caller, "receiver", receiver, "value", value)
	return nil
}

// RotateMinter deactivates the caller and activates addr, forwarding value
// to addr in the same transition.
func (m *Manager) RotateMinter(caller, addr common.Address, value *big.Int) error {
	if addr == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.minters[caller] {
		return interfaces.ErrCallerIsNotMinter
	}
	if err := m.ledger.Transfer(caller, addr, value); err != nil {
		return err
	}

	delete(m.minters, caller)
	m.minters[addr] = true
	m.log.Info("minter rotated", "from", caller, "to", addr, "value", value)
	return nil
}

// MintSLD mints label under root, routed to the registry owning that root.
// Minter only.
func (m *Manager) MintSLD(caller, to common.Address, root interfaces.TokenID, label string) error {
	return m.mint(caller, to, root, label, nil, nil, nil, "mintSLD")
}

// SafeMintSLD is MintSLD with an extra opaque payload.
func (m *Manager) SafeMintSLD(caller, to common.Address, root interfaces.TokenID, label string, data []byte) error {
	return m.mint(caller, to, root, label, nil, nil, data, "safeMintSLD")
}

// MintSLDWithRecords mints with an initial record set.
func (m *Manager) MintSLDWithRecords(caller, to common.Address, root interfaces.TokenID, label string, keys, values []string) error {
	return m.mint(caller, to, root, label, keys, values, nil, "mintSLDWithRecords")
}

// SafeMintSLDWithRecords is MintSLDWithRecords with an extra payload.
func (m *Manager) SafeMintSLDWithRecords(caller, to common.Address, root interfaces.TokenID, label string, keys, values []string, data []byte) error {
	return m.mint(caller, to, root, label, keys, values, data, "safeMintSLDWithRecords")
}

func (m *Manager) mint(caller, to common.Address, root interfaces.TokenID, label string, keys, values []string, data []byte, path string) error {
	if label == "" {
		return interfaces.ErrLabelEmpty
	}

	m.mu.Lock()
	if !m.minters[caller] {
		m.mu.Unlock()
		return interfaces.ErrCallerIsNotMinter
	}
	route, ok := m.routes[root]
	m.mu.Unlock()
	if !ok {
		return interfaces.ErrUnknownNamespace
	}

	id := namehash.Child(root, label)
	uri := label + "." + route.Name

	var err error
	switch {
	case keys != nil:
		err = route.Registry.MintWithRecords(m.address, to, id, uri, keys, values)
		if err == nil && data != nil {
			m.log.Debug("safe mint payload", "tokenId", id, "bytes", len(data))
		}
	case data != nil:
		err = route.Registry.SafeMint(m.address, to, id, uri, data)
	default:
		err = route.Registry.Mint(m.address, to, id, uri)
	}
	if err != nil {
		return err
	}

	metrics.MintsTotal.WithLabelValues(path).Inc()
	m.log.Info("second-level name minted", "tokenId", id, "uri", uri, "owner", to, "minter", caller)
	m.exportMetadata(route.Registry, id, label, uri, to, keys, values)
	return nil
}

// Claim mints the caller a prefixed label under root. Open to any caller; a
// second claim of the same derived id fails with ErrAlreadyMinted.
func (m *Manager) Claim(caller common.Address, root interfaces.TokenID, label string) error {
	return m.ClaimTo(caller, caller, root, label)
}

// ClaimTo is Claim with an explicit recipient.
func (m *Manager) ClaimTo(caller, to common.Address, root interfaces.TokenID, label string) error {
	if label == "" {
		return interfaces.ErrLabelEmpty
	}
	if to == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}

	m.mu.Lock()
	route, ok := m.routes[root]
	m.mu.Unlock()
	if !ok {
		return interfaces.ErrUnknownNamespace
	}

	claimed := ClaimPrefix + label
	id := namehash.Child(root, claimed)
	uri := claimed + "." + route.Name

	if err := route.Registry.Mint(m.address, to, id, uri); err != nil {
		return err
	}

	metrics.MintsTotal.WithLabelValues("claim").Inc()
	m.log.Info("name claimed", "tokenId", id, "uri", uri, "owner", to, "caller", caller)
	m.exportMetadata(route.Registry, id, claimed, uri, to, nil, nil)
	return nil
}

// tokenMetadata is the document exported to the artifact store for every
// minted name. The HTTP API serves it back by content id.
type tokenMetadata struct {
	TokenID  interfaces.TokenID `json:"tokenId"`
	Label    string             `json:"label"`
	URI      string             `json:"uri"`
	Owner    common.Address     `json:"owner"`
	Registry common.Address     `json:"registry"`
	Records  map[string]string  `json:"records,omitempty"`
}

func (m *Manager) exportMetadata(reg interfaces.Registry, id interfaces.TokenID, label, uri string, owner common.Address, keys, values []string) {
	m.mu.Lock()
	store := m.store
	m.mu.Unlock()
	if store == nil {
		return
	}

	doc := tokenMetadata{
		TokenID:  id,
		Label:    label,
		URI:      uri,
		Owner:    owner,
		Registry: reg.Address(),
	}
	if len(keys) > 0 {
		doc.Records = make(map[string]string, len(keys))
		for i, key := range keys {
			doc.Records[key] = values[i]
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		m.log.Error("token metadata marshal failed", "tokenId", id, "err", err)
		return
	}
	cid, err := store.Store(context.Background(), raw, interfaces.MetadataKind)
	if err != nil {
		m.log.Error("token metadata export failed", "backend", store.Name(), "tokenId", id, "err", err)
		return
	}
	m.log.Info("token metadata exported", "tokenId", id, "contentID", cid)
}

// AuditTrail returns the relay records accepted so far, oldest first.
func (m *Manager) AuditTrail() []interfaces.RelayRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]interfaces.RelayRecord, len(m.audit))
	copy(out, m.audit)
	return out
}

func (m *Manager) recordRelay(rec interfaces.RelayRecord) {
	m.mu.Lock()
	m.audit = append(m.audit, rec)
	store := m.store
	m.mu.Unlock()

	if store == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		m.log.Error("audit record marshal failed", "err", err)
		return
	}
	if _, err := store.Store(context.Background(), raw, interfaces.AuditKind); err != nil {
		m.log.Error("audit record export failed", "backend", store.Name(), "err", err)
	}
}
