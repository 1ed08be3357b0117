package minter

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierreg/naming-registry-backend/interfaces"
	"github.com/hierreg/naming-registry-backend/ledger"
	"github.com/hierreg/naming-registry-backend/namehash"
	"github.com/hierreg/naming-registry-backend/registry"
	"github.com/hierreg/naming-registry-backend/storage"
)

var (
	admin    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	minterA  = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	minterB  = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	receiver = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	holder   = common.HexToAddress("0x0000000000000000000000000000000000000c01")

	mgrAddr = common.HexToAddress("0x00000000000000000000000000000000000000f2")
	regAddr = common.HexToAddress("0x00000000000000000000000000000000000000f1")

	cryptoRoot = namehash.Child(namehash.Root, "crypto")
)

type managerFixture struct {
	mgr *Manager
	reg *registry.Registry
	led *ledger.Ledger
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	led := ledger.New()
	reg := registry.New(regAddr, admin, slog.Default())

	mgr, err := New(mgrAddr, admin, led, slog.Default())
	require.NoError(t, err)
	require.NoError(t, mgr.AddRoute(admin, cryptoRoot, "crypto", reg))

	return &managerFixture{mgr: mgr, reg: reg, led: led}
}

func TestAddMinterAdminOnly(t *testing.T) {
	fx := newManagerFixture(t)

	err := fx.mgr.AddMinter(minterA, minterB)
	assert.ErrorIs(t, err, interfaces.ErrCallerIsNotOwner)
	assert.False(t, fx.mgr.IsMinter(minterB))

	require.NoError(t, fx.mgr.AddMinter(admin, minterA))
	assert.True(t, fx.mgr.IsMinter(minterA))
}

func TestAddRouteAdminOnly(t *testing.T) {
	fx := newManagerFixture(t)

	err := fx.mgr.AddRoute(minterA, namehash.Child(namehash.Root, "wallet"), "wallet", fx.reg)
	assert.ErrorIs(t, err, interfaces.ErrCallerIsNotOwner)
}

func TestMintSLD(t *testing.T) {
	fx := newManagerFixture(t)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))

	require.NoError(t, fx.mgr.MintSLD(minterA, holder, cryptoRoot, "alpha"))

	id := namehash.Child(cryptoRoot, "alpha")
	owner, err := fx.reg.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, holder, owner)

	uri, err := fx.reg.TokenURI(id)
	require.NoError(t, err)
	assert.Equal(t, "/alpha.crypto", uri)

	// Same label again collides on the derived id.
	err = fx.mgr.MintSLD(minterA, holder, cryptoRoot, "alpha")
	assert.ErrorIs(t, err, interfaces.ErrAlreadyMinted)
}

func TestMintSLDRequiresMinterRole(t *testing.T) {
	fx := newManagerFixture(t)

	err := fx.mgr.MintSLD(minterA, holder, cryptoRoot, "alpha")
	assert.ErrorIs(t, err, interfaces.ErrCallerIsNotMinter)
}

func TestMintSLDEmptyLabel(t *testing.T) {
	fx := newManagerFixture(t)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))

	err := fx.mgr.MintSLD(minterA, holder, cryptoRoot, "")
	assert.ErrorIs(t, err, interfaces.ErrLabelEmpty)
}

func TestMintSLDUnknownNamespace(t *testing.T) {
	fx := newManagerFixture(t)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))

	unrouted := namehash.Child(namehash.Root, "nft")
	err := fx.mgr.MintSLD(minterA, holder, unrouted, "alpha")
	assert.ErrorIs(t, err, interfaces.ErrUnknownNamespace)
}

func TestMintSLDWithRecords(t *testing.T) {
	fx := newManagerFixture(t)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))

	keys := []string{"crypto.ETH.address", "dns.A"}
	values := []string{"0xabc", "10.0.0.1"}
	require.NoError(t, fx.mgr.MintSLDWithRecords(minterA, holder, cryptoRoot, "beta", keys, values))

	id := namehash.Child(cryptoRoot, "beta")
	got, err := fx.reg.GetMany(keys, id)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestMintExportsMetadata(t *testing.T) {
	fx := newManagerFixture(t)
	store, err := storage.NewFileBackend(t.TempDir(), slog.Default())
	require.NoError(t, err)
	fx.mgr.SetArtifactStore(store)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))

	keys := []string{"crypto.ETH.address"}
	values := []string{"0xabc"}
	require.NoError(t, fx.mgr.MintSLDWithRecords(minterA, holder, cryptoRoot, "beta", keys, values))

	// The exported document is content-addressed, so its id is derivable
	// from the expected contents.
	id := namehash.Child(cryptoRoot, "beta")
	want, err := json.Marshal(tokenMetadata{
		TokenID:  id,
		Label:    "beta",
		URI:      "beta.crypto",
		Owner:    holder,
		Registry: regAddr,
		Records:  map[string]string{"crypto.ETH.address": "0xabc"},
	})
	require.NoError(t, err)

	raw, err := store.Fetch(context.Background(), interfaces.ComputeContentID(want), interfaces.MetadataKind)
	require.NoError(t, err)

	var doc tokenMetadata
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, id, doc.TokenID)
	assert.Equal(t, "beta", doc.Label)
	assert.Equal(t, "beta.crypto", doc.URI)
	assert.Equal(t, holder, doc.Owner)
	assert.Equal(t, regAddr, doc.Registry)
	assert.Equal(t, "0xabc", doc.Records["crypto.ETH.address"])
}

func TestClaimExportsMetadata(t *testing.T) {
	fx := newManagerFixture(t)
	store, err := storage.NewFileBackend(t.TempDir(), slog.Default())
	require.NoError(t, err)
	fx.mgr.SetArtifactStore(store)

	require.NoError(t, fx.mgr.Claim(holder, cryptoRoot, "mine"))

	id := namehash.Child(cryptoRoot, ClaimPrefix+"mine")
	want, err := json.Marshal(tokenMetadata{
		TokenID:  id,
		Label:    ClaimPrefix + "mine",
		URI:      ClaimPrefix + "mine.crypto",
		Owner:    holder,
		Registry: regAddr,
	})
	require.NoError(t, err)

	raw, err := store.Fetch(context.Background(), interfaces.ComputeContentID(want), interfaces.MetadataKind)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(raw))
}

func TestCloseMinterForwardsValue(t *testing.T) {
	fx := newManagerFixture(t)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))
	require.NoError(t, fx.led.Deposit(minterA, big.NewInt(100)))

	require.NoError(t, fx.mgr.CloseMinter(minterA, receiver, big.NewInt(100)))

	assert.False(t, fx.mgr.IsMinter(minterA))
	assert.Equal(t, int64(100), fx.led.BalanceOf(receiver).Int64())

	// The role is gone, a second closure has nothing to close.
	err := fx.mgr.CloseMinter(minterA, receiver, big.NewInt(0))
	assert.ErrorIs(t, err, interfaces.ErrCallerIsNotMinter)
}

func TestCloseMinterFailedTransferKeepsRole(t *testing.T) {
	fx := newManagerFixture(t)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))
	require.NoError(t, fx.led.Deposit(minterA, big.NewInt(10)))

	err := fx.mgr.CloseMinter(minterA, receiver, big.NewInt(11))
	assert.ErrorIs(t, err, interfaces.ErrInsufficientBalance)

	// Atomicity: the failed transfer left the role and both balances alone.
	assert.True(t, fx.mgr.IsMinter(minterA))
	assert.Equal(t, int64(10), fx.led.BalanceOf(minterA).Int64())
	assert.Zero(t, fx.led.BalanceOf(receiver).Sign())
}

func TestCloseMinterEmptyReceiver(t *testing.T) {
	fx := newManagerFixture(t)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))

	err := fx.mgr.CloseMinter(minterA, common.Address{}, big.NewInt(0))
	assert.ErrorIs(t, err, interfaces.ErrReceiverIsEmpty)
	assert.True(t, fx.mgr.IsMinter(minterA))
}

func TestRotateMinter(t *testing.T) {
	fx := newManagerFixture(t)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))
	require.NoError(t, fx.led.Deposit(minterA, big.NewInt(50)))

	require.NoError(t, fx.mgr.RotateMinter(minterA, minterB, big.NewInt(50)))

	assert.False(t, fx.mgr.IsMinter(minterA))
	assert.True(t, fx.mgr.IsMinter(minterB))
	assert.Equal(t, int64(50), fx.led.BalanceOf(minterB).Int64())

	// The successor can mint right away.
	require.NoError(t, fx.mgr.MintSLD(minterB, holder, cryptoRoot, "gamma"))
}

func TestRotateMinterFailedTransferKeepsRoles(t *testing.T) {
	fx := newManagerFixture(t)
	require.NoError(t, fx.mgr.AddMinter(admin, minterA))

	err := fx.mgr.RotateMinter(minterA, minterB, big.NewInt(1))
	assert.ErrorIs(t, err, interfaces.ErrInsufficientBalance)
	assert.True(t, fx.mgr.IsMinter(minterA))
	assert.False(t, fx.mgr.IsMinter(minterB))
}

func TestClaim(t *testing.T) {
	fx := newManagerFixture(t)

	// Claiming needs no minter role.
	require.NoError(t, fx.mgr.Claim(holder, cryptoRoot, "mine"))

	id := namehash.Child(cryptoRoot, ClaimPrefix+"mine")
	owner, err := fx.reg.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, holder, owner)

	uri, err := fx.reg.TokenURI(id)
	require.NoError(t, err)
	assert.Equal(t, "/devtest-mine.crypto", uri)

	// The unprefixed id stays free for minters.
	assert.False(t, fx.reg.Exists(namehash.Child(cryptoRoot, "mine")))

	// Anyone claiming the same label collides.
	err = fx.mgr.Claim(receiver, cryptoRoot, "mine")
	assert.ErrorIs(t, err, interfaces.ErrAlreadyMinted)
}

func TestClaimTo(t *testing.T) {
	fx := newManagerFixture(t)

	require.NoError(t, fx.mgr.ClaimTo(holder, receiver, cryptoRoot, "gift"))

	id := namehash.Child(cryptoRoot, ClaimPrefix+"gift")
	owner, err := fx.reg.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, receiver, owner)

	err = fx.mgr.ClaimTo(holder, common.Address{}, cryptoRoot, "gift2")
	assert.ErrorIs(t, err, interfaces.ErrReceiverIsEmpty)
}

func TestClaimEmptyLabel(t *testing.T) {
	fx := newManagerFixture(t)
	err := fx.mgr.Claim(holder, cryptoRoot, "")
	assert.ErrorIs(t, err, interfaces.ErrLabelEmpty)
}
