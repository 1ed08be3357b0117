package forwarder

import (
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierreg/naming-registry-backend/interfaces"
	"github.com/hierreg/naming-registry-backend/namehash"
	"github.com/hierreg/naming-registry-backend/registry"
)

func (fx *fixture) legacySig(t *testing.T, legacy *Legacy, data []byte) []byte {
	t.Helper()
	sig, err := SignDigest(legacy.Digest(data, fx.tokenID), fx.key)
	require.NoError(t, err)
	return sig
}

func TestLegacySetFor(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)

	data, err := fx.fwd.Dispatcher().Pack("set", "dns.A", "10.0.0.1", fx.tokenID.Big())
	require.NoError(t, err)

	sig := fx.legacySig(t, legacy, data)
	require.NoError(t, legacy.SetFor("dns.A", "10.0.0.1", fx.tokenID, sig))

	val, err := fx.reg.Get("dns.A", fx.tokenID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", val)
}

func TestLegacyTransferFromFor(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)
	to := common.HexToAddress("0x0000000000000000000000000000000000000042")

	data, err := fx.fwd.Dispatcher().Pack("transferFrom", fx.owner, to, fx.tokenID.Big())
	require.NoError(t, err)

	sig := fx.legacySig(t, legacy, data)
	require.NoError(t, legacy.TransferFromFor(fx.owner, to, fx.tokenID, sig))

	got, err := fx.reg.OwnerOf(fx.tokenID)
	require.NoError(t, err)
	assert.Equal(t, to, got)
}

func TestLegacySafeTransferVariants(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)
	to := common.HexToAddress("0x0000000000000000000000000000000000000042")

	data, err := fx.fwd.Dispatcher().Pack("safeTransferFrom", fx.owner, to, fx.tokenID.Big())
	require.NoError(t, err)
	sig := fx.legacySig(t, legacy, data)
	require.NoError(t, legacy.SafeTransferFromFor(fx.owner, to, fx.tokenID, sig))

	// Transfer back carrying a payload, signed by the new owner's key is
	// not available here, so sign as the original owner after regaining
	// ownership directly.
	require.NoError(t, fx.reg.TransferFrom(to, to, fx.owner, fx.tokenID))

	payload := []byte{0x01, 0x02}
	packed, err := fx.fwd.Dispatcher().Pack("safeTransferFrom0", fx.owner, to, fx.tokenID.Big(), payload)
	require.NoError(t, err)
	sig = fx.legacySig(t, legacy, packed)
	require.NoError(t, legacy.SafeTransferFromWithDataFor(fx.owner, to, fx.tokenID, payload, sig))

	got, err := fx.reg.OwnerOf(fx.tokenID)
	require.NoError(t, err)
	assert.Equal(t, to, got)
}

func TestLegacyBurnAndReset(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)

	require.NoError(t, fx.reg.Set(fx.owner, "k", "v", fx.tokenID))

	data, err := fx.fwd.Dispatcher().Pack("reset", fx.tokenID.Big())
	require.NoError(t, err)
	sig := fx.legacySig(t, legacy, data)
	require.NoError(t, legacy.ResetFor(fx.tokenID, sig))

	val, err := fx.reg.Get("k", fx.tokenID)
	require.NoError(t, err)
	assert.Empty(t, val)

	data, err = fx.fwd.Dispatcher().Pack("burn", fx.tokenID.Big())
	require.NoError(t, err)
	sig = fx.legacySig(t, legacy, data)
	require.NoError(t, legacy.BurnFor(fx.tokenID, sig))

	assert.False(t, fx.reg.Exists(fx.tokenID))
}

func TestLegacySetManyAndReconfigure(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)

	data, err := fx.fwd.Dispatcher().Pack("setMany", []string{"a", "b"}, []string{"1", "2"}, fx.tokenID.Big())
	require.NoError(t, err)
	sig := fx.legacySig(t, legacy, data)
	require.NoError(t, legacy.SetManyFor([]string{"a", "b"}, []string{"1", "2"}, fx.tokenID, sig))

	data, err = fx.fwd.Dispatcher().Pack("reconfigure", []string{"c"}, []string{"3"}, fx.tokenID.Big())
	require.NoError(t, err)
	sig = fx.legacySig(t, legacy, data)
	require.NoError(t, legacy.ReconfigureFor([]string{"c"}, []string{"3"}, fx.tokenID, sig))

	// Reconfigure replaced the prior records.
	val, err := fx.reg.Get("a", fx.tokenID)
	require.NoError(t, err)
	assert.Empty(t, val)
	val, err = fx.reg.Get("c", fx.tokenID)
	require.NoError(t, err)
	assert.Equal(t, "3", val)
}

func TestLegacyStaleNonceRejected(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)

	data, err := fx.fwd.Dispatcher().Pack("set", "k", "v", fx.tokenID.Big())
	require.NoError(t, err)
	sig := fx.legacySig(t, legacy, data)

	// Consume the nonce the signature was produced against.
	require.NoError(t, fx.reg.Set(fx.owner, "other", "x", fx.tokenID))

	err = legacy.SetFor("k", "v", fx.tokenID, sig)
	assert.ErrorIs(t, err, interfaces.ErrSignatureInvalid)
}

func TestLegacyWrongSignerRejected(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)

	data, err := fx.fwd.Dispatcher().Pack("set", "k", "v", fx.tokenID.Big())
	require.NoError(t, err)
	sig, err := SignDigest(legacy.Digest(data, fx.tokenID), fx.otherKey)
	require.NoError(t, err)

	err = legacy.SetFor("k", "v", fx.tokenID, sig)
	assert.ErrorIs(t, err, interfaces.ErrSignatureMismatch)
}

func TestLegacyFailedDispatchLeavesNonce(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)

	data, err := fx.fwd.Dispatcher().Pack("transferFrom", fx.owner, common.Address{}, fx.tokenID.Big())
	require.NoError(t, err)
	sig := fx.legacySig(t, legacy, data)

	before := fx.reg.NonceOf(fx.tokenID)
	err = legacy.TransferFromFor(fx.owner, common.Address{}, fx.tokenID, sig)
	assert.ErrorIs(t, err, interfaces.ErrReceiverIsEmpty)
	assert.Equal(t, before, fx.reg.NonceOf(fx.tokenID), "all-or-nothing: nothing consumed")

	// A valid replacement at the same nonce still works.
	to := common.HexToAddress("0x0000000000000000000000000000000000000042")
	data, err = fx.fwd.Dispatcher().Pack("transferFrom", fx.owner, to, fx.tokenID.Big())
	require.NoError(t, err)
	sig = fx.legacySig(t, legacy, data)
	require.NoError(t, legacy.TransferFromFor(fx.owner, to, fx.tokenID, sig))
}

func TestCrossSchemeInvalidation(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)

	// Legacy signature, then an accepted generic-scheme call at the same
	// nonce kills it.
	ldata, err := fx.fwd.Dispatcher().Pack("set", "k", "v", fx.tokenID.Big())
	require.NoError(t, err)
	lsig := fx.legacySig(t, legacy, ldata)

	gdata, err := fx.fwd.Dispatcher().Pack("set", "g", "1", fx.tokenID.Big())
	require.NoError(t, err)
	req, gsig := fx.signedRequest(t, gdata)
	ok, _, err := fx.fwd.Execute(req, gsig)
	require.NoError(t, err)
	require.True(t, ok)

	err = legacy.SetFor("k", "v", fx.tokenID, lsig)
	assert.ErrorIs(t, err, interfaces.ErrSignatureInvalid)

	// And the other direction: generic signature, then an accepted legacy
	// call at the same nonce kills it.
	gdata2, err := fx.fwd.Dispatcher().Pack("set", "g2", "2", fx.tokenID.Big())
	require.NoError(t, err)
	req2, gsig2 := fx.signedRequest(t, gdata2)

	ldata2, err := fx.fwd.Dispatcher().Pack("set", "l2", "2", fx.tokenID.Big())
	require.NoError(t, err)
	lsig2 := fx.legacySig(t, legacy, ldata2)
	require.NoError(t, legacy.SetFor("l2", "2", fx.tokenID, lsig2))

	_, _, err = fx.fwd.Execute(req2, gsig2)
	assert.ErrorIs(t, err, interfaces.ErrNonceInvalid)
}

func TestLegacyInterleavedMutationRejected(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	reg := registry.New(regAddr, admin, slog.Default())
	wrapped := &interleavedRegistry{Registry: reg}
	fwd, err := New(wrapped, testChainID, slog.Default())
	require.NoError(t, err)
	legacy := NewLegacy(fwd)

	id := namehash.Child(cryptoNS, "alpha")
	require.NoError(t, reg.Mint(admin, owner, id, "alpha.crypto"))

	data, err := fwd.Dispatcher().Pack("set", "k", "signed", id.Big())
	require.NoError(t, err)
	sig, err := SignDigest(legacy.Digest(data, id), key)
	require.NoError(t, err)

	// A direct call commits between the digest check and the dispatch.
	wrapped.interleave = func() {
		require.NoError(t, reg.Set(owner, "k", "direct", id))
	}

	err = legacy.SetFor("k", "signed", id, sig)
	assert.ErrorIs(t, err, interfaces.ErrNonceInvalid)

	val, err := reg.Get("k", id)
	require.NoError(t, err)
	assert.Equal(t, "direct", val)

	// Mint plus the interleaved set only; all-or-nothing consumed nothing.
	assert.Equal(t, uint64(2), reg.NonceOf(id))
}

func TestLegacyDistinctTokensIndependent(t *testing.T) {
	fx := newFixture(t)
	legacy := NewLegacy(fx.fwd)

	other := namehash.Child(cryptoNS, "gamma")
	require.NoError(t, fx.reg.Mint(admin, fx.owner, other, "gamma.crypto"))

	// A signature for one token does not authorize another: the digest
	// binds the nonce of the token the call data names.
	data, err := fx.fwd.Dispatcher().Pack("set", "k", "v", fx.tokenID.Big())
	require.NoError(t, err)
	sig := fx.legacySig(t, legacy, data)

	require.NoError(t, legacy.SetFor("k", "v", fx.tokenID, sig))

	// Consuming alpha's nonce left gamma's untouched.
	assert.Equal(t, uint64(1), fx.reg.NonceOf(other))
}
