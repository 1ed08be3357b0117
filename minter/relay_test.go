package minter

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierreg/naming-registry-backend/forwarder"
	"github.com/hierreg/naming-registry-backend/interfaces"
	"github.com/hierreg/naming-registry-backend/namehash"
)

var relayer = common.HexToAddress("0x0000000000000000000000000000000000000e01")

func TestRelayEndToEnd(t *testing.T) {
	fx := newManagerFixture(t)

	// The administrator activates a minter who signs off-line; an untrusted
	// relayer submits the signed call data.
	minterKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	minterAddr := crypto.PubkeyToAddress(minterKey.PublicKey)
	require.NoError(t, fx.mgr.AddMinter(admin, minterAddr))

	data, err := fx.mgr.Pack("mintSLD", holder, cryptoRoot.Big(), "alpha")
	require.NoError(t, err)
	sig, err := forwarder.SignDigest(fx.mgr.RelayDigest(data), minterKey)
	require.NoError(t, err)

	ok, ret, err := fx.mgr.Relay(relayer, data, sig)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, ret)

	id := namehash.Child(cryptoRoot, "alpha")
	owner, err := fx.reg.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, holder, owner)

	// The relay verifies again but the mint itself collides: reported as a
	// failed operation, not a failed relay.
	ok, ret, err = fx.mgr.Relay(relayer, data, sig)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, string(ret), interfaces.ErrAlreadyMinted.Error())

	trail := fx.mgr.AuditTrail()
	require.Len(t, trail, 1)
	assert.Equal(t, relayer, trail[0].Relayer)
	assert.Equal(t, minterAddr, trail[0].Signer)
	assert.Equal(t, [4]byte(data[:4]), trail[0].Selector)
	assert.Equal(t, crypto.Keccak256Hash(data), trail[0].DataDigest)
}

func TestRelayWithRecordsVariants(t *testing.T) {
	fx := newManagerFixture(t)

	minterKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, fx.mgr.AddMinter(admin, crypto.PubkeyToAddress(minterKey.PublicKey)))

	keys := []string{"crypto.ETH.address"}
	values := []string{"0xabc"}

	data, err := fx.mgr.Pack("mintSLDWithRecords", holder, cryptoRoot.Big(), "beta", keys, values)
	require.NoError(t, err)
	sig, err := forwarder.SignDigest(fx.mgr.RelayDigest(data), minterKey)
	require.NoError(t, err)

	ok, _, err := fx.mgr.Relay(relayer, data, sig)
	require.NoError(t, err)
	require.True(t, ok)

	id := namehash.Child(cryptoRoot, "beta")
	val, err := fx.reg.Get("crypto.ETH.address", id)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", val)

	// Payload-carrying overloads pack under the suffixed names.
	data, err = fx.mgr.Pack("safeMintSLD0", holder, cryptoRoot.Big(), "gamma", []byte{0x01})
	require.NoError(t, err)
	sig, err = forwarder.SignDigest(fx.mgr.RelayDigest(data), minterKey)
	require.NoError(t, err)

	ok, _, err = fx.mgr.Relay(relayer, data, sig)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fx.reg.Exists(namehash.Child(cryptoRoot, "gamma")))

	data, err = fx.mgr.Pack("safeMintSLDWithRecords0", holder, cryptoRoot.Big(), "delta", keys, values, []byte{0x02})
	require.NoError(t, err)
	sig, err = forwarder.SignDigest(fx.mgr.RelayDigest(data), minterKey)
	require.NoError(t, err)

	ok, _, err = fx.mgr.Relay(relayer, data, sig)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fx.reg.Exists(namehash.Child(cryptoRoot, "delta")))
}

func TestRelayRejectsNonMinterSigner(t *testing.T) {
	fx := newManagerFixture(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	data, err := fx.mgr.Pack("mintSLD", holder, cryptoRoot.Big(), "alpha")
	require.NoError(t, err)
	sig, err := forwarder.SignDigest(fx.mgr.RelayDigest(data), key)
	require.NoError(t, err)

	_, _, err = fx.mgr.Relay(relayer, data, sig)
	assert.ErrorIs(t, err, interfaces.ErrSignerIsNotMinter)
	assert.Empty(t, fx.mgr.AuditTrail())
}

func TestRelayRejectsClosedMinter(t *testing.T) {
	fx := newManagerFixture(t)

	minterKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	minterAddr := crypto.PubkeyToAddress(minterKey.PublicKey)
	require.NoError(t, fx.mgr.AddMinter(admin, minterAddr))

	data, err := fx.mgr.Pack("mintSLD", holder, cryptoRoot.Big(), "alpha")
	require.NoError(t, err)
	sig, err := forwarder.SignDigest(fx.mgr.RelayDigest(data), minterKey)
	require.NoError(t, err)

	// Close the role between signing and submission.
	require.NoError(t, fx.mgr.CloseMinter(minterAddr, receiver, common.Big0))

	_, _, err = fx.mgr.Relay(relayer, data, sig)
	assert.ErrorIs(t, err, interfaces.ErrSignerIsNotMinter)
}

func TestRelayRejectsUnknownSelector(t *testing.T) {
	fx := newManagerFixture(t)

	_, _, err := fx.mgr.Relay(relayer, []byte{0xde, 0xad, 0xbe, 0xef, 0x00}, nil)
	assert.ErrorIs(t, err, interfaces.ErrUnsupportedMethod)

	_, _, err = fx.mgr.Relay(relayer, []byte{0xde}, nil)
	assert.ErrorIs(t, err, interfaces.ErrUnsupportedMethod)
}

func TestRelaySignatureFailures(t *testing.T) {
	fx := newManagerFixture(t)

	data, err := fx.mgr.Pack("mintSLD", holder, cryptoRoot.Big(), "alpha")
	require.NoError(t, err)

	_, _, err = fx.mgr.Relay(relayer, data, nil)
	assert.ErrorIs(t, err, interfaces.ErrSignatureEmpty)

	_, _, err = fx.mgr.Relay(relayer, data, []byte{0x01, 0x02})
	assert.ErrorIs(t, err, interfaces.ErrSignatureMalformed)
}

func TestRelayTamperedDataRejected(t *testing.T) {
	fx := newManagerFixture(t)

	minterKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, fx.mgr.AddMinter(admin, crypto.PubkeyToAddress(minterKey.PublicKey)))

	data, err := fx.mgr.Pack("mintSLD", holder, cryptoRoot.Big(), "alpha")
	require.NoError(t, err)
	sig, err := forwarder.SignDigest(fx.mgr.RelayDigest(data), minterKey)
	require.NoError(t, err)

	// A relayer swapping the recipient recovers an unrelated signer.
	tampered, err := fx.mgr.Pack("mintSLD", relayer, cryptoRoot.Big(), "alpha")
	require.NoError(t, err)

	_, _, err = fx.mgr.Relay(relayer, tampered, sig)
	assert.ErrorIs(t, err, interfaces.ErrSignerIsNotMinter)
}
