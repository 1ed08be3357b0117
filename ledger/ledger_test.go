package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

var (
	alice = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func TestDepositAndTransfer(t *testing.T) {
	l := New()

	assert.Zero(t, l.BalanceOf(alice).Sign())

	require.NoError(t, l.Deposit(alice, big.NewInt(100)))
	require.NoError(t, l.Transfer(alice, bob, big.NewInt(40)))

	assert.Equal(t, int64(60), l.BalanceOf(alice).Int64())
	assert.Equal(t, int64(40), l.BalanceOf(bob).Int64())
}

func TestTransferInsufficient(t *testing.T) {
	l := New()
	require.NoError(t, l.Deposit(alice, big.NewInt(10)))

	err := l.Transfer(alice, bob, big.NewInt(11))
	assert.ErrorIs(t, err, interfaces.ErrInsufficientBalance)

	// Nothing moved.
	assert.Equal(t, int64(10), l.BalanceOf(alice).Int64())
	assert.Zero(t, l.BalanceOf(bob).Sign())
}

func TestZeroTransferFromUnknownAccount(t *testing.T) {
	l := New()
	require.NoError(t, l.Transfer(alice, bob, big.NewInt(0)))
}

func TestTransferToZeroAddress(t *testing.T) {
	l := New()
	require.NoError(t, l.Deposit(alice, big.NewInt(10)))

	err := l.Transfer(alice, common.Address{}, big.NewInt(1))
	assert.ErrorIs(t, err, interfaces.ErrReceiverIsEmpty)
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	l := New()
	require.NoError(t, l.Deposit(alice, big.NewInt(5)))

	l.BalanceOf(alice).SetInt64(999)
	assert.Equal(t, int64(5), l.BalanceOf(alice).Int64())
}

func TestNegativeAmountsRejected(t *testing.T) {
	l := New()
	assert.Error(t, l.Deposit(alice, big.NewInt(-1)))
	assert.Error(t, l.Transfer(alice, bob, big.NewInt(-1)))
}
