package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// Ledger is an in-memory balance table. All amounts are non-negative.
type Ledger struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
}

func New() *Ledger {
	return &Ledger{balances: make(map[common.Address]*big.Int)}
}

// BalanceOf returns the account's balance, zero for unknown accounts.
func (l *Ledger) BalanceOf(account common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// Deposit credits the account.
func (l *Ledger) Deposit(account common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative deposit %s for %s", amount, account)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.creditLocked(account, amount)
	return nil
}

// Transfer moves amount from one account to another, all or nothing.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return interfaces.ErrReceiverIsEmpty
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("negative transfer %s from %s", amount, from)
	}

	if amount.Sign() == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.balances[from]
	if !ok || b.Cmp(amount) < 0 {
		return interfaces.ErrInsufficientBalance
	}

	b.Sub(b, amount)
	l.creditLocked(to, amount)
	return nil
}

func (l *Ledger) creditLocked(account common.Address, amount *big.Int) {
	if b, ok := l.balances[account]; ok {
		b.Add(b, amount)
		return
	}
	l.balances[account] = new(big.Int).Set(amount)
}
