// Package ledger tracks native-value balances for accounts known to the
// minting manager. Role rotation and closure forward an account's balance
// atomically with the role change, so the ledger exposes a transfer that
// either moves the full amount or fails without touching either side.
package ledger
