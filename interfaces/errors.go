package interfaces

import (
	"errors"
	"fmt"
)

// ErrSignatureInvalid is the base class for all signature verification
// failures. The concrete variants below wrap it so that callers can either
// match the category (errors.Is(err, ErrSignatureInvalid)) or the exact
// condition.
var ErrSignatureInvalid = errors.New("signature invalid")

var (
	// ErrSignatureEmpty is returned for a zero-length signature.
	ErrSignatureEmpty = fmt.Errorf("%w: empty signature", ErrSignatureInvalid)

	// ErrSignatureMalformed is returned when a signature has the wrong
	// length or cannot be decoded into a recoverable form.
	ErrSignatureMalformed = fmt.Errorf("%w: malformed signature encoding", ErrSignatureInvalid)

	// ErrSignatureMismatch is returned when a well-formed signature recovers
	// to an address other than the claimed signer.
	ErrSignatureMismatch = fmt.Errorf("%w: recovered signer mismatch", ErrSignatureInvalid)

	// ErrNonceInvalid is returned when the nonce embedded in a signed
	// request does not equal the current counter value for its key.
	ErrNonceInvalid = fmt.Errorf("%w: nonce mismatch", ErrSignatureInvalid)
)

var (
	// ErrAlreadyMinted is returned when minting an id that has an owner.
	ErrAlreadyMinted = errors.New("token already minted")

	// ErrTokenInvalid is returned when an id does not exist, or when call
	// data references a token other than the one a request was signed for.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrNotApprovedOrOwner is returned when the acting account is neither
	// the owner nor an approved operator of the token.
	ErrNotApprovedOrOwner = errors.New("caller is not approved or owner")

	// ErrCallerIsNotMinter is returned when a minter-gated operation is
	// invoked by an account without an active minter role.
	ErrCallerIsNotMinter = errors.New("caller is not a minter")

	// ErrSignerIsNotMinter is returned when a relayed payload recovers to a
	// signer without an active minter role.
	ErrSignerIsNotMinter = errors.New("signer is not a minter")

	// ErrReceiverIsEmpty is returned when a zero address is supplied where
	// a transfer or role receiver is required.
	ErrReceiverIsEmpty = errors.New("receiver is empty")

	// ErrUnsupportedMethod is returned when relayed call data does not
	// decode to an allow-listed minting selector.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrCallerIsNotOwner gates administrative operations.
	ErrCallerIsNotOwner = errors.New("caller is not the owner")

	// ErrCallerIsNotController is returned when a registry mint is invoked
	// by an account that is neither the administrator nor an authorized
	// minting controller.
	ErrCallerIsNotController = errors.New("caller is not a minting controller")

	// ErrLabelEmpty is returned by minting paths that require a label.
	ErrLabelEmpty = errors.New("label is empty")

	// ErrKeyValueMismatch is returned when record keys and values differ
	// in length.
	ErrKeyValueMismatch = errors.New("keys and values length mismatch")

	// ErrUnknownNamespace is returned when no registry is routed for the
	// root namespace of a mint or claim.
	ErrUnknownNamespace = errors.New("unknown root namespace")

	// ErrInsufficientBalance is returned by the ledger when a value
	// transfer exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
