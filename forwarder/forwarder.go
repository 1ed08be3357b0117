package forwarder

import (
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hierreg/naming-registry-backend/interfaces"
	"github.com/hierreg/naming-registry-backend/metrics"
)

// Forwarder is the generic meta-transaction verifier and dispatcher for one
// registry instance.
type Forwarder struct {
	// mu serializes accepted requests so that two requests racing for the
	// same nonce resolve to exactly one acceptance. The legacy scheme
	// shares this lock.
	mu sync.Mutex

	reg    interfaces.Registry
	disp   *Dispatcher
	domain common.Hash
	log    *slog.Logger
}

// New creates a forwarder for the registry, with signatures domain-bound to
// chainID and the registry's instance address.
func New(reg interfaces.Registry, chainID *big.Int, log *slog.Logger) (*Forwarder, error) {
	disp, err := NewDispatcher()
	if err != nil {
		return nil, err
	}

	return &Forwarder{
		reg:    reg,
		disp:   disp,
		domain: DomainSeparator(chainID, reg.Address()),
		log:    log,
	}, nil
}

// Dispatcher exposes the call-data codec, for clients that need to encode
// requests.
func (f *Forwarder) Dispatcher() *Dispatcher {
	return f.disp
}

// NonceOf returns the counter a request for key must carry.
func (f *Forwarder) NonceOf(key interfaces.NonceKey) uint64 {
	return f.reg.NonceOf(key)
}

// Digest computes the structured digest a client must sign for req.
func (f *Forwarder) Digest(req interfaces.ForwardRequest) common.Hash {
	return TypedDigest(f.domain, req)
}

// Verify checks signature and nonce without consuming or executing
// anything.
func (f *Forwarder) Verify(req interfaces.ForwardRequest, signature []byte) error {
	signer, err := RecoverSigner(f.Digest(req), signature)
	if err != nil {
		return err
	}
	if signer != req.From {
		return interfaces.ErrSignatureMismatch
	}
	if f.reg.NonceOf(req.NonceKeyFor()) != req.Nonce {
		return interfaces.ErrNonceInvalid
	}
	return nil
}

// Execute verifies req and dispatches its call data as req.From.
//
// Verification failures (signature, nonce, token binding) return an error
// and consume nothing. The nonce check and the dispatched operation run as
// one record store transition, so a mutation accepted through any other
// entry point either lands before the check (and the request is rejected
// as stale) or waits until the dispatch has committed. Once verification
// passes, the request's nonce is consumed exactly once even if the
// dispatched call fails its own checks; that outcome is reported as
// (false, returnData) with a nil error so sponsoring infrastructure can
// distinguish an invalid request from a failed operation.
func (f *Forwarder) Execute(req interfaces.ForwardRequest, signature []byte) (bool, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	signer, err := RecoverSigner(f.Digest(req), signature)
	if err != nil {
		metrics.ForwardsTotal.WithLabelValues("typed", "rejected").Inc()
		return false, nil, err
	}
	if signer != req.From {
		metrics.ForwardsTotal.WithLabelValues("typed", "rejected").Inc()
		return false, nil, interfaces.ErrSignatureMismatch
	}

	// The call data must reference the token the request was signed for.
	token, hasToken, err := f.disp.TokenOf(req.Data)
	if err != nil {
		metrics.ForwardsTotal.WithLabelValues("typed", "rejected").Inc()
		return false, nil, err
	}
	if hasToken && token != req.TokenID {
		metrics.ForwardsTotal.WithLabelValues("typed", "rejected").Inc()
		return false, nil, interfaces.ErrTokenInvalid
	}
	if !hasToken && req.TokenID != (interfaces.TokenID{}) {
		metrics.ForwardsTotal.WithLabelValues("typed", "rejected").Inc()
		return false, nil, interfaces.ErrTokenInvalid
	}

	var dispatchErr error
	err = f.reg.ExecuteChecked(req.NonceKeyFor(), req.Nonce, true, func(reg interfaces.Registry) error {
		dispatchErr = f.disp.Dispatch(reg, req.From, req.Data)
		return dispatchErr
	})
	if err != nil && dispatchErr == nil {
		// The counter no longer matches the signed nonce.
		metrics.ForwardsTotal.WithLabelValues("typed", "rejected").Inc()
		return false, nil, err
	}
	if dispatchErr != nil {
		f.log.Info("forwarded call failed", "from", req.From, "tokenId", req.TokenID, "err", dispatchErr)
		metrics.ForwardsTotal.WithLabelValues("typed", "failed").Inc()
		return false, []byte(dispatchErr.Error()), nil
	}

	f.log.Info("forwarded call executed", "from", req.From, "tokenId", req.TokenID, "nonce", req.Nonce)
	metrics.ForwardsTotal.WithLabelValues("typed", "executed").Inc()
	return true, nil, nil
}
