package forwarder

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/hierreg/naming-registry-backend/interfaces"
	"github.com/hierreg/naming-registry-backend/metrics"
)

// Legacy exposes one signed entry point per mutating operation, verified
// with the packed-hash scheme retained for backward compatibility. It
// shares the generic forwarder's nonce counters and serialization lock, so
// an accepted request under either scheme invalidates pending signatures
// under both.
type Legacy struct {
	fwd *Forwarder
}

// NewLegacy wraps a generic forwarder with the legacy entry points.
func NewLegacy(f *Forwarder) *Legacy {
	return &Legacy{fwd: f}
}

// Digest computes the digest a client must sign for the packed call data at
// the token's current nonce.
func (l *Legacy) Digest(data []byte, id interfaces.TokenID) common.Hash {
	return LegacyDigest(l.fwd.reg.Address(), data, l.fwd.reg.NonceOf(id))
}

// TransferFromFor executes a signed transfer.
func (l *Legacy) TransferFromFor(from, to common.Address, id interfaces.TokenID, signature []byte) error {
	data, err := l.fwd.disp.Pack("transferFrom", from, to, id.Big())
	if err != nil {
		return err
	}
	return l.execute(id, data, signature)
}

// SafeTransferFromFor executes a signed safe transfer without payload.
func (l *Legacy) SafeTransferFromFor(from, to common.Address, id interfaces.TokenID, signature []byte) error {
	data, err := l.fwd.disp.Pack("safeTransferFrom", from, to, id.Big())
	if err != nil {
		return err
	}
	return l.execute(id, data, signature)
}

// SafeTransferFromWithDataFor executes a signed safe transfer carrying an
// extra payload.
func (l *Legacy) SafeTransferFromWithDataFor(from, to common.Address, id interfaces.TokenID, data []byte, signature []byte) error {
	packed, err := l.fwd.disp.Pack("safeTransferFrom0", from, to, id.Big(), data)
	if err != nil {
		return err
	}
	return l.execute(id, packed, signature)
}

// BurnFor executes a signed burn.
func (l *Legacy) BurnFor(id interfaces.TokenID, signature []byte) error {
	data, err := l.fwd.disp.Pack("burn", id.Big())
	if err != nil {
		return err
	}
	return l.execute(id, data, signature)
}

// ResetFor executes a signed record reset.
func (l *Legacy) ResetFor(id interfaces.TokenID, signature []byte) error {
	data, err := l.fwd.disp.Pack("reset", id.Big())
	if err != nil {
		return err
	}
	return l.execute(id, data, signature)
}

// SetFor executes a signed single-record write.
func (l *Legacy) SetFor(key, value string, id interfaces.TokenID, signature []byte) error {
	data, err := l.fwd.disp.Pack("set", key, value, id.Big())
	if err != nil {
		return err
	}
	return l.execute(id, data, signature)
}

// SetManyFor executes a signed multi-record write.
func (l *Legacy) SetManyFor(keys, values []string, id interfaces.TokenID, signature []byte) error {
	data, err := l.fwd.disp.Pack("setMany", keys, values, id.Big())
	if err != nil {
		return err
	}
	return l.execute(id, data, signature)
}

// ReconfigureFor executes a signed replace-all record write.
func (l *Legacy) ReconfigureFor(keys, values []string, id interfaces.TokenID, signature []byte) error {
	data, err := l.fwd.disp.Pack("reconfigure", keys, values, id.Big())
	if err != nil {
		return err
	}
	return l.execute(id, data, signature)
}

// execute verifies the packed-hash signature against the token's current
// nonce and dispatches as the recovered signer. Unlike the generic scheme,
// a failed dispatch aborts without consuming the nonce: the legacy entry
// points are all-or-nothing.
func (l *Legacy) execute(id interfaces.TokenID, data []byte, signature []byte) error {
	l.fwd.mu.Lock()
	defer l.fwd.mu.Unlock()

	reg := l.fwd.reg
	nonce := reg.NonceOf(id)
	digest := LegacyDigest(reg.Address(), data, nonce)

	signer, err := RecoverSigner(digest, signature)
	if err != nil {
		metrics.ForwardsTotal.WithLabelValues("legacy", "rejected").Inc()
		return err
	}

	var dispatchErr error
	err = reg.ExecuteChecked(id, nonce, false, func(view interfaces.Registry) error {
		// A signature over a stale nonce recovers to an unrelated address,
		// so staleness and wrong-signer both surface here. The check runs
		// inside the transition so ownership cannot change between it and
		// the dispatch.
		if !view.IsApprovedOrOwner(signer, id) {
			return interfaces.ErrSignatureMismatch
		}
		dispatchErr = l.fwd.disp.Dispatch(view, signer, data)
		return dispatchErr
	})
	if err != nil {
		if dispatchErr != nil {
			metrics.ForwardsTotal.WithLabelValues("legacy", "failed").Inc()
		} else {
			metrics.ForwardsTotal.WithLabelValues("legacy", "rejected").Inc()
		}
		return err
	}

	l.fwd.log.Info("legacy signed call executed", "tokenId", id, "signer", signer)
	metrics.ForwardsTotal.WithLabelValues("legacy", "executed").Inc()
	return nil
}
