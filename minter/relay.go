package minter

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/hierreg/naming-registry-backend/forwarder"
	"github.com/hierreg/naming-registry-backend/interfaces"
	"github.com/hierreg/naming-registry-backend/metrics"
)

// managerABI is the closed set of operations a relayed signature can invoke.
// Role management deliberately has no entry here: relayers can only carry
// mints.
const managerABI = `[
	{"type":"function","name":"mintSLD","inputs":[
		{"name":"to","type":"address"},
		{"name":"root","type":"uint256"},
		{"name":"label","type":"string"}]},
	{"type":"function","name":"safeMintSLD","inputs":[
		{"name":"to","type":"address"},
		{"name":"root","type":"uint256"},
		{"name":"label","type":"string"}]},
	{"type":"function","name":"safeMintSLD","inputs":[
		{"name":"to","type":"address"},
		{"name":"root","type":"uint256"},
		{"name":"label","type":"string"},
		{"name":"data","type":"bytes"}]},
	{"type":"function","name":"mintSLDWithRecords","inputs":[
		{"name":"to","type":"address"},
		{"name":"root","type":"uint256"},
		{"name":"label","type":"string"},
		{"name":"keys","type":"string[]"},
		{"name":"values","type":"string[]"}]},
	{"type":"function","name":"safeMintSLDWithRecords","inputs":[
		{"name":"to","type":"address"},
		{"name":"root","type":"uint256"},
		{"name":"label","type":"string"},
		{"name":"keys","type":"string[]"},
		{"name":"values","type":"string[]"}]},
	{"type":"function","name":"safeMintSLDWithRecords","inputs":[
		{"name":"to","type":"address"},
		{"name":"root","type":"uint256"},
		{"name":"label","type":"string"},
		{"name":"keys","type":"string[]"},
		{"name":"values","type":"string[]"},
		{"name":"data","type":"bytes"}]}
]`

type relayABI struct {
	abi abi.ABI
}

func parseRelayABI() (relayABI, error) {
	parsed, err := abi.JSON(strings.NewReader(managerABI))
	if err != nil {
		return relayABI{}, fmt.Errorf("parsing manager ABI: %w", err)
	}
	return relayABI{abi: parsed}, nil
}

// Pack encodes a manager call for relaying. Overloads follow the parsed ABI
// naming: the payload-carrying variants are "safeMintSLD0" and
// "safeMintSLDWithRecords0".
func (m *Manager) Pack(name string, args ...interface{}) ([]byte, error) {
	return m.relayABI.abi.Pack(name, args...)
}

// RelayDigest computes the digest a minter must sign over call data destined
// for this manager.
func (m *Manager) RelayDigest(data []byte) common.Hash {
	return forwarder.RelayDigest(m.address, data)
}

// Relay verifies a pre-signed manager call submitted by an untrusted relayer
// and dispatches it as the recovered signer.
//
// Verification failures (unknown or disallowed selector, bad signature,
// signer without the minter role) return an error. The dispatched mint's own
// outcome is reported as (success, returnData) with a nil error, mirroring
// the generic forwarder. There is no relay nonce: replay protection comes
// from the dispatched operations being mint-once.
func (m *Manager) Relay(relayer common.Address, data, signature []byte) (bool, []byte, error) {
	if len(data) < 4 {
		return false, nil, interfaces.ErrUnsupportedMethod
	}
	method, err := m.relayABI.abi.MethodById(data[:4])
	if err != nil {
		return false, nil, fmt.Errorf("%w: %v", interfaces.ErrUnsupportedMethod, err)
	}

	signer, err := forwarder.RecoverSigner(m.RelayDigest(data), signature)
	if err != nil {
		metrics.RelaysTotal.WithLabelValues("rejected").Inc()
		return false, nil, err
	}
	if !m.IsMinter(signer) {
		metrics.RelaysTotal.WithLabelValues("rejected").Inc()
		return false, nil, interfaces.ErrSignerIsNotMinter
	}

	if err := m.dispatch(signer, method, data[4:]); err != nil {
		metrics.RelaysTotal.WithLabelValues("failed").Inc()
		m.log.Info("relayed mint failed", "relayer", relayer, "signer", signer, "method", method.Name, "err", err)
		return false, []byte(err.Error()), nil
	}

	rec := interfaces.RelayRecord{
		Relayer:    relayer,
		Signer:     signer,
		Selector:   [4]byte(data[:4]),
		DataDigest: crypto.Keccak256Hash(data),
	}
	m.recordRelay(rec)

	metrics.RelaysTotal.WithLabelValues("accepted").Inc()
	m.log.Info("relayed mint executed", "relayer", relayer, "signer", signer, "method", method.Name)
	return true, nil, nil
}

func (m *Manager) dispatch(signer common.Address, method *abi.Method, argData []byte) error {
	args, err := method.Inputs.Unpack(argData)
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrUnsupportedMethod, err)
	}

	switch method.Sig {
	case "mintSLD(address,uint256,string)":
		return m.MintSLD(signer, args[0].(common.Address), common.BigToHash(args[1].(*big.Int)), args[2].(string))

	case "safeMintSLD(address,uint256,string)":
		return m.SafeMintSLD(signer, args[0].(common.Address), common.BigToHash(args[1].(*big.Int)), args[2].(string), nil)

	case "safeMintSLD(address,uint256,string,bytes)":
		return m.SafeMintSLD(signer, args[0].(common.Address), common.BigToHash(args[1].(*big.Int)), args[2].(string), args[3].([]byte))

	case "mintSLDWithRecords(address,uint256,string,string[],string[])":
		return m.MintSLDWithRecords(signer, args[0].(common.Address), common.BigToHash(args[1].(*big.Int)), args[2].(string),
			args[3].([]string), args[4].([]string))

	case "safeMintSLDWithRecords(address,uint256,string,string[],string[])":
		return m.SafeMintSLDWithRecords(signer, args[0].(common.Address), common.BigToHash(args[1].(*big.Int)), args[2].(string),
			args[3].([]string), args[4].([]string), nil)

	case "safeMintSLDWithRecords(address,uint256,string,string[],string[],bytes)":
		return m.SafeMintSLDWithRecords(signer, args[0].(common.Address), common.BigToHash(args[1].(*big.Int)), args[2].(string),
			args[3].([]string), args[4].([]string), args[5].([]byte))

	default:
		return interfaces.ErrUnsupportedMethod
	}
}
