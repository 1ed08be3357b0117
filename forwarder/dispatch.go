package forwarder

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/hierreg/naming-registry-backend/interfaces"
)

// registryABI is the closed set of record store operations reachable
// through forwarded call data. Anything outside it is refused with
// ErrUnsupportedMethod before signature-independent state is touched.
const registryABI = `[
	{"type":"function","name":"transferFrom","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"safeTransferFrom","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"safeTransferFrom","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"data","type":"bytes"}]},
	{"type":"function","name":"setOwner","inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"burn","inputs":[{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"reset","inputs":[{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"set","inputs":[{"name":"key","type":"string"},{"name":"value","type":"string"},{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"setMany","inputs":[{"name":"keys","type":"string[]"},{"name":"values","type":"string[]"},{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"reconfigure","inputs":[{"name":"keys","type":"string[]"},{"name":"values","type":"string[]"},{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"approve","inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"setResolver","inputs":[{"name":"tokenId","type":"uint256"},{"name":"resolver","type":"address"}]},
	{"type":"function","name":"setApprovalForAll","inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}]}
]`

// Dispatcher decodes forwarded call data against the closed registry ABI
// and executes the described operation as a given account. It holds no
// store reference; callers pass the store to Dispatch so a checked
// transition can hand in its own view.
type Dispatcher struct {
	abi abi.ABI
}

// NewDispatcher creates a dispatcher for the closed registry ABI.
func NewDispatcher() (*Dispatcher, error) {
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("parsing registry ABI: %w", err)
	}
	return &Dispatcher{abi: parsed}, nil
}

// Pack encodes a call to one of the permitted operations. Overloaded
// methods follow the go-ethereum naming convention (the four-argument
// safeTransferFrom is "safeTransferFrom0").
func (d *Dispatcher) Pack(method string, args ...interface{}) ([]byte, error) {
	return d.abi.Pack(method, args...)
}

type decodedCall struct {
	method *abi.Method
	args   []interface{}
}

func (d *Dispatcher) decode(data []byte) (*decodedCall, error) {
	if len(data) < 4 {
		return nil, interfaces.ErrUnsupportedMethod
	}

	method, err := d.abi.MethodById(data[:4])
	if err != nil {
		return nil, interfaces.ErrUnsupportedMethod
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable arguments for %s", interfaces.ErrUnsupportedMethod, method.Name)
	}

	return &decodedCall{method: method, args: args}, nil
}

// TokenOf returns the token id referenced by the call data. hasToken is
// false for operations with no token target (setApprovalForAll).
func (d *Dispatcher) TokenOf(data []byte) (interfaces.TokenID, bool, error) {
	call, err := d.decode(data)
	if err != nil {
		return interfaces.TokenID{}, false, err
	}

	for i, input := range call.method.Inputs {
		if input.Name == "tokenId" {
			id, ok := call.args[i].(*big.Int)
			if !ok {
				return interfaces.TokenID{}, false, interfaces.ErrUnsupportedMethod
			}
			return common.BigToHash(id), true, nil
		}
	}
	return interfaces.TokenID{}, false, nil
}

// Dispatch decodes data and executes the operation against reg as from.
// Errors from the record store pass through unchanged.
func (d *Dispatcher) Dispatch(reg interfaces.Registry, from common.Address, data []byte) error {
	call, err := d.decode(data)
	if err != nil {
		return err
	}

	a := call.args
	switch call.method.Sig {
	case "transferFrom(address,address,uint256)":
		return reg.TransferFrom(from, a[0].(common.Address), a[1].(common.Address), common.BigToHash(a[2].(*big.Int)))
	case "safeTransferFrom(address,address,uint256)":
		return reg.SafeTransferFrom(from, a[0].(common.Address), a[1].(common.Address), common.BigToHash(a[2].(*big.Int)), nil)
	case "safeTransferFrom(address,address,uint256,bytes)":
		return reg.SafeTransferFrom(from, a[0].(common.Address), a[1].(common.Address), common.BigToHash(a[2].(*big.Int)), a[3].([]byte))
	case "setOwner(address,uint256)":
		return reg.SetOwner(from, a[0].(common.Address), common.BigToHash(a[1].(*big.Int)))
	case "burn(uint256)":
		return reg.Burn(from, common.BigToHash(a[0].(*big.Int)))
	case "reset(uint256)":
		return reg.Reset(from, common.BigToHash(a[0].(*big.Int)))
	case "set(string,string,uint256)":
		return reg.Set(from, a[0].(string), a[1].(string), common.BigToHash(a[2].(*big.Int)))
	case "setMany(string[],string[],uint256)":
		return reg.SetMany(from, a[0].([]string), a[1].([]string), common.BigToHash(a[2].(*big.Int)))
	case "reconfigure(string[],string[],uint256)":
		return reg.Reconfigure(from, a[0].([]string), a[1].([]string), common.BigToHash(a[2].(*big.Int)))
	case "approve(address,uint256)":
		return reg.Approve(from, a[0].(common.Address), common.BigToHash(a[1].(*big.Int)))
	case "setResolver(uint256,address)":
		return reg.SetResolver(from, common.BigToHash(a[0].(*big.Int)), a[1].(common.Address))
	case "setApprovalForAll(address,bool)":
		return reg.SetApprovalForAll(from, a[0].(common.Address), a[1].(bool))
	default:
		return interfaces.ErrUnsupportedMethod
	}
}
