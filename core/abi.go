package core

import (
	"errors"
	"fmt"

	"github.com/defiweb/go-eth/abi"
)

// ErrNotInABI is wrapped by lookups of names the ABI does not declare.
var ErrNotInABI = errors.New("not found in ABI")

var errNilABI = errors.New("ABI is not set")

// ResolveMethod looks up a function by name.
func ResolveMethod(contract *abi.Contract, name string) (*abi.Method, error) {
	if contract == nil {
		return nil, errNilABI
	}
	m, ok := contract.Methods[name]
	if !ok || m == nil {
		return nil, fmt.Errorf("function %q %w", name, ErrNotInABI)
	}
	return m, nil
}

// ResolveEvent looks up an event by name.
func ResolveEvent(contract *abi.Contract, name string) (*abi.Event, error) {
	if contract == nil {
		return nil, errNilABI
	}
	e, ok := contract.Events[name]
	if !ok || e == nil {
		return nil, fmt.Errorf("event %q %w", name, ErrNotInABI)
	}
	return e, nil
}

// encodeCall resolves the function of call and ABI encodes its arguments.
func encodeCall(call ContractCall) (*abi.Method, []byte, error) {
	method, err := ResolveMethod(call.ABI, call.FunctionName)
	if err != nil {
		return nil, nil, err
	}
	calldata, err := method.EncodeArgs(call.Args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s args: %w", call.FunctionName, err)
	}
	return method, calldata, nil
}
