//  Copyright (C) 2021-2023 Chronicle Labs, Inc.
//
//  This program is free software: you can redistribute it and/or modify
//  it under the terms of the GNU Affero General Public License as
//  published by the Free Software Foundation, either version 3 of the
//  License, or (at your option) any later version.
//
//  This program is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU Affero General Public License for more details.
//
//  You should have received a copy of the GNU Affero General Public License
//  along with this program.  If not, see <http://www.gnu.org/licenses/>.

package core

import (
	"errors"
	"fmt"
)

// Kind tags every error produced by the interaction layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidChain
	KindInvalidAddress
	KindRPC
	KindNetwork
	KindContractRead
	KindContractWrite
	KindEventListener
	KindMulticall
)

func (k Kind) String() string {
	switch k {
	case KindInvalidChain:
		return "invalid_chain"
	case KindInvalidAddress:
		return "invalid_address"
	case KindRPC:
		return "rpc"
	case KindNetwork:
		return "network"
	case KindContractRead:
		return "contract_read"
	case KindContractWrite:
		return "contract_write"
	case KindEventListener:
		return "event_listener"
	case KindMulticall:
		return "multicall"
	default:
		return "unknown"
	}
}

// IsClientKind reports whether k belongs to the connection-level kinds.
func (k Kind) IsClientKind() bool {
	return k >= KindInvalidChain && k <= KindNetwork
}

// IsContractKind reports whether k belongs to the interaction-level kinds.
func (k Kind) IsContractKind() bool {
	return k >= KindContractRead && k <= KindMulticall
}

var (
	// ErrClient is the root of all connection-level errors.
	ErrClient = errors.New("client error")

	// ErrContract is the root of all contract interaction errors.
	ErrContract = errors.New("contract error")

	// ErrNoAccount is returned when a wallet operation needs an account and none was configured.
	ErrNoAccount = errors.New("no account configured for wallet client")
)

// KindOf returns the kind of the first taxonomy error found in err's chain.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

func causeMessage(err error) string {
	if err == nil {
		return "Unknown error"
	}
	return err.Error()
}

type InvalidChainError struct {
	ChainID uint64
}

func (e *InvalidChainError) Error() string {
	return fmt.Sprintf("Invalid or unsupported chain ID: %d", e.ChainID)
}

func (e *InvalidChainError) Kind() Kind { return KindInvalidChain }

func (e *InvalidChainError) Is(target error) bool { return target == ErrClient }

type InvalidAddressError struct {
	Address string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("Invalid Ethereum address: %s", e.Address)
}

func (e *InvalidAddressError) Kind() Kind { return KindInvalidAddress }

func (e *InvalidAddressError) Is(target error) bool { return target == ErrClient }

// RPCError wraps a transport failure together with the endpoint it happened on.
type RPCError struct {
	RPCURL string
	Msg    string
	Err    error
}

func newRPCError(rpcURL, msg string, err error) *RPCError {
	return &RPCError{RPCURL: rpcURL, Msg: msg, Err: err}
}

func (e *RPCError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = causeMessage(e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", msg, causeMessage(e.Err))
	}
	if e.RPCURL != "" {
		return fmt.Sprintf("RPC error (%s): %s", e.RPCURL, msg)
	}
	return fmt.Sprintf("RPC error: %s", msg)
}

func (e *RPCError) Unwrap() error { return e.Err }

func (e *RPCError) Kind() Kind { return KindRPC }

func (e *RPCError) Is(target error) bool { return target == ErrClient }

type NetworkError struct {
	ChainID uint64
	Err     error
}

func (e *NetworkError) Error() string {
	if e.ChainID != 0 {
		return fmt.Sprintf("Network error on chain %d: %s", e.ChainID, causeMessage(e.Err))
	}
	return fmt.Sprintf("Network error: %s", causeMessage(e.Err))
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Kind() Kind { return KindNetwork }

func (e *NetworkError) Is(target error) bool { return target == ErrClient }

// ContractReadError is returned by every read path, including ReadMultiple,
// where FunctionName is "multiple".
type ContractReadError struct {
	FunctionName string
	Err          error
}

func (e *ContractReadError) Error() string {
	return fmt.Sprintf("Contract read failed for function %q: %s", e.FunctionName, causeMessage(e.Err))
}

func (e *ContractReadError) Unwrap() error { return e.Err }

func (e *ContractReadError) Kind() Kind { return KindContractRead }

func (e *ContractReadError) Is(target error) bool { return target == ErrContract }

type ContractWriteError struct {
	FunctionName string
	Err          error
}

func (e *ContractWriteError) Error() string {
	return fmt.Sprintf("Contract write failed for function %q: %s", e.FunctionName, causeMessage(e.Err))
}

func (e *ContractWriteError) Unwrap() error { return e.Err }

func (e *ContractWriteError) Kind() Kind { return KindContractWrite }

func (e *ContractWriteError) Is(target error) bool { return target == ErrContract }

type EventListenerError struct {
	EventName string
	Err       error
}

func (e *EventListenerError) Error() string {
	return fmt.Sprintf("Event listener failed for event %q: %s", e.EventName, causeMessage(e.Err))
}

func (e *EventListenerError) Unwrap() error { return e.Err }

func (e *EventListenerError) Kind() Kind { return KindEventListener }

func (e *EventListenerError) Is(target error) bool { return target == ErrContract }

type MulticallError struct {
	CallCount int
	Err       error
}

func (e *MulticallError) Error() string {
	return fmt.Sprintf("Multicall failed with %d calls: %s", e.CallCount, causeMessage(e.Err))
}

func (e *MulticallError) Unwrap() error { return e.Err }

func (e *MulticallError) Kind() Kind { return KindMulticall }

func (e *MulticallError) Is(target error) bool { return target == ErrContract }
