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
	"math/big"
	"time"

	"github.com/defiweb/go-eth/abi"
	"github.com/defiweb/go-eth/types"
)

// ErrEmptyResult is returned when decoding a result slot that holds no value.
var ErrEmptyResult = errors.New("call result is empty")

// ContractCall describes a single read-only contract function invocation.
type ContractCall struct {
	Address      types.Address
	ABI          *abi.Contract
	FunctionName string
	Args         []any
}

// WriteCall describes a state-mutating contract function invocation.
// Account must already be authorized on the transport (unlocked on the node or
// backed by a local key).
type WriteCall struct {
	ContractCall
	Value   *big.Int
	Account types.Address
}

// TxRequest is a plain value transfer or raw calldata transaction.
type TxRequest struct {
	To    types.Address
	Value *big.Int
	Data  []byte
}

// LogsQuery selects historical logs of one event emitted by one contract.
// Nil block bounds are left to the node defaults.
type LogsQuery struct {
	Address   types.Address
	ABI       *abi.Contract
	EventName string
	FromBlock *big.Int
	ToBlock   *big.Int
}

// WatchParams registers a live log handler for one event of one contract.
type WatchParams struct {
	Address   types.Address
	ABI       *abi.Contract
	EventName string
	OnLogs    func(logs []types.Log)

	// PollingInterval overrides the client polling interval when no
	// subscription endpoint is configured.
	PollingInterval time.Duration
}

// CallResult holds the raw return data of a contract call together with the
// method that produced it. The zero value is an empty slot.
type CallResult struct {
	method *abi.Method
	data   []byte
}

func newCallResult(method *abi.Method, data []byte) CallResult {
	return CallResult{method: method, data: data}
}

// Empty reports whether the slot holds no value, which is the case for failed
// calls in a batch that allowed failures.
func (r CallResult) Empty() bool {
	return r.method == nil
}

// Data returns the ABI encoded return data.
func (r CallResult) Data() []byte {
	return r.data
}

// Decode decodes the return values into vals, in the order of the method outputs.
func (r CallResult) Decode(vals ...any) error {
	if r.Empty() {
		return ErrEmptyResult
	}
	return r.method.DecodeValues(r.data, vals...)
}
