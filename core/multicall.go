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
	"context"
	"fmt"

	"github.com/defiweb/go-eth/abi"
	"github.com/defiweb/go-eth/types"
	logger "github.com/sirupsen/logrus"

	"github.com/chronicleprotocol/protocol-core/core/abis"
)

// Multicall3Address is the canonical Multicall3 deployment, identical on most EVM chains.
var Multicall3Address = types.MustAddressFromHex("0xcA11bde05977b3631167028862bE2a173976CA11")

type multicall3Call struct {
	Target       types.Address `abi:"target"`       // address
	AllowFailure bool          `abi:"allowFailure"` // bool
	CallData     []byte        `abi:"callData"`     // bytes
}

type multicall3Result struct {
	Success    bool   `abi:"success"`    // bool
	ReturnData []byte `abi:"returnData"` // bytes
}

// Multicall aggregates read calls into a single eth_call to a Multicall3 contract.
type Multicall struct {
	client  RPCClient
	address types.Address
}

func NewMulticall(client RPCClient, address types.Address) *Multicall {
	return &Multicall{client: client, address: address}
}

// Batch executes calls in one round trip. Results are in the order of calls.
//
// Without allowFailure a single failing call fails the whole batch and no
// results are returned. With allowFailure every call gets a slot and failed
// calls leave it empty. Which call failed and why is not reported.
func (m *Multicall) Batch(ctx context.Context, calls []ContractCall, allowFailure bool) ([]CallResult, error) {
	res, err := m.batch(ctx, calls, allowFailure)
	if err != nil {
		return nil, track("multicall", &MulticallError{CallCount: len(calls), Err: err})
	}
	track("multicall", nil)
	return res, nil
}

// BatchRead is Batch without failure tolerance.
func (m *Multicall) BatchRead(ctx context.Context, calls []ContractCall) ([]CallResult, error) {
	return m.Batch(ctx, calls, false)
}

// BatchReadWithFailure is Batch with failure tolerance.
func (m *Multicall) BatchReadWithFailure(ctx context.Context, calls []ContractCall) ([]CallResult, error) {
	return m.Batch(ctx, calls, true)
}

func (m *Multicall) batch(ctx context.Context, calls []ContractCall, allowFailure bool) ([]CallResult, error) {
	if len(calls) == 0 {
		return []CallResult{}, nil
	}

	methods := make([]*abi.Method, len(calls))
	aggregated := make([]multicall3Call, len(calls))
	for i, call := range calls {
		method, calldata, err := encodeCall(call)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		methods[i] = method
		aggregated[i] = multicall3Call{
			Target:       call.Address,
			AllowFailure: allowFailure,
			CallData:     calldata,
		}
	}

	aggregate3 := abis.Multicall3.Methods["aggregate3"]
	calldata, err := aggregate3.EncodeArgs(aggregated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode aggregate3 args: %w", err)
	}

	to := m.address
	b, _, err := m.client.Call(ctx, &types.Call{
		To:    &to,
		Input: calldata,
	}, types.LatestBlockNumber)
	if err != nil {
		return nil, err
	}
	MulticallSizeHistogram.Observe(float64(len(calls)))

	var outcomes []multicall3Result
	if err := aggregate3.DecodeValues(b, &outcomes); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate3 result: %w", err)
	}
	if len(outcomes) != len(calls) {
		return nil, fmt.Errorf("aggregate3 returned %d results for %d calls", len(outcomes), len(calls))
	}

	results := make([]CallResult, len(calls))
	failed := 0
	for i, outcome := range outcomes {
		if !outcome.Success {
			if !allowFailure {
				return nil, fmt.Errorf("call %d to %s failed", i, calls[i].FunctionName)
			}
			failed++
			continue
		}
		results[i] = newCallResult(methods[i], outcome.ReturnData)
	}

	logger.
		WithField("address", to).
		Debugf("multicall executed %d calls, %d failed", len(calls), failed)
	return results, nil
}
