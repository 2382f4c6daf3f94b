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
	"math/big"

	"github.com/defiweb/go-eth/abi"
	"github.com/defiweb/go-eth/types"
	"github.com/stretchr/testify/mock"
)

type mockRpcClient struct {
	mock.Mock
}

func (m *mockRpcClient) BlockNumber(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	n := args.Get(0)
	if n == nil {
		return nil, args.Error(1)
	}
	return n.(*big.Int), args.Error(1)
}

func (m *mockRpcClient) GetBalance(ctx context.Context, address types.Address, block types.BlockNumber) (*big.Int, error) {
	args := m.Called(ctx, address, block)
	b := args.Get(0)
	if b == nil {
		return nil, args.Error(1)
	}
	return b.(*big.Int), args.Error(1)
}

func (m *mockRpcClient) GasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	g := args.Get(0)
	if g == nil {
		return nil, args.Error(1)
	}
	return g.(*big.Int), args.Error(1)
}

func (m *mockRpcClient) SendTransaction(ctx context.Context, tx *types.Transaction) (*types.Hash, *types.Transaction, error) {
	args := m.Called(ctx, tx)
	h := args.Get(0)
	if h == nil {
		return nil, nil, args.Error(2)
	}
	return h.(*types.Hash), args.Get(1).(*types.Transaction), args.Error(2)
}

func (m *mockRpcClient) Call(ctx context.Context, call *types.Call, block types.BlockNumber) ([]byte, *types.Call, error) {
	args := m.Called(ctx, call, block)
	c := args.Get(1)
	if c == nil {
		return args.Get(0).([]byte), nil, args.Error(2)
	}
	return args.Get(0).([]byte), c.(*types.Call), args.Error(2)
}

func (m *mockRpcClient) GetLogs(ctx context.Context, query *types.FilterLogsQuery) ([]types.Log, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]types.Log), args.Error(1)
}

func (m *mockRpcClient) GetTransactionReceipt(ctx context.Context, hash types.Hash) (*types.TransactionReceipt, error) {
	args := m.Called(ctx, hash)
	r := args.Get(0)
	if r == nil {
		return nil, args.Error(1)
	}
	return r.(*types.TransactionReceipt), args.Error(1)
}

// encoder ABI used by tests to produce return data: the arguments of a function
// are encoded exactly like the same types returned by another one.
var testEncoderABI = abi.MustParseJSON([]byte(`[
	{"type": "function", "name": "uint256", "inputs": [{"name": "v", "type": "uint256"}], "outputs": []},
	{"type": "function", "name": "results", "inputs": [{"name": "r", "type": "tuple[]", "components": [
		{"name": "success", "type": "bool"},
		{"name": "returnData", "type": "bytes"}
	]}], "outputs": []}
]`))

func encodeUint256(v int64) []byte {
	b, err := testEncoderABI.Methods["uint256"].EncodeArgs(big.NewInt(v))
	if err != nil {
		panic(err)
	}
	return b[4:]
}

func encodeMulticallResults(results []multicall3Result) []byte {
	b, err := testEncoderABI.Methods["results"].EncodeArgs(results)
	if err != nil {
		panic(err)
	}
	return b[4:]
}

// callTo matches an eth_call to the given address with the given input.
func callTo(address types.Address, input []byte) any {
	return mock.MatchedBy(func(call *types.Call) bool {
		return call != nil && call.To != nil && *call.To == address && string(call.Input) == string(input)
	})
}
