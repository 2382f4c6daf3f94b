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
	"math/big"
	"testing"

	"github.com/defiweb/go-eth/hexutil"
	"github.com/defiweb/go-eth/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chronicleprotocol/protocol-core/core/abis"
)

var (
	testToken  = types.MustAddressFromHex("0x1F7acDa376eF37EC371235a094113dF9Cb4EfEe1")
	testHolder = types.MustAddressFromHex("0x2b5AD5c4795c026514f8317c7a215E218DcCD6cF")
	testOther  = types.MustAddressFromHex("0x6813Eb9362372EEF6200f3b1dbC3f819671cBA69")
)

func balanceOfCall(holder types.Address) ContractCall {
	return ContractCall{
		Address:      testToken,
		ABI:          abis.ERC20,
		FunctionName: "balanceOf",
		Args:         []any{holder},
	}
}

func balanceOfInput(t *testing.T, holder types.Address) []byte {
	b, err := abis.ERC20.Methods["balanceOf"].EncodeArgs(holder)
	require.NoError(t, err)
	return b
}

func TestRead(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	reader := NewContractReader(mockRpcClient)

	ret := hexutil.MustHexToBytes("0x0000000000000000000000000000000000000000000000000de0b6b3a7640000")
	mockRpcClient.
		On("Call", mock.Anything, callTo(testToken, balanceOfInput(t, testHolder)), types.LatestBlockNumber).
		Return(ret, nil, nil)

	res, err := reader.Read(context.TODO(), balanceOfCall(testHolder))
	require.NoError(t, err)
	require.False(t, res.Empty())
	assert.Equal(t, ret, res.Data())

	var balance *big.Int
	require.NoError(t, res.Decode(&balance))
	assert.Equal(t, big.NewInt(1e18), balance)
	mockRpcClient.AssertExpectations(t)
}

func TestReadUnknownFunction(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	reader := NewContractReader(mockRpcClient)

	_, err := reader.Read(context.TODO(), ContractCall{
		Address:      testToken,
		ABI:          abis.ERC20,
		FunctionName: "notAFunction",
	})
	require.Error(t, err)
	assert.Equal(t, KindContractRead, KindOf(err))
	assert.ErrorIs(t, err, ErrNotInABI)
	assert.Contains(t, err.Error(), "notAFunction")

	var readErr *ContractReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "notAFunction", readErr.FunctionName)
	mockRpcClient.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestReadFailure(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	reader := NewContractReader(mockRpcClient)

	mockRpcClient.On("Call", mock.Anything, mock.Anything, mock.Anything).
		Return([]byte(nil), nil, fmt.Errorf("execution reverted"))

	_, err := reader.Read(context.TODO(), balanceOfCall(testHolder))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContract)
	assert.Equal(t, `Contract read failed for function "balanceOf": execution reverted`, err.Error())
}

func TestReadMultiple(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	reader := NewContractReader(mockRpcClient)

	mockRpcClient.
		On("Call", mock.Anything, callTo(testToken, balanceOfInput(t, testHolder)), types.LatestBlockNumber).
		Return(encodeUint256(100), nil, nil)
	mockRpcClient.
		On("Call", mock.Anything, callTo(testToken, balanceOfInput(t, testOther)), types.LatestBlockNumber).
		Return(encodeUint256(200), nil, nil)

	calls := []ContractCall{balanceOfCall(testHolder), balanceOfCall(testOther), balanceOfCall(testHolder)}
	results, err := reader.ReadMultiple(context.TODO(), calls)
	require.NoError(t, err)
	require.Len(t, results, len(calls))

	for i, want := range []int64{100, 200, 100} {
		var v *big.Int
		require.NoError(t, results[i].Decode(&v))
		assert.Equal(t, big.NewInt(want), v, "result %d", i)
	}
	mockRpcClient.AssertNumberOfCalls(t, "Call", 3)
}

func TestReadMultipleFailure(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	reader := NewContractReader(mockRpcClient)

	mockRpcClient.
		On("Call", mock.Anything, callTo(testToken, balanceOfInput(t, testHolder)), types.LatestBlockNumber).
		Return(encodeUint256(100), nil, nil)
	mockRpcClient.
		On("Call", mock.Anything, callTo(testToken, balanceOfInput(t, testOther)), types.LatestBlockNumber).
		Return([]byte(nil), nil, fmt.Errorf("execution reverted"))

	results, err := reader.ReadMultiple(context.TODO(), []ContractCall{balanceOfCall(testHolder), balanceOfCall(testOther)})
	require.Error(t, err)
	assert.Nil(t, results)

	var readErr *ContractReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, MultipleFunctionName, readErr.FunctionName)
	assert.Contains(t, err.Error(), `"multiple"`)
}

func TestReadMultipleEmpty(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	reader := NewContractReader(mockRpcClient)

	results, err := reader.ReadMultiple(context.TODO(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	mockRpcClient.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestEmptyCallResult(t *testing.T) {
	var res CallResult
	assert.True(t, res.Empty())
	assert.Nil(t, res.Data())

	var v *big.Int
	assert.ErrorIs(t, res.Decode(&v), ErrEmptyResult)
}
