package core

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/defiweb/go-eth/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chronicleprotocol/protocol-core/core/abis"
)

func TestWrite(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	writer := NewContractWriter(mockRpcClient, 0)

	input, err := abis.ERC20.Methods["transfer"].EncodeArgs(testOther, big.NewInt(500))
	require.NoError(t, err)

	hash := types.MustHashFromHex("0xac50cef58b3aef7f7c30349f5e4a342a29d2325a02eafc8dacfdba391e6d5db3", types.PadNone)
	isExpectedTx := mock.MatchedBy(func(tx *types.Transaction) bool {
		return tx.From != nil && *tx.From == testHolder &&
			tx.To != nil && *tx.To == testToken &&
			bytes.Equal(tx.Input, input) &&
			tx.Value == nil &&
			tx.ChainID == nil
	})
	mockRpcClient.On("SendTransaction", mock.Anything, isExpectedTx).Return(&hash, &types.Transaction{}, nil)

	res, err := writer.Write(context.TODO(), WriteCall{
		ContractCall: ContractCall{
			Address:      testToken,
			ABI:          abis.ERC20,
			FunctionName: "transfer",
			Args:         []any{testOther, big.NewInt(500)},
		},
		Account: testHolder,
	})
	require.NoError(t, err)
	assert.Equal(t, &hash, res)
	mockRpcClient.AssertExpectations(t)
}

func TestWriteWithValue(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	writer := NewContractWriter(mockRpcClient, 0)

	hash := types.Hash{0x1}
	isExpectedTx := mock.MatchedBy(func(tx *types.Transaction) bool {
		return tx.Value != nil && tx.Value.Cmp(big.NewInt(1e18)) == 0
	})
	mockRpcClient.On("SendTransaction", mock.Anything, isExpectedTx).Return(&hash, &types.Transaction{}, nil)

	_, err := writer.Write(context.TODO(), WriteCall{
		ContractCall: ContractCall{
			Address:      testToken,
			ABI:          abis.ERC20,
			FunctionName: "approve",
			Args:         []any{testOther, big.NewInt(1)},
		},
		Value:   big.NewInt(1e18),
		Account: testHolder,
	})
	require.NoError(t, err)
	mockRpcClient.AssertExpectations(t)
}

func TestWalletWriterSetsChainID(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	account := testHolder
	client := NewWalletClientWithRPC(Config{Chain: Sepolia, RPCURL: "https://rpc.example", Account: &account}, mockRpcClient)

	hash := types.Hash{0x1}
	isExpectedTx := mock.MatchedBy(func(tx *types.Transaction) bool {
		return tx.ChainID != nil && *tx.ChainID == Sepolia.ID
	})
	mockRpcClient.On("SendTransaction", mock.Anything, isExpectedTx).Return(&hash, &types.Transaction{}, nil)

	_, err := client.Writer().Write(context.TODO(), WriteCall{
		ContractCall: ContractCall{
			Address:      testToken,
			ABI:          abis.ERC20,
			FunctionName: "transfer",
			Args:         []any{testOther, big.NewInt(500)},
		},
		Account: account,
	})
	require.NoError(t, err)
	mockRpcClient.AssertExpectations(t)
}

func TestWriteFailure(t *testing.T) {
	mockRpcClient := new(mockRpcClient)
	writer := NewContractWriter(mockRpcClient, 0)

	// unknown function never reaches the transport
	_, err := writer.Write(context.TODO(), WriteCall{
		ContractCall: ContractCall{Address: testToken, ABI: abis.ERC20, FunctionName: "mint"},
		Account:      testHolder,
	})
	require.Error(t, err)
	assert.Equal(t, KindContractWrite, KindOf(err))
	assert.ErrorIs(t, err, ErrNotInABI)
	mockRpcClient.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)

	mockRpcClient.On("SendTransaction", mock.Anything, mock.Anything).Return(nil, nil, fmt.Errorf("nonce too low"))
	_, err = writer.Write(context.TODO(), WriteCall{
		ContractCall: ContractCall{
			Address:      testToken,
			ABI:          abis.ERC20,
			FunctionName: "transfer",
			Args:         []any{testOther, big.NewInt(500)},
		},
		Account: testHolder,
	})
	require.Error(t, err)
	assert.Equal(t, `Contract write failed for function "transfer": nonce too low`, err.Error())
	assert.ErrorIs(t, err, ErrContract)
}
