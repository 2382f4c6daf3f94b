package core

import (
	"context"

	"github.com/defiweb/go-eth/types"
	logger "github.com/sirupsen/logrus"
)

// ContractWriter sends state-mutating contract calls as transactions.
type ContractWriter struct {
	client  RPCClient
	chainID uint64
}

// NewContractWriter creates a writer. A zero chainID leaves the chain ID of
// transactions to the transport.
func NewContractWriter(client RPCClient, chainID uint64) *ContractWriter {
	return &ContractWriter{client: client, chainID: chainID}
}

// Write sends a transaction invoking call and returns its hash.
// Nonce, gas and signing are left to the transport.
func (w *ContractWriter) Write(ctx context.Context, call WriteCall) (*types.Hash, error) {
	hash, err := w.write(ctx, call)
	if err != nil {
		return nil, track("write", &ContractWriteError{FunctionName: call.FunctionName, Err: err})
	}
	track("write", nil)
	return hash, nil
}

func (w *ContractWriter) write(ctx context.Context, call WriteCall) (*types.Hash, error) {
	method, calldata, err := encodeCall(call.ContractCall)
	if err != nil {
		return nil, err
	}

	// Prepare a transaction.
	tx := (&types.Transaction{}).
		SetFrom(call.Account).
		SetTo(call.Address).
		SetInput(calldata)
	if call.Value != nil {
		tx = tx.SetValue(call.Value)
	}
	if w.chainID != 0 {
		tx = tx.SetChainID(w.chainID)
	}

	hash, _, err := w.client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	logger.
		WithField("address", call.Address).
		WithField("txHash", hash).
		Debugf("%s transaction sent from %v", method.Name(), call.Account)
	return hash, nil
}
