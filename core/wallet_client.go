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
	"errors"
	"time"

	"github.com/defiweb/go-eth/rpc"
	"github.com/defiweb/go-eth/types"
	logger "github.com/sirupsen/logrus"
)

// WalletClient is a connection to one chain able to submit transactions on
// behalf of a single account.
type WalletClient struct {
	config  Config
	client  RPCClient
	account *types.Address
}

// NewWalletClient dials the configured endpoint. When the config carries a key,
// it is registered with the go-eth client so transactions are signed locally.
func NewWalletClient(cfg Config, opts ...rpc.ClientOptions) (*WalletClient, error) {
	var clientOpts []rpc.ClientOptions
	if cfg.Key != nil {
		clientOpts = append(clientOpts,
			rpc.WithKeys(cfg.Key),
			rpc.WithDefaultAddress(cfg.Key.Address()),
		)
	}
	if cfg.Chain.ID != 0 {
		clientOpts = append(clientOpts, rpc.WithChainID(cfg.Chain.ID))
	}
	client, err := dialRPC(cfg.rpcURL(), append(clientOpts, opts...)...)
	if err != nil {
		return nil, newRPCError(cfg.rpcURL(), "Failed to create wallet client", err)
	}
	w := NewWalletClientWithRPC(cfg, client)

	logger.
		WithField("chain", cfg.Chain.Name).
		WithField("rpcURL", cfg.rpcURL()).
		WithField("account", w.account).
		Debugf("wallet client created")
	return w, nil
}

// NewWalletClientWithRPC builds a wallet client over an existing transport handle.
func NewWalletClientWithRPC(cfg Config, client RPCClient) *WalletClient {
	w := &WalletClient{config: cfg, client: client}
	switch {
	case cfg.Account != nil:
		acc := *cfg.Account
		w.account = &acc
	case cfg.Key != nil:
		acc := cfg.Key.Address()
		w.account = &acc
	}
	return w
}

func (w *WalletClient) Chain() Chain {
	return w.config.Chain
}

func (w *WalletClient) RPCURL() string {
	return w.config.rpcURL()
}

// Account returns the configured sender, if any.
func (w *WalletClient) Account() (types.Address, bool) {
	if w.account == nil {
		return types.ZeroAddress, false
	}
	return *w.account, true
}

// RPC returns the underlying transport handle.
func (w *WalletClient) RPC() RPCClient {
	return w.client
}

// SendTransaction submits a transaction from the configured account and returns its hash.
// It fails with ErrNoAccount, without touching the network, if no account is configured.
func (w *WalletClient) SendTransaction(ctx context.Context, req TxRequest) (*types.Hash, error) {
	if w.account == nil {
		return nil, ErrNoAccount
	}

	tx := (&types.Transaction{}).
		SetFrom(*w.account).
		SetTo(req.To)
	if len(req.Data) > 0 {
		tx = tx.SetInput(req.Data)
	}
	if req.Value != nil {
		tx = tx.SetValue(req.Value)
	}
	if w.config.Chain.ID != 0 {
		tx = tx.SetChainID(w.config.Chain.ID)
	}

	hash, _, err := w.client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, track("send_transaction", newRPCError(w.RPCURL(), "Failed to send transaction", err))
	}
	track("send_transaction", nil)

	logger.
		WithField("account", *w.account).
		WithField("txHash", hash).
		Debugf("transaction sent to %s", req.To)
	return hash, nil
}

// TxConfirmationTimeout is a reasonable upper bound for WaitForTransaction.
var TxConfirmationTimeout = 5 * time.Minute

var errNilTxHash = errors.New("transaction hash is nil")

// WaitForTransaction polls for the receipt of hash every polling interval until
// the transaction is mined or timeout elapses. Failed receipt lookups are retried.
func (w *WalletClient) WaitForTransaction(ctx context.Context, hash *types.Hash, timeout time.Duration) (*types.TransactionReceipt, error) {
	if hash == nil {
		return nil, newRPCError(w.RPCURL(), "Failed to wait for transaction", errNilTxHash)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(w.config.pollingInterval())
	defer ticker.Stop()

	log := logger.
		WithField("chain", w.config.Chain.Name).
		WithField("txHash", hash)
	for {
		select {
		case <-ctx.Done():
			return nil, track("wait_transaction", newRPCError(w.RPCURL(), "Failed to wait for transaction", ctx.Err()))
		case <-ticker.C:
			receipt, err := w.client.GetTransactionReceipt(ctx, *hash)
			if err != nil {
				log.Warnf("failed to get transaction receipt: %v", err)
				continue
			}
			// Nodes return an empty receipt for pending transactions.
			if receipt == nil || receipt.Status == nil || receipt.TransactionHash.IsZero() {
				log.Tracef("transaction is still pending")
				continue
			}
			track("wait_transaction", nil)
			log.Debugf("transaction mined")
			return receipt, nil
		}
	}
}

func (w *WalletClient) Writer() *ContractWriter {
	return NewContractWriter(w.client, w.config.Chain.ID)
}
