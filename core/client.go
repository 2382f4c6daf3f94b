package core

import (
	"context"
	"math/big"

	"github.com/defiweb/go-eth/types"
	"github.com/ethereum/go-ethereum"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// RPCClient is the subset of the go-eth JSON-RPC client the interaction layer relies on.
// *rpc.Client satisfies it.
type RPCClient interface {
	BlockNumber(ctx context.Context) (*big.Int, error)

	GetBalance(ctx context.Context, address types.Address, block types.BlockNumber) (*big.Int, error)

	GasPrice(ctx context.Context) (*big.Int, error)

	SendTransaction(ctx context.Context, tx *types.Transaction) (*types.Hash, *types.Transaction, error)

	Call(ctx context.Context, call *types.Call, block types.BlockNumber) ([]byte, *types.Call, error)

	GetLogs(ctx context.Context, query *types.FilterLogsQuery) ([]types.Log, error)

	GetTransactionReceipt(ctx context.Context, hash types.Hash) (*types.TransactionReceipt, error)
}

// LogSubscriber registers live log subscriptions over a websocket endpoint.
// *ethclient.Client satisfies it.
type LogSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- gethtypes.Log) (ethereum.Subscription, error)
}
