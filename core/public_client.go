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
	"fmt"
	"math/big"
	"time"

	"github.com/defiweb/go-eth/rpc"
	"github.com/defiweb/go-eth/rpc/transport"
	"github.com/defiweb/go-eth/types"
	"github.com/defiweb/go-eth/wallet"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"
)

// DefaultPollingInterval is used by polling watchers when the config does not set one.
var DefaultPollingInterval = 4 * time.Second

var errNoRPCURL = errors.New("no RPC URL configured and chain has no default")

// Config binds a client to one chain and endpoint.
type Config struct {
	Chain Chain

	// RPCURL defaults to Chain.RPCURL.
	RPCURL string

	// SubscriptionURL is an optional websocket endpoint used for live event
	// subscriptions. Without it, watchers poll RPCURL.
	SubscriptionURL string

	PollingInterval time.Duration

	// MulticallAddress defaults to the canonical Multicall3 deployment.
	MulticallAddress *types.Address

	// Account is the sender used by the wallet client. Defaults to Key's address.
	Account *types.Address

	// Key is an optional local signer for the wallet client.
	Key *wallet.PrivateKey
}

func (c Config) rpcURL() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	return c.Chain.RPCURL
}

func (c Config) pollingInterval() time.Duration {
	if c.PollingInterval > 0 {
		return c.PollingInterval
	}
	return DefaultPollingInterval
}

func (c Config) multicallAddress() types.Address {
	if c.MulticallAddress != nil {
		return *c.MulticallAddress
	}
	return Multicall3Address
}

func dialRPC(url string, opts ...rpc.ClientOptions) (*rpc.Client, error) {
	if url == "" {
		return nil, errNoRPCURL
	}
	t, err := transport.NewHTTP(transport.HTTPOptions{URL: url})
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	return rpc.NewClient(append([]rpc.ClientOptions{rpc.WithTransport(t)}, opts...)...)
}

// PublicClient is a read-only connection to one chain.
type PublicClient struct {
	config     Config
	client     RPCClient
	subscriber LogSubscriber
}

// NewPublicClient dials the configured endpoint. Extra options are passed to the go-eth client.
func NewPublicClient(cfg Config, opts ...rpc.ClientOptions) (*PublicClient, error) {
	client, err := dialRPC(cfg.rpcURL(), opts...)
	if err != nil {
		return nil, newRPCError(cfg.rpcURL(), "Failed to create public client", err)
	}
	p := NewPublicClientWithRPC(cfg, client)

	if cfg.SubscriptionURL != "" {
		ethcli, err := ethclient.Dial(cfg.SubscriptionURL)
		if err != nil {
			return nil, newRPCError(cfg.SubscriptionURL, "Failed to create subscription client", err)
		}
		p.subscriber = ethcli
	}

	logger.
		WithField("chain", cfg.Chain.Name).
		WithField("rpcURL", cfg.rpcURL()).
		Debugf("public client created")
	return p, nil
}

// NewPublicClientWithRPC builds a client over an existing transport handle.
func NewPublicClientWithRPC(cfg Config, client RPCClient) *PublicClient {
	return &PublicClient{config: cfg, client: client}
}

// WithSubscriber returns a copy of p that watches events through s.
func (p *PublicClient) WithSubscriber(s LogSubscriber) *PublicClient {
	cp := *p
	cp.subscriber = s
	return &cp
}

func (p *PublicClient) Chain() Chain {
	return p.config.Chain
}

func (p *PublicClient) RPCURL() string {
	return p.config.rpcURL()
}

// RPC returns the underlying transport handle.
func (p *PublicClient) RPC() RPCClient {
	return p.client
}

func (p *PublicClient) BlockNumber(ctx context.Context) (*big.Int, error) {
	n, err := p.client.BlockNumber(ctx)
	if err != nil {
		return nil, track("block_number", newRPCError(p.RPCURL(), "Failed to get block number", err))
	}
	track("block_number", nil)
	return n, nil
}

func (p *PublicClient) Balance(ctx context.Context, address types.Address) (*big.Int, error) {
	b, err := p.client.GetBalance(ctx, address, types.LatestBlockNumber)
	if err != nil {
		return nil, track("balance", newRPCError(p.RPCURL(), fmt.Sprintf("Failed to get balance for %s", address), err))
	}
	track("balance", nil)
	return b, nil
}

func (p *PublicClient) GasPrice(ctx context.Context) (*big.Int, error) {
	g, err := p.client.GasPrice(ctx)
	if err != nil {
		return nil, track("gas_price", newRPCError(p.RPCURL(), "Failed to get gas price", err))
	}
	track("gas_price", nil)
	return g, nil
}

func (p *PublicClient) Reader() *ContractReader {
	return NewContractReader(p.client)
}

func (p *PublicClient) Multicall() *Multicall {
	return NewMulticall(p.client, p.config.multicallAddress())
}

func (p *PublicClient) Events() *EventListener {
	return NewEventListener(p.client, p.subscriber, p.config.pollingInterval())
}
