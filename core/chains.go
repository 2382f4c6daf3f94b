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
	"fmt"
	"sort"
)

const defaultExplorerURL = "https://etherscan.io"

// Chain describes a network the clients can be bound to.
type Chain struct {
	ID          uint64
	Name        string
	RPCURL      string
	ExplorerURL string
}

var (
	Mainnet     = Chain{ID: 1, Name: "mainnet", RPCURL: "https://eth.public-rpc.com", ExplorerURL: "https://etherscan.io"}
	Sepolia     = Chain{ID: 11155111, Name: "sepolia", RPCURL: "https://rpc.sepolia.org", ExplorerURL: "https://sepolia.etherscan.io"}
	Base        = Chain{ID: 8453, Name: "base", RPCURL: "https://mainnet.base.org", ExplorerURL: "https://basescan.org"}
	BaseSepolia = Chain{ID: 84532, Name: "baseSepolia", RPCURL: "https://sepolia.base.org", ExplorerURL: "https://sepolia.basescan.org"}
	Optimism    = Chain{ID: 10, Name: "optimism", RPCURL: "https://mainnet.optimism.io", ExplorerURL: "https://optimistic.etherscan.io"}
	Arbitrum    = Chain{ID: 42161, Name: "arbitrum", RPCURL: "https://arb1.arbitrum.io/rpc", ExplorerURL: "https://arbiscan.io"}
	Polygon     = Chain{ID: 137, Name: "polygon", RPCURL: "https://polygon-rpc.com", ExplorerURL: "https://polygonscan.com"}
)

// ChainRegistry is a read-only lookup table of supported chains.
// It is built once and passed to whatever needs it.
type ChainRegistry struct {
	byID   map[uint64]Chain
	byName map[string]uint64
}

// NewChainRegistry builds a registry. Later entries with the same ID replace earlier ones.
func NewChainRegistry(chains ...Chain) *ChainRegistry {
	r := &ChainRegistry{
		byID:   make(map[uint64]Chain, len(chains)),
		byName: make(map[string]uint64, len(chains)),
	}
	for _, c := range chains {
		if old, ok := r.byID[c.ID]; ok {
			delete(r.byName, old.Name)
		}
		r.byID[c.ID] = c
		r.byName[c.Name] = c.ID
	}
	return r
}

// DefaultChains returns the registry of chains supported out of the box.
func DefaultChains() *ChainRegistry {
	return NewChainRegistry(Mainnet, Sepolia, Base, BaseSepolia, Optimism, Arbitrum, Polygon)
}

// With returns a new registry containing r's chains plus the given ones.
func (r *ChainRegistry) With(chains ...Chain) *ChainRegistry {
	all := make([]Chain, 0, len(r.byID)+len(chains))
	for _, id := range r.IDs() {
		all = append(all, r.byID[id])
	}
	return NewChainRegistry(append(all, chains...)...)
}

func (r *ChainRegistry) ByID(id uint64) (Chain, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *ChainRegistry) ByName(name string) (Chain, bool) {
	id, ok := r.byName[name]
	if !ok {
		return Chain{}, false
	}
	return r.byID[id], true
}

func (r *ChainRegistry) MustByID(id uint64) Chain {
	c, ok := r.byID[id]
	if !ok {
		panic(fmt.Sprintf("chain %d is not registered", id))
	}
	return c
}

// IDs returns registered chain IDs in ascending order.
func (r *ChainRegistry) IDs() []uint64 {
	ids := make([]uint64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate returns InvalidChainError if id is not registered.
func (r *ChainRegistry) Validate(id uint64) error {
	if _, ok := r.byID[id]; !ok {
		return &InvalidChainError{ChainID: id}
	}
	return nil
}

// ExplorerURL builds a block explorer link. kind is one of "tx", "address" or "block".
// Unknown chains fall back to etherscan.
func (r *ChainRegistry) ExplorerURL(chainID uint64, hash string, kind string) string {
	base := defaultExplorerURL
	if c, ok := r.byID[chainID]; ok && c.ExplorerURL != "" {
		base = c.ExplorerURL
	}
	if kind == "" {
		kind = "tx"
	}
	return fmt.Sprintf("%s/%s/%s", base, kind, hash)
}
