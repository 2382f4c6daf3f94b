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

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/naoina/toml"

	"github.com/chronicleprotocol/protocol-core/core"
)

// fileConfig is the optional TOML configuration file.
//
//	MulticallAddress = "0xcA11bde05977b3631167028862bE2a173976CA11"
//	PollingInterval = 4
//
//	[[Chains]]
//	ID = 31337
//	Name = "anvil"
//	RPCURL = "http://127.0.0.1:8545"
type fileConfig struct {
	MulticallAddress string
	// Seconds.
	PollingInterval int
	Chains          []chainConfig
}

type chainConfig struct {
	ID          uint64
	Name        string
	RPCURL      string
	ExplorerURL string
}

// loadConfig loads the TOML config file from provided path.
func loadConfig(file string, cfg *fileConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = toml.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = fmt.Errorf("%s, %w", file, err)
	}
	return err
}

// registry returns the default chains with the file's chains added or overridden.
// Overrides with an empty field keep the default value of that field.
func (c *fileConfig) registry(base *core.ChainRegistry) *core.ChainRegistry {
	var chains []core.Chain
	for _, cc := range c.Chains {
		chain, ok := base.ByID(cc.ID)
		if !ok {
			chain = core.Chain{ID: cc.ID}
		}
		if cc.Name != "" {
			chain.Name = cc.Name
		}
		if chain.Name == "" {
			chain.Name = strconv.FormatUint(cc.ID, 10)
		}
		if cc.RPCURL != "" {
			chain.RPCURL = cc.RPCURL
		}
		if cc.ExplorerURL != "" {
			chain.ExplorerURL = cc.ExplorerURL
		}
		chains = append(chains, chain)
	}
	return base.With(chains...)
}

func (c *fileConfig) pollingInterval() time.Duration {
	return time.Duration(c.PollingInterval) * time.Second
}
