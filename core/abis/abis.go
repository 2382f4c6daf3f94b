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

// Package abis bundles commonly used contract ABIs and loads others from disk.
package abis

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/defiweb/go-eth/abi"
	"github.com/hashicorp/golang-lru/v2/expirable"
	logger "github.com/sirupsen/logrus"
)

//go:embed Multicall3.json
var multicall3JSON []byte

//go:embed ERC20.json
var erc20JSON []byte

//go:embed ERC721.json
var erc721JSON []byte

// Multicall3 contains the parsed Multicall3 ABI.
var Multicall3 = abi.MustParseJSON(multicall3JSON)

// ERC20 contains the parsed ERC20 token ABI.
var ERC20 = abi.MustParseJSON(erc20JSON)

// ERC721 contains the parsed ERC721 token ABI.
var ERC721 = abi.MustParseJSON(erc721JSON)

// Builtin returns a bundled ABI by case-insensitive name.
func Builtin(name string) (*abi.Contract, bool) {
	switch strings.ToLower(name) {
	case "multicall3":
		return Multicall3, true
	case "erc20":
		return ERC20, true
	case "erc721":
		return ERC721, true
	}
	return nil, false
}

// Loader parses ABI files and keeps recently used ones in memory.
type Loader struct {
	cache *expirable.LRU[string, *abi.Contract]
}

// NewLoader creates a loader caching up to size ABIs for ttl each.
func NewLoader(size int, ttl time.Duration) *Loader {
	return &Loader{cache: expirable.NewLRU[string, *abi.Contract](size, nil, ttl)}
}

// Load returns a bundled ABI if ref names one, otherwise parses the JSON file at ref.
// Both plain ABI arrays and build artifacts with an "abi" field are accepted.
func (l *Loader) Load(ref string) (*abi.Contract, error) {
	if c, ok := Builtin(ref); ok {
		return c, nil
	}
	if c, ok := l.cache.Get(ref); ok {
		return c, nil
	}

	b, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read ABI file: %w", err)
	}
	c, err := ParseJSON(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI file %s: %w", ref, err)
	}
	l.cache.Add(ref, c)

	logger.WithField("path", ref).Debugf("ABI loaded with %d methods and %d events", len(c.Methods), len(c.Events))
	return c, nil
}

// ParseJSON parses either a plain ABI array or an artifact object carrying it under "abi".
func ParseJSON(b []byte) (*abi.Contract, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(b, &artifact); err != nil {
			return nil, err
		}
		if len(artifact.ABI) == 0 {
			return nil, fmt.Errorf("artifact has no abi field")
		}
		b = artifact.ABI
	}
	return abi.ParseJSON(b)
}
