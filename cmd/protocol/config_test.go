package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicleprotocol/protocol-core/core"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
MulticallAddress = "0xcA11bde05977b3631167028862bE2a173976CA11"
PollingInterval = 2

[[Chains]]
ID = 31337
Name = "anvil"
RPCURL = "http://127.0.0.1:8545"

[[Chains]]
ID = 1
RPCURL = "https://eth.example"
`), 0o600))

	var cfg fileConfig
	require.NoError(t, loadConfig(path, &cfg))
	assert.Equal(t, "0xcA11bde05977b3631167028862bE2a173976CA11", cfg.MulticallAddress)
	assert.Equal(t, 2*time.Second, cfg.pollingInterval())
	require.Len(t, cfg.Chains, 2)

	registry := cfg.registry(core.DefaultChains())

	anvil, ok := registry.ByName("anvil")
	require.True(t, ok)
	assert.Equal(t, uint64(31337), anvil.ID)
	assert.Equal(t, "http://127.0.0.1:8545", anvil.RPCURL)

	mainnet := registry.MustByID(1)
	assert.Equal(t, "mainnet", mainnet.Name)
	assert.Equal(t, "https://eth.example", mainnet.RPCURL)
	assert.Equal(t, core.Mainnet.ExplorerURL, mainnet.ExplorerURL)
}

func TestLoadConfigErrors(t *testing.T) {
	var cfg fileConfig
	assert.Error(t, loadConfig(filepath.Join(t.TempDir(), "missing.toml"), &cfg))

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("PollingInterval = \"soon\"\n"), 0o600))
	err := loadConfig(path, &cfg)
	require.Error(t, err)
}

func TestOptionsChain(t *testing.T) {
	registry := core.DefaultChains()

	c, err := (&options{Chain: "base"}).chain(registry)
	require.NoError(t, err)
	assert.Equal(t, core.Base, c)

	c, err = (&options{Chain: "11155111"}).chain(registry)
	require.NoError(t, err)
	assert.Equal(t, core.Sepolia, c)

	c, err = (&options{ChainID: 10}).chain(registry)
	require.NoError(t, err)
	assert.Equal(t, core.Optimism, c)

	// unregistered chain is accepted with an explicit endpoint
	c, err = (&options{ChainID: 31337, RpcURL: "http://127.0.0.1:8545"}).chain(registry)
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), c.ID)

	_, err = (&options{ChainID: 31337}).chain(registry)
	assert.Equal(t, core.KindInvalidChain, core.KindOf(err))

	_, err = (&options{Chain: "999"}).chain(registry)
	assert.Equal(t, core.KindInvalidChain, core.KindOf(err))

	_, err = (&options{Chain: "goerli"}).chain(registry)
	assert.Error(t, err)
}

func TestParseBlock(t *testing.T) {
	b, err := parseBlock("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = parseBlock("0x10")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(16), b)

	b, err = parseBlock("100")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), b)

	_, err = parseBlock("latest")
	assert.Error(t, err)
}
