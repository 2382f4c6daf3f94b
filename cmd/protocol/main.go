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
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/defiweb/go-eth/rpc"
	"github.com/defiweb/go-eth/txmodifier"
	"github.com/defiweb/go-eth/types"
	"github.com/defiweb/go-eth/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chronicleprotocol/protocol-core/core"
	"github.com/chronicleprotocol/protocol-core/core/abis"
)

const (
	defaultGasLimitMultiplier = 1.25
	abiCacheSize              = 64
	abiCacheTTL               = 10 * time.Minute
)

type options struct {
	SecretKey        string
	Key              string
	Password         string
	PasswordFile     string
	From             string
	RpcURL           string
	SubscriptionURL  string
	Chain            string
	ChainID          uint64
	ConfigFile       string
	LogLevel         string
	MetricsAddr      string
	MulticallAddress string
}

// Checks and return private key based on given options.
// No key is not an error: transactions are then sent through the node's accounts.
func (o *options) getKey() (*wallet.PrivateKey, error) {
	if o.SecretKey != "" {
		b, err := types.BytesFromHex(o.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse secret key: %w", err)
		}
		return wallet.NewKeyFromBytes(b), nil
	}

	if o.Key == "" {
		return nil, nil
	}

	stat, err := os.Stat(o.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore file: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("keystore file is a directory")
	}

	if o.Password == "" && o.PasswordFile == "" {
		return nil, fmt.Errorf("please provide password using `--password` or `--password-file` flag")
	}
	password := o.Password
	if password == "" {
		p, err := os.ReadFile(o.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read password file: %w", err)
		}
		password = string(p)
	}
	return wallet.NewKeyFromJSON(o.Key, password)
}

// env holds everything built from the global flags.
type env struct {
	registry *core.ChainRegistry
	config   core.Config
	loader   *abis.Loader
}

func (o *options) chain(registry *core.ChainRegistry) (core.Chain, error) {
	if o.ChainID != 0 {
		if c, ok := registry.ByID(o.ChainID); ok {
			return c, nil
		}
		if o.RpcURL != "" {
			return core.Chain{ID: o.ChainID, Name: strconv.FormatUint(o.ChainID, 10)}, nil
		}
		return core.Chain{}, registry.Validate(o.ChainID)
	}
	if c, ok := registry.ByName(o.Chain); ok {
		return c, nil
	}
	id, err := strconv.ParseUint(o.Chain, 10, 64)
	if err != nil {
		return core.Chain{}, fmt.Errorf("unknown chain %q", o.Chain)
	}
	if err := registry.Validate(id); err != nil {
		return core.Chain{}, err
	}
	return registry.MustByID(id), nil
}

func (o *options) env() (*env, error) {
	level, err := logger.ParseLevel(o.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	var fc fileConfig
	if o.ConfigFile != "" {
		if err := loadConfig(o.ConfigFile, &fc); err != nil {
			return nil, fmt.Errorf("cannot load config: %w", err)
		}
	}
	registry := fc.registry(core.DefaultChains())

	chain, err := o.chain(registry)
	if err != nil {
		return nil, err
	}

	cfg := core.Config{
		Chain:           chain,
		RPCURL:          o.RpcURL,
		SubscriptionURL: o.SubscriptionURL,
		PollingInterval: fc.pollingInterval(),
	}

	multicall := o.MulticallAddress
	if multicall == "" {
		multicall = fc.MulticallAddress
	}
	if multicall != "" {
		addr, err := core.ValidateAddress(multicall)
		if err != nil {
			return nil, err
		}
		cfg.MulticallAddress = &addr
	}

	if o.MetricsAddr != "" {
		serveMetrics(o.MetricsAddr)
	}

	return &env{
		registry: registry,
		config:   cfg,
		loader:   abis.NewLoader(abiCacheSize, abiCacheTTL),
	}, nil
}

func (o *options) walletConfig(e *env) (core.Config, error) {
	cfg := e.config
	key, err := o.getKey()
	if err != nil {
		return cfg, fmt.Errorf("failed to get private key: %w", err)
	}
	cfg.Key = key
	if o.From != "" {
		addr, err := core.ValidateAddress(o.From)
		if err != nil {
			return cfg, err
		}
		cfg.Account = &addr
	}
	return cfg, nil
}

func serveMetrics(addr string) {
	prometheus.MustRegister(core.Collectors()...)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Infof("serving metrics on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("metrics server stopped: %v", err)
		}
	}()
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:           "protocol",
		Short:         "Typed contract interaction client",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.SecretKey, "secret-key", "", "Private key in format `0x******` or `*******`. If provided, no need to use --keystore")
	cmd.PersistentFlags().StringVar(&opts.Key, "keystore", "", "Keystore file (NOT FOLDER), path to key .json file. If provided, no need to use --secret-key")
	cmd.PersistentFlags().StringVar(&opts.Password, "password", "", "Key raw password as text")
	cmd.PersistentFlags().StringVar(&opts.PasswordFile, "password-file", "", "Path to key password file")
	cmd.PersistentFlags().StringVar(&opts.From, "from", "", "Sender account, defaults to the key address")
	cmd.PersistentFlags().StringVar(&opts.RpcURL, "rpc-url", "", "Node HTTP RPC_URL, defaults to the chain's public endpoint")
	cmd.PersistentFlags().StringVar(&opts.SubscriptionURL, "subscription-url", "", "[Optional] Used if you want to subscribe to events rather than poll, typically starts with wss://****")
	cmd.PersistentFlags().StringVar(&opts.Chain, "chain", "mainnet", "Chain name or ID")
	cmd.PersistentFlags().Uint64Var(&opts.ChainID, "chain-id", 0, "Chain ID, required together with --rpc-url for chains that are not registered")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "[Optional] TOML configuration file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "[Optional] Address to serve prometheus metrics on, e.g. `:9090`")
	cmd.PersistentFlags().StringVar(&opts.MulticallAddress, "multicall-address", "", "[Optional] Multicall3 contract address")

	cmd.AddCommand(
		newBlockNumberCmd(&opts),
		newBalanceCmd(&opts),
		newGasPriceCmd(&opts),
		newReadCmd(&opts),
		newTokenBalancesCmd(&opts),
		newLogsCmd(&opts),
		newWatchCmd(&opts),
		newSendCmd(&opts),
		newWriteCmd(&opts),
	)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func walletClient(opts *options, e *env) (*core.WalletClient, error) {
	cfg, err := opts.walletConfig(e)
	if err != nil {
		return nil, err
	}
	return core.NewWalletClient(cfg, rpc.WithTXModifiers(
		txmodifier.NewNonceProvider(false),
		txmodifier.NewGasLimitEstimator(defaultGasLimitMultiplier, 0, 0),
		txmodifier.NewLegacyGasFeeEstimator(1, nil, nil),
	))
}
