package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/defiweb/go-eth/hexutil"
	"github.com/defiweb/go-eth/types"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chronicleprotocol/protocol-core/core"
	"github.com/chronicleprotocol/protocol-core/core/abis"
)

func toAny(args []string) []any {
	res := make([]any, len(args))
	for i, a := range args {
		res[i] = a
	}
	return res
}

func parseBlock(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	b, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid block number %q", s)
	}
	return b, nil
}

func newBlockNumberCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "block-number",
		Short: "Print the latest block number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			client, err := core.NewPublicClient(e.config)
			if err != nil {
				return err
			}
			n, err := client.BlockNumber(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n.String())
			return nil
		},
	}
}

func newBalanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Print the native balance of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			addr, err := core.ValidateAddress(args[0])
			if err != nil {
				return err
			}
			client, err := core.NewPublicClient(e.config)
			if err != nil {
				return err
			}
			b, err := client.Balance(cmd.Context(), addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.String(), core.FormatEther(b, 4))
			return nil
		},
	}
}

func newGasPriceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "gas-price",
		Short: "Print the current gas price in wei",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			client, err := core.NewPublicClient(e.config)
			if err != nil {
				return err
			}
			g, err := client.GasPrice(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), g.String())
			return nil
		},
	}
}

func newReadCmd(opts *options) *cobra.Command {
	var abiRef string
	cmd := &cobra.Command{
		Use:   "read <address> <function> [args...]",
		Short: "Call a read-only contract function and print the raw result",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			addr, err := core.ValidateAddress(args[0])
			if err != nil {
				return err
			}
			contract, err := e.loader.Load(abiRef)
			if err != nil {
				return err
			}
			client, err := core.NewPublicClient(e.config)
			if err != nil {
				return err
			}
			res, err := client.Reader().Read(cmd.Context(), core.ContractCall{
				Address:      addr,
				ABI:          contract,
				FunctionName: args[1],
				Args:         toAny(args[2:]),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.BytesToHex(res.Data()))
			return nil
		},
	}
	cmd.Flags().StringVar(&abiRef, "abi", "erc20", "Bundled ABI name (erc20, erc721, multicall3) or path to an ABI JSON file")
	return cmd
}

func newTokenBalancesCmd(opts *options) *cobra.Command {
	var allowFailure, separate bool
	cmd := &cobra.Command{
		Use:   "token-balances <token> <holder> [holders...]",
		Short: "Print ERC20 balances of several holders, batched",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			token, err := core.ValidateAddress(args[0])
			if err != nil {
				return err
			}
			holders := make([]types.Address, 0, len(args)-1)
			calls := make([]core.ContractCall, 0, len(args)-1)
			for _, h := range args[1:] {
				addr, err := core.ValidateAddress(h)
				if err != nil {
					return err
				}
				holders = append(holders, addr)
				calls = append(calls, core.ContractCall{
					Address:      token,
					ABI:          abis.ERC20,
					FunctionName: "balanceOf",
					Args:         []any{addr},
				})
			}

			client, err := core.NewPublicClient(e.config)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			dec, err := client.Reader().Read(ctx, core.ContractCall{Address: token, ABI: abis.ERC20, FunctionName: "decimals"})
			if err != nil {
				return err
			}
			var decimals uint8
			if err := dec.Decode(&decimals); err != nil {
				return err
			}

			var results []core.CallResult
			if separate {
				results, err = client.Reader().ReadMultiple(ctx, calls)
			} else {
				results, err = client.Multicall().Batch(ctx, calls, allowFailure)
			}
			if err != nil {
				return err
			}

			for i, res := range results {
				if res.Empty() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t-\n", holders[i])
					continue
				}
				balance := new(big.Int)
				if err := res.Decode(&balance); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", holders[i], balance, core.FormatUnits(balance, int(decimals), 4))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowFailure, "allow-failure", false, "Print '-' for failed calls instead of failing the batch")
	cmd.Flags().BoolVar(&separate, "no-multicall", false, "Issue one call per holder instead of a single multicall")
	return cmd
}

func newLogsCmd(opts *options) *cobra.Command {
	var abiRef, event, from, to string
	cmd := &cobra.Command{
		Use:   "logs <address>",
		Short: "Print historical logs of a contract event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			addr, err := core.ValidateAddress(args[0])
			if err != nil {
				return err
			}
			contract, err := e.loader.Load(abiRef)
			if err != nil {
				return err
			}
			fromBlock, err := parseBlock(from)
			if err != nil {
				return err
			}
			toBlock, err := parseBlock(to)
			if err != nil {
				return err
			}
			client, err := core.NewPublicClient(e.config)
			if err != nil {
				return err
			}
			logs, err := client.Events().GetLogs(cmd.Context(), core.LogsQuery{
				Address:   addr,
				ABI:       contract,
				EventName: event,
				FromBlock: fromBlock,
				ToBlock:   toBlock,
			})
			if err != nil {
				return err
			}
			for _, l := range logs {
				printLog(cmd, l)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&abiRef, "abi", "erc20", "Bundled ABI name or path to an ABI JSON file")
	cmd.Flags().StringVar(&event, "event", "Transfer", "Event name")
	cmd.Flags().StringVar(&from, "from-block", "", "First block of the range")
	cmd.Flags().StringVar(&to, "to-block", "", "Last block of the range")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	var abiRef, event string
	cmd := &cobra.Command{
		Use:   "watch <address>",
		Short: "Print new logs of a contract event until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			addr, err := core.ValidateAddress(args[0])
			if err != nil {
				return err
			}
			contract, err := e.loader.Load(abiRef)
			if err != nil {
				return err
			}
			client, err := core.NewPublicClient(e.config)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			cancel, err := client.Events().Watch(ctx, core.WatchParams{
				Address:   addr,
				ABI:       contract,
				EventName: event,
				OnLogs: func(logs []types.Log) {
					for _, l := range logs {
						printLog(cmd, l)
					}
				},
			})
			if err != nil {
				return err
			}
			defer cancel()

			<-ctx.Done()
			logger.Infof("Terminate watcher")
			return nil
		},
	}
	cmd.Flags().StringVar(&abiRef, "abi", "erc20", "Bundled ABI name or path to an ABI JSON file")
	cmd.Flags().StringVar(&event, "event", "Transfer", "Event name")
	return cmd
}

func newSendCmd(opts *options) *cobra.Command {
	var value, data string
	var wait bool
	cmd := &cobra.Command{
		Use:   "send <to>",
		Short: "Send a transaction from the configured account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			to, err := core.ValidateAddress(args[0])
			if err != nil {
				return err
			}
			req := core.TxRequest{To: to}
			if value != "" {
				if req.Value, err = core.ParseEther(value); err != nil {
					return err
				}
				if err := core.ValidateAmount(req.Value); err != nil {
					return err
				}
			}
			if data != "" {
				if req.Data, err = hexutil.HexToBytes(data); err != nil {
					return fmt.Errorf("invalid data: %w", err)
				}
			}
			client, err := walletClient(opts, e)
			if err != nil {
				return err
			}
			hash, err := client.SendTransaction(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printTx(cmd, e, client, hash, wait)
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "Value in ether, e.g. 0.1")
	cmd.Flags().StringVar(&data, "data", "", "Hex encoded calldata")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the transaction receipt")
	return cmd
}

func newWriteCmd(opts *options) *cobra.Command {
	var abiRef, value string
	var wait bool
	cmd := &cobra.Command{
		Use:   "write <address> <function> [args...]",
		Short: "Call a state-mutating contract function",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			addr, err := core.ValidateAddress(args[0])
			if err != nil {
				return err
			}
			contract, err := e.loader.Load(abiRef)
			if err != nil {
				return err
			}
			client, err := walletClient(opts, e)
			if err != nil {
				return err
			}
			account, ok := client.Account()
			if !ok {
				return core.ErrNoAccount
			}
			call := core.WriteCall{
				ContractCall: core.ContractCall{
					Address:      addr,
					ABI:          contract,
					FunctionName: args[1],
					Args:         toAny(args[2:]),
				},
				Account: account,
			}
			if value != "" {
				if call.Value, err = core.ParseEther(value); err != nil {
					return err
				}
			}
			hash, err := client.Writer().Write(cmd.Context(), call)
			if err != nil {
				return err
			}
			return printTx(cmd, e, client, hash, wait)
		},
	}
	cmd.Flags().StringVar(&abiRef, "abi", "erc20", "Bundled ABI name or path to an ABI JSON file")
	cmd.Flags().StringVar(&value, "value", "", "Value in ether sent along with the call")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the transaction receipt")
	return cmd
}

func printTx(cmd *cobra.Command, e *env, client *core.WalletClient, hash *types.Hash, wait bool) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", hash, e.registry.ExplorerURL(client.Chain().ID, hash.String(), "tx"))
	if !wait {
		return nil
	}
	receipt, err := client.WaitForTransaction(cmd.Context(), hash, core.TxConfirmationTimeout)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), receiptLine(receipt))
	return nil
}

func receiptLine(r *types.TransactionReceipt) string {
	return fmt.Sprintf("mined in block %s (%s)", r.BlockNumber, r.BlockHash)
}

func printLog(cmd *cobra.Command, l types.Log) {
	topics := make([]string, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = t.String()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", l.BlockNumber, strings.Join(topics, ","), hexutil.BytesToHex(l.Data))
}
