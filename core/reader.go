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

	"github.com/defiweb/go-eth/types"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MultipleFunctionName is the function name reported by ReadMultiple failures.
const MultipleFunctionName = "multiple"

// ContractReader performs read-only contract calls at the latest block.
type ContractReader struct {
	client RPCClient
}

func NewContractReader(client RPCClient) *ContractReader {
	return &ContractReader{client: client}
}

// Read calls one contract function and returns its raw result.
func (r *ContractReader) Read(ctx context.Context, call ContractCall) (CallResult, error) {
	res, err := r.read(ctx, call)
	if err != nil {
		return CallResult{}, track("read", &ContractReadError{FunctionName: call.FunctionName, Err: err})
	}
	track("read", nil)
	return res, nil
}

func (r *ContractReader) read(ctx context.Context, call ContractCall) (CallResult, error) {
	method, calldata, err := encodeCall(call)
	if err != nil {
		return CallResult{}, err
	}

	to := call.Address
	b, _, err := r.client.Call(ctx, &types.Call{
		To:    &to,
		Input: calldata,
	}, types.LatestBlockNumber)
	if err != nil {
		return CallResult{}, err
	}

	logger.
		WithField("address", to).
		Debugf("cast call %v '%s' %v", to, method.Signature(), call.Args)

	return newCallResult(method, b), nil
}

// ReadMultiple performs every call concurrently, one round trip each.
// Either all results are returned, in the order of calls, or none are.
func (r *ContractReader) ReadMultiple(ctx context.Context, calls []ContractCall) ([]CallResult, error) {
	results := make([]CallResult, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			res, err := r.Read(gctx, call)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, track("read_multiple", &ContractReadError{FunctionName: MultipleFunctionName, Err: err})
	}
	track("read_multiple", nil)
	return results, nil
}
