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
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/defiweb/go-eth/abi"
	"github.com/defiweb/go-eth/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	logger "github.com/sirupsen/logrus"
)

var errNoLogHandler = errors.New("no log handler given")

// EventListener fetches and watches logs of ABI events.
type EventListener struct {
	client          RPCClient
	subscriber      LogSubscriber
	pollingInterval time.Duration
}

// NewEventListener creates a listener. If subscriber is nil, Watch polls client.
func NewEventListener(client RPCClient, subscriber LogSubscriber, pollingInterval time.Duration) *EventListener {
	if pollingInterval <= 0 {
		pollingInterval = DefaultPollingInterval
	}
	return &EventListener{
		client:          client,
		subscriber:      subscriber,
		pollingInterval: pollingInterval,
	}
}

// GetLogs returns logs of q.EventName emitted by q.Address in the given block range,
// in the order returned by the node.
func (l *EventListener) GetLogs(ctx context.Context, q LogsQuery) ([]types.Log, error) {
	event, err := ResolveEvent(q.ABI, q.EventName)
	if err != nil {
		return nil, track("get_logs", &EventListenerError{EventName: q.EventName, Err: err})
	}

	logs, err := l.client.GetLogs(ctx, &types.FilterLogsQuery{
		Address:   []types.Address{q.Address},
		FromBlock: types.BlockNumberFromBigIntPtr(q.FromBlock),
		ToBlock:   types.BlockNumberFromBigIntPtr(q.ToBlock),
		Topics:    [][]types.Hash{{event.Topic0()}},
	})
	if err != nil {
		return nil, track("get_logs", &EventListenerError{EventName: q.EventName, Err: err})
	}
	track("get_logs", nil)

	logger.
		WithField("address", q.Address).
		WithField("event", q.EventName).
		Debugf("fetched %d logs", len(logs))
	return logs, nil
}

// Watch registers p.OnLogs for new logs of p.EventName emitted by p.Address.
//
// The returned function cancels the watch and may be called any number of times,
// from any goroutine, including from within OnLogs. Once it returns, no new OnLogs
// call starts. A call already in progress is not waited for.
func (l *EventListener) Watch(ctx context.Context, p WatchParams) (func(), error) {
	event, err := ResolveEvent(p.ABI, p.EventName)
	if err != nil {
		return nil, track("watch", &EventListenerError{EventName: p.EventName, Err: err})
	}
	if p.OnLogs == nil {
		return nil, track("watch", &EventListenerError{EventName: p.EventName, Err: errNoLogHandler})
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &watcher{
		address: p.Address,
		event:   event,
		onLogs:  p.OnLogs,
		cancel:  cancel,
	}

	if l.subscriber != nil {
		err = w.subscribe(wctx, l.subscriber)
	} else {
		interval := p.PollingInterval
		if interval <= 0 {
			interval = l.pollingInterval
		}
		err = w.poll(wctx, l.client, interval)
	}
	if err != nil {
		cancel()
		return nil, track("watch", &EventListenerError{EventName: p.EventName, Err: err})
	}
	track("watch", nil)

	logger.
		WithField("address", p.Address).
		WithField("event", p.EventName).
		Infof("watching events")
	return w.stop, nil
}

// DecodeLog decodes log into vals using the given event definition.
// NOTE: vals follow the event inputs order, indexed and non-indexed alike.
func DecodeLog(event *abi.Event, log types.Log, vals ...any) error {
	return event.DecodeValues(log.Topics, log.Data, vals...)
}

type watcher struct {
	address types.Address
	event   *abi.Event
	onLogs  func([]types.Log)
	cancel  context.CancelFunc

	stopped atomic.Bool
	once    sync.Once
}

func (w *watcher) stop() {
	w.once.Do(func() {
		w.stopped.Store(true)
		w.cancel()

		logger.
			WithField("address", w.address).
			WithField("event", w.event.Name()).
			Debugf("watch cancelled")
	})
}

// deliver invokes the handler unless the watch was stopped. The handler runs
// without any lock held, so it may stop the watch itself.
func (w *watcher) deliver(logs []types.Log) {
	if w.stopped.Load() {
		return
	}
	w.onLogs(logs)
}

func (w *watcher) subscribe(ctx context.Context, subscriber LogSubscriber) error {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{common.BytesToAddress(w.address.Bytes())},
		Topics:    [][]common.Hash{{common.BytesToHash(w.event.Topic0().Bytes())}},
	}
	ch := make(chan gethtypes.Log)
	sub, err := subscriber.SubscribeFilterLogs(ctx, query, ch)
	if err != nil {
		return err
	}

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				if err != nil {
					ErrorsCounter.WithLabelValues(KindEventListener.String(), "watch").Inc()
					logger.
						WithField("address", w.address).
						WithField("event", w.event.Name()).
						Errorf("subscription terminated with error: %v", err)
				}
				return
			case evlog := <-ch:
				log, err := fromGethLog(evlog)
				if err != nil {
					logger.
						WithField("address", w.address).
						Errorf("failed to convert log with error: %v", err)
					continue
				}
				w.deliver([]types.Log{log})
			}
		}
	}()
	return nil
}

func (w *watcher) poll(ctx context.Context, client RPCClient, interval time.Duration) error {
	// Only logs from blocks after registration are reported.
	last, err := client.BlockNumber(ctx)
	if err != nil {
		return err
	}
	gauge := WatchLastBlockGauge.WithLabelValues(w.address.String(), w.event.Name())
	gauge.Set(float64(last.Uint64()))

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				head, err := client.BlockNumber(ctx)
				if err != nil {
					w.pollFailed(err)
					continue
				}
				if head.Cmp(last) <= 0 {
					continue
				}
				from := new(big.Int).Add(last, big.NewInt(1))
				logs, err := client.GetLogs(ctx, &types.FilterLogsQuery{
					Address:   []types.Address{w.address},
					FromBlock: types.BlockNumberFromBigIntPtr(from),
					ToBlock:   types.BlockNumberFromBigIntPtr(head),
					Topics:    [][]types.Hash{{w.event.Topic0()}},
				})
				if err != nil {
					w.pollFailed(err)
					continue
				}
				last = head
				gauge.Set(float64(last.Uint64()))

				if len(logs) > 0 {
					w.deliver(logs)
				}
			}
		}
	}()
	return nil
}

func (w *watcher) pollFailed(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	ErrorsCounter.WithLabelValues(KindEventListener.String(), "watch").Inc()
	logger.
		WithField("address", w.address).
		WithField("event", w.event.Name()).
		Warnf("failed to poll logs with error: %v", err)
}

// fromGethLog converts go-ethereum log to go-eth types.
func fromGethLog(evlog gethtypes.Log) (types.Log, error) {
	addr, err := types.AddressFromBytes(evlog.Address.Bytes())
	if err != nil {
		return types.Log{}, err
	}
	topics := make([]types.Hash, 0, len(evlog.Topics))
	for _, topic := range evlog.Topics {
		t, err := types.HashFromBytes(topic.Bytes(), types.PadLeft)
		if err != nil {
			return types.Log{}, err
		}
		topics = append(topics, t)
	}
	txHash := types.Hash(evlog.TxHash)
	blockHash := types.Hash(evlog.BlockHash)
	txIndex := uint64(evlog.TxIndex)
	logIndex := uint64(evlog.Index)
	return types.Log{
		Address:          addr,
		Topics:           topics,
		Data:             evlog.Data,
		BlockHash:        &blockHash,
		BlockNumber:      new(big.Int).SetUint64(evlog.BlockNumber),
		TransactionHash:  &txHash,
		TransactionIndex: &txIndex,
		LogIndex:         &logIndex,
		Removed:          evlog.Removed,
	}, nil
}
