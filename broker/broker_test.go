// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package broker_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"code.vegaprotocol.io/betting/broker"
	"code.vegaprotocol.io/betting/broker/mocks"
	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/types"

	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBroker struct {
	*broker.Broker
	ctx   context.Context
	cfunc context.CancelFunc
	ctrl  *gomock.Controller
}

func getBroker(t *testing.T) *testBroker {
	t.Helper()
	ctx, cfunc := context.WithCancel(context.Background())
	t.Cleanup(cfunc)
	return &testBroker{
		Broker: broker.New(ctx, logging.NewTestLogger(), broker.NewDefaultConfig()),
		ctx:    ctx,
		cfunc:  cfunc,
		ctrl:   gomock.NewController(t),
	}
}

// recorder keeps what it is pushed.
type recorder struct {
	id     int
	types  []events.Type
	closed chan struct{}
	got    []events.Event
}

func newRecorder(types ...events.Type) *recorder {
	return &recorder{types: types, closed: make(chan struct{})}
}

func (r *recorder) Push(evts ...events.Event) { r.got = append(r.got, evts...) }
func (r *recorder) Closed() <-chan struct{}   { return r.closed }
func (r *recorder) Types() []events.Type      { return r.types }
func (r *recorder) SetID(id int)              { r.id = id }
func (r *recorder) ID() int                   { return r.id }

func testBet() *types.Bet {
	return &types.Bet{
		ID:           1,
		Party:        "alice",
		Market:       2,
		Side:         types.SideBack,
		Stake:        num.NewUint(100),
		Odds:         20000,
		Remaining:    num.NewUint(100),
		Collateral:   num.NewUint(100),
		Fee:          num.NewUint(2),
		UnmatchedFee: num.NewUint(2),
	}
}

func TestSubscribe(t *testing.T) {
	t.Run("keys are assigned in order", func(t *testing.T) {
		b := getBroker(t)
		sub := mocks.NewMockSubscriber(b.ctrl)
		sub.EXPECT().Types().Times(2).Return(nil)
		sub.EXPECT().SetID(1).Times(1)
		sub.EXPECT().SetID(2).Times(1)
		assert.Equal(t, 1, b.Subscribe(sub))
		assert.Equal(t, 2, b.Subscribe(sub))
	})

	t.Run("unsubscribed subscribers get nothing", func(t *testing.T) {
		b := getBroker(t)
		r := newRecorder()
		k := b.Subscribe(r)
		b.Unsubscribe(k)
		b.Send(events.NewBetPlaced(b.ctx, 1, testBet()))
		assert.Empty(t, r.got)
	})
}

func TestSendBatch(t *testing.T) {
	t.Run("events are numbered in send order", func(t *testing.T) {
		b := getBroker(t)
		r := newRecorder()
		b.Subscribe(r)

		bet := testBet()
		b.SendBatch([]events.Event{
			events.NewBetPlaced(b.ctx, 1, bet),
			events.NewBetAdjusted(b.ctx, 1, bet),
		})
		b.Send(events.NewBetCanceled(b.ctx, 2, bet, bet.Remaining, num.NewUint(102)))

		require.Len(t, r.got, 3)
		for i, e := range r.got {
			assert.Equal(t, uint64(i+1), e.Sequence())
		}
		assert.Equal(t, events.BetCanceledEvent, r.got[2].Type())
		assert.Equal(t, uint64(2), r.got[2].BlockHeight())
	})

	t.Run("subscribers only get the types they asked for", func(t *testing.T) {
		b := getBroker(t)
		placed := newRecorder(events.BetPlacedEvent)
		all := newRecorder()
		b.Subscribe(placed)
		b.Subscribe(all)

		bet := testBet()
		b.SendBatch([]events.Event{
			events.NewBetPlaced(b.ctx, 1, bet),
			events.NewBetAdjusted(b.ctx, 1, bet),
		})
		require.Len(t, placed.got, 1)
		assert.Equal(t, events.BetPlacedEvent, placed.got[0].Type())
		assert.Len(t, all.got, 2)
	})

	t.Run("closed subscribers are dropped", func(t *testing.T) {
		b := getBroker(t)
		sub := mocks.NewMockSubscriber(b.ctrl)
		closed := make(chan struct{})
		close(closed)
		sub.EXPECT().Types().Times(1).Return(nil)
		sub.EXPECT().SetID(gomock.Any()).Times(1)
		sub.EXPECT().Closed().Times(1).Return(closed)
		b.Subscribe(sub)

		// Push is never expected, and the second send no longer checks Closed
		b.Send(events.NewBetPlaced(b.ctx, 1, testBet()))
		b.Send(events.NewBetPlaced(b.ctx, 1, testBet()))
	})

	t.Run("empty batches are ignored", func(t *testing.T) {
		b := getBroker(t)
		r := newRecorder()
		b.Subscribe(r)
		b.SendBatch(nil)
		b.Send(events.NewBetPlaced(b.ctx, 1, testBet()))
		require.Len(t, r.got, 1)
		assert.Equal(t, uint64(1), r.got[0].Sequence())
	})
}

func TestKafkaSink(t *testing.T) {
	t.Run("events are written keyed by market", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		w := mocks.NewMockMessageWriter(ctrl)
		written := make(chan []kafka.Message, 1)
		w.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Times(1).DoAndReturn(
			func(_ context.Context, msgs ...kafka.Message) error {
				written <- msgs
				return nil
			})
		w.EXPECT().Close().Times(1).Return(nil)

		b := getBroker(t)
		sink := broker.NewKafkaSink(b.ctx, logging.NewTestLogger(), broker.NewDefaultConfig().Kafka, w)
		b.Subscribe(sink)
		b.Send(events.NewBetPlaced(b.ctx, 7, testBet()))

		var msgs []kafka.Message
		select {
		case msgs = <-written:
		case <-time.After(5 * time.Second):
			t.Fatal("events were not written")
		}
		require.Len(t, msgs, 1)
		assert.Equal(t, "market/2", string(msgs[0].Key))

		var env struct {
			Type        string          `json:"type"`
			BlockHeight uint64          `json:"block_height"`
			Sequence    uint64          `json:"sequence"`
			Payload     json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(msgs[0].Value, &env))
		assert.Equal(t, "BetPlaced", env.Type)
		assert.Equal(t, uint64(7), env.BlockHeight)
		assert.Equal(t, uint64(1), env.Sequence)

		var bet types.Bet
		require.NoError(t, json.Unmarshal(env.Payload, &bet))
		assert.Equal(t, types.BetID(1), bet.ID)
		assert.Equal(t, "100", bet.Stake.String())

		require.NoError(t, sink.Close())
		// pushes after close are ignored
		sink.Push(events.NewBetPlaced(b.ctx, 8, testBet()))
	})

	t.Run("full queue drops batches", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		w := mocks.NewMockMessageWriter(ctrl)
		block := make(chan struct{})
		w.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(
			func(_ context.Context, _ ...kafka.Message) error {
				<-block
				return nil
			})
		w.EXPECT().Close().Times(1).Return(nil)

		conf := broker.NewDefaultConfig().Kafka
		conf.BufferSize = 1
		sink := broker.NewKafkaSink(context.Background(), logging.NewTestLogger(), conf, w)
		dropped := 0
		sink.OnDrop(func(n int) { dropped += n })

		ctx := context.Background()
		// the first batch may be picked up by the writer routine, the
		// second fills the queue, anything after is dropped
		for i := 0; i < 5; i++ {
			sink.Push(events.NewBetPlaced(ctx, 1, testBet()))
		}
		assert.GreaterOrEqual(t, dropped, 2)
		close(block)
		require.NoError(t, sink.Close())
	})
}
