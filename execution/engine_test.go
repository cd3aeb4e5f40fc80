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

package execution_test

import (
	"context"
	"testing"
	"time"

	"code.vegaprotocol.io/betting/broker"
	"code.vegaprotocol.io/betting/collateral"
	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/execution"
	"code.vegaprotocol.io/betting/execution/mocks"
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/snapshot"
	"code.vegaprotocol.io/betting/txn"
	"code.vegaprotocol.io/betting/types"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asset = types.AssetID("BTF")

// recorder keeps every event it is pushed.
type recorder struct {
	id     int
	closed chan struct{}
	evts   []events.Event
}

func newRecorder() *recorder {
	return &recorder{closed: make(chan struct{})}
}

func (r *recorder) Push(evts ...events.Event) { r.evts = append(r.evts, evts...) }
func (r *recorder) Closed() <-chan struct{}   { return r.closed }
func (r *recorder) Types() []events.Type      { return nil }
func (r *recorder) SetID(id int)              { r.id = id }
func (r *recorder) ID() int                   { return r.id }

func (r *recorder) types() []events.Type {
	out := make([]events.Type, 0, len(r.evts))
	for _, e := range r.evts {
		out = append(out, e.Type())
	}
	return out
}

func (r *recorder) reset() { r.evts = nil }

// tester is what the helpers need from testing.T or rapid.T.
type tester interface {
	require.TestingT
	Helper()
}

type testEngine struct {
	*execution.Engine
	t     tester
	ctx   context.Context
	col   *collateral.Engine
	rec   *recorder
	block types.BlockContext
}

func getTestEngine(t tester) *testEngine {
	t.Helper()
	ctx := context.Background()
	log := logging.NewTestLogger()
	col := collateral.New(log, collateral.NewDefaultConfig())
	brk := broker.New(ctx, log, broker.NewDefaultConfig())
	rec := newRecorder()
	brk.Subscribe(rec)

	return &testEngine{
		Engine: execution.New(log, execution.NewDefaultConfig(), col, brk),
		t:      t,
		ctx:    ctx,
		col:    col,
		rec:    rec,
		block: types.BlockContext{
			Height: 1,
			Time:   time.Unix(1700000000, 0),
			Params: types.DefaultParams(),
		},
	}
}

func (te *testEngine) apply(op txn.Operation) error {
	te.block.Height++
	return te.Apply(te.ctx, te.block, op)
}

func (te *testEngine) mustApply(op txn.Operation) {
	te.t.Helper()
	require.NoError(te.t, te.apply(op))
}

// setupGroup creates rules, a group settled in asset and n markets. The
// group is group/1 and the markets are market/1 to market/n.
func (te *testEngine) setupGroup(n int) {
	te.t.Helper()
	te.mustApply(txn.RulesCreate{Name: "standard"})
	te.mustApply(txn.MarketGroupCreate{Description: "final", Asset: asset, Rules: 1})
	for i := 0; i < n; i++ {
		te.mustApply(txn.MarketCreate{Group: 1, Description: "outcome"})
	}
}

func (te *testEngine) deposit(party types.PartyID, amount uint64) {
	te.t.Helper()
	te.mustApply(txn.Deposit{Party: party, Asset: asset, Amount: num.NewUint(amount)})
}

func (te *testEngine) place(party types.PartyID, market types.MarketID, side types.Side, stake uint64, odds types.Odds) error {
	return te.apply(txn.BetPlace{
		Party:  party,
		Market: market,
		Side:   side,
		Asset:  asset,
		Stake:  num.NewUint(stake),
		Odds:   odds,
		MaxFee: num.NewUint(stake),
	})
}

func (te *testEngine) mustPlace(party types.PartyID, market types.MarketID, side types.Side, stake uint64, odds types.Odds) {
	te.t.Helper()
	require.NoError(te.t, te.place(party, market, side, stake, odds))
}

func (te *testEngine) balance(party types.PartyID) uint64 {
	return te.Balance(party, asset).Uint64()
}

func (te *testEngine) hash() []byte {
	te.t.Helper()
	h, err := te.StateHash()
	require.NoError(te.t, err)
	return h
}

func TestApply(t *testing.T) {
	t.Run("nil operation is rejected", func(t *testing.T) {
		te := getTestEngine(t)
		assert.ErrorIs(t, te.apply(nil), execution.ErrNilOperation)
	})

	t.Run("unknown operation kind is rejected", func(t *testing.T) {
		te := getTestEngine(t)
		err := te.apply(&txn.Deposit{Party: "alice", Asset: asset, Amount: num.NewUint(1)})
		assert.ErrorIs(t, err, txn.ErrUnknownCommand)
	})

	t.Run("stateless checks run first", func(t *testing.T) {
		te := getTestEngine(t)
		te.setupGroup(1)
		err := te.place("alice", 1, types.SideBack, 0, 20000)
		assert.ErrorIs(t, err, types.ErrInvalidStake)
		assert.Equal(t, types.RejectReasonInvalidStake, types.ReasonFor(err))
	})

	t.Run("invalid params are rejected", func(t *testing.T) {
		te := getTestEngine(t)
		te.block.Params.MinOdds = 5000
		assert.ErrorIs(t, te.apply(txn.RulesCreate{Name: "x"}), types.ErrInvalidParams)
	})
}

func TestEvents(t *testing.T) {
	t.Run("events of a match are sent in order", testMatchEvents)
	t.Run("rejected operations send nothing", testRejectedSendsNothing)
	t.Run("events are sent in one batch", testEventsBatch)
}

func testMatchEvents(t *testing.T) {
	te := getTestEngine(t)
	te.setupGroup(1)
	te.deposit("alice", 10000)
	te.deposit("bob", 10000)
	te.mustPlace("alice", 1, types.SideBack, 1000, 20000)
	te.rec.reset()

	te.mustPlace("bob", 1, types.SideLay, 1000, 20000)
	assert.Equal(t, []events.Type{
		events.BetPlacedEvent,
		events.BetMatchedEvent,
		events.BetAdjustedEvent,
		events.BetAdjustedEvent,
		events.LedgerMovementsEvent,
	}, te.rec.types())

	m := te.rec.evts[1].(*events.BetMatched).Match()
	assert.Equal(t, types.BetID(1), m.BackBet)
	assert.Equal(t, types.BetID(2), m.LayBet)
	assert.Equal(t, types.SideBack, m.Maker)
}

func testRejectedSendsNothing(t *testing.T) {
	te := getTestEngine(t)
	te.setupGroup(1)
	te.rec.reset()
	assert.ErrorIs(t, te.place("alice", 1, types.SideBack, 1000, 20000), types.ErrInsufficientBalance)
	assert.Empty(t, te.rec.evts)
}

func testEventsBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	brk := mocks.NewMockBroker(ctrl)
	log := logging.NewTestLogger()
	col := collateral.New(log, collateral.NewDefaultConfig())
	e := execution.New(log, execution.NewDefaultConfig(), col, brk)
	block := types.BlockContext{Height: 10, Params: types.DefaultParams()}

	brk.EXPECT().SendBatch(gomock.Any()).Times(1).Do(func(evts []events.Event) {
		require.Len(t, evts, 1)
		assert.Equal(t, events.RulesEvent, evts[0].Type())
		assert.Equal(t, uint64(10), evts[0].BlockHeight())
	})
	require.NoError(t, e.Apply(context.Background(), block, txn.RulesCreate{Name: "standard"}))

	// rejected: no call expected
	err := e.Apply(context.Background(), block, txn.MarketGroupCreate{Asset: asset, Rules: 42})
	assert.ErrorIs(t, err, types.ErrRulesNotFound)
}

func TestStateHash(t *testing.T) {
	t.Run("same operations give the same hash", testReplayHash)
	t.Run("engine restored from a snapshot", testRestore)
	t.Run("rejected operation leaves the hash alone", testRejectedHash)
}

func scenario(te *testEngine) {
	te.setupGroup(2)
	te.deposit("alice", 100000)
	te.deposit("bob", 100000)
	te.deposit("carol", 100000)
	te.mustPlace("alice", 1, types.SideBack, 1000, 25000)
	te.mustPlace("bob", 1, types.SideLay, 600, 30000)
	te.mustPlace("carol", 2, types.SideLay, 2000, 15000)
	te.mustPlace("bob", 2, types.SideBack, 500, 14000)
}

func testReplayHash(t *testing.T) {
	a, b := getTestEngine(t), getTestEngine(t)
	scenario(a)
	scenario(b)
	assert.Equal(t, a.hash(), b.hash())

	a.mustPlace("alice", 2, types.SideBack, 10, 20000)
	assert.NotEqual(t, a.hash(), b.hash())
}

func testRestore(t *testing.T) {
	te := getTestEngine(t)
	scenario(te)

	store, err := snapshot.NewStore(logging.NewTestLogger(), snapshot.NewDefaultConfig())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(te.Snapshot(te.block.Height)))
	p, err := store.Latest()
	require.NoError(t, err)

	log := logging.NewTestLogger()
	col := collateral.New(log, collateral.NewDefaultConfig())
	restored, err := execution.NewFromSnapshot(log, execution.NewDefaultConfig(), col, broker.New(context.Background(), log, broker.NewDefaultConfig()), p)
	require.NoError(t, err)

	h, err := restored.StateHash()
	require.NoError(t, err)
	assert.Equal(t, te.hash(), h)

	// both keep matching the same way
	op := txn.BetPlace{Party: "carol", Market: 1, Side: types.SideLay, Asset: asset, Stake: num.NewUint(400), Odds: 25000, MaxFee: num.NewUint(100)}
	require.NoError(t, te.apply(op))
	require.NoError(t, restored.Apply(context.Background(), te.block, op))
	h, err = restored.StateHash()
	require.NoError(t, err)
	assert.Equal(t, te.hash(), h)
	assert.Equal(t, te.GetMatches(1), restored.GetMatches(1))
}

func testRejectedHash(t *testing.T) {
	te := getTestEngine(t)
	scenario(te)
	before := te.hash()
	depth, err := te.BookDepth(2, types.SideLay)
	require.NoError(t, err)

	// dave has nothing: the match against carol must not happen
	assert.ErrorIs(t, te.place("dave", 2, types.SideBack, 1000, 11000), types.ErrInsufficientBalance)
	assert.Equal(t, before, te.hash())
	after, err := te.BookDepth(2, types.SideLay)
	require.NoError(t, err)
	assert.Equal(t, depth, after)
}

func TestReloadConf(t *testing.T) {
	te := getTestEngine(t)
	te.setupGroup(1)
	cfg := execution.NewDefaultConfig()
	cfg.Level.Level = logging.DebugLevel
	cfg.Matching.Level.Level = logging.DebugLevel
	te.ReloadConf(cfg)
	assert.Equal(t, logging.DebugLevel, te.Level.Get())
}
