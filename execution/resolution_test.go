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
	"testing"

	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/txn"
	"code.vegaprotocol.io/betting/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// matchedPair has alice back and bob lay 1,000,000 at 2x on market 1 of a
// two market group.
func matchedPair(t *testing.T) *testEngine {
	t.Helper()
	te := getTestEngine(t)
	te.setupGroup(2)
	te.deposit("alice", 2000000)
	te.deposit("bob", 2000000)
	te.mustPlace("alice", 1, types.SideBack, 1000000, 20000)
	te.mustPlace("bob", 1, types.SideLay, 1000000, 20000)
	require.Len(t, te.GetMatches(1), 1)
	return te
}

func resolve(group types.GroupID, verdicts ...types.Resolution) txn.GroupResolve {
	op := txn.GroupResolve{Group: group, Resolutions: map[types.MarketID]types.Resolution{}}
	for i, r := range verdicts {
		op.Resolutions[types.MarketID(i+1)] = r
	}
	return op
}

func (te *testEngine) assertSettled(markets ...types.MarketID) {
	te.t.Helper()
	for _, id := range markets {
		assert.True(te.t, te.col.Balance(types.EscrowAccount(id, asset)).IsZero(), "escrow of %s", id)
		assert.Empty(te.t, te.GetMatches(id))
		for _, side := range []types.Side{types.SideBack, types.SideLay} {
			depth, err := te.BookDepth(id, side)
			require.NoError(te.t, err)
			assert.Empty(te.t, depth)
		}
	}
}

func TestResolveGroup(t *testing.T) {
	t.Run("backer wins", testResolveWin)
	t.Run("layer wins", testResolveNotWin)
	t.Run("everything canceled", testResolveCancel)
	t.Run("resolution events", testResolveEvents)
	t.Run("frozen group resolves", testResolveFrozen)
	t.Run("resolved group is final", testResolvedIsFinal)
	t.Run("invalid verdicts", testResolveValidation)
}

func testResolveWin(t *testing.T) {
	te := matchedPair(t)
	te.mustApply(resolve(1, types.ResolutionWin, types.ResolutionNotWin))

	// 2,000,000 paid less 2% of the 1,000,000 won
	assert.Equal(t, uint64(2960000), te.balance("alice"))
	assert.Equal(t, uint64(980000), te.balance("bob"))
	assert.Equal(t, uint64(60000), te.FeePool(asset).Uint64())
	te.assertSettled(1, 2)

	m1, err := te.GetMarket(1)
	require.NoError(t, err)
	assert.Equal(t, types.MarketStatusResolved, m1.Status)
	assert.Equal(t, types.ResolutionWin, m1.Resolution)
	m2, err := te.GetMarket(2)
	require.NoError(t, err)
	assert.Equal(t, types.ResolutionNotWin, m2.Resolution)

	grp, err := te.GetGroup(1)
	require.NoError(t, err)
	assert.Equal(t, types.GroupStatusResolved, grp.Status)
	assert.True(t, te.GetPosition("alice", 1).IsEmpty())
}

func testResolveNotWin(t *testing.T) {
	te := matchedPair(t)
	te.mustApply(resolve(1, types.ResolutionNotWin, types.ResolutionWin))

	assert.Equal(t, uint64(980000), te.balance("alice"))
	assert.Equal(t, uint64(2960000), te.balance("bob"))
	assert.Equal(t, uint64(60000), te.FeePool(asset).Uint64())
	te.assertSettled(1, 2)
}

func testResolveCancel(t *testing.T) {
	te := matchedPair(t)
	te.deposit("carol", 10000)
	te.mustPlace("carol", 2, types.SideBack, 500, 30000)

	te.mustApply(resolve(1, types.ResolutionCancel, types.ResolutionCancel))
	assert.Equal(t, uint64(2000000), te.balance("alice"))
	assert.Equal(t, uint64(2000000), te.balance("bob"))
	assert.Equal(t, uint64(10000), te.balance("carol"))
	assert.True(t, te.FeePool(asset).IsZero())
	te.assertSettled(1, 2)

	_, err := te.GetBet(3)
	assert.ErrorIs(t, err, types.ErrBetNotFound)
	for _, id := range []types.MarketID{1, 2} {
		m, err := te.GetMarket(id)
		require.NoError(t, err)
		assert.Equal(t, types.MarketStatusCanceled, m.Status)
	}
}

func testResolveEvents(t *testing.T) {
	te := matchedPair(t)
	te.deposit("carol", 10000)
	te.mustPlace("carol", 2, types.SideBack, 500, 30000)
	te.rec.reset()

	te.mustApply(resolve(1, types.ResolutionWin, types.ResolutionNotWin))
	assert.Equal(t, []events.Type{
		events.BetCanceledEvent,
		events.MarketEvent,
		events.MarketEvent,
		events.MarketGroupEvent,
		events.MarketGroupResolvedEvent,
		events.LedgerMovementsEvent,
	}, te.rec.types())
}

func testResolveFrozen(t *testing.T) {
	te := matchedPair(t)
	freeze := true
	te.mustApply(txn.MarketGroupUpdate{Group: 1, Freeze: &freeze})
	te.mustApply(resolve(1, types.ResolutionNotWin, types.ResolutionWin))
	assert.Equal(t, uint64(2960000), te.balance("bob"))
}

func testResolvedIsFinal(t *testing.T) {
	te := matchedPair(t)
	te.mustApply(resolve(1, types.ResolutionWin, types.ResolutionNotWin))
	before := te.hash()

	assert.ErrorIs(t, te.apply(resolve(1, types.ResolutionCancel, types.ResolutionCancel)), types.ErrGroupAlreadyResolved)
	assert.ErrorIs(t, te.apply(txn.GroupCancelUnmatched{Group: 1}), types.ErrGroupAlreadyResolved)
	assert.ErrorIs(t, te.place("alice", 1, types.SideBack, 100, 20000), types.ErrMarketNotOpen)
	assert.ErrorIs(t, te.apply(txn.MarketCreate{Group: 1, Description: "late"}), types.ErrGroupAlreadyResolved)
	assert.Equal(t, before, te.hash())

	// withdrawing the winnings is still possible
	te.mustApply(txn.Withdraw{Party: "alice", Asset: asset, Amount: te.Balance("alice", asset)})
	assert.Zero(t, te.balance("alice"))
}

func testResolveValidation(t *testing.T) {
	te := matchedPair(t)
	before := te.hash()

	cases := []struct {
		name string
		op   txn.GroupResolve
		err  error
	}{
		{
			name: "unknown group",
			op:   resolve(5, types.ResolutionWin, types.ResolutionNotWin),
			err:  types.ErrGroupNotFound,
		},
		{
			name: "missing verdict",
			op:   resolve(1, types.ResolutionWin),
			err:  types.ErrMissingResolution,
		},
		{
			name: "market outside the group",
			op:   resolve(1, types.ResolutionWin, types.ResolutionNotWin, types.ResolutionNotWin),
			err:  types.ErrUnknownMarket,
		},
		{
			name: "two winners",
			op:   resolve(1, types.ResolutionWin, types.ResolutionWin),
			err:  types.ErrInvalidResolution,
		},
		{
			name: "no winner",
			op:   resolve(1, types.ResolutionNotWin, types.ResolutionNotWin),
			err:  types.ErrInvalidResolution,
		},
		{
			name: "partial cancel",
			op:   resolve(1, types.ResolutionCancel, types.ResolutionNotWin),
			err:  types.ErrInvalidResolution,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.ErrorIs(t, te.apply(c.op), c.err)
			assert.Equal(t, before, te.hash())
		})
	}
	assert.Equal(t, uint64(2000000-1020000), te.balance("alice"))
}

// TestResolutionConservesFunds places and cancels random bets on a two
// market group, resolves it and checks that no funds were created or lost.
func TestResolutionConservesFunds(t *testing.T) {
	parties := []types.PartyID{"alice", "bob", "carol"}
	odds := []types.Odds{10100, 12500, 15000, 20000, 25000, 33300, 110000}
	const deposit = 1000000

	rapid.Check(t, func(rt *rapid.T) {
		te := getTestEngine(rt)
		te.setupGroup(2)
		for _, p := range parties {
			te.deposit(p, deposit)
		}

		n := rapid.IntRange(1, 40).Draw(rt, "ops")
		for i := 0; i < n; i++ {
			if rapid.IntRange(0, 4).Draw(rt, "kind") == 0 {
				id := types.BetID(rapid.IntRange(1, i+1).Draw(rt, "bet"))
				b, err := te.GetBet(id)
				if err != nil {
					continue
				}
				if err := te.apply(txn.BetCancel{Party: b.Party, Bet: id}); err != nil {
					rt.Fatalf("cancel %s: %v", id, err)
				}
				continue
			}
			party := rapid.SampledFrom(parties).Draw(rt, "party")
			market := types.MarketID(rapid.IntRange(1, 2).Draw(rt, "market"))
			side := rapid.SampledFrom([]types.Side{types.SideBack, types.SideLay}).Draw(rt, "side")
			stake := rapid.Uint64Range(1, 50000).Draw(rt, "stake")
			o := rapid.SampledFrom(odds).Draw(rt, "odds")
			_ = te.place(party, market, side, stake, o)
		}

		verdicts := rapid.SampledFrom([][]types.Resolution{
			{types.ResolutionWin, types.ResolutionNotWin},
			{types.ResolutionNotWin, types.ResolutionWin},
			{types.ResolutionCancel, types.ResolutionCancel},
		}).Draw(rt, "verdicts")
		if err := te.apply(resolve(1, verdicts...)); err != nil {
			rt.Fatalf("resolve: %v", err)
		}

		total := te.FeePool(asset).Uint64()
		for _, p := range parties {
			total += te.balance(p)
		}
		if total != deposit*uint64(len(parties)) {
			rt.Fatalf("%d in accounts after resolution, %d deposited", total, deposit*len(parties))
		}
		for _, id := range []types.MarketID{1, 2} {
			if !te.col.Balance(types.EscrowAccount(id, asset)).IsZero() {
				rt.Fatalf("escrow of %s not drained", id)
			}
		}
		if verdicts[0] == types.ResolutionCancel {
			if !te.FeePool(asset).IsZero() {
				rt.Fatalf("fees kept on a canceled group")
			}
			for _, p := range parties {
				if te.balance(p) != deposit {
					rt.Fatalf("%s has %d after cancel", p, te.balance(p))
				}
			}
		}
	})
}
