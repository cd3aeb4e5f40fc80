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

package exposure_test

import (
	"testing"

	"code.vegaprotocol.io/betting/exposure"
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore map[types.PositionKey]*types.Position

func (s memStore) GetOrCreatePosition(party types.PartyID, market types.MarketID) *types.Position {
	k := types.PositionKey{Party: party, Market: market}
	if p, ok := s[k]; ok {
		return p
	}
	p := types.NewPosition(party, market)
	s[k] = p
	return p
}

func getTestLedger(t *testing.T) (*exposure.Ledger, memStore) {
	t.Helper()
	store := memStore{}
	e := exposure.New(logging.NewTestLogger(), exposure.NewDefaultConfig())
	return e.Ledger(store), store
}

func match(backStake, liability uint64) *types.Match {
	return &types.Match{
		ID:        1,
		Market:    1,
		BackParty: "alice",
		LayParty:  "bob",
		Odds:      20000,
		BackStake: num.NewUint(backStake),
		Liability: num.NewUint(liability),
	}
}

func TestLockRelease(t *testing.T) {
	t.Run("release moves locked to refundable", func(t *testing.T) {
		l, store := getTestLedger(t)
		l.Lock("alice", 1, num.NewUint(1000))
		l.Release("alice", 1, num.NewUint(400))

		pos := store.GetOrCreatePosition("alice", 1)
		assert.Equal(t, uint64(600), pos.Locked.Uint64())
		assert.Equal(t, uint64(600), pos.Unmatched.Uint64())
		assert.Equal(t, uint64(400), l.RefundableBalance("alice", 1).Uint64())

		assert.Equal(t, uint64(400), l.Flush("alice", 1).Uint64())
		assert.True(t, l.RefundableBalance("alice", 1).IsZero())
		exposure.CheckPosition(pos)
	})

	t.Run("releasing more than locked is an invariant violation", func(t *testing.T) {
		l, _ := getTestLedger(t)
		l.Lock("alice", 1, num.NewUint(10))
		defer func() {
			assert.True(t, types.IsInvariantViolation(recover()))
		}()
		l.Release("alice", 1, num.NewUint(11))
	})

	t.Run("positions are per market", func(t *testing.T) {
		l, _ := getTestLedger(t)
		l.Lock("alice", 1, num.NewUint(10))
		defer func() {
			assert.True(t, types.IsInvariantViolation(recover()))
		}()
		l.Release("alice", 2, num.NewUint(1))
	})
}

func TestFill(t *testing.T) {
	t.Run("both sides move to matched", func(t *testing.T) {
		l, store := getTestLedger(t)
		l.Lock("alice", 1, num.NewUint(1000))
		l.Lock("bob", 1, num.NewUint(500))

		m := match(500, 500)
		l.Fill(types.SideBack, m, "alice", num.NewUint(500))
		l.Fill(types.SideLay, m, "bob", num.NewUint(500))

		alice := store.GetOrCreatePosition("alice", 1)
		assert.Equal(t, uint64(1000), alice.Locked.Uint64())
		assert.Equal(t, uint64(500), alice.Unmatched.Uint64())
		assert.Equal(t, uint64(500), alice.PayIfCanceled.Uint64())
		assert.Equal(t, uint64(1000), alice.PayIfWin.Uint64())
		assert.True(t, alice.PayIfNotWin.IsZero())
		assert.True(t, alice.Refundable.IsZero())

		bob := store.GetOrCreatePosition("bob", 1)
		assert.Equal(t, uint64(500), bob.Locked.Uint64())
		assert.True(t, bob.Unmatched.IsZero())
		assert.Equal(t, uint64(1000), bob.PayIfNotWin.Uint64())
		exposure.CheckPosition(alice)
		exposure.CheckPosition(bob)
	})

	t.Run("better odds than requested refund the difference", func(t *testing.T) {
		l, store := getTestLedger(t)
		// bob lays 100 at 3x, locking 200, and is matched at 2x
		l.Lock("bob", 1, num.NewUint(200))
		l.Fill(types.SideLay, match(100, 100), "bob", num.NewUint(200))

		bob := store.GetOrCreatePosition("bob", 1)
		assert.Equal(t, uint64(100), bob.Locked.Uint64())
		assert.Equal(t, uint64(100), bob.Refundable.Uint64())
		exposure.CheckPosition(bob)
	})

	t.Run("opposite positions net out", func(t *testing.T) {
		l, store := getTestLedger(t)
		l.Lock("alice", 1, num.NewUint(200))

		back := match(100, 100)
		l.Fill(types.SideBack, back, "alice", num.NewUint(100))
		lay := match(100, 100)
		lay.BackParty, lay.LayParty = "carol", "alice"
		l.Fill(types.SideLay, lay, "alice", num.NewUint(100))

		alice := store.GetOrCreatePosition("alice", 1)
		assert.True(t, alice.Locked.IsZero())
		assert.True(t, alice.PayIfWin.IsZero())
		assert.True(t, alice.PayIfNotWin.IsZero())
		assert.True(t, alice.PayIfCanceled.IsZero())
		assert.Equal(t, uint64(200), alice.Netted.Uint64())
		assert.Equal(t, uint64(200), alice.Contributed.Uint64())
		assert.Equal(t, uint64(200), alice.Refundable.Uint64())
		exposure.CheckPosition(alice)
	})

	t.Run("partial netting keeps the difference at risk", func(t *testing.T) {
		l, store := getTestLedger(t)
		l.Lock("alice", 1, num.NewUint(300))

		l.Fill(types.SideBack, match(200, 200), "alice", num.NewUint(200))
		lay := match(100, 100)
		lay.BackParty, lay.LayParty = "carol", "alice"
		l.Fill(types.SideLay, lay, "alice", num.NewUint(100))

		alice := store.GetOrCreatePosition("alice", 1)
		// win pays 400, not win pays 200, cancel pays 300: 200 is certain
		assert.Equal(t, uint64(200), alice.PayIfWin.Uint64())
		assert.True(t, alice.PayIfNotWin.IsZero())
		assert.Equal(t, uint64(100), alice.PayIfCanceled.Uint64())
		assert.Equal(t, uint64(100), alice.Locked.Uint64())
		assert.Equal(t, uint64(200), alice.Refundable.Uint64())
		exposure.CheckPosition(alice)
	})
}

func TestFees(t *testing.T) {
	l, store := getTestLedger(t)
	l.HoldFee("alice", 1, num.NewUint(20))
	l.MatchFee("alice", 1, num.NewUint(10))
	l.ReleaseFee("alice", 1, num.NewUint(5))

	pos := store.GetOrCreatePosition("alice", 1)
	assert.Equal(t, uint64(5), pos.UnmatchedFees.Uint64())
	assert.Equal(t, uint64(10), pos.Fees.Uint64())
	assert.Equal(t, uint64(5), pos.Refundable.Uint64())
	assert.Equal(t, uint64(15), pos.Held().Uint64())

	require.Panics(t, func() { l.MatchFee("alice", 1, num.NewUint(6)) })
}
