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

package execution

import (
	"context"
	"sort"

	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/matching"
	"code.vegaprotocol.io/betting/types"
)

// state is the committed exchange state. It is only written by commit.
type state struct {
	ids       types.IDs
	rules     map[types.RulesID]*types.Rules
	groups    map[types.GroupID]*types.MarketGroup
	markets   map[types.MarketID]*types.Market
	bets      map[types.BetID]*types.Bet
	positions map[types.MarketID]map[types.PartyID]*types.Position
	matches   map[types.MarketID][]*types.Match
	books     map[types.MarketID]*matching.OrderBook
}

func newState() *state {
	return &state{
		ids:       types.NewIDs(),
		rules:     map[types.RulesID]*types.Rules{},
		groups:    map[types.GroupID]*types.MarketGroup{},
		markets:   map[types.MarketID]*types.Market{},
		bets:      map[types.BetID]*types.Bet{},
		positions: map[types.MarketID]map[types.PartyID]*types.Position{},
		matches:   map[types.MarketID][]*types.Match{},
		books:     map[types.MarketID]*matching.OrderBook{},
	}
}

func (s *state) position(party types.PartyID, market types.MarketID) (*types.Position, bool) {
	pos, ok := s.positions[market][party]
	return pos, ok
}

func (s *state) resting() int {
	n := 0
	for _, b := range s.books {
		n += b.Len()
	}
	return n
}

// stage collects everything an operation changes. Objects are copied
// into the stage before they are modified, so dropping the stage leaves
// the committed state as it was.
type stage struct {
	ctx   context.Context
	block types.BlockContext
	base  *state

	ids       types.IDs
	rules     map[types.RulesID]*types.Rules
	groups    map[types.GroupID]*types.MarketGroup
	markets   map[types.MarketID]*types.Market
	bets      map[types.BetID]*types.Bet
	positions map[types.PositionKey]*types.Position
	matches   map[types.MarketID][]*types.Match
	books     map[types.MarketID]*matching.OrderBook

	transfers []*types.Transfer
	events    []events.Event
	touched   []types.MarketID
	onCommit  []func()
}

func newStage(ctx context.Context, block types.BlockContext, base *state) *stage {
	return &stage{
		ctx:       ctx,
		block:     block,
		base:      base,
		ids:       base.ids,
		rules:     map[types.RulesID]*types.Rules{},
		groups:    map[types.GroupID]*types.MarketGroup{},
		markets:   map[types.MarketID]*types.Market{},
		bets:      map[types.BetID]*types.Bet{},
		positions: map[types.PositionKey]*types.Position{},
		matches:   map[types.MarketID][]*types.Match{},
		books:     map[types.MarketID]*matching.OrderBook{},
	}
}

// staged returns the staged copy of an object, copying it from the base
// on first access. A nil entry in the stage marks a deleted object.
func staged[K comparable, V any](over, base map[K]*V, k K, clone func(*V) *V) (*V, bool) {
	if v, ok := over[k]; ok {
		return v, v != nil
	}
	v, ok := base[k]
	if !ok {
		return nil, false
	}
	cpy := clone(v)
	over[k] = cpy
	return cpy, true
}

func (s *stage) rule(id types.RulesID) (*types.Rules, bool) {
	return staged(s.rules, s.base.rules, id, (*types.Rules).Clone)
}

func (s *stage) group(id types.GroupID) (*types.MarketGroup, bool) {
	return staged(s.groups, s.base.groups, id, (*types.MarketGroup).Clone)
}

func (s *stage) market(id types.MarketID) (*types.Market, bool) {
	return staged(s.markets, s.base.markets, id, (*types.Market).Clone)
}

func (s *stage) bet(id types.BetID) (*types.Bet, bool) {
	return staged(s.bets, s.base.bets, id, (*types.Bet).Clone)
}

// lookupBet reads a bet without staging it.
func (s *stage) lookupBet(id types.BetID) *types.Bet {
	if b, ok := s.bets[id]; ok {
		return b
	}
	return s.base.bets[id]
}

func (s *stage) setBet(b *types.Bet) {
	s.bets[b.ID] = b
}

func (s *stage) deleteBet(id types.BetID) {
	s.bets[id] = nil
}

// GetOrCreatePosition implements exposure.Store.
func (s *stage) GetOrCreatePosition(party types.PartyID, market types.MarketID) *types.Position {
	k := types.PositionKey{Party: party, Market: market}
	pos, seen := s.positions[k]
	if pos != nil {
		return pos
	}
	if p, ok := s.base.position(party, market); ok && !seen {
		pos = p.Clone()
	} else {
		pos = types.NewPosition(party, market)
	}
	s.positions[k] = pos
	s.touch(market)
	return pos
}

// marketPositions returns the staged positions of a market ordered by
// party.
func (s *stage) marketPositions(market types.MarketID) []*types.Position {
	for party := range s.base.positions[market] {
		s.GetOrCreatePosition(party, market)
	}
	out := []*types.Position{}
	for k, pos := range s.positions {
		if k.Market == market && pos != nil {
			out = append(out, pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Party < out[j].Party })
	return out
}

func (s *stage) deletePositions(market types.MarketID) {
	for _, pos := range s.marketPositions(market) {
		s.positions[types.PositionKey{Party: pos.Party, Market: market}] = nil
	}
}

func (s *stage) marketMatches(market types.MarketID) []*types.Match {
	if ms, ok := s.matches[market]; ok {
		return ms
	}
	return s.base.matches[market]
}

func (s *stage) addMatch(m *types.Match) {
	ms, ok := s.matches[m.Market]
	if !ok {
		ms = append([]*types.Match(nil), s.base.matches[m.Market]...)
	}
	s.matches[m.Market] = append(ms, m)
}

func (s *stage) deleteMatches(market types.MarketID) {
	s.matches[market] = nil
}

func (s *stage) book(market types.MarketID) *matching.OrderBook {
	if b, ok := s.books[market]; ok {
		return b
	}
	b, ok := s.base.books[market]
	if !ok {
		types.PanicInvariant("book", "%s has no order book", market)
	}
	cpy := b.Clone()
	s.books[market] = cpy
	return cpy
}

func (s *stage) addBook(b *matching.OrderBook) {
	s.books[b.MarketID()] = b
}

func (s *stage) touch(market types.MarketID) {
	for _, m := range s.touched {
		if m == market {
			return
		}
	}
	s.touched = append(s.touched, market)
}

func (s *stage) transfer(tt types.TransferType, from, to types.Account, amount *num.Uint) {
	if amount == nil || amount.IsZero() {
		return
	}
	s.transfers = append(s.transfers, &types.Transfer{
		Type:   tt,
		From:   from,
		To:     to,
		Amount: amount.Clone(),
	})
}

func (s *stage) emit(evts ...events.Event) {
	s.events = append(s.events, evts...)
}

// commit writes the stage into its base.
func (s *stage) commit() {
	b := s.base
	b.ids = s.ids
	for id, r := range s.rules {
		b.rules[id] = r
	}
	for id, g := range s.groups {
		b.groups[id] = g
	}
	for id, m := range s.markets {
		b.markets[id] = m
	}
	for id, bet := range s.bets {
		if bet == nil {
			delete(b.bets, id)
			continue
		}
		b.bets[id] = bet
	}
	for k, pos := range s.positions {
		if pos == nil || pos.IsEmpty() {
			if ps, ok := b.positions[k.Market]; ok {
				delete(ps, k.Party)
				if len(ps) == 0 {
					delete(b.positions, k.Market)
				}
			}
			continue
		}
		ps, ok := b.positions[k.Market]
		if !ok {
			ps = map[types.PartyID]*types.Position{}
			b.positions[k.Market] = ps
		}
		ps[k.Party] = pos
	}
	for id, ms := range s.matches {
		if ms == nil {
			delete(b.matches, id)
			continue
		}
		b.matches[id] = ms
	}
	for id, book := range s.books {
		b.books[id] = book
	}
}
