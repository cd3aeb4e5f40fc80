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
	"fmt"
	"sort"

	"code.vegaprotocol.io/betting/collateral"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/matching"
	"code.vegaprotocol.io/betting/snapshot"
	"code.vegaprotocol.io/betting/types"
)

// Snapshot returns the whole state, every list sorted by identifier.
func (e *Engine) Snapshot(height uint64) *snapshot.Payload {
	s := e.state
	p := &snapshot.Payload{
		Height:    height,
		IDs:       s.ids,
		Rules:     make([]*types.Rules, 0, len(s.rules)),
		Groups:    make([]*types.MarketGroup, 0, len(s.groups)),
		Markets:   make([]*types.Market, 0, len(s.markets)),
		Bets:      make([]*types.Bet, 0, len(s.bets)),
		Positions: []*types.Position{},
		Matches:   []*types.Match{},
		Accounts:  e.collateral.Accounts(),
	}
	for _, r := range s.rules {
		p.Rules = append(p.Rules, r.Clone())
	}
	sort.Slice(p.Rules, func(i, j int) bool { return p.Rules[i].ID < p.Rules[j].ID })
	for _, g := range s.groups {
		p.Groups = append(p.Groups, g.Clone())
	}
	sort.Slice(p.Groups, func(i, j int) bool { return p.Groups[i].ID < p.Groups[j].ID })
	for _, m := range s.markets {
		p.Markets = append(p.Markets, m.Clone())
	}
	sort.Slice(p.Markets, func(i, j int) bool { return p.Markets[i].ID < p.Markets[j].ID })
	for _, b := range s.bets {
		p.Bets = append(p.Bets, b.Clone())
	}
	sort.Slice(p.Bets, func(i, j int) bool { return p.Bets[i].ID < p.Bets[j].ID })
	for _, ps := range s.positions {
		for _, pos := range ps {
			p.Positions = append(p.Positions, pos.Clone())
		}
	}
	sort.Slice(p.Positions, func(i, j int) bool {
		return types.PositionKey{Party: p.Positions[i].Party, Market: p.Positions[i].Market}.Less(
			types.PositionKey{Party: p.Positions[j].Party, Market: p.Positions[j].Market})
	})
	for _, ms := range s.matches {
		for _, m := range ms {
			p.Matches = append(p.Matches, cloneMatch(m))
		}
	}
	sort.Slice(p.Matches, func(i, j int) bool { return p.Matches[i].ID < p.Matches[j].ID })
	return p
}

// StateHash is the hash of the snapshot of the current state. Two
// engines that applied the same operations have the same hash.
func (e *Engine) StateHash() ([]byte, error) {
	return e.Snapshot(0).Hash()
}

// NewFromSnapshot returns an engine holding the state of the payload. The
// collateral engine is restored with the payload balances.
func NewFromSnapshot(
	log *logging.Logger,
	executionConfig Config,
	col *collateral.Engine,
	broker Broker,
	p *snapshot.Payload,
) (*Engine, error) {
	e := New(log, executionConfig, col, broker)
	s := e.state
	s.ids = p.IDs
	for _, r := range p.Rules {
		s.rules[r.ID] = r.Clone()
	}
	for _, g := range p.Groups {
		s.groups[g.ID] = g.Clone()
	}
	for _, m := range p.Markets {
		if _, ok := s.groups[m.Group]; !ok {
			return nil, fmt.Errorf("%w: %s of %s", types.ErrGroupNotFound, m.Group, m.ID)
		}
		s.markets[m.ID] = m.Clone()
		s.books[m.ID] = matching.NewOrderBook(e.log, e.Matching, m.ID)
	}
	for _, b := range p.Bets {
		book, ok := s.books[b.Market]
		if !ok {
			return nil, fmt.Errorf("%w: %s of %s", types.ErrMarketNotFound, b.Market, b.ID)
		}
		bet := b.Clone()
		s.bets[b.ID] = bet
		book.Insert(bet)
	}
	for _, pos := range p.Positions {
		if _, ok := s.markets[pos.Market]; !ok {
			return nil, fmt.Errorf("%w: position on %s", types.ErrMarketNotFound, pos.Market)
		}
		ps, ok := s.positions[pos.Market]
		if !ok {
			ps = map[types.PartyID]*types.Position{}
			s.positions[pos.Market] = ps
		}
		ps[pos.Party] = pos.Clone()
	}
	for _, m := range p.Matches {
		s.matches[m.Market] = append(s.matches[m.Market], cloneMatch(m))
	}

	col.Restore(p.Accounts)
	if e.CheckEscrow {
		e.checkEscrow(e.Markets())
	}
	e.log.Info("state restored from snapshot",
		logging.BlockHeight(p.Height),
		logging.Int("markets", len(s.markets)),
		logging.Int("bets", len(s.bets)),
	)
	return e, nil
}
