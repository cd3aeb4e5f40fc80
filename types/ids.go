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

package types

import (
	"strconv"
)

// PartyID identifies a bettor account.
type PartyID string

func (p PartyID) String() string { return string(p) }

// AssetID identifies the settlement asset of a market group.
type AssetID string

func (a AssetID) String() string { return string(a) }

// BetID, MarketID, GroupID, RulesID and MatchID are assigned from
// per-kind sequences at creation and never reused.
type (
	BetID    uint64
	MarketID uint64
	GroupID  uint64
	RulesID  uint64
	MatchID  uint64
)

func (id BetID) String() string    { return "bet/" + strconv.FormatUint(uint64(id), 10) }
func (id MarketID) String() string { return "market/" + strconv.FormatUint(uint64(id), 10) }
func (id GroupID) String() string  { return "group/" + strconv.FormatUint(uint64(id), 10) }
func (id RulesID) String() string  { return "rules/" + strconv.FormatUint(uint64(id), 10) }
func (id MatchID) String() string  { return "match/" + strconv.FormatUint(uint64(id), 10) }

// IDs holds the next identifier of every kind of object.
type IDs struct {
	Bet    uint64 `json:"bet"`
	Market uint64 `json:"market"`
	Group  uint64 `json:"group"`
	Rules  uint64 `json:"rules"`
	Match  uint64 `json:"match"`
	// Seq orders resting bets by arrival across all books.
	Seq uint64 `json:"seq"`
}

func NewIDs() IDs {
	return IDs{Bet: 1, Market: 1, Group: 1, Rules: 1, Match: 1, Seq: 1}
}

func (i *IDs) NextBet() BetID {
	id := i.Bet
	i.Bet++
	return BetID(id)
}

func (i *IDs) NextMarket() MarketID {
	id := i.Market
	i.Market++
	return MarketID(id)
}

func (i *IDs) NextGroup() GroupID {
	id := i.Group
	i.Group++
	return GroupID(id)
}

func (i *IDs) NextRules() RulesID {
	id := i.Rules
	i.Rules++
	return RulesID(id)
}

func (i *IDs) NextMatch() MatchID {
	id := i.Match
	i.Match++
	return MatchID(id)
}

func (i *IDs) NextSeq() uint64 {
	s := i.Seq
	i.Seq++
	return s
}
