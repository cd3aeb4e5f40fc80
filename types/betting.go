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
	"fmt"

	"code.vegaprotocol.io/betting/libs/num"
)

// Side of a wager.
type Side uint8

const (
	SideUnspecified Side = iota
	// SideBack wagers that the market's outcome happens.
	SideBack
	// SideLay wagers against it, offering the odds to backers.
	SideLay
)

func (s Side) String() string {
	switch s {
	case SideBack:
		return "back"
	case SideLay:
		return "lay"
	default:
		return "unspecified"
	}
}

// Opposite returns the side a bet of this side matches against.
func (s Side) Opposite() Side {
	switch s {
	case SideBack:
		return SideLay
	case SideLay:
		return SideBack
	default:
		return SideUnspecified
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "back":
		*s = SideBack
	case "lay":
		*s = SideLay
	case "unspecified":
		*s = SideUnspecified
	default:
		return fmt.Errorf("invalid side %q", string(b))
	}
	return nil
}

// Bet is a resting or partially matched wager. Stake is in back-equivalent
// units for both sides: a lay stake s at odds o covers a backer's stake s and
// locks Odds.Liability(s).
type Bet struct {
	ID     BetID     `json:"id"`
	Party  PartyID   `json:"party"`
	Market MarketID  `json:"market"`
	Side   Side      `json:"side"`
	Stake  *num.Uint `json:"stake"`
	Odds   Odds      `json:"odds"`
	// Remaining is the unmatched remainder, never above Stake.
	Remaining *num.Uint `json:"remaining"`
	// Collateral is what is locked behind Remaining.
	Collateral *num.Uint `json:"collateral"`
	// Fee charged at placement, and the part of it still behind Remaining.
	Fee          *num.Uint `json:"fee"`
	UnmatchedFee *num.Uint `json:"unmatched_fee"`
	// Seq gives time priority inside an odds level.
	Seq       uint64 `json:"seq"`
	CreatedAt uint64 `json:"created_at"`
}

func (b *Bet) Clone() *Bet {
	cpy := *b
	cpy.Stake = b.Stake.Clone()
	cpy.Remaining = b.Remaining.Clone()
	cpy.Collateral = b.Collateral.Clone()
	cpy.Fee = b.Fee.Clone()
	cpy.UnmatchedFee = b.UnmatchedFee.Clone()
	return &cpy
}

func (b *Bet) IsFilled() bool {
	return b.Remaining.IsZero()
}

func (b Bet) String() string {
	return fmt.Sprintf(
		"ID(%s) party(%s) market(%s) side(%s) stake(%s) remaining(%s) odds(%s)",
		b.ID, b.Party, b.Market, b.Side, b.Stake, b.Remaining, b.Odds,
	)
}

// MarketStatus is the lifecycle state of a betting market.
type MarketStatus uint8

const (
	MarketStatusUnspecified MarketStatus = iota
	MarketStatusOpen
	// MarketStatusFrozen markets take no new bets nor owner cancels.
	MarketStatusFrozen
	MarketStatusResolved
	MarketStatusCanceled
)

func (s MarketStatus) String() string {
	switch s {
	case MarketStatusOpen:
		return "open"
	case MarketStatusFrozen:
		return "frozen"
	case MarketStatusResolved:
		return "resolved"
	case MarketStatusCanceled:
		return "canceled"
	default:
		return "unspecified"
	}
}

func (s MarketStatus) IsFinal() bool {
	return s == MarketStatusResolved || s == MarketStatusCanceled
}

// Resolution is the verdict a market is resolved with.
type Resolution uint8

const (
	ResolutionUnspecified Resolution = iota
	ResolutionWin
	ResolutionNotWin
	ResolutionCancel
)

func (r Resolution) String() string {
	switch r {
	case ResolutionWin:
		return "win"
	case ResolutionNotWin:
		return "not_win"
	case ResolutionCancel:
		return "cancel"
	default:
		return "unspecified"
	}
}

func (r Resolution) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Resolution) UnmarshalText(b []byte) error {
	switch string(b) {
	case "win":
		*r = ResolutionWin
	case "not_win":
		*r = ResolutionNotWin
	case "cancel":
		*r = ResolutionCancel
	case "unspecified":
		*r = ResolutionUnspecified
	default:
		return fmt.Errorf("invalid resolution %q", string(b))
	}
	return nil
}

type Market struct {
	ID          MarketID     `json:"id"`
	Group       GroupID      `json:"group"`
	Description string       `json:"description"`
	Status      MarketStatus `json:"status"`
	Resolution  Resolution   `json:"resolution"`
}

func (m *Market) Clone() *Market {
	cpy := *m
	return &cpy
}

// GroupStatus is the lifecycle state of a market group.
type GroupStatus uint8

const (
	GroupStatusUnspecified GroupStatus = iota
	GroupStatusUnresolved
	GroupStatusResolved
)

func (s GroupStatus) String() string {
	switch s {
	case GroupStatusUnresolved:
		return "unresolved"
	case GroupStatusResolved:
		return "resolved"
	default:
		return "unspecified"
	}
}

// MarketGroup is a set of mutually exclusive markets settled in one asset
// and resolved together.
type MarketGroup struct {
	ID          GroupID     `json:"id"`
	Description string      `json:"description"`
	Asset       AssetID     `json:"asset"`
	Rules       RulesID     `json:"rules"`
	Markets     []MarketID  `json:"markets"`
	Status      GroupStatus `json:"status"`
}

func (g *MarketGroup) Clone() *MarketGroup {
	cpy := *g
	cpy.Markets = append([]MarketID(nil), g.Markets...)
	return &cpy
}

// Rules are the descriptive terms a group is resolved under.
type Rules struct {
	ID          RulesID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

func (r *Rules) Clone() *Rules {
	cpy := *r
	return &cpy
}

// Match pairs a back quantity with a lay quantity at the resting bet's odds.
type Match struct {
	ID        MatchID   `json:"id"`
	Market    MarketID  `json:"market"`
	BackBet   BetID     `json:"back_bet"`
	LayBet    BetID     `json:"lay_bet"`
	BackParty PartyID   `json:"back_party"`
	LayParty  PartyID   `json:"lay_party"`
	Odds      Odds      `json:"odds"`
	BackStake *num.Uint `json:"back_stake"`
	Liability *num.Uint `json:"liability"`
	// Maker is the side of the bet that was resting.
	Maker     Side   `json:"maker"`
	CreatedAt uint64 `json:"created_at"`
}

// Pot is everything escrowed by the match, paid out in full under any verdict.
func (m *Match) Pot() *num.Uint {
	return num.Sum(m.BackStake, m.Liability)
}

// Payout returns what the given party receives from this match under the
// verdict, before netting.
func (m *Match) Payout(party PartyID, r Resolution) *num.Uint {
	out := num.UintZero()
	switch r {
	case ResolutionWin:
		if m.BackParty == party {
			out.Add(m.BackStake, m.Liability)
		}
	case ResolutionNotWin:
		if m.LayParty == party {
			out.Add(m.BackStake, m.Liability)
		}
	case ResolutionCancel:
		if m.BackParty == party {
			out.AddSum(m.BackStake)
		}
		if m.LayParty == party {
			out.AddSum(m.Liability)
		}
	}
	return out
}

// Contribution is what the party put into the match.
func (m *Match) Contribution(party PartyID) *num.Uint {
	return m.Payout(party, ResolutionCancel)
}

// Position is a bettor's exposure on one market.
type Position struct {
	Party  PartyID  `json:"party"`
	Market MarketID `json:"market"`
	// Locked is Unmatched plus PayIfCanceled.
	Locked    *num.Uint `json:"locked"`
	Unmatched *num.Uint `json:"unmatched"`
	// Matched exposure: what the party receives under each verdict, after
	// netting.
	PayIfWin      *num.Uint `json:"pay_if_win"`
	PayIfNotWin   *num.Uint `json:"pay_if_not_win"`
	PayIfCanceled *num.Uint `json:"pay_if_canceled"`
	// Contributed is the sum of collateral put into matches, Netted what
	// netting already returned of it.
	Contributed *num.Uint `json:"contributed"`
	Netted      *num.Uint `json:"netted"`
	// Fees held for resting and matched stake.
	UnmatchedFees *num.Uint `json:"unmatched_fees"`
	Fees          *num.Uint `json:"fees"`
	// Refundable is released collateral not yet returned to the general
	// account. It is always zero between operations.
	Refundable *num.Uint `json:"refundable"`
}

func NewPosition(party PartyID, market MarketID) *Position {
	return &Position{
		Party:         party,
		Market:        market,
		Locked:        num.UintZero(),
		Unmatched:     num.UintZero(),
		PayIfWin:      num.UintZero(),
		PayIfNotWin:   num.UintZero(),
		PayIfCanceled: num.UintZero(),
		Contributed:   num.UintZero(),
		Netted:        num.UintZero(),
		UnmatchedFees: num.UintZero(),
		Fees:          num.UintZero(),
		Refundable:    num.UintZero(),
	}
}

func (p *Position) Clone() *Position {
	return &Position{
		Party:         p.Party,
		Market:        p.Market,
		Locked:        p.Locked.Clone(),
		Unmatched:     p.Unmatched.Clone(),
		PayIfWin:      p.PayIfWin.Clone(),
		PayIfNotWin:   p.PayIfNotWin.Clone(),
		PayIfCanceled: p.PayIfCanceled.Clone(),
		Contributed:   p.Contributed.Clone(),
		Netted:        p.Netted.Clone(),
		UnmatchedFees: p.UnmatchedFees.Clone(),
		Fees:          p.Fees.Clone(),
		Refundable:    p.Refundable.Clone(),
	}
}

// PayIf returns the matched payout for a verdict.
func (p *Position) PayIf(r Resolution) *num.Uint {
	switch r {
	case ResolutionWin:
		return p.PayIfWin.Clone()
	case ResolutionNotWin:
		return p.PayIfNotWin.Clone()
	case ResolutionCancel:
		return p.PayIfCanceled.Clone()
	default:
		return num.UintZero()
	}
}

// Held is everything the market escrow holds on behalf of the position.
func (p *Position) Held() *num.Uint {
	return num.Sum(p.Locked, p.UnmatchedFees, p.Fees)
}

// IsEmpty is true once nothing is held nor owed on the position.
func (p *Position) IsEmpty() bool {
	return p.Held().IsZero() && p.Refundable.IsZero() &&
		p.PayIfWin.IsZero() && p.PayIfNotWin.IsZero() && p.Contributed.IsZero()
}

// PositionKey identifies a position.
type PositionKey struct {
	Party  PartyID
	Market MarketID
}

func (k PositionKey) Less(o PositionKey) bool {
	if k.Market != o.Market {
		return k.Market < o.Market
	}
	return k.Party < o.Party
}
