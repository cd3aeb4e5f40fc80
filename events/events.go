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

package events

import (
	"context"

	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/types"
)

type BetPlaced struct {
	*Base
	b types.Bet
}

func NewBetPlaced(ctx context.Context, height uint64, b *types.Bet) *BetPlaced {
	return &BetPlaced{
		Base: newBase(ctx, height, BetPlacedEvent),
		b:    *b.Clone(),
	}
}

func (e BetPlaced) Bet() types.Bet       { return e.b }
func (e BetPlaced) MarketKey() string    { return e.b.Market.String() }
func (e BetPlaced) Payload() interface{} { return e.b }

type BetMatched struct {
	*Base
	m types.Match
}

func NewBetMatched(ctx context.Context, height uint64, m *types.Match) *BetMatched {
	cpy := *m
	cpy.BackStake = m.BackStake.Clone()
	cpy.Liability = m.Liability.Clone()
	return &BetMatched{
		Base: newBase(ctx, height, BetMatchedEvent),
		m:    cpy,
	}
}

func (e BetMatched) Match() types.Match   { return e.m }
func (e BetMatched) MarketKey() string    { return e.m.Market.String() }
func (e BetMatched) Payload() interface{} { return e.m }

// BetAdjusted reports the new unmatched remainder of a bet.
type BetAdjusted struct {
	*Base
	BetID     types.BetID    `json:"bet"`
	Market    types.MarketID `json:"market"`
	Remaining *num.Uint      `json:"remaining"`
}

func NewBetAdjusted(ctx context.Context, height uint64, b *types.Bet) *BetAdjusted {
	return &BetAdjusted{
		Base:      newBase(ctx, height, BetAdjustedEvent),
		BetID:     b.ID,
		Market:    b.Market,
		Remaining: b.Remaining.Clone(),
	}
}

func (e BetAdjusted) MarketKey() string { return e.Market.String() }

func (e BetAdjusted) Payload() interface{} {
	return struct {
		BetID     types.BetID    `json:"bet"`
		Market    types.MarketID `json:"market"`
		Remaining *num.Uint      `json:"remaining"`
	}{e.BetID, e.Market, e.Remaining}
}

// BetCanceled reports a removed remainder and what was refunded for it,
// collateral and unmatched fee included.
type BetCanceled struct {
	*Base
	BetID    types.BetID    `json:"bet"`
	Party    types.PartyID  `json:"party"`
	Market   types.MarketID `json:"market"`
	Canceled *num.Uint      `json:"canceled"`
	Refunded *num.Uint      `json:"refunded"`
}

func NewBetCanceled(ctx context.Context, height uint64, b *types.Bet, canceled, refunded *num.Uint) *BetCanceled {
	return &BetCanceled{
		Base:     newBase(ctx, height, BetCanceledEvent),
		BetID:    b.ID,
		Party:    b.Party,
		Market:   b.Market,
		Canceled: canceled.Clone(),
		Refunded: refunded.Clone(),
	}
}

func (e BetCanceled) MarketKey() string { return e.Market.String() }

func (e BetCanceled) Payload() interface{} {
	return struct {
		BetID    types.BetID    `json:"bet"`
		Party    types.PartyID  `json:"party"`
		Market   types.MarketID `json:"market"`
		Canceled *num.Uint      `json:"canceled"`
		Refunded *num.Uint      `json:"refunded"`
	}{e.BetID, e.Party, e.Market, e.Canceled, e.Refunded}
}

// Payout is what a party received on one market of a resolved group.
type Payout struct {
	Party  types.PartyID  `json:"party"`
	Market types.MarketID `json:"market"`
	Amount *num.Uint      `json:"amount"`
}

// Rake is what was taken from a party's net winnings on the group.
type Rake struct {
	Party  types.PartyID `json:"party"`
	Amount *num.Uint     `json:"amount"`
}

type MarketGroupResolved struct {
	*Base
	Group       types.GroupID                       `json:"group"`
	Resolutions map[types.MarketID]types.Resolution `json:"resolutions"`
	Payouts     []Payout                            `json:"payouts"`
	Rake        []Rake                              `json:"rake"`
	Fees        *num.Uint                           `json:"fees"`
}

func NewMarketGroupResolved(
	ctx context.Context,
	height uint64,
	group types.GroupID,
	resolutions map[types.MarketID]types.Resolution,
	payouts []Payout,
	rake []Rake,
	fees *num.Uint,
) *MarketGroupResolved {
	res := make(map[types.MarketID]types.Resolution, len(resolutions))
	for k, v := range resolutions {
		res[k] = v
	}
	return &MarketGroupResolved{
		Base:        newBase(ctx, height, MarketGroupResolvedEvent),
		Group:       group,
		Resolutions: res,
		Payouts:     payouts,
		Rake:        rake,
		Fees:        fees.Clone(),
	}
}

// TotalRake is the sum of rake collected for the group.
func (e MarketGroupResolved) TotalRake() *num.Uint {
	total := num.UintZero()
	for _, r := range e.Rake {
		total.AddSum(r.Amount)
	}
	return total
}

func (e MarketGroupResolved) Payload() interface{} {
	return struct {
		Group       types.GroupID                       `json:"group"`
		Resolutions map[types.MarketID]types.Resolution `json:"resolutions"`
		Payouts     []Payout                            `json:"payouts"`
		Rake        []Rake                              `json:"rake"`
		Fees        *num.Uint                           `json:"fees"`
	}{e.Group, e.Resolutions, e.Payouts, e.Rake, e.Fees}
}

// Market is sent when a market is created or changes status.
type Market struct {
	*Base
	m types.Market
}

func NewMarketEvent(ctx context.Context, height uint64, m *types.Market) *Market {
	return &Market{
		Base: newBase(ctx, height, MarketEvent),
		m:    *m,
	}
}

func (e Market) Market() types.Market { return e.m }
func (e Market) MarketKey() string    { return e.m.ID.String() }
func (e Market) Payload() interface{} { return e.m }

type MarketGroup struct {
	*Base
	g types.MarketGroup
}

func NewMarketGroupEvent(ctx context.Context, height uint64, g *types.MarketGroup) *MarketGroup {
	return &MarketGroup{
		Base: newBase(ctx, height, MarketGroupEvent),
		g:    *g.Clone(),
	}
}

func (e MarketGroup) MarketGroup() types.MarketGroup { return e.g }
func (e MarketGroup) Payload() interface{}           { return e.g }

type Rules struct {
	*Base
	r types.Rules
}

func NewRulesEvent(ctx context.Context, height uint64, r *types.Rules) *Rules {
	return &Rules{
		Base: newBase(ctx, height, RulesEvent),
		r:    *r,
	}
}

func (e Rules) Rules() types.Rules   { return e.r }
func (e Rules) Payload() interface{} { return e.r }

// LedgerMovements lists the balance changes an operation committed.
type LedgerMovements struct {
	*Base
	movements []*types.LedgerMovement
}

func NewLedgerMovements(ctx context.Context, height uint64, movements []*types.LedgerMovement) *LedgerMovements {
	return &LedgerMovements{
		Base:      newBase(ctx, height, LedgerMovementsEvent),
		movements: movements,
	}
}

func (e LedgerMovements) Movements() []*types.LedgerMovement { return e.movements }
func (e LedgerMovements) Payload() interface{}               { return e.movements }
