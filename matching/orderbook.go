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

package matching

import (
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/types"

	"github.com/google/btree"
)

const btreeDegree = 16

// entry is the position of a resting bet in its side of the book. Amounts
// stay on the bet itself.
type entry struct {
	odds types.Odds
	seq  uint64
	id   types.BetID
}

// resting lays are scanned highest odds first, as a backer wants the best
// price, and resting backs lowest odds first. Older bets go first within
// an odds level.
func layLess(a, b entry) bool {
	if a.odds != b.odds {
		return a.odds > b.odds
	}
	return a.seq < b.seq
}

func backLess(a, b entry) bool {
	if a.odds != b.odds {
		return a.odds < b.odds
	}
	return a.seq < b.seq
}

// Lookup returns the resting bet behind a book entry.
type Lookup func(types.BetID) *types.Bet

// Fill is one resting bet crossed by an incoming one, at the resting odds.
type Fill struct {
	Bet    types.BetID
	Party  types.PartyID
	Odds   types.Odds
	Amount *num.Uint
	// Self is set when both bets belong to the same party.
	Self bool
}

// PriceLevel aggregates the resting stake at one odds value.
type PriceLevel struct {
	Odds   types.Odds `json:"odds"`
	Amount *num.Uint  `json:"amount"`
	Count  int        `json:"count"`
}

// OrderBook holds the resting bets of one market.
type OrderBook struct {
	log    *logging.Logger
	cfg    Config
	market types.MarketID

	backs *btree.BTreeG[entry]
	lays  *btree.BTreeG[entry]
}

// NewOrderBook creates an empty book for the market.
func NewOrderBook(log *logging.Logger, conf Config, market types.MarketID) *OrderBook {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())
	return &OrderBook{
		log:    log,
		cfg:    conf,
		market: market,
		backs:  btree.NewG(btreeDegree, backLess),
		lays:   btree.NewG(btreeDegree, layLess),
	}
}

// Clone returns a book that can be changed without affecting this one.
// Copying is lazy so cloning is cheap.
func (b *OrderBook) Clone() *OrderBook {
	return &OrderBook{
		log:    b.log,
		cfg:    b.cfg,
		market: b.market,
		backs:  b.backs.Clone(),
		lays:   b.lays.Clone(),
	}
}

func (b *OrderBook) ReloadConf(cfg Config) {
	if b.log.GetLevel() != cfg.Level.Get() {
		b.log.SetLevel(cfg.Level.Get())
	}
	b.cfg = cfg
}

func (b *OrderBook) MarketID() types.MarketID {
	return b.market
}

func (b *OrderBook) side(s types.Side) *btree.BTreeG[entry] {
	switch s {
	case types.SideBack:
		return b.backs
	case types.SideLay:
		return b.lays
	default:
		b.log.Panic("invalid side", logging.String("side", s.String()))
		return nil
	}
}

// crosses tells whether an incoming bet at odds accepts a resting bet at
// restingOdds: a back takes lays at its odds or more, a lay takes backs at
// its odds or less.
func crosses(incoming types.Side, odds, restingOdds types.Odds) bool {
	if incoming == types.SideBack {
		return restingOdds >= odds
	}
	return restingOdds <= odds
}

// Match crosses the incoming bet against the opposite side in priority
// order and returns the fills. Fully filled resting bets leave the book.
// Neither bet is modified.
func (b *OrderBook) Match(incoming *types.Bet, get Lookup) []Fill {
	if incoming.Market != b.market {
		b.log.Panic("bet matched on the wrong book",
			logging.BetID(incoming.ID),
			logging.MarketID(incoming.Market),
			logging.MarketID(b.market))
	}
	opposite := b.side(incoming.Side.Opposite())
	remaining := incoming.Remaining.Clone()
	fills := []Fill{}
	consumed := []entry{}

	opposite.Ascend(func(e entry) bool {
		if remaining.IsZero() || !crosses(incoming.Side, incoming.Odds, e.odds) {
			return false
		}
		rest := get(e.id)
		if rest == nil || rest.Remaining.IsZero() {
			types.PanicInvariant("match", "%s rests on %s without remainder", e.id, b.market)
		}
		amount := num.Min(remaining, rest.Remaining).Clone()
		fills = append(fills, Fill{
			Bet:    e.id,
			Party:  rest.Party,
			Odds:   e.odds,
			Amount: amount,
			Self:   rest.Party == incoming.Party,
		})
		remaining.Sub(remaining, amount)
		if amount.EQ(rest.Remaining) {
			consumed = append(consumed, e)
		}
		return true
	})

	for _, e := range consumed {
		opposite.Delete(e)
	}

	if b.cfg.LogMatchedBetsDebug && b.log.IsDebug() {
		for _, f := range fills {
			b.log.Debug("bet crossed",
				logging.BetID(incoming.ID),
				logging.BetID(f.Bet),
				logging.String("odds", f.Odds.String()),
				logging.Amount("amount", f.Amount),
				logging.Bool("self", f.Self))
		}
	}
	return fills
}

// Insert adds a resting bet.
func (b *OrderBook) Insert(bet *types.Bet) {
	if bet.Remaining.IsZero() {
		types.PanicInvariant("insert", "%s has no remainder", bet.ID)
	}
	if _, replaced := b.side(bet.Side).ReplaceOrInsert(entry{odds: bet.Odds, seq: bet.Seq, id: bet.ID}); replaced {
		types.PanicInvariant("insert", "%s already rests on %s", bet.ID, b.market)
	}
}

// Remove takes a bet out of the book, it returns false if it was not there.
func (b *OrderBook) Remove(bet *types.Bet) bool {
	_, ok := b.side(bet.Side).Delete(entry{odds: bet.Odds, seq: bet.Seq, id: bet.ID})
	return ok
}

// Bets returns the resting bets of a side in priority order.
func (b *OrderBook) Bets(side types.Side) []types.BetID {
	s := b.side(side)
	out := make([]types.BetID, 0, s.Len())
	s.Ascend(func(e entry) bool {
		out = append(out, e.id)
		return true
	})
	return out
}

// AllBets returns the resting backs then the resting lays.
func (b *OrderBook) AllBets() []types.BetID {
	return append(b.Bets(types.SideBack), b.Bets(types.SideLay)...)
}

// BestOdds returns the odds of the first bet to match on a side.
func (b *OrderBook) BestOdds(side types.Side) (types.Odds, bool) {
	e, ok := b.side(side).Min()
	return e.odds, ok
}

// Depth aggregates a side by odds, best level first.
func (b *OrderBook) Depth(side types.Side, get Lookup) []PriceLevel {
	levels := []PriceLevel{}
	b.side(side).Ascend(func(e entry) bool {
		bet := get(e.id)
		if bet == nil {
			return true
		}
		if n := len(levels); n > 0 && levels[n-1].Odds == e.odds {
			levels[n-1].Amount.AddSum(bet.Remaining)
			levels[n-1].Count++
			return true
		}
		levels = append(levels, PriceLevel{Odds: e.odds, Amount: bet.Remaining.Clone(), Count: 1})
		return true
	})
	return levels
}

func (b *OrderBook) Len() int {
	return b.backs.Len() + b.lays.Len()
}
