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

package exposure

import (
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/types"
)

// Store gives the ledger the positions it works on. The returned position
// is owned by the caller's unit of work and is mutated in place.
type Store interface {
	GetOrCreatePosition(party types.PartyID, market types.MarketID) *types.Position
}

// Ledger does the bookkeeping of collateral locked per bettor and market.
// For every position Locked is Unmatched plus PayIfCanceled.
type Ledger struct {
	log   *logging.Logger
	store Store
}

// Engine builds ledgers bound to a unit of work.
type Engine struct {
	log *logging.Logger
	cfg Config
}

func New(log *logging.Logger, conf Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())
	return &Engine{
		log: log,
		cfg: conf,
	}
}

func (e *Engine) ReloadConf(cfg Config) {
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.cfg = cfg
}

// Ledger returns a ledger working on the positions of store.
func (e *Engine) Ledger(store Store) *Ledger {
	return &Ledger{
		log:   e.log,
		store: store,
	}
}

// Lock adds collateral behind a resting bet.
func (l *Ledger) Lock(party types.PartyID, market types.MarketID, amount *num.Uint) {
	pos := l.store.GetOrCreatePosition(party, market)
	pos.Unmatched.AddSum(amount)
	pos.Locked.AddSum(amount)
}

// Release frees collateral behind resting bets into the refundable
// balance. Releasing more than is locked is a bug.
func (l *Ledger) Release(party types.PartyID, market types.MarketID, amount *num.Uint) {
	pos := l.store.GetOrCreatePosition(party, market)
	if pos.Unmatched.LT(amount) {
		l.log.Error("releasing more than locked",
			logging.Party(party),
			logging.MarketID(market),
			logging.Amount("unmatched", pos.Unmatched),
			logging.Amount("amount", amount),
		)
		types.PanicInvariant("release", "releasing %s with %s unmatched for %s on %s", amount, pos.Unmatched, party, market)
	}
	pos.Unmatched.Sub(pos.Unmatched, amount)
	pos.Locked.Sub(pos.Locked, amount)
	pos.Refundable.AddSum(amount)
}

// RefundableBalance is what has been released for the position and not
// yet returned.
func (l *Ledger) RefundableBalance(party types.PartyID, market types.MarketID) *num.Uint {
	return l.store.GetOrCreatePosition(party, market).Refundable.Clone()
}

// Flush returns and clears the refundable balance.
func (l *Ledger) Flush(party types.PartyID, market types.MarketID) *num.Uint {
	pos := l.store.GetOrCreatePosition(party, market)
	out := pos.Refundable.Clone()
	pos.Refundable = num.UintZero()
	return out
}

// Fill moves a bet's collateral from unmatched to matched. unlocked is
// the drop of the bet's resting collateral, contribution what the party
// puts into the match. The difference, rounding gained by trading at the
// resting odds, becomes refundable.
func (l *Ledger) Fill(side types.Side, m *types.Match, party types.PartyID, unlocked *num.Uint) {
	contribution := m.BackStake
	if side == types.SideLay {
		contribution = m.Liability
	}
	if unlocked.LT(contribution) {
		l.log.Error("match needs more than the bet had locked",
			logging.Party(party),
			logging.MarketID(m.Market),
			logging.Amount("unlocked", unlocked),
			logging.Amount("contribution", contribution),
		)
		types.PanicInvariant("fill", "contribution %s above unlocked %s", contribution, unlocked)
	}

	// free everything the bet had behind the filled part, then lock the
	// contribution again on the matched side
	l.Release(party, m.Market, unlocked)
	pos := l.store.GetOrCreatePosition(party, m.Market)
	pos.Refundable.Sub(pos.Refundable, contribution)
	pos.Locked.AddSum(contribution)
	pos.PayIfCanceled.AddSum(contribution)
	pos.Contributed.AddSum(contribution)
	pot := m.Pot()
	if side == types.SideBack {
		pos.PayIfWin.AddSum(pot)
	} else {
		pos.PayIfNotWin.AddSum(pot)
	}
	l.net(pos)
}

// net releases the part of the matched exposure that is paid out whatever
// the verdict.
func (l *Ledger) net(pos *types.Position) {
	n := num.Min(pos.PayIfWin, num.Min(pos.PayIfNotWin, pos.PayIfCanceled)).Clone()
	if n.IsZero() {
		return
	}
	pos.PayIfWin.Sub(pos.PayIfWin, n)
	pos.PayIfNotWin.Sub(pos.PayIfNotWin, n)
	pos.PayIfCanceled.Sub(pos.PayIfCanceled, n)
	pos.Locked.Sub(pos.Locked, n)
	pos.Netted.AddSum(n)
	pos.Refundable.AddSum(n)
	l.log.Debug("position netted",
		logging.Party(pos.Party),
		logging.MarketID(pos.Market),
		logging.Amount("netted", n),
	)
}

// HoldFee puts a placement fee behind a resting bet.
func (l *Ledger) HoldFee(party types.PartyID, market types.MarketID, fee *num.Uint) {
	pos := l.store.GetOrCreatePosition(party, market)
	pos.UnmatchedFees.AddSum(fee)
}

// ReleaseFee refunds the fee of canceled stake.
func (l *Ledger) ReleaseFee(party types.PartyID, market types.MarketID, fee *num.Uint) {
	pos := l.store.GetOrCreatePosition(party, market)
	if pos.UnmatchedFees.LT(fee) {
		types.PanicInvariant("release fee", "releasing fee %s with %s held for %s on %s", fee, pos.UnmatchedFees, party, market)
	}
	pos.UnmatchedFees.Sub(pos.UnmatchedFees, fee)
	pos.Refundable.AddSum(fee)
}

// MatchFee keeps the fee of matched stake until resolution.
func (l *Ledger) MatchFee(party types.PartyID, market types.MarketID, fee *num.Uint) {
	pos := l.store.GetOrCreatePosition(party, market)
	if pos.UnmatchedFees.LT(fee) {
		types.PanicInvariant("match fee", "matching fee %s with %s held for %s on %s", fee, pos.UnmatchedFees, party, market)
	}
	pos.UnmatchedFees.Sub(pos.UnmatchedFees, fee)
	pos.Fees.AddSum(fee)
}

// CheckPosition panics if the position does not hold together.
func CheckPosition(pos *types.Position) {
	if !pos.Locked.EQ(num.Sum(pos.Unmatched, pos.PayIfCanceled)) {
		types.PanicInvariant("exposure", "%s on %s locks %s, unmatched %s and matched %s", pos.Party, pos.Market, pos.Locked, pos.Unmatched, pos.PayIfCanceled)
	}
	if pos.Netted.GT(pos.Contributed) {
		types.PanicInvariant("exposure", "%s on %s netted %s above contributed %s", pos.Party, pos.Market, pos.Netted, pos.Contributed)
	}
}
