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

	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/exposure"
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/matching"
	"code.vegaprotocol.io/betting/metrics"
	"code.vegaprotocol.io/betting/txn"
	"code.vegaprotocol.io/betting/types"
)

// openMarket returns the staged market and its group if bets can be
// placed or canceled on it.
func (e *Engine) openMarket(st *stage, id types.MarketID) (*types.Market, *types.MarketGroup, error) {
	mkt, ok := st.market(id)
	if !ok {
		return nil, nil, types.ErrMarketNotFound
	}
	if mkt.Status != types.MarketStatusOpen {
		return nil, nil, types.ErrMarketNotOpen
	}
	grp, ok := st.group(mkt.Group)
	if !ok {
		types.PanicInvariant("market", "%s belongs to missing %s", mkt.ID, mkt.Group)
	}
	return mkt, grp, nil
}

func (e *Engine) placeBet(st *stage, cmd txn.BetPlace) error {
	params := st.block.Params
	_, grp, err := e.openMarket(st, cmd.Market)
	if err != nil {
		return err
	}
	if grp.Asset != cmd.Asset {
		return types.ErrAssetMismatch
	}
	if !params.OddsInBounds(cmd.Odds) {
		return types.ErrOddsOutOfBounds
	}
	if _, overflow := cmd.Odds.ReturnOverflow(cmd.Stake); overflow {
		return fmt.Errorf("%w: %s at %s does not fit", types.ErrInvalidStake, cmd.Stake, cmd.Odds)
	}
	fee := params.BetFee(cmd.Stake)
	if fee.GT(cmd.MaxFee) {
		return types.ErrFeeExceedsMax
	}
	collateral := cmd.Odds.Collateral(cmd.Side, cmd.Stake)
	need, overflow := num.UintZero().AddOverflow(collateral, fee)
	if overflow {
		return fmt.Errorf("%w: collateral %s with fee %s does not fit", types.ErrInvalidStake, collateral, fee)
	}
	// every amount locked on the market is backed by its escrow
	escrow := e.collateral.Balance(types.EscrowAccount(cmd.Market, grp.Asset))
	if _, overflow := num.UintZero().AddOverflow(escrow, need); overflow {
		return fmt.Errorf("%w: escrow of %s cannot hold %s more", types.ErrInvalidStake, cmd.Market, need)
	}

	bet := &types.Bet{
		ID:           st.ids.NextBet(),
		Party:        cmd.Party,
		Market:       cmd.Market,
		Side:         cmd.Side,
		Stake:        cmd.Stake.Clone(),
		Odds:         cmd.Odds,
		Remaining:    cmd.Stake.Clone(),
		Collateral:   collateral,
		Fee:          fee,
		UnmatchedFee: fee.Clone(),
		Seq:          st.ids.NextSeq(),
		CreatedAt:    st.block.Height,
	}

	ledger := e.exposure.Ledger(st)
	ledger.Lock(bet.Party, bet.Market, bet.Collateral)
	ledger.HoldFee(bet.Party, bet.Market, bet.Fee)
	st.emit(events.NewBetPlaced(st.ctx, st.block.Height, bet))

	book := st.book(bet.Market)
	fills := book.Match(bet, st.lookupBet)
	parties := []types.PartyID{bet.Party}
	matches := 0
	for _, f := range fills {
		maker, ok := st.bet(f.Bet)
		if !ok {
			types.PanicInvariant("place", "%s crossed missing %s", bet.ID, f.Bet)
		}
		if f.Self {
			e.selfCross(st, ledger, bet, maker, f)
		} else {
			e.fill(st, ledger, bet, maker, f)
			matches++
			parties = appendParty(parties, maker.Party)
		}
		st.emit(events.NewBetAdjusted(st.ctx, st.block.Height, maker))
		if maker.IsFilled() {
			st.deleteBet(maker.ID)
		} else {
			st.setBet(maker)
		}
	}

	if len(fills) > 0 {
		st.emit(events.NewBetAdjusted(st.ctx, st.block.Height, bet))
	}
	if bet.IsFilled() {
		st.deleteBet(bet.ID)
	} else {
		book.Insert(bet)
		st.setBet(bet)
	}

	e.settleRefunds(st, ledger, grp.Asset, bet.Market, parties, bet.Party, need)
	if matches > 0 {
		st.onCommit = append(st.onCommit, func() { metrics.MatchesAdd(matches) })
	}
	return nil
}

func appendParty(parties []types.PartyID, p types.PartyID) []types.PartyID {
	for _, q := range parties {
		if q == p {
			return parties
		}
	}
	return append(parties, p)
}

// reduce takes amount off the remainder of a bet and returns the
// collateral and fee that were behind it.
func reduce(b *types.Bet, amount *num.Uint) (unlocked, fee *num.Uint) {
	if b.Remaining.LT(amount) {
		types.PanicInvariant("reduce", "%s reduced by %s with %s remaining", b.ID, amount, b.Remaining)
	}
	remaining := num.UintZero().Sub(b.Remaining, amount)
	collateral := b.Odds.Collateral(b.Side, remaining)
	unmatchedFee := num.MulDiv(b.Fee, remaining, b.Stake)

	unlocked = num.UintZero().Sub(b.Collateral, collateral)
	fee = num.UintZero().Sub(b.UnmatchedFee, unmatchedFee)
	b.Remaining = remaining
	b.Collateral = collateral
	b.UnmatchedFee = unmatchedFee
	return unlocked, fee
}

// fill creates the match between the incoming bet and a resting bet of
// another party, at the resting bet's odds.
func (e *Engine) fill(st *stage, ledger *exposure.Ledger, taker, maker *types.Bet, f matching.Fill) {
	m := &types.Match{
		ID:        st.ids.NextMatch(),
		Market:    taker.Market,
		Odds:      f.Odds,
		BackStake: f.Amount.Clone(),
		Liability: f.Odds.Liability(f.Amount),
		Maker:     maker.Side,
		CreatedAt: st.block.Height,
	}
	back, lay := taker, maker
	if taker.Side == types.SideLay {
		back, lay = maker, taker
	}
	m.BackBet, m.BackParty = back.ID, back.Party
	m.LayBet, m.LayParty = lay.ID, lay.Party

	for _, b := range []*types.Bet{taker, maker} {
		unlocked, fee := reduce(b, f.Amount)
		ledger.Fill(b.Side, m, b.Party, unlocked)
		ledger.MatchFee(b.Party, b.Market, fee)
	}
	st.addMatch(m)
	st.emit(events.NewBetMatched(st.ctx, st.block.Height, m))

	if e.log.IsDebug() {
		e.log.Debug("bets matched",
			logging.String("match", m.ID.String()),
			logging.BetID(back.ID),
			logging.BetID(lay.ID),
			logging.String("odds", m.Odds.String()),
			logging.Amount("back-stake", m.BackStake),
			logging.Amount("liability", m.Liability),
		)
	}
}

// selfCross offsets the incoming bet against the same party's resting
// bet: no match is created and both portions are released.
func (e *Engine) selfCross(st *stage, ledger *exposure.Ledger, taker, maker *types.Bet, f matching.Fill) {
	for _, b := range []*types.Bet{taker, maker} {
		unlocked, fee := reduce(b, f.Amount)
		ledger.Release(b.Party, b.Market, unlocked)
		ledger.ReleaseFee(b.Party, b.Market, fee)
	}
	e.log.Debug("bet offset against own resting bet",
		logging.Party(taker.Party),
		logging.BetID(taker.ID),
		logging.BetID(maker.ID),
		logging.Amount("amount", f.Amount),
	)
}

// settleRefunds returns what was freed on the market to each party. The
// payer, if any, is first charged need, less what was freed for it.
func (e *Engine) settleRefunds(
	st *stage,
	ledger *exposure.Ledger,
	asset types.AssetID,
	market types.MarketID,
	parties []types.PartyID,
	payer types.PartyID,
	need *num.Uint,
) {
	escrow := types.EscrowAccount(market, asset)
	for _, party := range parties {
		refund := ledger.Flush(party, market)
		general := types.GeneralAccount(party, asset)
		if party != payer || need == nil {
			st.transfer(types.TransferTypeBetRelease, escrow, general, refund)
			continue
		}
		if need.GT(refund) {
			st.transfer(types.TransferTypeBetLock, general, escrow, num.UintZero().Sub(need, refund))
		} else {
			st.transfer(types.TransferTypeBetRelease, escrow, general, num.UintZero().Sub(refund, need))
		}
	}
}

func (e *Engine) cancelBet(st *stage, cmd txn.BetCancel) error {
	b, ok := st.bet(cmd.Bet)
	if !ok {
		return types.ErrBetNotFound
	}
	if b.Party != cmd.Party {
		return types.ErrNotBetOwner
	}
	_, grp, err := e.openMarket(st, b.Market)
	if err != nil {
		return err
	}
	ledger := e.exposure.Ledger(st)
	e.cancel(st, ledger, b)
	e.settleRefunds(st, ledger, grp.Asset, b.Market, []types.PartyID{b.Party}, "", nil)
	return nil
}

// cancel takes a resting bet off its book and releases its collateral
// and fee into the refundable balance.
func (e *Engine) cancel(st *stage, ledger *exposure.Ledger, b *types.Bet) {
	if !st.book(b.Market).Remove(b) {
		types.PanicInvariant("cancel", "%s is not resting on %s", b.ID, b.Market)
	}
	canceled := b.Remaining.Clone()
	unlocked, fee := reduce(b, canceled)
	ledger.Release(b.Party, b.Market, unlocked)
	ledger.ReleaseFee(b.Party, b.Market, fee)
	st.deleteBet(b.ID)
	st.emit(events.NewBetCanceled(st.ctx, st.block.Height, b, canceled, num.Sum(unlocked, fee)))
}

// sweep cancels every resting bet of the markets and refunds them.
func (e *Engine) sweep(st *stage, ledger *exposure.Ledger, grp *types.MarketGroup) int {
	n := 0
	for _, id := range grp.Markets {
		book := st.book(id)
		parties := []types.PartyID{}
		for _, betID := range book.AllBets() {
			b, ok := st.bet(betID)
			if !ok {
				types.PanicInvariant("sweep", "%s rests on %s but does not exist", betID, id)
			}
			e.cancel(st, ledger, b)
			parties = appendParty(parties, b.Party)
			n++
		}
		e.settleRefunds(st, ledger, grp.Asset, id, parties, "", nil)
	}
	return n
}

func (e *Engine) cancelUnmatched(st *stage, cmd txn.GroupCancelUnmatched) error {
	grp, ok := st.group(cmd.Group)
	if !ok {
		return types.ErrGroupNotFound
	}
	if grp.Status == types.GroupStatusResolved {
		return types.ErrGroupAlreadyResolved
	}
	n := e.sweep(st, e.exposure.Ledger(st), grp)
	e.log.Debug("unmatched bets canceled",
		logging.GroupID(grp.ID),
		logging.Int("count", n),
	)
	return nil
}
