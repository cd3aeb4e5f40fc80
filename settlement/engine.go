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

package settlement

import (
	"sort"

	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/metrics"
	"code.vegaprotocol.io/betting/types"
)

// Group is a market group whose markets all carry a verdict, with every
// position and match on its markets. Resting bets must have been swept
// before it is settled.
type Group struct {
	ID        types.GroupID
	Asset     types.AssetID
	Markets   []*types.Market
	Positions []*types.Position
	Matches   []*types.Match
}

// Result is the outcome of settling a group. Transfers pay every
// position out of its market escrow, collect or refund the matched fees
// and finally take the rake from the winners.
type Result struct {
	Payouts   []events.Payout
	Rake      []events.Rake
	Fees      *num.Uint
	Transfers []*types.Transfer
}

// TotalRake is the rake taken from every party.
func (r *Result) TotalRake() *num.Uint {
	total := num.UintZero()
	for _, rk := range r.Rake {
		total.AddSum(rk.Amount)
	}
	return total
}

// Engine - the settlement and rake calculator.
type Engine struct {
	Config
	log *logging.Logger
}

// New instantiates a new instance of the settlement engine.
func New(log *logging.Logger, conf Config) *Engine {
	// setup logger
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		Config: conf,
		log:    log,
	}
}

// ReloadConf update the internal configuration of the settlement engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.Config = cfg
}

// winLoss is a party's net result on the group, kept as two unsigned sums.
type winLoss struct {
	win  *num.Uint
	loss *num.Uint
}

// Settle computes the payouts of a group. It does not change the
// positions nor the matches it is given, and its result does not depend
// on the order they are given in.
func (e *Engine) Settle(g Group, params types.Params) *Result {
	timer := metrics.NewTimeCounter(g.ID.String(), "settlement", "Settle")
	defer timer.EngineTimeCounterAdd()

	verdicts := make(map[types.MarketID]types.Resolution, len(g.Markets))
	for _, m := range g.Markets {
		if m.Resolution == types.ResolutionUnspecified {
			e.log.Error("settling a market without verdict",
				logging.GroupID(g.ID),
				logging.MarketID(m.ID),
			)
			types.PanicInvariant("settle", "%s has no verdict", m.ID)
		}
		verdicts[m.ID] = m.Resolution
	}

	gross := map[types.PositionKey]*num.Uint{}
	for _, m := range g.Matches {
		r, ok := verdicts[m.Market]
		if !ok {
			e.log.Error("settling a match outside the group",
				logging.GroupID(g.ID),
				logging.String("match", m.ID.String()),
				logging.MarketID(m.Market),
			)
			types.PanicInvariant("settle", "%s is on %s outside %s", m.ID, m.Market, g.ID)
		}
		for _, party := range []types.PartyID{m.BackParty, m.LayParty} {
			k := types.PositionKey{Party: party, Market: m.Market}
			if _, ok := gross[k]; !ok {
				gross[k] = num.UintZero()
			}
			gross[k].AddSum(m.Payout(party, r))
		}
	}

	positions := make([]*types.Position, len(g.Positions))
	copy(positions, g.Positions)
	sort.Slice(positions, func(i, j int) bool {
		return types.PositionKey{Party: positions[i].Party, Market: positions[i].Market}.Less(
			types.PositionKey{Party: positions[j].Party, Market: positions[j].Market})
	})

	res := &Result{
		Fees:      num.UintZero(),
		Transfers: make([]*types.Transfer, 0, len(positions)*2),
	}
	paid := map[types.MarketID]*num.Uint{}
	locked := map[types.MarketID]*num.Uint{}
	results := map[types.PartyID]*winLoss{}
	for _, pos := range positions {
		r, ok := verdicts[pos.Market]
		if !ok {
			types.PanicInvariant("settle", "position of %s on %s outside %s", pos.Party, pos.Market, g.ID)
		}
		if !pos.Unmatched.IsZero() || !pos.UnmatchedFees.IsZero() {
			e.log.Error("settling a position with resting stake",
				logging.Party(pos.Party),
				logging.MarketID(pos.Market),
				logging.Amount("unmatched", pos.Unmatched),
			)
			types.PanicInvariant("settle", "%s still has %s resting on %s", pos.Party, pos.Unmatched, pos.Market)
		}

		k := types.PositionKey{Party: pos.Party, Market: pos.Market}
		grs, ok := gross[k]
		if !ok {
			grs = num.UintZero()
		}
		delete(gross, k)
		if grs.LT(pos.Netted) {
			types.PanicInvariant("settle", "%s on %s netted %s above gross %s", pos.Party, pos.Market, pos.Netted, grs)
		}
		payout := num.UintZero().Sub(grs, pos.Netted)
		if !payout.EQ(pos.PayIf(r)) {
			e.log.Error("payout does not match the position",
				logging.Party(pos.Party),
				logging.MarketID(pos.Market),
				logging.String("verdict", r.String()),
				logging.Amount("payout", payout),
				logging.Amount("expected", pos.PayIf(r)),
			)
			types.PanicInvariant("settle", "%s on %s is paid %s, position says %s", pos.Party, pos.Market, payout, pos.PayIf(r))
		}

		escrow := types.EscrowAccount(pos.Market, g.Asset)
		general := types.GeneralAccount(pos.Party, g.Asset)
		if !payout.IsZero() {
			res.Payouts = append(res.Payouts, events.Payout{
				Party:  pos.Party,
				Market: pos.Market,
				Amount: payout.Clone(),
			})
			res.Transfers = append(res.Transfers, &types.Transfer{
				Type:   types.TransferTypePayout,
				From:   escrow,
				To:     general,
				Amount: payout.Clone(),
			})
		}
		if !pos.Fees.IsZero() {
			if r == types.ResolutionCancel {
				res.Transfers = append(res.Transfers, &types.Transfer{
					Type:   types.TransferTypeBetRelease,
					From:   escrow,
					To:     general,
					Amount: pos.Fees.Clone(),
				})
			} else {
				res.Fees.AddSum(pos.Fees)
				res.Transfers = append(res.Transfers, &types.Transfer{
					Type:   types.TransferTypeFeeCollect,
					From:   escrow,
					To:     types.FeePoolAccount(g.Asset),
					Amount: pos.Fees.Clone(),
				})
			}
		}

		if _, ok := paid[pos.Market]; !ok {
			paid[pos.Market], locked[pos.Market] = num.UintZero(), num.UintZero()
		}
		paid[pos.Market].AddSum(payout)
		locked[pos.Market].AddSum(pos.Locked)

		wl, ok := results[pos.Party]
		if !ok {
			wl = &winLoss{win: num.UintZero(), loss: num.UintZero()}
			results[pos.Party] = wl
		}
		wl.win.AddSum(grs)
		wl.loss.AddSum(pos.Contributed)
	}
	if len(gross) > 0 {
		types.PanicInvariant("settle", "%d matched parties have no position in %s", len(gross), g.ID)
	}
	for mkt, p := range paid {
		if !p.EQ(locked[mkt]) {
			e.log.Error("market escrow does not pay out in full",
				logging.MarketID(mkt),
				logging.Amount("paid", p),
				logging.Amount("locked", locked[mkt]),
			)
			types.PanicInvariant("settle", "%s pays %s with %s locked", mkt, p, locked[mkt])
		}
	}

	parties := make([]types.PartyID, 0, len(results))
	for p := range results {
		parties = append(parties, p)
	}
	sort.Slice(parties, func(i, j int) bool { return parties[i] < parties[j] })
	for _, party := range parties {
		wl := results[party]
		if wl.win.LTE(wl.loss) {
			continue
		}
		net := num.UintZero().Sub(wl.win, wl.loss)
		rake := params.Rake(net)
		if rake.IsZero() {
			continue
		}
		e.log.Debug("rake on net winnings",
			logging.Party(party),
			logging.Amount("net", net),
			logging.Amount("rake", rake),
		)
		res.Rake = append(res.Rake, events.Rake{Party: party, Amount: rake.Clone()})
		res.Transfers = append(res.Transfers, &types.Transfer{
			Type:   types.TransferTypeRake,
			From:   types.GeneralAccount(party, g.Asset),
			To:     types.FeePoolAccount(g.Asset),
			Amount: rake,
		})
	}
	return res
}
