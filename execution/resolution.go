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
	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/metrics"
	"code.vegaprotocol.io/betting/settlement"
	"code.vegaprotocol.io/betting/txn"
	"code.vegaprotocol.io/betting/types"
)

// validateResolutions checks that every market of the group, and only
// those, gets a verdict, and that either exactly one market wins or all
// are canceled.
func validateResolutions(grp *types.MarketGroup, resolutions map[types.MarketID]types.Resolution) error {
	members := make(map[types.MarketID]struct{}, len(grp.Markets))
	for _, id := range grp.Markets {
		members[id] = struct{}{}
	}
	for id := range resolutions {
		if _, ok := members[id]; !ok {
			return types.ErrUnknownMarket
		}
	}

	wins, cancels := 0, 0
	for _, id := range grp.Markets {
		r, ok := resolutions[id]
		if !ok {
			return types.ErrMissingResolution
		}
		switch r {
		case types.ResolutionWin:
			wins++
		case types.ResolutionCancel:
			cancels++
		case types.ResolutionNotWin:
		default:
			return types.ErrInvalidResolution
		}
	}
	if wins > 1 || (wins == 0 && cancels != len(grp.Markets)) {
		return types.ErrInvalidResolution
	}
	return nil
}

func (e *Engine) resolveGroup(st *stage, cmd txn.GroupResolve) error {
	grp, ok := st.group(cmd.Group)
	if !ok {
		return types.ErrGroupNotFound
	}
	if grp.Status == types.GroupStatusResolved {
		return types.ErrGroupAlreadyResolved
	}
	if err := validateResolutions(grp, cmd.Resolutions); err != nil {
		return err
	}

	// resting bets are refunded in full before anything is settled
	swept := e.sweep(st, e.exposure.Ledger(st), grp)

	g := settlement.Group{
		ID:    grp.ID,
		Asset: grp.Asset,
	}
	outcome := "cancel"
	for _, id := range grp.Markets {
		mkt, ok := st.market(id)
		if !ok {
			types.PanicInvariant("resolve", "%s lists missing %s", grp.ID, id)
		}
		r := cmd.Resolutions[id]
		mkt.Resolution = r
		mkt.Status = types.MarketStatusResolved
		if r == types.ResolutionCancel {
			mkt.Status = types.MarketStatusCanceled
		}
		if r == types.ResolutionWin {
			outcome = "win"
		}
		g.Markets = append(g.Markets, mkt)
		g.Positions = append(g.Positions, st.marketPositions(id)...)
		g.Matches = append(g.Matches, st.marketMatches(id)...)
	}

	res := e.settlement.Settle(g, st.block.Params)
	st.transfers = append(st.transfers, res.Transfers...)
	for _, id := range grp.Markets {
		st.deletePositions(id)
		st.deleteMatches(id)
	}
	grp.Status = types.GroupStatusResolved

	for _, mkt := range g.Markets {
		st.emit(events.NewMarketEvent(st.ctx, st.block.Height, mkt))
	}
	st.emit(
		events.NewMarketGroupEvent(st.ctx, st.block.Height, grp),
		events.NewMarketGroupResolved(st.ctx, st.block.Height, grp.ID, cmd.Resolutions, res.Payouts, res.Rake, res.Fees),
	)

	rake := res.TotalRake()
	st.onCommit = append(st.onCommit, func() {
		metrics.GroupResolved(outcome)
		f, _ := rake.ToDecimal().Float64()
		metrics.RakeCollectedAdd(grp.Asset.String(), f)
	})
	e.log.Info("market group resolved",
		logging.GroupID(grp.ID),
		logging.String("outcome", outcome),
		logging.Int("swept", swept),
		logging.Int("matches", len(g.Matches)),
		logging.Amount("rake", rake),
		logging.Amount("fees", res.Fees),
	)
	return nil
}
