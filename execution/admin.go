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
	"code.vegaprotocol.io/betting/matching"
	"code.vegaprotocol.io/betting/txn"
	"code.vegaprotocol.io/betting/types"
)

func (e *Engine) deposit(st *stage, cmd txn.Deposit) error {
	st.transfer(types.TransferTypeDeposit,
		types.ExternalAccount(cmd.Asset),
		types.GeneralAccount(cmd.Party, cmd.Asset),
		cmd.Amount,
	)
	return nil
}

func (e *Engine) withdraw(st *stage, cmd txn.Withdraw) error {
	st.transfer(types.TransferTypeWithdraw,
		types.GeneralAccount(cmd.Party, cmd.Asset),
		types.ExternalAccount(cmd.Asset),
		cmd.Amount,
	)
	return nil
}

func (e *Engine) createRules(st *stage, cmd txn.RulesCreate) error {
	r := &types.Rules{
		ID:          st.ids.NextRules(),
		Name:        cmd.Name,
		Description: cmd.Description,
	}
	st.rules[r.ID] = r
	st.emit(events.NewRulesEvent(st.ctx, st.block.Height, r))
	return nil
}

func (e *Engine) updateRules(st *stage, cmd txn.RulesUpdate) error {
	r, ok := st.rule(cmd.Rules)
	if !ok {
		return types.ErrRulesNotFound
	}
	if cmd.Name != nil {
		r.Name = *cmd.Name
	}
	if cmd.Description != nil {
		r.Description = *cmd.Description
	}
	st.emit(events.NewRulesEvent(st.ctx, st.block.Height, r))
	return nil
}

func (e *Engine) createGroup(st *stage, cmd txn.MarketGroupCreate) error {
	if _, ok := st.rule(cmd.Rules); !ok {
		return types.ErrRulesNotFound
	}
	g := &types.MarketGroup{
		ID:          st.ids.NextGroup(),
		Description: cmd.Description,
		Asset:       cmd.Asset,
		Rules:       cmd.Rules,
		Markets:     []types.MarketID{},
		Status:      types.GroupStatusUnresolved,
	}
	st.groups[g.ID] = g
	st.emit(events.NewMarketGroupEvent(st.ctx, st.block.Height, g))
	e.log.Info("market group created",
		logging.GroupID(g.ID),
		logging.String("asset", g.Asset.String()),
	)
	return nil
}

// unresolvedGroup returns the staged group if its markets can still change.
func (e *Engine) unresolvedGroup(st *stage, id types.GroupID) (*types.MarketGroup, error) {
	g, ok := st.group(id)
	if !ok {
		return nil, types.ErrGroupNotFound
	}
	if g.Status == types.GroupStatusResolved {
		return nil, types.ErrGroupAlreadyResolved
	}
	return g, nil
}

func (e *Engine) updateGroup(st *stage, cmd txn.MarketGroupUpdate) error {
	g, err := e.unresolvedGroup(st, cmd.Group)
	if err != nil {
		return err
	}
	if cmd.Rules != nil {
		if _, ok := st.rule(*cmd.Rules); !ok {
			return types.ErrRulesNotFound
		}
		g.Rules = *cmd.Rules
	}
	if cmd.Description != nil {
		g.Description = *cmd.Description
	}
	if cmd.Freeze != nil {
		for _, id := range g.Markets {
			mkt, ok := st.market(id)
			if !ok {
				types.PanicInvariant("update group", "%s lists missing %s", g.ID, id)
			}
			if setFrozen(mkt, *cmd.Freeze) {
				st.emit(events.NewMarketEvent(st.ctx, st.block.Height, mkt))
			}
		}
	}
	st.emit(events.NewMarketGroupEvent(st.ctx, st.block.Height, g))
	return nil
}

// setFrozen moves a market between open and frozen and reports whether
// it changed. Final markets never change.
func setFrozen(mkt *types.Market, freeze bool) bool {
	if mkt.Status.IsFinal() {
		return false
	}
	status := types.MarketStatusOpen
	if freeze {
		status = types.MarketStatusFrozen
	}
	if mkt.Status == status {
		return false
	}
	mkt.Status = status
	return true
}

func (e *Engine) createMarket(st *stage, cmd txn.MarketCreate) error {
	g, err := e.unresolvedGroup(st, cmd.Group)
	if err != nil {
		return err
	}
	mkt := &types.Market{
		ID:          st.ids.NextMarket(),
		Group:       g.ID,
		Description: cmd.Description,
		Status:      types.MarketStatusOpen,
	}
	g.Markets = append(g.Markets, mkt.ID)
	st.markets[mkt.ID] = mkt
	st.addBook(matching.NewOrderBook(e.log, e.Matching, mkt.ID))
	st.emit(
		events.NewMarketEvent(st.ctx, st.block.Height, mkt),
		events.NewMarketGroupEvent(st.ctx, st.block.Height, g),
	)
	e.log.Info("market created",
		logging.MarketID(mkt.ID),
		logging.GroupID(g.ID),
	)
	return nil
}

func (e *Engine) updateMarket(st *stage, cmd txn.MarketUpdate) error {
	mkt, ok := st.market(cmd.Market)
	if !ok {
		return types.ErrMarketNotFound
	}
	if mkt.Status.IsFinal() {
		return types.ErrMarketFinal
	}
	if cmd.Description != nil {
		mkt.Description = *cmd.Description
	}
	if cmd.Freeze != nil {
		setFrozen(mkt, *cmd.Freeze)
	}
	st.emit(events.NewMarketEvent(st.ctx, st.block.Height, mkt))
	return nil
}
