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
	"context"
	"errors"
	"time"

	"code.vegaprotocol.io/betting/collateral"
	"code.vegaprotocol.io/betting/events"
	"code.vegaprotocol.io/betting/exposure"
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/matching"
	"code.vegaprotocol.io/betting/metrics"
	"code.vegaprotocol.io/betting/settlement"
	"code.vegaprotocol.io/betting/txn"
	"code.vegaprotocol.io/betting/types"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrNilOperation is returned when Apply is given no operation.
var ErrNilOperation = errors.New("no operation")

// Broker - the event bus broker, send events here.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks code.vegaprotocol.io/betting/execution Broker
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// Engine is the execution engine: it applies operations one at a time,
// each one either fully or not at all.
type Engine struct {
	Config
	log *logging.Logger

	collateral *collateral.Engine
	exposure   *exposure.Engine
	settlement *settlement.Engine
	broker     Broker

	state *state
}

// New takes the collateral engine and the broker and returns an
// execution engine with no markets.
func New(log *logging.Logger, executionConfig Config, col *collateral.Engine, broker Broker) *Engine {
	// setup logger
	log = log.Named(namedLogger)
	log.SetLevel(executionConfig.Level.Get())

	return &Engine{
		Config:     executionConfig,
		log:        log,
		collateral: col,
		exposure:   exposure.New(log, executionConfig.Exposure),
		settlement: settlement.New(log, executionConfig.Settlement),
		broker:     broker,
		state:      newState(),
	}
}

// ReloadConf updates the internal configuration of the execution
// engine and of the engines it owns.
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
	e.exposure.ReloadConf(cfg.Exposure)
	e.settlement.ReloadConf(cfg.Settlement)
	for _, b := range e.state.books {
		b.ReloadConf(cfg.Matching)
	}
}

// Apply validates and applies one operation. A returned error is a
// validation failure and nothing was changed. Invariant violations are
// logged and panic with a *types.InvariantViolation, leaving the state as
// it was before the operation unless the failure happens after commit.
func (e *Engine) Apply(ctx context.Context, block types.BlockContext, op txn.Operation) (err error) {
	if op == nil {
		return ErrNilOperation
	}
	command := op.Command().String()
	timer := metrics.NewTimeCounter("-", "execution", "Apply")
	start := time.Now()
	defer func() {
		timer.EngineTimeCounterAdd()
		if r := recover(); r != nil {
			e.log.Error("operation aborted",
				logging.String("command", command),
				logging.BlockHeight(block.Height),
				logging.Reflect("reason", r),
			)
			metrics.OperationApplied(command, "aborted", time.Since(start))
			panic(r)
		}
		result := "accepted"
		if err != nil {
			result = types.ReasonFor(err).String()
			if e.log.IsDebug() {
				e.log.Debug("operation rejected",
					logging.String("command", command),
					logging.BlockHeight(block.Height),
					logging.Error(err),
				)
			}
		}
		metrics.OperationApplied(command, result, time.Since(start))
	}()

	if err := txn.CheckOperation(op); err != nil {
		return err
	}
	if err := block.Params.Validate(); err != nil {
		return err
	}

	st := newStage(ctx, block, e.state)
	if err := e.apply(st, op); err != nil {
		return err
	}
	return e.commit(st)
}

func (e *Engine) apply(st *stage, op txn.Operation) error {
	switch o := op.(type) {
	case txn.BetPlace:
		return e.placeBet(st, o)
	case txn.BetCancel:
		return e.cancelBet(st, o)
	case txn.GroupCancelUnmatched:
		return e.cancelUnmatched(st, o)
	case txn.GroupResolve:
		return e.resolveGroup(st, o)
	case txn.Deposit:
		return e.deposit(st, o)
	case txn.Withdraw:
		return e.withdraw(st, o)
	case txn.RulesCreate:
		return e.createRules(st, o)
	case txn.RulesUpdate:
		return e.updateRules(st, o)
	case txn.MarketGroupCreate:
		return e.createGroup(st, o)
	case txn.MarketGroupUpdate:
		return e.updateGroup(st, o)
	case txn.MarketCreate:
		return e.createMarket(st, o)
	case txn.MarketUpdate:
		return e.updateMarket(st, o)
	default:
		// CheckOperation only lets the kinds above through
		types.PanicInvariant("apply", "unhandled operation %T", op)
		return nil
	}
}

// commit moves the funds of the stage then writes it. Only a general
// account running short can fail, in which case nothing is written.
func (e *Engine) commit(st *stage) error {
	movements, err := e.collateral.Apply(st.transfers)
	if err != nil {
		return err
	}
	st.commit()
	if e.CheckEscrow {
		e.checkEscrow(st.touched)
	}

	evts := st.events
	if len(movements) > 0 {
		evts = append(evts, events.NewLedgerMovements(st.ctx, st.block.Height, movements))
	}
	if len(evts) > 0 {
		e.broker.SendBatch(evts)
	}
	for _, f := range st.onCommit {
		f()
	}
	metrics.RestingBetsSet(e.state.resting())
	return nil
}

// checkEscrow panics if a market escrow does not hold exactly what its
// positions account for.
func (e *Engine) checkEscrow(markets []types.MarketID) {
	for _, id := range markets {
		mkt, ok := e.state.markets[id]
		if !ok {
			continue
		}
		grp := e.state.groups[mkt.Group]
		held := num.UintZero()
		for _, pos := range e.state.positions[id] {
			exposure.CheckPosition(pos)
			held.AddSum(pos.Held())
		}
		balance := e.collateral.Balance(types.EscrowAccount(id, grp.Asset))
		if !balance.EQ(held) {
			e.log.Error("escrow does not match positions",
				logging.MarketID(id),
				logging.Amount("escrow", balance),
				logging.Amount("held", held),
			)
			types.PanicInvariant("escrow", "%s escrow holds %s, positions hold %s", id, balance, held)
		}
	}
}

// GetBet returns a copy of a resting bet.
func (e *Engine) GetBet(id types.BetID) (*types.Bet, error) {
	b, ok := e.state.bets[id]
	if !ok {
		return nil, types.ErrBetNotFound
	}
	return b.Clone(), nil
}

func (e *Engine) GetMarket(id types.MarketID) (*types.Market, error) {
	m, ok := e.state.markets[id]
	if !ok {
		return nil, types.ErrMarketNotFound
	}
	return m.Clone(), nil
}

func (e *Engine) GetGroup(id types.GroupID) (*types.MarketGroup, error) {
	g, ok := e.state.groups[id]
	if !ok {
		return nil, types.ErrGroupNotFound
	}
	return g.Clone(), nil
}

func (e *Engine) GetRules(id types.RulesID) (*types.Rules, error) {
	r, ok := e.state.rules[id]
	if !ok {
		return nil, types.ErrRulesNotFound
	}
	return r.Clone(), nil
}

// GetPosition returns a copy of the position of a party on a market, an
// empty one if the party has none.
func (e *Engine) GetPosition(party types.PartyID, market types.MarketID) *types.Position {
	if pos, ok := e.state.position(party, market); ok {
		return pos.Clone()
	}
	return types.NewPosition(party, market)
}

// GetMatches returns the unsettled matches of a market in creation order.
func (e *Engine) GetMatches(market types.MarketID) []*types.Match {
	ms := e.state.matches[market]
	out := make([]*types.Match, 0, len(ms))
	for _, m := range ms {
		out = append(out, cloneMatch(m))
	}
	return out
}

// BookDepth aggregates the resting bets of one side of a market by odds,
// in matching priority.
func (e *Engine) BookDepth(market types.MarketID, side types.Side) ([]matching.PriceLevel, error) {
	if side != types.SideBack && side != types.SideLay {
		return nil, types.ErrInvalidSide
	}
	b, ok := e.state.books[market]
	if !ok {
		return nil, types.ErrMarketNotFound
	}
	return b.Depth(side, func(id types.BetID) *types.Bet { return e.state.bets[id] }), nil
}

// Balance is the general account balance of a party.
func (e *Engine) Balance(party types.PartyID, asset types.AssetID) *num.Uint {
	return e.collateral.GeneralBalance(party, asset)
}

func (e *Engine) FeePool(asset types.AssetID) *num.Uint {
	return e.collateral.Balance(types.FeePoolAccount(asset))
}

// Markets returns the identifiers of every market, sorted.
func (e *Engine) Markets() []types.MarketID {
	out := maps.Keys(e.state.markets)
	slices.Sort(out)
	return out
}

func cloneMatch(m *types.Match) *types.Match {
	cpy := *m
	cpy.BackStake = m.BackStake.Clone()
	cpy.Liability = m.Liability.Clone()
	return &cpy
}
