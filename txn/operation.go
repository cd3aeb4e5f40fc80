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

package txn

import (
	"code.vegaprotocol.io/betting/libs/num"
	"code.vegaprotocol.io/betting/types"
)

// Operation is one of the operation kinds declared in this package. The
// set is closed: only types in this package implement it.
type Operation interface {
	Command() Command
	operation()
}

// BetPlace places a back or lay wager. Stake is in back-equivalent units
// for both sides.
type BetPlace struct {
	Party  types.PartyID  `json:"party"`
	Market types.MarketID `json:"market"`
	Side   types.Side     `json:"side"`
	Asset  types.AssetID  `json:"asset"`
	Stake  *num.Uint      `json:"stake"`
	Odds   types.Odds     `json:"odds"`
	MaxFee *num.Uint      `json:"max_fee"`
}

// BetCancel cancels the unmatched remainder of a bet by its owner.
type BetCancel struct {
	Party types.PartyID `json:"party"`
	Bet   types.BetID   `json:"bet"`
}

// GroupCancelUnmatched sweeps every resting bet of a group's markets.
type GroupCancelUnmatched struct {
	Group types.GroupID `json:"group"`
}

// GroupResolve resolves every market of a group in one batch.
type GroupResolve struct {
	Group       types.GroupID                       `json:"group"`
	Resolutions map[types.MarketID]types.Resolution `json:"resolutions"`
}

// Deposit credits a general account from outside the exchange.
type Deposit struct {
	Party  types.PartyID `json:"party"`
	Asset  types.AssetID `json:"asset"`
	Amount *num.Uint     `json:"amount"`
}

// Withdraw debits a general account to outside the exchange.
type Withdraw struct {
	Party  types.PartyID `json:"party"`
	Asset  types.AssetID `json:"asset"`
	Amount *num.Uint     `json:"amount"`
}

type RulesCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RulesUpdate changes the fields that are set.
type RulesUpdate struct {
	Rules       types.RulesID `json:"rules"`
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
}

type MarketGroupCreate struct {
	Description string        `json:"description"`
	Asset       types.AssetID `json:"asset"`
	Rules       types.RulesID `json:"rules"`
}

// MarketGroupUpdate changes the fields that are set. Freeze applies to
// every member market that is not final.
type MarketGroupUpdate struct {
	Group       types.GroupID  `json:"group"`
	Description *string        `json:"description,omitempty"`
	Rules       *types.RulesID `json:"rules,omitempty"`
	Freeze      *bool          `json:"freeze,omitempty"`
}

type MarketCreate struct {
	Group       types.GroupID `json:"group"`
	Description string        `json:"description"`
}

// MarketUpdate changes the fields that are set.
type MarketUpdate struct {
	Market      types.MarketID `json:"market"`
	Description *string        `json:"description,omitempty"`
	Freeze      *bool          `json:"freeze,omitempty"`
}

func (BetPlace) Command() Command             { return BetPlaceCommand }
func (BetCancel) Command() Command            { return BetCancelCommand }
func (GroupCancelUnmatched) Command() Command { return GroupCancelUnmatchedCommand }
func (GroupResolve) Command() Command         { return GroupResolveCommand }
func (Deposit) Command() Command              { return DepositCommand }
func (Withdraw) Command() Command             { return WithdrawCommand }
func (RulesCreate) Command() Command          { return RulesCreateCommand }
func (RulesUpdate) Command() Command          { return RulesUpdateCommand }
func (MarketGroupCreate) Command() Command    { return MarketGroupCreateCommand }
func (MarketGroupUpdate) Command() Command    { return MarketGroupUpdateCommand }
func (MarketCreate) Command() Command         { return MarketCreateCommand }
func (MarketUpdate) Command() Command         { return MarketUpdateCommand }

func (BetPlace) operation()             {}
func (BetCancel) operation()            {}
func (GroupCancelUnmatched) operation() {}
func (GroupResolve) operation()         {}
func (Deposit) operation()              {}
func (Withdraw) operation()             {}
func (RulesCreate) operation()          {}
func (RulesUpdate) operation()          {}
func (MarketGroupCreate) operation()    {}
func (MarketGroupUpdate) operation()    {}
func (MarketCreate) operation()         {}
func (MarketUpdate) operation()         {}
