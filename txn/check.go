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
	"fmt"

	"code.vegaprotocol.io/betting/types"
)

// CheckOperation runs the checks that need no state. The engine runs it
// before anything else.
func CheckOperation(op Operation) error {
	switch o := op.(type) {
	case BetPlace:
		return checkBetPlace(o).ErrorOrNil()
	case BetCancel:
		return checkBetCancel(o).ErrorOrNil()
	case GroupCancelUnmatched:
		return nil
	case GroupResolve:
		return checkGroupResolve(o).ErrorOrNil()
	case Deposit:
		return checkTransfer("deposit", o.Party, o.Asset, o.Amount == nil || o.Amount.IsZero()).ErrorOrNil()
	case Withdraw:
		return checkTransfer("withdraw", o.Party, o.Asset, o.Amount == nil || o.Amount.IsZero()).ErrorOrNil()
	case RulesCreate:
		if len(o.Name) == 0 {
			return NewErrors().FinalAddForProperty("rules_create.name", ErrIsRequired)
		}
		return nil
	case RulesUpdate, MarketGroupUpdate, MarketCreate, MarketUpdate:
		return nil
	case MarketGroupCreate:
		if len(o.Asset) == 0 {
			return NewErrors().FinalAddForProperty("market_group_create.asset", types.ErrInvalidAsset)
		}
		return nil
	case nil:
		return ErrUnknownCommand
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, op)
	}
}

func checkBetPlace(cmd BetPlace) Errors {
	errs := NewErrors()

	if len(cmd.Party) == 0 {
		errs.AddForProperty("bet_place.party", types.ErrInvalidParty)
	}
	if len(cmd.Asset) == 0 {
		errs.AddForProperty("bet_place.asset", types.ErrInvalidAsset)
	}
	if cmd.Side != types.SideBack && cmd.Side != types.SideLay {
		errs.AddForProperty("bet_place.side", types.ErrInvalidSide)
	}
	if cmd.Stake == nil || cmd.Stake.IsZero() {
		errs.AddForProperty("bet_place.stake", types.ErrInvalidStake)
	}
	// a multiplier of 1x or less can never pay out
	if cmd.Odds <= types.OddsPrecision {
		errs.AddForProperty("bet_place.odds", types.ErrOddsOutOfBounds)
	}
	if cmd.MaxFee == nil {
		errs.AddForProperty("bet_place.max_fee", ErrIsRequired)
	}
	return errs
}

func checkBetCancel(cmd BetCancel) Errors {
	errs := NewErrors()
	if len(cmd.Party) == 0 {
		errs.AddForProperty("bet_cancel.party", types.ErrInvalidParty)
	}
	return errs
}

func checkGroupResolve(cmd GroupResolve) Errors {
	errs := NewErrors()
	if len(cmd.Resolutions) == 0 {
		return errs.FinalAddForProperty("group_resolve.resolutions", types.ErrMissingResolution)
	}
	for _, r := range cmd.Resolutions {
		if r != types.ResolutionWin && r != types.ResolutionNotWin && r != types.ResolutionCancel {
			return errs.FinalAddForProperty("group_resolve.resolutions", types.ErrInvalidResolution)
		}
	}
	return errs
}

func checkTransfer(prefix string, party types.PartyID, asset types.AssetID, zero bool) Errors {
	errs := NewErrors()
	if len(party) == 0 {
		errs.AddForProperty(prefix+".party", types.ErrInvalidParty)
	}
	if len(asset) == 0 {
		errs.AddForProperty(prefix+".asset", types.ErrInvalidAsset)
	}
	if zero {
		errs.AddForProperty(prefix+".amount", types.ErrInvalidAmount)
	}
	return errs
}
