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

package types

import (
	"errors"
	"fmt"

	"code.vegaprotocol.io/betting/libs/num"
)

// OddsPrecision is the number of ticks in a 1.0x multiplier.
const OddsPrecision Odds = 10000

var (
	ErrInvalidOddsString = errors.New("invalid odds")

	oddsPrecisionUint = num.NewUint(uint64(OddsPrecision))
	oddsPrecisionDec  = num.DecimalFromInt64(int64(OddsPrecision))
)

// Odds is a decimal payout multiplier expressed in ticks of 1/OddsPrecision,
// so 2.5x is 25000. A winning back stake s returns s*odds/OddsPrecision.
type Odds uint32

// OddsFromString parses a decimal multiplier such as "2.5". Extra
// precision below one tick is rejected rather than rounded.
func OddsFromString(s string) (Odds, error) {
	d, err := num.DecimalFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOddsString, err)
	}
	ticks := d.Mul(oddsPrecisionDec)
	if !ticks.Equal(ticks.Truncate(0)) || ticks.IsNegative() || ticks.GreaterThan(num.DecimalFromInt64(int64(^uint32(0)))) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidOddsString, s)
	}
	return Odds(ticks.IntPart()), nil
}

// Decimal returns the multiplier as a decimal, e.g. 2.5.
func (o Odds) Decimal() num.Decimal {
	return num.DecimalFromInt64(int64(o)).Div(oddsPrecisionDec)
}

func (o Odds) String() string {
	return o.Decimal().String()
}

func (o Odds) Uint() *num.Uint {
	return num.NewUint(uint64(o))
}

// Liability is the amount a layer puts at risk against a back stake at
// these odds: floor(stake * (odds - 1)).
func (o Odds) Liability(stake *num.Uint) *num.Uint {
	if o <= OddsPrecision {
		return num.UintZero()
	}
	return num.MulDiv(stake, num.NewUint(uint64(o-OddsPrecision)), oddsPrecisionUint)
}

// ReturnOverflow is what a winning back stake collects at these odds,
// floor(stake * odds). It also reports whether that amount does not fit
// in 256 bits, in which case no amount derived from the stake is safe to
// compute.
func (o Odds) ReturnOverflow(stake *num.Uint) (*num.Uint, bool) {
	return num.MulDivOverflow(stake, o.Uint(), oddsPrecisionUint)
}

// Collateral is what a bet of the given side must lock for the stake.
func (o Odds) Collateral(side Side, stake *num.Uint) *num.Uint {
	if side == SideBack {
		return stake.Clone()
	}
	return o.Liability(stake)
}
