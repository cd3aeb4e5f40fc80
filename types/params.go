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
	"time"

	"code.vegaprotocol.io/betting/libs/num"
)

const bpsDenominator = 10000

var (
	ErrInvalidParams = errors.New("invalid network parameters")

	bpsDenominatorUint = num.NewUint(bpsDenominator)
)

// Params are the chain-wide settings consulted by every operation. They are
// supplied by the caller per block.
type Params struct {
	// RakeFeeBps is the share of a bettor's net winnings on a group taken
	// by the house, in basis points.
	RakeFeeBps uint32 `json:"rake_fee_bps"`
	// BetFeeBps is charged on every placed stake, in basis points.
	BetFeeBps uint32 `json:"bet_fee_bps"`
	MinOdds   Odds   `json:"min_odds"`
	MaxOdds   Odds   `json:"max_odds"`
}

func DefaultParams() Params {
	return Params{
		RakeFeeBps: 200,
		BetFeeBps:  200,
		MinOdds:    10100,
		MaxOdds:    10000000,
	}
}

func (p Params) Validate() error {
	if p.RakeFeeBps > bpsDenominator || p.BetFeeBps > bpsDenominator {
		return ErrInvalidParams
	}
	if p.MinOdds <= OddsPrecision || p.MaxOdds < p.MinOdds {
		return ErrInvalidParams
	}
	return nil
}

// BetFee is floor(stake * BetFeeBps / 10000).
func (p Params) BetFee(stake *num.Uint) *num.Uint {
	return num.MulDiv(stake, num.NewUint(uint64(p.BetFeeBps)), bpsDenominatorUint)
}

// Rake is floor(net * RakeFeeBps / 10000).
func (p Params) Rake(net *num.Uint) *num.Uint {
	return num.MulDiv(net, num.NewUint(uint64(p.RakeFeeBps)), bpsDenominatorUint)
}

func (p Params) OddsInBounds(o Odds) bool {
	return o >= p.MinOdds && o <= p.MaxOdds
}

// BlockContext is the read-only chain state an operation is applied under.
type BlockContext struct {
	Height uint64
	Time   time.Time
	Params Params
}
