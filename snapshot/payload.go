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

package snapshot

import (
	"encoding/json"

	"code.vegaprotocol.io/betting/collateral"
	"code.vegaprotocol.io/betting/libs/crypto"
	"code.vegaprotocol.io/betting/types"

	"github.com/pkg/errors"
)

// Payload is the whole exchange state at a block height. Every slice is
// sorted by identifier so that equal states encode to equal bytes.
type Payload struct {
	Height    uint64                      `json:"height"`
	IDs       types.IDs                   `json:"ids"`
	Rules     []*types.Rules              `json:"rules"`
	Groups    []*types.MarketGroup        `json:"groups"`
	Markets   []*types.Market             `json:"markets"`
	Bets      []*types.Bet                `json:"bets"`
	Positions []*types.Position           `json:"positions"`
	Matches   []*types.Match              `json:"matches"`
	Accounts  []collateral.AccountBalance `json:"accounts"`
}

func (p *Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

func Unmarshal(data []byte) (*Payload, error) {
	p := &Payload{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, errors.Wrap(err, "could not decode snapshot")
	}
	return p, nil
}

// Hash is the sha3-256 of the encoded payload, without the height.
func (p *Payload) Hash() ([]byte, error) {
	cpy := *p
	cpy.Height = 0
	data, err := cpy.Marshal()
	if err != nil {
		return nil, err
	}
	return crypto.Hash(data), nil
}
