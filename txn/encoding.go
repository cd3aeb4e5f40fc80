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
	"encoding/json"
	"fmt"

	uuid "github.com/satori/go.uuid"
)

const prefixLen = 36

// Encode builds a raw transaction from an operation. A random prefix makes
// identical operations distinct transactions, it carries no state.
func Encode(op Operation) ([]byte, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}
	prefix := []byte(uuid.NewV4().String())
	out := make([]byte, 0, len(prefix)+1+len(payload))
	out = append(out, prefix...)
	out = append(out, byte(op.Command()))
	return append(out, payload...), nil
}

// Decode takes the raw transaction bytes, drops the prefix and decodes the
// operation its command byte names.
func Decode(input []byte) (Operation, error) {
	if len(input) <= prefixLen+1 {
		return nil, fmt.Errorf("%w: payload size is incorrect, should be > %d bytes", ErrInvalidEnvelope, prefixLen+1)
	}
	return DecodePayload(Command(input[prefixLen]), input[prefixLen+1:])
}

// DecodePayload decodes the JSON payload of an operation of the given command.
func DecodePayload(cmd Command, payload []byte) (Operation, error) {
	switch cmd {
	case BetPlaceCommand:
		return decode[BetPlace](payload)
	case BetCancelCommand:
		return decode[BetCancel](payload)
	case GroupCancelUnmatchedCommand:
		return decode[GroupCancelUnmatched](payload)
	case GroupResolveCommand:
		return decode[GroupResolve](payload)
	case DepositCommand:
		return decode[Deposit](payload)
	case WithdrawCommand:
		return decode[Withdraw](payload)
	case RulesCreateCommand:
		return decode[RulesCreate](payload)
	case RulesUpdateCommand:
		return decode[RulesUpdate](payload)
	case MarketGroupCreateCommand:
		return decode[MarketGroupCreate](payload)
	case MarketGroupUpdateCommand:
		return decode[MarketGroupUpdate](payload)
	case MarketCreateCommand:
		return decode[MarketCreate](payload)
	case MarketUpdateCommand:
		return decode[MarketUpdate](payload)
	default:
		return nil, fmt.Errorf("%w: 0x%x", ErrUnknownCommand, byte(cmd))
	}
}

func decode[T Operation](payload []byte) (Operation, error) {
	var op T
	if err := json.Unmarshal(payload, &op); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return op, nil
}
