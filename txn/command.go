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

import "fmt"

// Command is the one byte tag of an operation in the transaction envelope.
type Command byte

// Custom blockchain command encoding, lighter-weight than proto.
const (
	// BetPlaceCommand ...
	BetPlaceCommand Command = 0x40
	// BetCancelCommand ...
	BetCancelCommand Command = 0x41
	// GroupCancelUnmatchedCommand ...
	GroupCancelUnmatchedCommand Command = 0x42
	// GroupResolveCommand ...
	GroupResolveCommand Command = 0x43
	// DepositCommand ...
	DepositCommand Command = 0x44
	// WithdrawCommand ...
	WithdrawCommand Command = 0x45
	// RulesCreateCommand ...
	RulesCreateCommand Command = 0x50
	// RulesUpdateCommand ...
	RulesUpdateCommand Command = 0x51
	// MarketGroupCreateCommand ...
	MarketGroupCreateCommand Command = 0x52
	// MarketGroupUpdateCommand ...
	MarketGroupUpdateCommand Command = 0x53
	// MarketCreateCommand ...
	MarketCreateCommand Command = 0x54
	// MarketUpdateCommand ...
	MarketUpdateCommand Command = 0x55
)

var commandName = map[Command]string{
	BetPlaceCommand:             "Place Bet",
	BetCancelCommand:            "Cancel Bet",
	GroupCancelUnmatchedCommand: "Cancel Unmatched Bets",
	GroupResolveCommand:         "Resolve Market Group",
	DepositCommand:              "Deposit",
	WithdrawCommand:             "Withdraw",
	RulesCreateCommand:          "Create Rules",
	RulesUpdateCommand:          "Update Rules",
	MarketGroupCreateCommand:    "Create Market Group",
	MarketGroupUpdateCommand:    "Update Market Group",
	MarketCreateCommand:         "Create Market",
	MarketUpdateCommand:         "Update Market",
}

var commandKey = map[string]Command{
	"bet-place":              BetPlaceCommand,
	"bet-cancel":             BetCancelCommand,
	"group-cancel-unmatched": GroupCancelUnmatchedCommand,
	"group-resolve":          GroupResolveCommand,
	"deposit":                DepositCommand,
	"withdraw":               WithdrawCommand,
	"rules-create":           RulesCreateCommand,
	"rules-update":           RulesUpdateCommand,
	"market-group-create":    MarketGroupCreateCommand,
	"market-group-update":    MarketGroupUpdateCommand,
	"market-create":          MarketCreateCommand,
	"market-update":          MarketUpdateCommand,
}

// ParseCommand returns the command for a key such as "bet-place".
func ParseCommand(key string) (Command, error) {
	cmd, ok := commandKey[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, key)
	}
	return cmd, nil
}

// String return the human readable name of the command.
func (cmd Command) String() string {
	s, ok := commandName[cmd]
	if ok {
		return s
	}
	return ""
}

// IsPrivileged is true for commands that must be authorised by governance
// before they reach the engine.
func (cmd Command) IsPrivileged() bool {
	switch cmd {
	case GroupCancelUnmatchedCommand, GroupResolveCommand,
		RulesCreateCommand, RulesUpdateCommand,
		MarketGroupCreateCommand, MarketGroupUpdateCommand,
		MarketCreateCommand, MarketUpdateCommand:
		return true
	default:
		return false
	}
}
