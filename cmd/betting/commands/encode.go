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

package commands

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"code.vegaprotocol.io/betting/txn"

	"github.com/jessevdk/go-flags"
)

type encodeCmd struct{}

func Encode(_ context.Context, parser *flags.Parser) error {
	_, err := parser.AddCommand("encode",
		"Encode an operation as a raw transaction",
		"Encode an operation given as a command key (bet-place, group-resolve, ...) and its JSON payload, and print the hex encoded transaction",
		&encodeCmd{},
	)
	return err
}

func (opts *encodeCmd) Execute(args []string) error {
	if len(args) != 2 {
		return errors.New("expected a command key and its JSON payload")
	}
	cmd, err := txn.ParseCommand(args[0])
	if err != nil {
		return err
	}
	op, err := txn.DecodePayload(cmd, []byte(args[1]))
	if err != nil {
		return err
	}
	if err := txn.CheckOperation(op); err != nil {
		return fmt.Errorf("invalid %s operation: %w", cmd, err)
	}
	raw, err := txn.Encode(op)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(raw))
	return nil
}
