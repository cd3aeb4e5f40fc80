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
	"fmt"
	"os"

	"code.vegaprotocol.io/betting/config"

	"github.com/jessevdk/go-flags"
)

type initCmd struct {
	RootPathFlag
	Force bool `short:"f" long:"force" description:"Overwrite an existing configuration"`
}

func Init(_ context.Context, parser *flags.Parser) error {
	_, err := parser.AddCommand("init", "Write the default configuration", "Write the default configuration file under the home directory", &initCmd{})
	return err
}

func (opts *initCmd) Execute(_ []string) error {
	path := config.Path(opts.RootPath)
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("configuration already exists at %s, use --force to overwrite it", path)
	}
	if err := config.Save(opts.RootPath, config.NewDefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("configuration written to %s\n", path)
	return nil
}
