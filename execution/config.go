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
	"code.vegaprotocol.io/betting/config/encoding"
	"code.vegaprotocol.io/betting/exposure"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/matching"
	"code.vegaprotocol.io/betting/settlement"
)

const (
	// namedLogger is the identifier for package and should ideally match the package name
	// this is simply emitted as a hierarchical label e.g. 'api.grpc'.
	namedLogger = "execution"
)

// Config is the configuration of the execution package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// CheckEscrow verifies after every operation that each touched market
	// escrow holds exactly what its positions account for.
	CheckEscrow bool `long:"check-escrow"`

	Matching   matching.Config   `group:"Matching"   namespace:"matching"`
	Exposure   exposure.Config   `group:"Exposure"   namespace:"exposure"`
	Settlement settlement.Config `group:"Settlement" namespace:"settlement"`
}

// NewDefaultConfig creates an instance of the package specific configuration, given a
// pointer to a logger instance to be used for logging within the package.
func NewDefaultConfig() Config {
	return Config{
		Level:       encoding.LogLevel{Level: logging.InfoLevel},
		CheckEscrow: true,
		Matching:    matching.NewDefaultConfig(),
		Exposure:    exposure.NewDefaultConfig(),
		Settlement:  settlement.NewDefaultConfig(),
	}
}
