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

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"code.vegaprotocol.io/betting/broker"
	"code.vegaprotocol.io/betting/collateral"
	"code.vegaprotocol.io/betting/execution"
	"code.vegaprotocol.io/betting/logging"
	"code.vegaprotocol.io/betting/metrics"
	"code.vegaprotocol.io/betting/snapshot"

	"github.com/BurntSushi/toml"
)

const configFileName = "config.toml"

// Config ties together all other application configuration types.
type Config struct {
	Logging    logging.Config    `group:"Logging" namespace:"logging"`
	Execution  execution.Config  `group:"Execution" namespace:"execution"`
	Collateral collateral.Config `group:"Collateral" namespace:"collateral"`
	Broker     broker.Config     `group:"Broker" namespace:"broker"`
	Snapshot   snapshot.Config   `group:"Snapshot" namespace:"snapshot"`
	Metrics    metrics.Config    `group:"Metrics" namespace:"metrics"`
}

// NewDefaultConfig returns a set of default configs for all packages, as
// specified at the per package config level.
func NewDefaultConfig() Config {
	return Config{
		Logging:    logging.NewDefaultConfig(),
		Execution:  execution.NewDefaultConfig(),
		Collateral: collateral.NewDefaultConfig(),
		Broker:     broker.NewDefaultConfig(),
		Snapshot:   snapshot.NewDefaultConfig(),
		Metrics:    metrics.NewDefaultConfig(),
	}
}

// Path returns the location of the configuration file under rootPath.
func Path(rootPath string) string {
	return filepath.Join(rootPath, configFileName)
}

// Load loads the configuration file under rootPath over the defaults.
// Keys missing from the file keep their default value.
func Load(rootPath string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := decodeFile(Path(rootPath), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save stores cfg as the configuration file under rootPath.
func Save(rootPath string, cfg Config) error {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return fmt.Errorf("couldn't encode configuration: %w", err)
	}
	if err := os.MkdirAll(rootPath, 0o700); err != nil {
		return err
	}
	return os.WriteFile(Path(rootPath), buf.Bytes(), 0o600)
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("couldn't read configuration %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown configuration key %s in %s", undecoded[0], path)
	}
	return nil
}
