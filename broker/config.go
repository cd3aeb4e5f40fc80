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

package broker

import (
	"time"

	"code.vegaprotocol.io/betting/config/encoding"
	"code.vegaprotocol.io/betting/logging"
)

const namedLogger = "broker"

// Config represents the configuration of the broker.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	Kafka KafkaConfig       `group:"Kafka" namespace:"kafka"`
}

// KafkaConfig configures the sink forwarding committed events to Kafka.
type KafkaConfig struct {
	Enabled      bool              `long:"enabled"`
	Brokers      []string          `long:"brokers"`
	Topic        string            `long:"topic"`
	BufferSize   int               `long:"buffer-size" description:"number of event batches queued before dropping"`
	WriteTimeout encoding.Duration `long:"write-timeout"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		Kafka: KafkaConfig{
			Enabled:      false,
			Brokers:      []string{"localhost:9092"},
			Topic:        "betting.events",
			BufferSize:   1000,
			WriteTimeout: encoding.Duration{Duration: 5 * time.Second},
		},
	}
}
