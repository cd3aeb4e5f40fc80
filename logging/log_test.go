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

package logging_test

import (
	"testing"

	"code.vegaprotocol.io/betting/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out logging.Level
	}{
		{"debug", logging.DebugLevel},
		{"Info", logging.InfoLevel},
		{"warn", logging.WarnLevel},
		{"warning", logging.WarnLevel},
		{"ERROR", logging.ErrorLevel},
		{"panic", logging.PanicLevel},
		{"fatal", logging.FatalLevel},
	} {
		lvl, err := logging.ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.out, lvl)
	}

	_, err := logging.ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNamedLogger(t *testing.T) {
	log := logging.NewTestLogger()
	defer log.AtExit()

	exec := log.Named("execution")
	assert.Equal(t, "execution", exec.GetName())
	book := exec.Named("matching")
	assert.Equal(t, "execution.matching", book.GetName())

	book.SetLevel(logging.DebugLevel)
	assert.True(t, book.IsDebug())
	// the parent keeps its own level
	assert.Equal(t, logging.ErrorLevel, exec.GetLevel())
}

func TestLoggerFromConfig(t *testing.T) {
	assert.Equal(t, logging.DebugLevel, logging.NewLoggerFromConfig(logging.Config{Environment: "dev"}).GetLevel())
	assert.Equal(t, logging.ErrorLevel, logging.NewLoggerFromConfig(logging.Config{Environment: "test"}).GetLevel())
	assert.Equal(t, logging.InfoLevel, logging.NewLoggerFromConfig(logging.Config{Environment: "prod"}).GetLevel())
}
