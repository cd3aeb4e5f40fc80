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

package types_test

import (
	"errors"
	"fmt"
	"testing"

	"code.vegaprotocol.io/betting/types"

	"github.com/stretchr/testify/assert"
)

func TestReasonFor(t *testing.T) {
	assert.Equal(t, types.RejectReasonUnspecified, types.ReasonFor(nil))
	assert.Equal(t, types.RejectReasonInsufficientBalance, types.ReasonFor(types.ErrInsufficientBalance))

	wrapped := fmt.Errorf("placing bet: %w", types.ErrOddsOutOfBounds)
	assert.Equal(t, types.RejectReasonOddsOutOfBounds, types.ReasonFor(wrapped))
	assert.Equal(t, "odds_out_of_bounds", types.ReasonFor(wrapped).String())

	assert.Equal(t, types.RejectReasonInvalidCommand, types.ReasonFor(errors.New("boom")))
	assert.Equal(t, "invalid_command", types.RejectReasonInvalidCommand.String())
}

func TestInvariantViolation(t *testing.T) {
	defer func() {
		r := recover()
		assert.True(t, types.IsInvariantViolation(r))
		assert.EqualError(t, r.(error), "invariant violation in release: too much")
	}()
	types.PanicInvariant("release", "too %s", "much")
}
