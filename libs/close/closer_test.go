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

package close_test

import (
	"errors"
	"testing"

	vgclose "code.vegaprotocol.io/betting/libs/close"

	"github.com/stretchr/testify/assert"
)

func TestCloseAll(t *testing.T) {
	order := []string{}
	c := vgclose.NewCloser()
	c.Add("store", func() error {
		order = append(order, "store")
		return nil
	})
	c.Add("sink", func() error {
		order = append(order, "sink")
		return errors.New("broken pipe")
	})

	err := c.CloseAll()
	assert.EqualError(t, err, "couldn't close sink: broken pipe")
	assert.Equal(t, []string{"sink", "store"}, order)

	// nothing left to close
	assert.NoError(t, c.CloseAll())
	assert.Len(t, order, 2)
}
