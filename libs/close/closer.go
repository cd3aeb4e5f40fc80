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

package close

import (
	"errors"
	"fmt"
)

type closer struct {
	name string
	fn   func() error
}

// Closer releases the resources of a process in the reverse order they were
// acquired.
type Closer struct {
	closers []closer
}

func NewCloser() *Closer {
	return &Closer{
		closers: []closer{},
	}
}

// Add adds a function to call during call to CloseAll.
func (c *Closer) Add(name string, fn func() error) {
	c.closers = append(c.closers, closer{name: name, fn: fn})
}

// CloseAll calls all close functions in reverse order, even when some of
// them fail, and returns every failure.
func (c *Closer) CloseAll() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].fn(); err != nil {
			errs = append(errs, fmt.Errorf("couldn't close %s: %w", c.closers[i].name, err))
		}
	}
	c.closers = []closer{}
	return errors.Join(errs...)
}
