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

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrIsRequired      = errors.New("is required")
	ErrMustBePositive  = errors.New("must be positive")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidEnvelope = errors.New("invalid transaction envelope")
)

// Errors collects the problems of a command by property name.
type Errors map[string][]error

func NewErrors() Errors {
	return Errors{}
}

// AddForProperty records err for the property.
func (e Errors) AddForProperty(prop string, err error) {
	e[prop] = append(e[prop], err)
}

// FinalAddForProperty records err and returns the errors, for early returns.
func (e Errors) FinalAddForProperty(prop string, err error) Errors {
	e.AddForProperty(prop, err)
	return e
}

func (e Errors) Empty() bool {
	return len(e) == 0
}

// ErrorOrNil returns nil when no error was recorded.
func (e Errors) ErrorOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e Errors) properties() []string {
	props := make([]string, 0, len(e))
	for p := range e {
		props = append(props, p)
	}
	sort.Strings(props)
	return props
}

func (e Errors) Error() string {
	msgs := []string{}
	for _, p := range e.properties() {
		for _, err := range e[p] {
			msgs = append(msgs, fmt.Sprintf("%s (%s)", p, err.Error()))
		}
	}
	return strings.Join(msgs, ", also ")
}

// Unwrap exposes the recorded errors, in property order, to errors.Is.
func (e Errors) Unwrap() []error {
	out := []error{}
	for _, p := range e.properties() {
		out = append(out, e[p]...)
	}
	return out
}
