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

package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// String constructs a field with the given key and value.
func String(key, str string) zap.Field {
	return zap.String(key, str)
}

// Strings constructs a field with the given key and values.
func Strings(key string, strs []string) zap.Field {
	return zap.Strings(key, strs)
}

// Uint64 constructs a field with the given key and value.
func Uint64(key string, val uint64) zap.Field {
	return zap.Uint64(key, val)
}

// Uint32 constructs a field with the given key and value.
func Uint32(key string, val uint32) zap.Field {
	return zap.Uint32(key, val)
}

// Int constructs a field with the given key and value.
func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

// Int64 constructs a field with the given key and value.
func Int64(key string, val int64) zap.Field {
	return zap.Int64(key, val)
}

// Bool constructs a field with the given key and value.
func Bool(key string, val bool) zap.Field {
	return zap.Bool(key, val)
}

// Error constructs a field that lazily stores err.Error() under the key "error".
func Error(err error) zap.Field {
	return zap.Error(err)
}

// Duration constructs a field with the given key and value.
func Duration(key string, value time.Duration) zap.Field {
	return zap.Duration(key, value)
}

// Time display a time.
func Time(key string, t time.Time) zap.Field {
	return zap.Time(key, t)
}

// BlockHeight logs the height of the block being processed.
func BlockHeight(h uint64) zap.Field {
	return zap.Uint64("block-height", h)
}

// BetID constructs a field with the bet id.
func BetID(id fmt.Stringer) zap.Field {
	return zap.Stringer("bet-id", id)
}

// MarketID constructs a field with the betting market id.
func MarketID(id fmt.Stringer) zap.Field {
	return zap.Stringer("market-id", id)
}

// GroupID constructs a field with the market group id.
func GroupID(id fmt.Stringer) zap.Field {
	return zap.Stringer("group-id", id)
}

// Party constructs a field with the bettor account id.
func Party(id fmt.Stringer) zap.Field {
	return zap.Stringer("party", id)
}

// Amount logs an amount as its base 10 string.
func Amount(key string, a fmt.Stringer) zap.Field {
	if a == nil {
		return zap.String(key, "nil")
	}
	return zap.String(key, a.String())
}

// Reflect constructs a field by running reflection over all the
// field of value passed as a parameter.
func Reflect(key string, val interface{}) zap.Field {
	return zap.Reflect(key, val)
}
