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

package num_test

import (
	"encoding/json"
	"testing"

	"code.vegaprotocol.io/betting/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintArithmetic(t *testing.T) {
	t.Run("sum of several values", func(t *testing.T) {
		s := num.Sum(num.NewUint(1), num.NewUint(2), num.NewUint(39))
		assert.Equal(t, uint64(42), s.Uint64())
	})

	t.Run("delta reports sign", func(t *testing.T) {
		d, neg := num.UintZero().Delta(num.NewUint(5), num.NewUint(8))
		assert.True(t, neg)
		assert.Equal(t, uint64(3), d.Uint64())
		d, neg = num.UintZero().Delta(num.NewUint(8), num.NewUint(5))
		assert.False(t, neg)
		assert.Equal(t, uint64(3), d.Uint64())
	})

	t.Run("sub overflow is reported", func(t *testing.T) {
		_, overflow := num.UintZero().SubOverflow(num.NewUint(1), num.NewUint(2))
		assert.True(t, overflow)
	})

	t.Run("muldiv truncates toward zero", func(t *testing.T) {
		r := num.MulDiv(num.NewUint(1000), num.NewUint(15001), num.NewUint(10000))
		assert.Equal(t, uint64(1500), r.Uint64())
	})

	t.Run("muldiv overflow is reported", func(t *testing.T) {
		half, _ := num.UintFromString("57896044618658097711785492504343953926634992332820282019728792003956564819968", 10)
		_, overflow := num.MulDivOverflow(half, num.NewUint(30000), num.NewUint(10000))
		assert.True(t, overflow)
		r, overflow := num.MulDivOverflow(half, num.NewUint(10000), num.NewUint(20000))
		assert.False(t, overflow)
		assert.Equal(t, "28948022309329048855892746252171976963317496166410141009864396001978282409984", r.String())
		assert.Panics(t, func() { num.MulDiv(half, num.NewUint(3), num.NewUint(1)) })
	})

	t.Run("add overflow is reported", func(t *testing.T) {
		half, _ := num.UintFromString("57896044618658097711785492504343953926634992332820282019728792003956564819968", 10)
		_, overflow := num.UintZero().AddOverflow(half, half)
		assert.True(t, overflow)
		s, overflow := num.UintZero().AddOverflow(half, num.NewUint(1))
		assert.False(t, overflow)
		assert.True(t, s.GT(half))
	})

	t.Run("min and max", func(t *testing.T) {
		a, b := num.NewUint(3), num.NewUint(4)
		assert.True(t, num.Min(a, b).EQ(a))
		assert.True(t, num.Max(a, b).EQ(b))
	})
}

func TestUintJSON(t *testing.T) {
	u, overflow := num.UintFromString("340282366920938463463374607431768211456", 10)
	require.False(t, overflow)

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Equal(t, `"340282366920938463463374607431768211456"`, string(data))

	var back num.Uint
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.EQ(u))

	assert.Error(t, json.Unmarshal([]byte(`"not-a-number"`), &back))
}

func TestUintFromDecimal(t *testing.T) {
	d, err := num.DecimalFromString("12.75")
	require.NoError(t, err)
	u, overflow := num.UintFromDecimal(d)
	assert.False(t, overflow)
	assert.Equal(t, uint64(12), u.Uint64())

	_, overflow = num.UintFromDecimal(num.DecimalFromInt64(-1))
	assert.True(t, overflow)
}
