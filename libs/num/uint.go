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

package num

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Uint A wrapper for a big unsigned int.
type Uint struct {
	u uint256.Int
}

// NewUint creates a new Uint with the value of the
// uint64 passed as a parameter.
func NewUint(val uint64) *Uint {
	return &Uint{*uint256.NewInt(val)}
}

// UintZero returns a new Uint set to 0.
func UintZero() *Uint {
	return NewUint(0)
}

// UintOne returns a new Uint set to 1.
func UintOne() *Uint {
	return NewUint(1)
}

// Min returns the smallest of the 2 numbers.
func Min(a, b *Uint) *Uint {
	if a.LT(b) {
		return a
	}
	return b
}

// Max returns the largest of the 2 numbers.
func Max(a, b *Uint) *Uint {
	if a.GT(b) {
		return a
	}
	return b
}

// UintFromBig construct a new Uint with a big.Int
// returns true if overflow happened.
func UintFromBig(b *big.Int) (*Uint, bool) {
	u, overflow := uint256.FromBig(b)
	if overflow {
		return UintZero(), true
	}
	return &Uint{*u}, false
}

// UintFromDecimal returns the integer part of the decimal as a Uint,
// negative values are reported as overflows.
func UintFromDecimal(d Decimal) (*Uint, bool) {
	if d.IsNegative() {
		return UintZero(), true
	}
	return UintFromBig(d.BigInt())
}

// UintFromString created a new Uint from a string
// interpreted using the given base.
// will return true if an error/overflow happened.
func UintFromString(str string, base int) (*Uint, bool) {
	b, ok := big.NewInt(0).SetString(str, base)
	if !ok {
		return UintZero(), true
	}
	return UintFromBig(b)
}

// Sum just removes the need to write num.UintZero().AddSum(x, y, z)
// so you can write num.Sum(x, y, z) instead, equivalent to x + y + z.
func Sum(vals ...*Uint) *Uint {
	return UintZero().AddSum(vals...)
}

func (u *Uint) ToDecimal() Decimal {
	return DecimalFromUint(u)
}

func (u *Uint) Set(oth *Uint) *Uint {
	u.u.Set(&oth.u)
	return u
}

func (u *Uint) SetUint64(val uint64) *Uint {
	u.u.SetUint64(val)
	return u
}

func (u Uint) Uint64() uint64 {
	return u.u.Uint64()
}

func (u Uint) BigInt() *big.Int {
	return u.u.ToBig()
}

// Add will add x and y then store the result into u
// this is equivalent to `u = x + y`.
func (u *Uint) Add(x, y *Uint) *Uint {
	u.u.Add(&x.u, &y.u)
	return u
}

// AddOverflow will add x and y then store the result into u
// true is returned if the sum does not fit in 256 bits.
func (u *Uint) AddOverflow(x, y *Uint) (*Uint, bool) {
	_, overflow := u.u.AddOverflow(&x.u, &y.u)
	return u, overflow
}

// AddSum adds multiple values at the same time to a given uint
// so x.AddSum(y, z) is equivalent to x + y + z.
func (u *Uint) AddSum(vals ...*Uint) *Uint {
	for _, x := range vals {
		if x == nil {
			continue
		}
		u.u.Add(&u.u, &x.u)
	}
	return u
}

// Sub will subtract y from x then store the result into u
// this is equivalent to `u = x - y`, the result wraps on underflow
// so callers are expected to check with GTE first.
func (u *Uint) Sub(x, y *Uint) *Uint {
	u.u.Sub(&x.u, &y.u)
	return u
}

// SubOverflow will subtract y from x then store the result into u
// true is returned if an underflow occurred.
func (u *Uint) SubOverflow(x, y *Uint) (*Uint, bool) {
	_, ok := u.u.SubOverflow(&x.u, &y.u)
	return u, ok
}

// Delta will subtract y from x and store the result
// unless x-y overflowed, in which case the neg field will be set
// and the result of y - x is set instead.
func (u *Uint) Delta(x, y *Uint) (*Uint, bool) {
	if y.GT(x) {
		_ = u.Sub(y, x)
		return u, true
	}
	_ = u.Sub(x, y)
	return u, false
}

// Mul will multiply x and y then store the result into u
// this is equivalent to `u = x * y`.
func (u *Uint) Mul(x, y *Uint) *Uint {
	u.u.Mul(&x.u, &y.u)
	return u
}

// Div will divide x by y then store the result into u, truncating
// toward zero. this is equivalent to `u = x / y`.
func (u *Uint) Div(x, y *Uint) *Uint {
	u.u.Div(&x.u, &y.u)
	return u
}

// MulDiv computes floor(x * y / d) without losing precision
// on the intermediate product. It panics if the result does not fit
// in 256 bits, inputs that are not bounded go through MulDivOverflow.
func MulDiv(x, y, d *Uint) *Uint {
	r, overflow := MulDivOverflow(x, y, d)
	if overflow {
		panic(fmt.Sprintf("muldiv overflow: %s * %s / %s", x, y, d))
	}
	return r
}

// MulDivOverflow computes floor(x * y / d), true is returned if the
// result does not fit in 256 bits.
func MulDivOverflow(x, y, d *Uint) (*Uint, bool) {
	r := UintZero()
	_, overflow := r.u.MulDivOverflow(&x.u, &y.u, &d.u)
	return r, overflow
}

func (u Uint) LT(oth *Uint) bool {
	return u.u.Lt(&oth.u)
}

func (u Uint) LTE(oth *Uint) bool {
	return u.u.Lt(&oth.u) || u.u.Eq(&oth.u)
}

func (u Uint) EQ(oth *Uint) bool {
	return u.u.Eq(&oth.u)
}

func (u Uint) EQUint64(oth uint64) bool {
	return u.u.Eq(uint256.NewInt(oth))
}

func (u Uint) NEQ(oth *Uint) bool {
	return !u.u.Eq(&oth.u)
}

func (u Uint) GT(oth *Uint) bool {
	return u.u.Gt(&oth.u)
}

func (u Uint) GTE(oth *Uint) bool {
	return u.u.Gt(&oth.u) || u.u.Eq(&oth.u)
}

// IsZero return whether u == 0 or not.
func (u Uint) IsZero() bool {
	return u.u.IsZero()
}

// Clone create copy of this value
// this is the equivalent to x := u.
func (u Uint) Clone() *Uint {
	return &Uint{u.u}
}

// String returns the stored value as a base 10 string.
func (u Uint) String() string {
	return u.u.ToBig().String()
}

// Format implement fmt.Formatter.
func (u Uint) Format(s fmt.State, ch rune) {
	u.u.Format(s, ch)
}

// Bytes return the internal representation
// of the Uint as [32]bytes, BigEndian encoded array.
func (u Uint) Bytes() [32]byte {
	return u.u.Bytes32()
}

// MarshalJSON encodes the value as a decimal string so amounts
// larger than 2^53 survive round trips.
func (u Uint) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *Uint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, overflow := UintFromString(s, 10)
	if overflow {
		return fmt.Errorf("invalid uint value %q", s)
	}
	u.u = v.u
	return nil
}
