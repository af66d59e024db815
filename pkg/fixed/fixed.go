// Copyright (C) 2019 Atrium Foundation.
// See LICENSE for copying information.

// Package fixed implements the deterministic unsigned fixed point value used
// for every economic quantity on the platform. A Value carries an implicit
// scale of 10^18 (18 fractional digits) over a mantissa bounded by 2^128-1.
// Operations are exact truncating integer operations and never round, wrap
// or saturate; any result outside the representable range surfaces a typed
// error instead.
package fixed

import (
	"math/big"
	"strings"

	"github.com/zeebo/errs"
)

// Digits is the number of fractional digits carried by every Value.
const Digits = 18

var (
	// ErrRange is returned when a value would exceed the representable range.
	ErrRange = errs.Class("value out of range")
	// ErrParse is returned for malformed decimal strings.
	ErrParse = errs.Class("invalid decimal string")
	// ErrUnderflow is returned when a value would drop below zero or lose
	// significant fractional digits.
	ErrUnderflow = errs.Class("unsigned underflow")
	// ErrDivideByZero is returned on division by zero.
	ErrDivideByZero = errs.Class("division by zero")
)

var (
	scale       = new(big.Int).Exp(big.NewInt(10), big.NewInt(Digits), nil)
	maxMantissa = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	zeroValue   = new(big.Int)
)

// Value is an unsigned fixed point number. The zero Value is valid and equal
// to Zero(). Values are immutable; every operation returns a new Value.
type Value struct {
	mantissa *big.Int
}

func (v Value) mant() *big.Int {
	if v.mantissa == nil {
		return zeroValue
	}
	return v.mantissa
}

// fromMantissa validates the range and normalizes zero to the nil mantissa,
// so equal values are also deeply equal regardless of how they were built.
func fromMantissa(mantissa *big.Int) (Value, error) {
	if mantissa.Sign() < 0 {
		return Value{}, ErrUnderflow.New("negative mantissa")
	}
	if mantissa.Cmp(maxMantissa) > 0 {
		return Value{}, ErrRange.New("mantissa exceeds maximum")
	}
	if mantissa.Sign() == 0 {
		return Value{}, nil
	}
	return Value{mantissa: mantissa}, nil
}

// Zero returns the zero value.
func Zero() Value { return Value{} }

// Max returns the largest representable value.
func Max() Value { return Value{mantissa: new(big.Int).Set(maxMantissa)} }

// FromInt converts a whole number into a Value. Every uint64 is
// representable.
func FromInt(n uint64) Value {
	if n == 0 {
		return Value{}
	}
	mantissa := new(big.Int).SetUint64(n)
	mantissa.Mul(mantissa, scale)
	return Value{mantissa: mantissa}
}

// FromString parses a decimal string such as "12", "0.5" or
// "340282366920938463463.374607431768211455". A leading sign is an unsigned
// violation, fractional digits beyond the 18th must be zero, and anything
// not shaped like a plain decimal fails to parse.
func FromString(s string) (Value, error) {
	if s == "" {
		return Value{}, ErrParse.New("empty string")
	}
	if s[0] == '-' {
		return Value{}, ErrUnderflow.New("negative value %q", s)
	}

	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
		if fracPart == "" {
			return Value{}, ErrParse.New("missing fractional digits in %q", s)
		}
	}
	if intPart == "" {
		return Value{}, ErrParse.New("missing integer digits in %q", s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return Value{}, ErrParse.New("unexpected character in %q", s)
	}

	if len(fracPart) > Digits {
		for _, ch := range fracPart[Digits:] {
			if ch != '0' {
				return Value{}, ErrUnderflow.New("significant digit beyond %d fractional places in %q", Digits, s)
			}
		}
		fracPart = fracPart[:Digits]
	}

	mantissa, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return Value{}, ErrParse.New("invalid integer part in %q", s)
	}
	mantissa.Mul(mantissa, scale)

	if fracPart != "" {
		frac, ok := new(big.Int).SetString(fracPart, 10)
		if !ok {
			return Value{}, ErrParse.New("invalid fractional part in %q", s)
		}
		for i := len(fracPart); i < Digits; i++ {
			frac.Mul(frac, big.NewInt(10))
		}
		mantissa.Add(mantissa, frac)
	}

	return fromMantissa(mantissa)
}

// MustFromString parses a decimal string and panics on failure. Intended for
// constants and tests.
func MustFromString(s string) Value {
	v, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Add returns v + other.
func (v Value) Add(other Value) (Value, error) {
	return fromMantissa(new(big.Int).Add(v.mant(), other.mant()))
}

// Sub returns v - other. Subtracting a larger value underflows.
func (v Value) Sub(other Value) (Value, error) {
	return fromMantissa(new(big.Int).Sub(v.mant(), other.mant()))
}

// Mul returns v * other, truncating the raw product back to scale.
func (v Value) Mul(other Value) (Value, error) {
	product := new(big.Int).Mul(v.mant(), other.mant())
	return fromMantissa(product.Quo(product, scale))
}

// Div returns v / other as an exact truncating division. The dividend is
// brought to double scale first so the quotient keeps 18 fractional digits.
func (v Value) Div(other Value) (Value, error) {
	if other.mant().Sign() == 0 {
		return Value{}, ErrDivideByZero.New("division of %s by zero", v)
	}
	dividend := new(big.Int).Mul(v.mant(), scale)
	return fromMantissa(dividend.Quo(dividend, other.mant()))
}

// Cmp compares v and other, returning -1, 0 or +1.
func (v Value) Cmp(other Value) int { return v.mant().Cmp(other.mant()) }

// Equal reports whether v and other are the same value.
func (v Value) Equal(other Value) bool { return v.Cmp(other) == 0 }

// Less reports whether v is strictly below other.
func (v Value) Less(other Value) bool { return v.Cmp(other) < 0 }

// IsZero reports whether v is zero.
func (v Value) IsZero() bool { return v.mant().Sign() == 0 }

// Copy returns an independent copy of v.
func (v Value) Copy() Value {
	if v.IsZero() {
		return Value{}
	}
	return Value{mantissa: new(big.Int).Set(v.mantissa)}
}

// String formats the value as a decimal string with trailing fractional
// zeros trimmed, always keeping at least one fractional digit.
func (v Value) String() string {
	intPart, fracPart := new(big.Int).QuoRem(v.mant(), scale, new(big.Int))

	frac := fracPart.String()
	for len(frac) < Digits {
		frac = "0" + frac
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}
	return intPart.String() + "." + frac
}

// MarshalText implements encoding.TextMarshaler.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Value) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
