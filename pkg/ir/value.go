package ir

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a typed scalar, used for start values.
//
// A Value parsed before its variable's kind is known carries KindUnknown and
// keeps the number in Real; Convert turns it into the final kind.
type Value struct {
	Kind    Kind    `json:"kind"`
	Real    float64 `json:"real,omitempty"`
	Integer int32   `json:"integer,omitempty"`
	Boolean bool    `json:"boolean,omitempty"`
}

// RealValue creates a Real value.
func RealValue(v float64) Value { return Value{Kind: KindReal, Real: v} }

// IntegerValue creates an Integer value.
func IntegerValue(v int32) Value { return Value{Kind: KindInteger, Integer: v} }

// BooleanValue creates a Boolean value.
func BooleanValue(v bool) Value { return Value{Kind: KindBoolean, Boolean: v} }

// NumberValue creates an untyped numeric value.
func NumberValue(v float64) Value { return Value{Kind: KindUnknown, Real: v} }

// String formats the value the way it appears in a start attribute.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(int64(v.Integer), 10)
	case KindBoolean:
		return strconv.FormatBool(v.Boolean)
	default:
		return FormatReal(v.Real)
	}
}

// Convert returns the value expressed as kind k.
//
// Real and untyped numbers convert to Integer only when integral and within
// int32 range. Booleans never convert to or from numbers.
func (v Value) Convert(k Kind) (Value, error) {
	if v.Kind == k {
		return v, nil
	}
	switch k {
	case KindReal:
		switch v.Kind {
		case KindUnknown:
			return RealValue(v.Real), nil
		case KindInteger:
			return RealValue(float64(v.Integer)), nil
		}
	case KindInteger:
		if v.Kind == KindUnknown || v.Kind == KindReal {
			if v.Real != math.Trunc(v.Real) || v.Real > math.MaxInt32 || v.Real < math.MinInt32 {
				return Value{}, fmt.Errorf("%s is not a 32-bit integer", FormatReal(v.Real))
			}
			return IntegerValue(int32(v.Real)), nil
		}
	}
	return Value{}, fmt.Errorf("cannot convert %s value to %s", v.Kind, k)
}

// FormatReal formats a float in the shortest form that round-trips.
func FormatReal(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
