package cexpr

import "strconv"

// Value is an intmax_t or uintmax_t result.
type Value struct {
	bits     uint64
	Unsigned bool
}

func Int(v int64) Value { return Value{bits: uint64(v)} }

func Uint(v uint64) Value { return Value{bits: v, Unsigned: true} }

func boolValue(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

func (v Value) Signed() int64 { return int64(v.bits) }

func (v Value) Bits() uint64 { return v.bits }

func (v Value) IsTrue() bool { return v.bits != 0 }

func (v Value) String() string {
	if v.Unsigned {
		return strconv.FormatUint(v.bits, 10) + "u"
	}
	return strconv.FormatInt(int64(v.bits), 10)
}
