// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package interp implements the Rush tree-walking executor: Context, Scope,
// the Exec/GetValue dispatchers, ExecResult, and the pipe/redirect plumbing
// described in spec.md §4.3.
package interp

import (
	"math/bits"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Kind tags the variant a Variable currently holds, per spec.md §3.
type Kind int

const (
	KindString Kind = iota
	KindI32
	KindI64
	KindI128
	KindU32
	KindU64
	KindU128
	KindF32
	KindF64
	KindBool
	KindArray
	KindHMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindI32:
		return "I32"
	case KindI64:
		return "I64"
	case KindI128:
		return "I128"
	case KindU32:
		return "U32"
	case KindU64:
		return "U64"
	case KindU128:
		return "U128"
	case KindF32:
		return "F32"
	case KindF64:
		return "F64"
	case KindBool:
		return "Bool"
	case KindArray:
		return "Array"
	case KindHMap:
		return "HMap"
	default:
		return "Unknown"
	}
}

// Variable is the runtime value type, a tagged variant over the widths
// spec.md §3 lists. original_source/src/parser/vars.rs models this as a Rust
// enum over native int/uint/float widths; Go has no i128/u128 primitive, so
// the 128-bit widths are carried in big (set only for KindI128/KindU128,
// nil otherwise) while the narrower widths live directly in i/u/f.
type Variable struct {
	Kind Kind

	str string
	i   int64
	u   uint64
	big *big128
	f   float64
	b   bool
	arr []Variable
	m   map[string]Variable
}

// big128 stores a signed-or-unsigned 128-bit value as two 64-bit halves.
// Rush never does 128-bit arithmetic (spec.md only requires storage and
// stringification), so this avoids pulling in math/big for a single width.
type big128 struct {
	neg    bool
	hi, lo uint64
}

func (b *big128) String() string {
	if b.hi == 0 {
		if b.neg {
			return "-" + strconv.FormatUint(b.lo, 10)
		}
		return strconv.FormatUint(b.lo, 10)
	}
	// Rare path: values needing the high half, converted to decimal by
	// repeated division of the 128-bit value by 10.
	var digits []byte
	for hi, lo := b.hi, b.lo; hi != 0 || lo != 0; {
		var r uint64
		hi, r = hi/10, hi%10
		lo, r = bits.Div64(r, lo, 10)
		digits = append([]byte{byte('0' + r)}, digits...)
	}
	sign := ""
	if b.neg {
		sign = "-"
	}
	return sign + string(digits)
}

func NewString(s string) Variable { return Variable{Kind: KindString, str: s} }
func NewI32(v int32) Variable     { return Variable{Kind: KindI32, i: int64(v)} }
func NewI64(v int64) Variable     { return Variable{Kind: KindI64, i: v} }
func NewU32(v uint32) Variable    { return Variable{Kind: KindU32, u: uint64(v)} }
func NewU64(v uint64) Variable    { return Variable{Kind: KindU64, u: v} }
func NewF32(v float32) Variable   { return Variable{Kind: KindF32, f: float64(v)} }
func NewF64(v float64) Variable   { return Variable{Kind: KindF64, f: v} }
func NewBool(v bool) Variable     { return Variable{Kind: KindBool, b: v} }
func NewArray(v []Variable) Variable {
	if v == nil {
		v = []Variable{}
	}
	return Variable{Kind: KindArray, arr: v}
}
func NewHMap(v map[string]Variable) Variable {
	if v == nil {
		v = map[string]Variable{}
	}
	return Variable{Kind: KindHMap, m: v}
}

// String renders v per spec.md §3's stringification policy: numbers/bool in
// natural decimal/literal form, HMap as the fixed token "[Object object]",
// an Array of length 1 collapsing to its element's string, otherwise
// space-joined elements.
func (v Variable) String() string {
	switch v.Kind {
	case KindString:
		return v.str
	case KindI32, KindI64:
		return strconv.FormatInt(v.i, 10)
	case KindU32, KindU64:
		return strconv.FormatUint(v.u, 10)
	case KindI128, KindU128:
		if v.big != nil {
			return v.big.String()
		}
		return "0"
	case KindF32, KindF64:
		bits := 64
		if v.Kind == KindF32 {
			bits = 32
		}
		return strconv.FormatFloat(v.f, 'g', -1, bits)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindHMap:
		return "[Object object]"
	case KindArray:
		if len(v.arr) == 1 {
			return v.arr[0].String()
		}
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// AsArray returns v's elements when v is an Array, or nil, false otherwise.
func (v Variable) AsArray() ([]Variable, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsInt returns an integer reading of v for the 32- and 64-bit integer
// kinds, and 1 or 0 for a Bool. All other kinds, including the 128-bit and
// float kinds, report 0, false.
func (v Variable) AsInt() (int64, bool) {
	switch v.Kind {
	case KindI32, KindI64:
		return v.i, true
	case KindU32, KindU64:
		return int64(v.u), true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Index implements spec.md §3's indexing rule: HMap requires a string key;
// Array accepts a key AsInt can read (32/64-bit integers, Bool) or a String
// parseable as an unsigned integer, and rejects 128-bit and float keys; all
// other variants fail.
func (v Variable) Index(key Variable) (Variable, error) {
	switch v.Kind {
	case KindHMap:
		k := key.String()
		val, ok := v.m[k]
		if !ok {
			return Variable{}, xerrors.Errorf("rush: no such key %q", k)
		}
		return val, nil
	case KindArray:
		idx, ok := key.AsInt()
		if !ok {
			if key.Kind == KindString {
				u, err := strconv.ParseUint(strings.TrimSpace(key.str), 10, 64)
				if err == nil {
					idx = int64(u)
					ok = true
				}
			}
		}
		if !ok {
			return Variable{}, xerrors.Errorf("rush: cannot index array with %s", key.Kind)
		}
		if idx < 0 || int(idx) >= len(v.arr) {
			return Variable{}, xerrors.Errorf("rush: array index %d out of range", idx)
		}
		return v.arr[idx], nil
	default:
		return Variable{}, xerrors.Errorf("rush: cannot index %s", v.Kind)
	}
}
