package ir

import (
	"fmt"
	"strings"
)

// Kind is the base kind of a DataType.
type Kind int

// Type kinds.
const (
	KindNull Kind = iota
	KindBoolean
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindDecimal
	KindString
	KindDate
	KindTime
	KindTimestamp
	KindInterval
)

var kindNames = [...]string{
	KindNull:      "null",
	KindBoolean:   "boolean",
	KindInt8:      "int8",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindDecimal:   "decimal",
	KindString:    "string",
	KindDate:      "date",
	KindTime:      "time",
	KindTimestamp: "timestamp",
	KindInterval:  "interval",
}

// String returns the canonical kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// DataType is a kind plus nullability. The zero value is the nullable null type.
type DataType struct {
	Kind    Kind
	NotNull bool
}

// Nullable data types.
var (
	Null      = DataType{Kind: KindNull}
	Boolean   = DataType{Kind: KindBoolean}
	Int8      = DataType{Kind: KindInt8}
	Int16     = DataType{Kind: KindInt16}
	Int32     = DataType{Kind: KindInt32}
	Int64     = DataType{Kind: KindInt64}
	Float32   = DataType{Kind: KindFloat32}
	Float64   = DataType{Kind: KindFloat64}
	Decimal   = DataType{Kind: KindDecimal}
	String    = DataType{Kind: KindString}
	Date      = DataType{Kind: KindDate}
	Time      = DataType{Kind: KindTime}
	Timestamp = DataType{Kind: KindTimestamp}
	IntervalT = DataType{Kind: KindInterval}
)

// NonNull returns the non-nullable variant of t.
func (t DataType) NonNull() DataType {
	t.NotNull = true
	return t
}

// AsNullable returns the nullable variant of t.
func (t DataType) AsNullable() DataType {
	t.NotNull = false
	return t
}

// Name returns the canonical type name without nullability.
func (t DataType) Name() string { return t.Kind.String() }

// String renders the type; non-nullable types carry a leading "!".
func (t DataType) String() string {
	if t.NotNull {
		return "!" + t.Kind.String()
	}
	return t.Kind.String()
}

// IsNull reports whether t is the null type.
func (t DataType) IsNull() bool { return t.Kind == KindNull }

// IsInteger reports whether t is a signed integer type.
func (t DataType) IsInteger() bool { return t.Kind >= KindInt8 && t.Kind <= KindInt64 }

// IsFloating reports whether t is a floating point type.
func (t DataType) IsFloating() bool { return t.Kind == KindFloat32 || t.Kind == KindFloat64 }

// IsNumeric reports whether t is an integer, floating or decimal type.
func (t DataType) IsNumeric() bool { return t.IsInteger() || t.IsFloating() || t.Kind == KindDecimal }

// IsTemporal reports whether t is a time-valued type.
func (t DataType) IsTemporal() bool {
	return t.Kind == KindDate || t.Kind == KindTime || t.Kind == KindTimestamp
}

// IsBoolean reports whether t is boolean.
func (t DataType) IsBoolean() bool { return t.Kind == KindBoolean }

var typeAliases = map[string]Kind{
	"bool":      KindBoolean,
	"tinyint":   KindInt8,
	"smallint":  KindInt16,
	"int":       KindInt32,
	"integer":   KindInt32,
	"bigint":    KindInt64,
	"float":     KindFloat32,
	"real":      KindFloat32,
	"double":    KindFloat64,
	"numeric":   KindDecimal,
	"varchar":   KindString,
	"text":      KindString,
	"datetime":  KindTimestamp,
	"timestamp": KindTimestamp,
}

// ParseDataType parses a canonical type name. A leading "!" marks the type
// non-nullable. Common SQL aliases (bigint, varchar, ...) are accepted.
func ParseDataType(s string) (DataType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	var t DataType
	if strings.HasPrefix(s, "!") {
		t.NotNull = true
		s = s[1:]
	}
	for k, name := range kindNames {
		if name == s {
			t.Kind = Kind(k)
			return t, nil
		}
	}
	if k, ok := typeAliases[s]; ok {
		t.Kind = k
		return t, nil
	}
	return DataType{}, fmt.Errorf("unknown data type %q", s)
}

// numericRank orders numeric kinds for promotion.
func numericRank(k Kind) int {
	switch k {
	case KindInt8:
		return 1
	case KindInt16:
		return 2
	case KindInt32:
		return 3
	case KindInt64:
		return 4
	case KindDecimal:
		return 5
	case KindFloat32:
		return 6
	case KindFloat64:
		return 7
	default:
		return 0
	}
}

// promoteNumeric returns the common numeric kind of a and b.
func promoteNumeric(a, b Kind) Kind {
	ra, rb := numericRank(a), numericRank(b)
	if ra < rb {
		a, b = b, a
		ra, rb = rb, ra
	}
	// float32 cannot hold int32/int64/decimal exactly
	if a == KindFloat32 && rb >= numericRank(KindInt32) {
		return KindFloat64
	}
	return a
}

// commonType returns the type both a and b can be implicitly converted to.
func commonType(a, b DataType) (DataType, bool) {
	nullable := !a.NotNull || !b.NotNull
	var k Kind
	switch {
	case a.IsNull():
		k = b.Kind
	case b.IsNull():
		k = a.Kind
	case a.IsNumeric() && b.IsNumeric():
		k = promoteNumeric(a.Kind, b.Kind)
	case a.Kind == b.Kind:
		k = a.Kind
	default:
		return DataType{}, false
	}
	return DataType{Kind: k, NotNull: !nullable}, true
}

// isComparable reports whether values of a and b can be compared with =.
func isComparable(a, b DataType) bool {
	if a.IsNull() || b.IsNull() {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	if (a.Kind == KindDate && b.Kind == KindTimestamp) || (a.Kind == KindTimestamp && b.Kind == KindDate) {
		return true
	}
	return a.Kind == b.Kind
}

// orderable reports whether values of t have a total order for < and MIN/MAX.
func orderable(t DataType) bool {
	return t.IsNumeric() || t.IsTemporal() || t.Kind == KindString || t.Kind == KindInterval || t.IsNull()
}

// smallestInt returns the narrowest integer type holding v.
func smallestInt(v int64) DataType {
	switch {
	case v >= -1<<7 && v < 1<<7:
		return Int8.NonNull()
	case v >= -1<<15 && v < 1<<15:
		return Int16.NonNull()
	case v >= -1<<31 && v < 1<<31:
		return Int32.NonNull()
	default:
		return Int64.NonNull()
	}
}
