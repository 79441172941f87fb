package cmodel

// Widths in bytes of the C scalar types that do not vary across the
// targets Go supports.
const (
	Char     = 1
	Short    = 2
	Int      = 4
	LongLong = 8
	Float    = 4
	Double   = 8
)

// CType names a C scalar type.
type CType int

const (
	CChar CType = iota
	CShort
	CInt
	CLong
	CLongLong
	CFloat
	CDouble
)

var ctypeNames = [...]string{"char", "short", "int", "long", "long long", "float", "double"}

func (c CType) String() string {
	if c < 0 || int(c) >= len(ctypeNames) {
		return "unknown"
	}
	return ctypeNames[c]
}

// Sizeof returns the width of c in bytes, or 0 for an unknown type.
func Sizeof(c CType) int {
	switch c {
	case CChar:
		return Char
	case CShort:
		return Short
	case CInt:
		return Int
	case CLong:
		return Long
	case CLongLong:
		return LongLong
	case CFloat:
		return Float
	case CDouble:
		return Double
	}
	return 0
}

// CTypes lists every known C type in declaration order.
func CTypes() []CType {
	return []CType{CChar, CShort, CInt, CLong, CLongLong, CFloat, CDouble}
}
