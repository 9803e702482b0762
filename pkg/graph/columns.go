package graph

// ColumnKind tags which typed slice of a Column is populated (§3.5, §9
// design note). Go has no sum types, so the tag plus one active slice per
// kind stands in for the source's ColumnData = I32(..) | I64(..) | ... enum.
type ColumnKind int

const (
	ColString ColumnKind = iota
	ColInt64
	ColInt32
	ColDouble
	ColFloat
	ColBool
	ColTimestampMs
	ColStruct
	ColListString
	ColListInt64
	ColListInt32
	ColListDouble
)

// Column is one named, typed, columnar attribute: exactly one of the typed
// slices below is non-nil, selected by Kind. Every slice is indexed by the
// dense node or edge id it describes and is append-only during ingest,
// frozen thereafter.
type Column struct {
	Kind ColumnKind

	Strings  []string
	Int64s   []int64
	Int32s   []int32
	Doubles  []float64
	Floats   []float32
	Bools    []bool
	Millis   []int64 // timestamp-ms
	Structs  []any   // opaque

	ListStrings [][]string
	ListInt64s  [][]int64
	ListInt32s  [][]int32
	ListDoubles [][]float64
}

// grow extends every populated slice in the column to length n, padding new
// entries with the zero value, so columns stay dense even when a node is
// created before its attribute value is known.
func (c *Column) grow(n int) {
	switch c.Kind {
	case ColString:
		c.Strings = growTo(c.Strings, n)
	case ColInt64:
		c.Int64s = growTo(c.Int64s, n)
	case ColInt32:
		c.Int32s = growTo(c.Int32s, n)
	case ColDouble:
		c.Doubles = growTo(c.Doubles, n)
	case ColFloat:
		c.Floats = growTo(c.Floats, n)
	case ColBool:
		c.Bools = growTo(c.Bools, n)
	case ColTimestampMs:
		c.Millis = growTo(c.Millis, n)
	case ColStruct:
		c.Structs = growTo(c.Structs, n)
	case ColListString:
		c.ListStrings = growTo(c.ListStrings, n)
	case ColListInt64:
		c.ListInt64s = growTo(c.ListInt64s, n)
	case ColListInt32:
		c.ListInt32s = growTo(c.ListInt32s, n)
	case ColListDouble:
		c.ListDoubles = growTo(c.ListDoubles, n)
	}
}

func growTo[T any](s []T, n int) []T {
	if len(s) >= n {
		return s
	}
	return append(s, make([]T, n-len(s))...)
}
