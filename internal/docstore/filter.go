package docstore

type Op string

const (
	OpEqual          Op = "=="
	OpIn             Op = "in"
	OpGreaterOrEqual Op = ">="
	OpLessOrEqual    Op = "<="
)

// Filter restricts a query to documents whose top level Field matches Value.
// For OpIn, Value must be a slice.
type Filter struct {
	Field string
	Op    Op
	Value any
}

func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

func Eq(field string, value any) Filter {
	return Where(field, OpEqual, value)
}

func In(field string, values any) Filter {
	return Where(field, OpIn, values)
}
