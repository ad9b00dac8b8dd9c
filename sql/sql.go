package sql

// IsAggFunc reports whether name is one of the built-in aggregate
// functions recognized in a GROUP BY projection or a bare SELECT
// aggregate. Kept from the teacher's own helper of the same name.
func IsAggFunc(name string) bool {
	switch name {
	case "min", "max", "sum", "avg", "count":
		return true
	default:
		return false
	}
}
