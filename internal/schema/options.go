package schema

// ColumnOption mutates a column descriptor during construction.
type ColumnOption func(*Column)

// Nullable allows NULL values in the column.
func Nullable() ColumnOption {
	return func(c *Column) { c.Null = true }
}

// Indexed requests a non-unique index on the column, created after the table.
func Indexed() ColumnOption {
	return func(c *Column) { c.Index = true }
}

// Unique adds a UNIQUE constraint to the column definition.
func Unique() ColumnOption {
	return func(c *Column) { c.Unique = true }
}

// Sequence sets the sequence backing the column's default value. Only the
// postgres dialect renders it; others ignore it.
func Sequence(name string) ColumnOption {
	return func(c *Column) { c.Sequence = name }
}

// MaxLength sets the length of char and fixed columns.
func MaxLength(n int) ColumnOption {
	return func(c *Column) { c.MaxLength = n }
}

// MaxDigits sets the total precision of decimal columns.
func MaxDigits(n int) ColumnOption {
	return func(c *Column) { c.MaxDigits = n }
}

// DecimalPlaces sets the scale of decimal columns.
func DecimalPlaces(n int) ColumnOption {
	return func(c *Column) { c.DecimalPlaces = n }
}

// Constraints appends raw SQL fragments to the column definition, passed
// through verbatim.
func Constraints(values ...string) ColumnOption {
	return func(c *Column) { c.Constraints = append(c.Constraints, values...) }
}

// OnDelete sets the referential action of a foreign key column.
func OnDelete(action string) ColumnOption {
	return func(c *Column) { c.OnDelete = action }
}

// OnUpdate sets the referential action of a foreign key column.
func OnUpdate(action string) ColumnOption {
	return func(c *Column) { c.OnUpdate = action }
}
