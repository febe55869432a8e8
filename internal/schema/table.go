// Package schema holds the declarative table model: column type registry,
// table/column/index descriptors and the fluent TableCreator used inside a
// create-table scope. Nothing here touches a database; descriptors are handed
// to a dialect for physical creation.
package schema

import (
	"fmt"
	"strings"
)

// Column describes one column of a table. Owned exclusively by its Table;
// order of appearance matters for DDL emission and generated code.
type Column struct {
	Name string
	Type string

	PrimaryKey bool

	Null          bool
	Index         bool
	Unique        bool
	Sequence      string
	MaxLength     int
	MaxDigits     int
	DecimalPlaces int
	Constraints   []string

	// Foreign key target, set only when Type is foreign_key.
	RefTable  string
	RefColumn string
	OnDelete  string
	OnUpdate  string
}

// Index describes a (possibly composite) index. Column order is preserved
// verbatim.
type Index struct {
	Columns []string
	Unique  bool
}

// Table is the immutable product of a TableCreator: ordered columns, explicit
// indexes and raw table-level constraints.
type Table struct {
	Name        string
	Columns     []Column
	Indexes     []Index
	Constraints []string
}

// PrimaryKeyColumn returns the table's primary key column, or nil.
func (t *Table) PrimaryKeyColumn() *Column {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			return &t.Columns[i]
		}
	}
	return nil
}

// NewColumn builds a column descriptor from an abstract type tag and options.
// The tag is normalized; unknown tags become char. No semantic validation
// happens here, conflicting options surface at physical apply time.
func NewColumn(tag, name string, opts ...ColumnOption) Column {
	col := Column{Name: name, Type: Normalize(tag)}
	for _, opt := range opts {
		opt(&col)
	}
	return col
}

// ParseReference splits a "table.column" reference; a bare "table" defaults
// the column to id.
func ParseReference(references string) (table, column string) {
	if idx := strings.IndexByte(references, '.'); idx >= 0 {
		return references[:idx], references[idx+1:]
	}
	return references, "id"
}

// TableCreator accumulates a Table through a fluent, single-table API. The
// first misuse (a second primary key) is recorded and surfaced when the
// surrounding create-table scope closes; the table is never created then.
type TableCreator struct {
	table Table
	err   error
}

// NewTableCreator starts a builder for the named table.
func NewTableCreator(name string) *TableCreator {
	return &TableCreator{table: Table{Name: name}}
}

// Column appends a column of the given abstract type.
func (c *TableCreator) Column(tag, name string, opts ...ColumnOption) *TableCreator {
	c.table.Columns = append(c.table.Columns, NewColumn(tag, name, opts...))
	return c
}

func (c *TableCreator) Bare(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeBare, name, opts...)
}

func (c *TableCreator) BigInteger(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeBigInteger, name, opts...)
}

func (c *TableCreator) Binary(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeBlob, name, opts...)
}

func (c *TableCreator) Blob(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeBlob, name, opts...)
}

func (c *TableCreator) Bool(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeBool, name, opts...)
}

func (c *TableCreator) Char(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeChar, name, opts...)
}

func (c *TableCreator) Date(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeDate, name, opts...)
}

func (c *TableCreator) DateTime(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeDateTime, name, opts...)
}

func (c *TableCreator) Decimal(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeDecimal, name, opts...)
}

func (c *TableCreator) Double(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeDouble, name, opts...)
}

func (c *TableCreator) Fixed(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeFixed, name, opts...)
}

func (c *TableCreator) Float(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeFloat, name, opts...)
}

func (c *TableCreator) Integer(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeInteger, name, opts...)
}

func (c *TableCreator) SmallInteger(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeSmallInt, name, opts...)
}

func (c *TableCreator) Text(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeText, name, opts...)
}

func (c *TableCreator) Time(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeTime, name, opts...)
}

func (c *TableCreator) UUID(name string, opts ...ColumnOption) *TableCreator {
	return c.Column(TypeUUID, name, opts...)
}

// PrimaryKey adds the auto-incrementing primary key column. At most one per
// table; a second call is an error.
func (c *TableCreator) PrimaryKey(name string) *TableCreator {
	if c.table.PrimaryKeyColumn() != nil {
		c.fail(fmt.Errorf("table %s: primary key defined twice", c.table.Name))
		return c
	}
	c.table.Columns = append(c.table.Columns, Column{Name: name, Type: TypePrimaryKey, PrimaryKey: true})
	return c
}

// ForeignKey adds an integer column referencing another table, in the format
// "table.column" or just "table" (column defaults to id). The column is
// indexed automatically and the FOREIGN KEY constraint is synthesized by the
// dialect, with optional ON DELETE / ON UPDATE actions.
func (c *TableCreator) ForeignKey(name, references string, opts ...ColumnOption) *TableCreator {
	refTable, refColumn := ParseReference(references)
	col := NewColumn(TypeForeignKey, name, opts...)
	col.Index = true
	col.RefTable = refTable
	col.RefColumn = refColumn
	c.table.Columns = append(c.table.Columns, col)
	return c
}

// AddIndex appends a composite index descriptor. Column order is preserved.
func (c *TableCreator) AddIndex(columns []string, unique bool) *TableCreator {
	c.table.Indexes = append(c.table.Indexes, Index{Columns: columns, Unique: unique})
	return c
}

// AddConstraint appends a raw table-level constraint, passed through verbatim.
func (c *TableCreator) AddConstraint(value string) *TableCreator {
	c.table.Constraints = append(c.table.Constraints, value)
	return c
}

// Table returns the accumulated descriptor.
func (c *TableCreator) Table() *Table {
	return &c.table
}

// Err reports the first builder misuse, if any.
func (c *TableCreator) Err() error {
	return c.err
}

func (c *TableCreator) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}
