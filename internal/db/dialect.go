package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"schema_migrator/internal/schema"
)

// ErrUnsupported marks a DDL operation the dialect cannot express.
var ErrUnsupported = errors.New("operation not supported by dialect")

// Dialect issues physical DDL against an Execer. Implementations hold no
// state; transactions are owned by the caller.
type Dialect interface {
	Name() string

	CreateTable(ctx context.Context, ex Execer, t *schema.Table, ifNotExists bool) error
	DropTable(ctx context.Context, ex Execer, name string, safe, cascade bool) error
	AddColumn(ctx context.Context, ex Execer, table string, col schema.Column) error
	DropColumn(ctx context.Context, ex Execer, table, name string, cascade bool) error
	RenameColumn(ctx context.Context, ex Execer, table, oldName, newName string) error
	RenameTable(ctx context.Context, ex Execer, oldName, newName string) error
	AddNotNull(ctx context.Context, ex Execer, table, column string) error
	DropNotNull(ctx context.Context, ex Execer, table, column string) error
	AddIndex(ctx context.Context, ex Execer, table string, columns []string, unique bool) error
	DropIndex(ctx context.Context, ex Execer, table, name string) error

	EnsureHistoryTable(ctx context.Context, ex Execer, table string) error
	Placeholder(n int) string
	QuoteIdent(name string) string

	TableNames(ctx context.Context, ex Execer) ([]string, error)
	DescribeTable(ctx context.Context, ex Execer, name string) (*schema.Table, error)
}

// columnTyper is the per-dialect part of DDL assembly; everything else is
// shared below.
type columnTyper interface {
	QuoteIdent(name string) string
	columnDef(col schema.Column) string
}

func createTableSQL(d columnTyper, t *schema.Table, ifNotExists bool) string {
	var defs []string
	for _, col := range t.Columns {
		defs = append(defs, d.columnDef(col))
	}
	for _, col := range t.Columns {
		if col.Type == schema.TypeForeignKey {
			defs = append(defs, foreignKeyClause(d, col))
		}
	}
	defs = append(defs, t.Constraints...)

	clause := "CREATE TABLE "
	if ifNotExists {
		clause += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (%s)", clause, d.QuoteIdent(t.Name), strings.Join(defs, ", "))
}

func foreignKeyClause(d columnTyper, col schema.Column) string {
	clause := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.QuoteIdent(col.Name), d.QuoteIdent(col.RefTable), d.QuoteIdent(col.RefColumn))
	if col.OnDelete != "" {
		clause += " ON DELETE " + col.OnDelete
	}
	if col.OnUpdate != "" {
		clause += " ON UPDATE " + col.OnUpdate
	}
	return clause
}

// baseColumnDef renders name, type and the common column suffixes; the type
// itself comes from the dialect.
func baseColumnDef(d columnTyper, col schema.Column, typeName string) string {
	var b strings.Builder
	b.WriteString(d.QuoteIdent(col.Name))
	if typeName != "" {
		b.WriteString(" ")
		b.WriteString(typeName)
	}
	if !col.Null && !col.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if col.Unique {
		b.WriteString(" UNIQUE")
	}
	for _, c := range col.Constraints {
		b.WriteString(" ")
		b.WriteString(c)
	}
	return b.String()
}

func addColumnSQL(d columnTyper, table string, col schema.Column) string {
	def := d.columnDef(col)
	if col.Type == schema.TypeForeignKey {
		def += fmt.Sprintf(" REFERENCES %s (%s)", d.QuoteIdent(col.RefTable), d.QuoteIdent(col.RefColumn))
		if col.OnDelete != "" {
			def += " ON DELETE " + col.OnDelete
		}
		if col.OnUpdate != "" {
			def += " ON UPDATE " + col.OnUpdate
		}
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdent(table), def)
}

func indexName(table string, columns []string) string {
	return table + "_" + strings.Join(columns, "_")
}

func createIndexSQL(d columnTyper, table string, columns []string, unique bool) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s %s ON %s (%s)",
		kind, d.QuoteIdent(indexName(table, columns)), d.QuoteIdent(table), strings.Join(quoted, ", "))
}

// deferredIndexes lists the CREATE INDEX statements implied by a descriptor:
// indexed columns in declaration order, then explicit index descriptors in
// order. Unique column constraints are rendered inline, not here.
func deferredIndexes(d columnTyper, t *schema.Table) []string {
	var stmts []string
	for _, col := range t.Columns {
		if col.Index {
			stmts = append(stmts, createIndexSQL(d, t.Name, []string{col.Name}, false))
		}
	}
	for _, idx := range t.Indexes {
		stmts = append(stmts, createIndexSQL(d, t.Name, idx.Columns, idx.Unique))
	}
	return stmts
}

func execAll(ctx context.Context, ex Execer, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// decimalPrecision applies the default precision for decimal columns.
func decimalPrecision(col schema.Column) (digits, places int) {
	digits, places = col.MaxDigits, col.DecimalPlaces
	if digits == 0 {
		digits = 10
	}
	if places == 0 {
		places = 5
	}
	return digits, places
}

func charLength(col schema.Column) int {
	if col.MaxLength > 0 {
		return col.MaxLength
	}
	return 255
}
