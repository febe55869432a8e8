package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schema_migrator/internal/schema"
)

type PostgresDialect struct{}

func (PostgresDialect) Name() string { return "postgres" }

func (PostgresDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (PostgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (d PostgresDialect) columnDef(col schema.Column) string {
	if col.PrimaryKey {
		return d.QuoteIdent(col.Name) + " serial PRIMARY KEY"
	}
	def := baseColumnDef(d, col, d.columnType(col))
	if col.Sequence != "" {
		def += fmt.Sprintf(" DEFAULT nextval('%s')", col.Sequence)
	}
	return def
}

func (PostgresDialect) columnType(col schema.Column) string {
	switch col.Type {
	case schema.TypeBare:
		return "text"
	case schema.TypeBigInteger:
		return "bigint"
	case schema.TypeBlob:
		return "bytea"
	case schema.TypeBool:
		return "boolean"
	case schema.TypeChar:
		return fmt.Sprintf("varchar(%d)", charLength(col))
	case schema.TypeDate:
		return "date"
	case schema.TypeDateTime:
		return "timestamp"
	case schema.TypeDecimal:
		digits, places := decimalPrecision(col)
		return fmt.Sprintf("numeric(%d, %d)", digits, places)
	case schema.TypeDouble:
		return "double precision"
	case schema.TypeFixed:
		return fmt.Sprintf("char(%d)", charLength(col))
	case schema.TypeFloat:
		return "real"
	case schema.TypeInteger, schema.TypeForeignKey:
		return "integer"
	case schema.TypeSmallInt:
		return "smallint"
	case schema.TypeText:
		return "text"
	case schema.TypeTime:
		return "time"
	case schema.TypeUUID:
		return "uuid"
	default:
		return fmt.Sprintf("varchar(%d)", charLength(col))
	}
}

func (d PostgresDialect) CreateTable(ctx context.Context, ex Execer, t *schema.Table, ifNotExists bool) error {
	stmts := append([]string{createTableSQL(d, t, ifNotExists)}, deferredIndexes(d, t)...)
	return execAll(ctx, ex, stmts)
}

func (d PostgresDialect) DropTable(ctx context.Context, ex Execer, name string, safe, cascade bool) error {
	stmt := "DROP TABLE "
	if safe {
		stmt += "IF EXISTS "
	}
	stmt += d.QuoteIdent(name)
	if cascade {
		stmt += " CASCADE"
	}
	_, err := ex.ExecContext(ctx, stmt)
	return err
}

func (d PostgresDialect) AddColumn(ctx context.Context, ex Execer, table string, col schema.Column) error {
	stmts := []string{addColumnSQL(d, table, col)}
	if col.Index {
		stmts = append(stmts, createIndexSQL(d, table, []string{col.Name}, false))
	}
	return execAll(ctx, ex, stmts)
}

func (d PostgresDialect) DropColumn(ctx context.Context, ex Execer, table, name string, cascade bool) error {
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdent(table), d.QuoteIdent(name))
	if cascade {
		stmt += " CASCADE"
	}
	_, err := ex.ExecContext(ctx, stmt)
	return err
}

func (d PostgresDialect) RenameColumn(ctx context.Context, ex Execer, table, oldName, newName string) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		d.QuoteIdent(table), d.QuoteIdent(oldName), d.QuoteIdent(newName)))
	return err
}

func (d PostgresDialect) RenameTable(ctx context.Context, ex Execer, oldName, newName string) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		d.QuoteIdent(oldName), d.QuoteIdent(newName)))
	return err
}

func (d PostgresDialect) AddNotNull(ctx context.Context, ex Execer, table, column string) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL",
		d.QuoteIdent(table), d.QuoteIdent(column)))
	return err
}

func (d PostgresDialect) DropNotNull(ctx context.Context, ex Execer, table, column string) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL",
		d.QuoteIdent(table), d.QuoteIdent(column)))
	return err
}

func (d PostgresDialect) AddIndex(ctx context.Context, ex Execer, table string, columns []string, unique bool) error {
	_, err := ex.ExecContext(ctx, createIndexSQL(d, table, columns, unique))
	return err
}

func (d PostgresDialect) DropIndex(ctx context.Context, ex Execer, table, name string) error {
	_, err := ex.ExecContext(ctx, "DROP INDEX "+d.QuoteIdent(name))
	return err
}

func (d PostgresDialect) EnsureHistoryTable(ctx context.Context, ex Execer, table string) error {
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	name varchar(255) NOT NULL UNIQUE,
	date_applied timestamptz NOT NULL DEFAULT now()
)`, d.QuoteIdent(table))
	_, err := ex.ExecContext(ctx, stmt)
	return err
}

func (d PostgresDialect) TableNames(ctx context.Context, ex Execer) ([]string, error) {
	rows, err := ex.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema='public' AND table_type='BASE TABLE'
ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (d PostgresDialect) DescribeTable(ctx context.Context, ex Execer, name string) (*schema.Table, error) {
	pk, err := d.primaryKeyColumns(ctx, ex, name)
	if err != nil {
		return nil, err
	}

	rows, err := ex.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable, character_maximum_length
FROM information_schema.columns
WHERE table_schema='public' AND table_name=$1
ORDER BY ordinal_position`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := &schema.Table{Name: name}
	for rows.Next() {
		var colName, dataType, nullable string
		var maxLength sql.NullInt64
		if err := rows.Scan(&colName, &dataType, &nullable, &maxLength); err != nil {
			return nil, err
		}
		col := schema.Column{
			Name: colName,
			Type: schema.TagForPhysical(dataType),
			Null: strings.EqualFold(nullable, "YES"),
		}
		if maxLength.Valid {
			col.MaxLength = int(maxLength.Int64)
		}
		if len(pk) == 1 && pk[0] == colName && isIntegerTag(col.Type) {
			col = schema.Column{Name: colName, Type: schema.TypePrimaryKey, PrimaryKey: true}
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found", name)
	}
	return t, nil
}

func (d PostgresDialect) primaryKeyColumns(ctx context.Context, ex Execer, table string) ([]string, error) {
	rows, err := ex.QueryContext(ctx, `
SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
 AND tc.table_name = kcu.table_name
WHERE tc.table_schema='public' AND tc.table_name=$1 AND tc.constraint_type='PRIMARY KEY'
ORDER BY kcu.ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func isIntegerTag(tag string) bool {
	switch tag {
	case schema.TypeInteger, schema.TypeBigInteger, schema.TypeSmallInt:
		return true
	}
	return false
}
