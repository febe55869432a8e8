package db

import (
	"context"
	"fmt"
	"strings"

	"schema_migrator/internal/schema"
)

type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLiteDialect) Placeholder(int) string { return "?" }

func (d SQLiteDialect) columnDef(col schema.Column) string {
	if col.PrimaryKey {
		return d.QuoteIdent(col.Name) + " integer PRIMARY KEY AUTOINCREMENT"
	}
	return baseColumnDef(d, col, d.columnType(col))
}

func (SQLiteDialect) columnType(col schema.Column) string {
	switch col.Type {
	case schema.TypeBare:
		// sqlite columns may be typeless.
		return ""
	case schema.TypeBigInteger:
		return "bigint"
	case schema.TypeBlob:
		return "blob"
	case schema.TypeBool:
		return "integer"
	case schema.TypeChar:
		return fmt.Sprintf("varchar(%d)", charLength(col))
	case schema.TypeDate:
		return "date"
	case schema.TypeDateTime:
		return "datetime"
	case schema.TypeDecimal:
		digits, places := decimalPrecision(col)
		return fmt.Sprintf("decimal(%d, %d)", digits, places)
	case schema.TypeDouble:
		return "real"
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
		return "text"
	default:
		return fmt.Sprintf("varchar(%d)", charLength(col))
	}
}

func (d SQLiteDialect) CreateTable(ctx context.Context, ex Execer, t *schema.Table, ifNotExists bool) error {
	stmts := append([]string{createTableSQL(d, t, ifNotExists)}, deferredIndexes(d, t)...)
	return execAll(ctx, ex, stmts)
}

func (d SQLiteDialect) DropTable(ctx context.Context, ex Execer, name string, safe, _ bool) error {
	stmt := "DROP TABLE "
	if safe {
		stmt += "IF EXISTS "
	}
	stmt += d.QuoteIdent(name)
	_, err := ex.ExecContext(ctx, stmt)
	return err
}

func (d SQLiteDialect) AddColumn(ctx context.Context, ex Execer, table string, col schema.Column) error {
	stmts := []string{addColumnSQL(d, table, col)}
	if col.Index {
		stmts = append(stmts, createIndexSQL(d, table, []string{col.Name}, false))
	}
	return execAll(ctx, ex, stmts)
}

func (d SQLiteDialect) DropColumn(ctx context.Context, ex Execer, table, name string, _ bool) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		d.QuoteIdent(table), d.QuoteIdent(name)))
	return err
}

func (d SQLiteDialect) RenameColumn(ctx context.Context, ex Execer, table, oldName, newName string) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		d.QuoteIdent(table), d.QuoteIdent(oldName), d.QuoteIdent(newName)))
	return err
}

func (d SQLiteDialect) RenameTable(ctx context.Context, ex Execer, oldName, newName string) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		d.QuoteIdent(oldName), d.QuoteIdent(newName)))
	return err
}

// sqlite cannot alter column nullability in place; a table rebuild would be
// required, which this engine does not attempt.
func (SQLiteDialect) AddNotNull(_ context.Context, _ Execer, table, column string) error {
	return fmt.Errorf("add not null on %s.%s: %w", table, column, ErrUnsupported)
}

func (SQLiteDialect) DropNotNull(_ context.Context, _ Execer, table, column string) error {
	return fmt.Errorf("drop not null on %s.%s: %w", table, column, ErrUnsupported)
}

func (d SQLiteDialect) AddIndex(ctx context.Context, ex Execer, table string, columns []string, unique bool) error {
	_, err := ex.ExecContext(ctx, createIndexSQL(d, table, columns, unique))
	return err
}

func (d SQLiteDialect) DropIndex(ctx context.Context, ex Execer, _, name string) error {
	_, err := ex.ExecContext(ctx, "DROP INDEX "+d.QuoteIdent(name))
	return err
}

func (d SQLiteDialect) EnsureHistoryTable(ctx context.Context, ex Execer, table string) error {
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	name varchar(255) NOT NULL UNIQUE,
	date_applied datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, d.QuoteIdent(table))
	_, err := ex.ExecContext(ctx, stmt)
	return err
}

func (d SQLiteDialect) TableNames(ctx context.Context, ex Execer) ([]string, error) {
	rows, err := ex.QueryContext(ctx, `
SELECT name FROM sqlite_master
WHERE type='table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (d SQLiteDialect) DescribeTable(ctx context.Context, ex Execer, name string) (*schema.Table, error) {
	rows, err := ex.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdent(name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := &schema.Table{Name: name}
	for rows.Next() {
		var (
			cid, notNull, pk  int
			colName, declared string
			dflt              any
		)
		if err := rows.Scan(&cid, &colName, &declared, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		col := schema.Column{
			Name: colName,
			Type: schema.TagForPhysical(declared),
			Null: notNull == 0,
		}
		if n := parenLength(declared); n > 0 {
			col.MaxLength = n
		}
		if pk == 1 && isIntegerTag(col.Type) {
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

// parenLength pulls the length out of declarations like "varchar(80)".
func parenLength(declared string) int {
	open := strings.IndexByte(declared, '(')
	end := strings.IndexByte(declared, ')')
	if open < 0 || end <= open {
		return 0
	}
	inner := strings.TrimSpace(declared[open+1 : end])
	if comma := strings.IndexByte(inner, ','); comma >= 0 {
		inner = strings.TrimSpace(inner[:comma])
	}
	var n int
	if _, err := fmt.Sscanf(inner, "%d", &n); err != nil {
		return 0
	}
	return n
}
