package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schema_migrator/internal/schema"
)

type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

func (MySQLDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQLDialect) Placeholder(int) string { return "?" }

func (d MySQLDialect) columnDef(col schema.Column) string {
	if col.PrimaryKey {
		return d.QuoteIdent(col.Name) + " integer AUTO_INCREMENT PRIMARY KEY"
	}
	return baseColumnDef(d, col, d.columnType(col))
}

func (MySQLDialect) columnType(col schema.Column) string {
	switch col.Type {
	case schema.TypeBare:
		return "text"
	case schema.TypeBigInteger:
		return "bigint"
	case schema.TypeBlob:
		return "blob"
	case schema.TypeBool:
		return "tinyint(1)"
	case schema.TypeChar:
		return fmt.Sprintf("varchar(%d)", charLength(col))
	case schema.TypeDate:
		return "date"
	case schema.TypeDateTime:
		return "datetime"
	case schema.TypeDecimal:
		digits, places := decimalPrecision(col)
		return fmt.Sprintf("numeric(%d, %d)", digits, places)
	case schema.TypeDouble:
		return "double precision"
	case schema.TypeFixed:
		return fmt.Sprintf("char(%d)", charLength(col))
	case schema.TypeFloat:
		return "float"
	case schema.TypeInteger, schema.TypeForeignKey:
		return "integer"
	case schema.TypeSmallInt:
		return "smallint"
	case schema.TypeText:
		return "text"
	case schema.TypeTime:
		return "time"
	case schema.TypeUUID:
		return "varchar(40)"
	default:
		return fmt.Sprintf("varchar(%d)", charLength(col))
	}
}

func (d MySQLDialect) CreateTable(ctx context.Context, ex Execer, t *schema.Table, ifNotExists bool) error {
	stmts := append([]string{createTableSQL(d, t, ifNotExists)}, deferredIndexes(d, t)...)
	return execAll(ctx, ex, stmts)
}

func (d MySQLDialect) DropTable(ctx context.Context, ex Execer, name string, safe, cascade bool) error {
	stmt := "DROP TABLE "
	if safe {
		stmt += "IF EXISTS "
	}
	stmt += d.QuoteIdent(name)
	// mysql parses CASCADE but ignores it; dependent objects stay.
	if cascade {
		stmt += " CASCADE"
	}
	_, err := ex.ExecContext(ctx, stmt)
	return err
}

func (d MySQLDialect) AddColumn(ctx context.Context, ex Execer, table string, col schema.Column) error {
	stmts := []string{addColumnSQL(d, table, col)}
	if col.Index {
		stmts = append(stmts, createIndexSQL(d, table, []string{col.Name}, false))
	}
	return execAll(ctx, ex, stmts)
}

func (d MySQLDialect) DropColumn(ctx context.Context, ex Execer, table, name string, _ bool) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		d.QuoteIdent(table), d.QuoteIdent(name)))
	return err
}

func (d MySQLDialect) RenameColumn(ctx context.Context, ex Execer, table, oldName, newName string) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		d.QuoteIdent(table), d.QuoteIdent(oldName), d.QuoteIdent(newName)))
	return err
}

func (d MySQLDialect) RenameTable(ctx context.Context, ex Execer, oldName, newName string) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("RENAME TABLE %s TO %s",
		d.QuoteIdent(oldName), d.QuoteIdent(newName)))
	return err
}

// mysql has no SET/DROP NOT NULL; MODIFY needs the full column type, so the
// current definition is read back first.
func (d MySQLDialect) AddNotNull(ctx context.Context, ex Execer, table, column string) error {
	return d.modifyNullability(ctx, ex, table, column, "NOT NULL")
}

func (d MySQLDialect) DropNotNull(ctx context.Context, ex Execer, table, column string) error {
	return d.modifyNullability(ctx, ex, table, column, "NULL")
}

func (d MySQLDialect) modifyNullability(ctx context.Context, ex Execer, table, column, nullability string) error {
	var columnType string
	err := ex.QueryRowContext(ctx, `
SELECT COLUMN_TYPE FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`, table, column).Scan(&columnType)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("column %s.%s not found", table, column)
		}
		return err
	}
	_, err = ex.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s MODIFY %s %s %s",
		d.QuoteIdent(table), d.QuoteIdent(column), columnType, nullability))
	return err
}

func (d MySQLDialect) AddIndex(ctx context.Context, ex Execer, table string, columns []string, unique bool) error {
	_, err := ex.ExecContext(ctx, createIndexSQL(d, table, columns, unique))
	return err
}

func (d MySQLDialect) DropIndex(ctx context.Context, ex Execer, table, name string) error {
	_, err := ex.ExecContext(ctx, fmt.Sprintf("DROP INDEX %s ON %s",
		d.QuoteIdent(name), d.QuoteIdent(table)))
	return err
}

func (d MySQLDialect) EnsureHistoryTable(ctx context.Context, ex Execer, table string) error {
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	name varchar(255) NOT NULL UNIQUE,
	date_applied datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, d.QuoteIdent(table))
	_, err := ex.ExecContext(ctx, stmt)
	return err
}

func (d MySQLDialect) TableNames(ctx context.Context, ex Execer) ([]string, error) {
	rows, err := ex.QueryContext(ctx, `
SELECT TABLE_NAME FROM information_schema.TABLES
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (d MySQLDialect) DescribeTable(ctx context.Context, ex Execer, name string) (*schema.Table, error) {
	rows, err := ex.QueryContext(ctx, `
SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, CHARACTER_MAXIMUM_LENGTH, COLUMN_KEY, EXTRA
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := &schema.Table{Name: name}
	for rows.Next() {
		var colName, dataType, nullable, columnKey, extra string
		var maxLength sql.NullInt64
		if err := rows.Scan(&colName, &dataType, &nullable, &maxLength, &columnKey, &extra); err != nil {
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
		if columnKey == "PRI" && strings.Contains(extra, "auto_increment") {
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
