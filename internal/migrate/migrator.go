package migrate

import (
	"context"
	"database/sql"

	"schema_migrator/internal/db"
	"schema_migrator/internal/schema"
)

// Migrator executes schema operations against one statement executor,
// normally the transaction owned by the repository for the current migration.
// It holds no transaction state of its own; atomicity comes from the caller.
type Migrator struct {
	ex      db.Execer
	dialect db.Dialect
}

func NewMigrator(ex db.Execer, dialect db.Dialect) *Migrator {
	return &Migrator{ex: ex, dialect: dialect}
}

// CreateTable is the scoped acquisition for building a table: fn accumulates
// columns, indexes and constraints on a fresh builder, and only after it
// returns cleanly is the physical CREATE TABLE issued, followed by the
// deferred CREATE INDEX statements in descriptor order. A builder error (for
// example a second primary key) aborts the scope; nothing is created.
func (m *Migrator) CreateTable(ctx context.Context, name string, ifNotExists bool, fn func(t *schema.TableCreator)) error {
	creator := schema.NewTableCreator(name)
	if fn != nil {
		fn(creator)
	}
	if err := creator.Err(); err != nil {
		return err
	}
	return m.dialect.CreateTable(ctx, m.ex, creator.Table(), ifNotExists)
}

// DropTable drops the table; safe suppresses missing-table errors, cascade
// drops dependent objects where the dialect supports it.
func (m *Migrator) DropTable(ctx context.Context, name string, safe, cascade bool) error {
	return m.dialect.DropTable(ctx, m.ex, name, safe, cascade)
}

// AddColumn adds a column of the given abstract type to an existing table.
func (m *Migrator) AddColumn(ctx context.Context, table, name, coltype string, opts ...schema.ColumnOption) error {
	return m.dialect.AddColumn(ctx, m.ex, table, schema.NewColumn(coltype, name, opts...))
}

func (m *Migrator) DropColumn(ctx context.Context, table, name string, cascade bool) error {
	return m.dialect.DropColumn(ctx, m.ex, table, name, cascade)
}

func (m *Migrator) RenameColumn(ctx context.Context, table, oldName, newName string) error {
	return m.dialect.RenameColumn(ctx, m.ex, table, oldName, newName)
}

func (m *Migrator) RenameTable(ctx context.Context, oldName, newName string) error {
	return m.dialect.RenameTable(ctx, m.ex, oldName, newName)
}

func (m *Migrator) AddNotNull(ctx context.Context, table, column string) error {
	return m.dialect.AddNotNull(ctx, m.ex, table, column)
}

func (m *Migrator) DropNotNull(ctx context.Context, table, column string) error {
	return m.dialect.DropNotNull(ctx, m.ex, table, column)
}

func (m *Migrator) AddIndex(ctx context.Context, table string, columns []string, unique bool) error {
	return m.dialect.AddIndex(ctx, m.ex, table, columns, unique)
}

func (m *Migrator) DropIndex(ctx context.Context, table, name string) error {
	return m.dialect.DropIndex(ctx, m.ex, table, name)
}

// ExecuteSQL is the escape hatch for arbitrary statements; driver errors pass
// through unchanged.
func (m *Migrator) ExecuteSQL(ctx context.Context, query string, params ...any) (sql.Result, error) {
	return m.ex.ExecContext(ctx, query, params...)
}
