package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"schema_migrator/internal/schema"
)

func personTable() *schema.Table {
	return schema.NewTableCreator("person").
		PrimaryKey("id").
		Char("name", schema.MaxLength(80), schema.Unique()).
		Decimal("balance").
		ForeignKey("group_id", "group.id", schema.OnDelete("CASCADE")).
		AddConstraint("CHECK (name <> '')").
		AddIndex([]string{"name", "group_id"}, true).
		Table()
}

func TestCreateTableSQLPostgres(t *testing.T) {
	t.Parallel()

	got := createTableSQL(PostgresDialect{}, personTable(), false)
	want := `CREATE TABLE "person" (` +
		`"id" serial PRIMARY KEY, ` +
		`"name" varchar(80) NOT NULL UNIQUE, ` +
		`"balance" numeric(10, 5) NOT NULL, ` +
		`"group_id" integer NOT NULL, ` +
		`FOREIGN KEY ("group_id") REFERENCES "group" ("id") ON DELETE CASCADE, ` +
		`CHECK (name <> ''))`
	require.Equal(t, want, got)
}

func TestCreateTableSQLMySQL(t *testing.T) {
	t.Parallel()

	got := createTableSQL(MySQLDialect{}, personTable(), true)
	want := "CREATE TABLE IF NOT EXISTS `person` (" +
		"`id` integer AUTO_INCREMENT PRIMARY KEY, " +
		"`name` varchar(80) NOT NULL UNIQUE, " +
		"`balance` numeric(10, 5) NOT NULL, " +
		"`group_id` integer NOT NULL, " +
		"FOREIGN KEY (`group_id`) REFERENCES `group` (`id`) ON DELETE CASCADE, " +
		"CHECK (name <> ''))"
	require.Equal(t, want, got)
}

func TestDeferredIndexes(t *testing.T) {
	t.Parallel()

	stmts := deferredIndexes(SQLiteDialect{}, personTable())
	require.Equal(t, []string{
		`CREATE INDEX "person_group_id" ON "person" ("group_id")`,
		`CREATE UNIQUE INDEX "person_name_group_id" ON "person" ("name", "group_id")`,
	}, stmts)
}

func TestAddColumnSQLForeignKey(t *testing.T) {
	t.Parallel()

	col := schema.NewColumn(schema.TypeForeignKey, "owner_id", schema.Nullable())
	col.RefTable, col.RefColumn = "person", "id"
	col.OnDelete = "SET NULL"

	got := addColumnSQL(PostgresDialect{}, "pet", col)
	require.Equal(t,
		`ALTER TABLE "pet" ADD COLUMN "owner_id" integer REFERENCES "person" ("id") ON DELETE SET NULL`,
		got)
}

func TestColumnTypeDefaults(t *testing.T) {
	t.Parallel()

	// Unset length and precision fall back to the engine defaults.
	char := schema.NewColumn(schema.TypeChar, "c")
	require.Equal(t, "varchar(255)", PostgresDialect{}.columnType(char))

	dec := schema.NewColumn(schema.TypeDecimal, "d")
	require.Equal(t, "numeric(10, 5)", MySQLDialect{}.columnType(dec))

	uid := schema.NewColumn(schema.TypeUUID, "u")
	require.Equal(t, "uuid", PostgresDialect{}.columnType(uid))
	require.Equal(t, "varchar(40)", MySQLDialect{}.columnType(uid))
}

func TestQuoteIdentEscaping(t *testing.T) {
	t.Parallel()

	require.Equal(t, `"we""ird"`, PostgresDialect{}.QuoteIdent(`we"ird`))
	require.Equal(t, "`we``ird`", MySQLDialect{}.QuoteIdent("we`ird"))
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	require.Equal(t, "$2", PostgresDialect{}.Placeholder(2))
	require.Equal(t, "?", MySQLDialect{}.Placeholder(2))
	require.Equal(t, "?", SQLiteDialect{}.Placeholder(1))
}

func TestParenLength(t *testing.T) {
	t.Parallel()

	require.Equal(t, 80, parenLength("varchar(80)"))
	require.Equal(t, 10, parenLength("decimal(10, 5)"))
	require.Equal(t, 0, parenLength("integer"))
	require.Equal(t, 0, parenLength("varchar(abc)"))
}
