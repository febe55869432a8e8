package migrate_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"schema_migrator/internal/migrate"
	"schema_migrator/internal/schema"
)

func TestBuildUpgrade(t *testing.T) {
	t.Parallel()

	table := schema.NewTableCreator("account").
		PrimaryKey("id").
		Char("email", schema.MaxLength(120), schema.Unique()).
		Decimal("balance", schema.MaxDigits(12), schema.DecimalPlaces(2)).
		Integer("visits", schema.Indexed(), schema.Nullable()).
		ForeignKey("owner_id", "person.id", schema.OnDelete("CASCADE")).
		AddConstraint("CHECK (visits >= 0)").
		AddIndex([]string{"email", "visits"}, true).
		Table()

	lines := migrate.BuildUpgrade(table)
	require.Equal(t, []string{
		`return m.CreateTable(ctx, "account", false, func(t *schema.TableCreator) {`,
		"\t" + `t.PrimaryKey("id")`,
		"\t" + `t.Char("email", schema.MaxLength(120), schema.Unique())`,
		"\t" + `t.Decimal("balance", schema.DecimalPlaces(2), schema.MaxDigits(12))`,
		"\t" + `t.Integer("visits", schema.Indexed(), schema.Nullable())`,
		"\t" + `t.ForeignKey("owner", "person.id", schema.OnDelete("CASCADE"))`,
		"\t" + `t.AddConstraint("CHECK (visits >= 0)")`,
		"\t" + `t.AddIndex([]string{"email", "visits"}, true)`,
		`})`,
	}, lines)
}

func TestBuildDowngrade(t *testing.T) {
	t.Parallel()

	table := schema.NewTableCreator("account").PrimaryKey("id").Table()
	require.Equal(t,
		[]string{`return m.DropTable(ctx, "account", false, false)`},
		migrate.BuildDowngrade(table))
}

func TestMigrationSource(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC)

	t.Run("blank migration", func(t *testing.T) {
		t.Parallel()

		source := migrate.MigrationSource("0001_auto_migration", "auto migration", created, nil, nil)
		require.True(t, strings.HasPrefix(source, "// auto migration\n"))
		require.Contains(t, source, "// date created: 2026-08-24 10:30:00")
		require.Contains(t, source, "package migrations")
		require.Contains(t, source, `"schema_migrator/internal/migrate"`)
		require.Contains(t, source, `migrate.Register("0001_auto_migration",`)
		require.Contains(t, source, "func(ctx context.Context, m *migrate.Migrator) error {")
		require.Contains(t, source, "return nil")
		// No schema usage, no schema import.
		require.NotContains(t, source, `"schema_migrator/internal/schema"`)
	})

	t.Run("create table migration imports schema", func(t *testing.T) {
		t.Parallel()

		table := schema.NewTableCreator("person").PrimaryKey("id").Char("name").Table()
		source := migrate.MigrationSource("0001_create_table_person", "create table person", created,
			migrate.BuildUpgrade(table), migrate.BuildDowngrade(table))
		require.Contains(t, source, `"schema_migrator/internal/schema"`)
		require.Contains(t, source, `t.Char("name")`)
		require.Contains(t, source, `return m.DropTable(ctx, "person", false, false)`)
	})
}
