package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"schema_migrator/internal/schema"
)

func TestTableCreator(t *testing.T) {
	t.Parallel()

	t.Run("accumulates columns in declaration order", func(t *testing.T) {
		t.Parallel()

		c := schema.NewTableCreator("person")
		c.PrimaryKey("id").
			Char("name", schema.MaxLength(80), schema.Unique()).
			Integer("age", schema.Nullable()).
			Binary("photo")

		require.NoError(t, c.Err())
		table := c.Table()
		require.Equal(t, "person", table.Name)
		require.Len(t, table.Columns, 4)

		require.Equal(t, "id", table.Columns[0].Name)
		require.True(t, table.Columns[0].PrimaryKey)

		name := table.Columns[1]
		require.Equal(t, schema.TypeChar, name.Type)
		require.Equal(t, 80, name.MaxLength)
		require.True(t, name.Unique)

		age := table.Columns[2]
		require.Equal(t, schema.TypeInteger, age.Type)
		require.True(t, age.Null)

		// Binary is an alias for Blob.
		require.Equal(t, schema.TypeBlob, table.Columns[3].Type)
	})

	t.Run("second primary key is an error", func(t *testing.T) {
		t.Parallel()

		c := schema.NewTableCreator("person")
		c.PrimaryKey("id").PrimaryKey("other")

		require.Error(t, c.Err())
		require.Contains(t, c.Err().Error(), "primary key defined twice")
	})

	t.Run("foreign key parses reference and indexes itself", func(t *testing.T) {
		t.Parallel()

		c := schema.NewTableCreator("pet")
		c.PrimaryKey("id").ForeignKey("owner_id", "person.id", schema.OnDelete("CASCADE"))

		require.NoError(t, c.Err())
		col := c.Table().Columns[1]
		require.Equal(t, schema.TypeForeignKey, col.Type)
		require.Equal(t, "person", col.RefTable)
		require.Equal(t, "id", col.RefColumn)
		require.Equal(t, "CASCADE", col.OnDelete)
		require.True(t, col.Index)
	})

	t.Run("bare table reference defaults the column to id", func(t *testing.T) {
		t.Parallel()

		table, column := schema.ParseReference("person")
		require.Equal(t, "person", table)
		require.Equal(t, "id", column)
	})

	t.Run("indexes and constraints pass through verbatim", func(t *testing.T) {
		t.Parallel()

		c := schema.NewTableCreator("event")
		c.PrimaryKey("id").
			Char("kind").
			DateTime("at").
			AddIndex([]string{"kind", "at"}, true).
			AddConstraint("CHECK (kind <> '')")

		table := c.Table()
		require.Equal(t, []schema.Index{{Columns: []string{"kind", "at"}, Unique: true}}, table.Indexes)
		require.Equal(t, []string{"CHECK (kind <> '')"}, table.Constraints)
	})
}

func TestNewColumn(t *testing.T) {
	t.Parallel()

	col := schema.NewColumn("string", "title", schema.MaxLength(40))
	require.Equal(t, schema.TypeChar, col.Type)
	require.Equal(t, 40, col.MaxLength)

	// Unknown tags fall back to char instead of erroring.
	col = schema.NewColumn("no_such_type", "x")
	require.Equal(t, schema.TypeChar, col.Type)
}

func TestPrimaryKeyColumn(t *testing.T) {
	t.Parallel()

	table := schema.NewTableCreator("person").Char("name").Table()
	require.Nil(t, table.PrimaryKeyColumn())

	table = schema.NewTableCreator("person").PrimaryKey("id").Char("name").Table()
	pk := table.PrimaryKeyColumn()
	require.NotNil(t, pk)
	require.Equal(t, "id", pk.Name)
}
