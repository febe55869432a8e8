package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"schema_migrator/internal/schema"
)

func names(tables []*schema.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

func TestSortTables(t *testing.T) {
	t.Parallel()

	person := schema.NewTableCreator("person").PrimaryKey("id").Char("name").Table()
	pet := schema.NewTableCreator("pet").
		PrimaryKey("id").
		ForeignKey("owner_id", "person.id").
		Table()
	visit := schema.NewTableCreator("visit").
		PrimaryKey("id").
		ForeignKey("pet_id", "pet.id").
		Table()

	t.Run("referenced tables come first", func(t *testing.T) {
		t.Parallel()

		ordered, err := schema.SortTables([]*schema.Table{visit, pet, person})
		require.NoError(t, err)
		require.Equal(t, []string{"person", "pet", "visit"}, names(ordered))
	})

	t.Run("independent tables keep input order", func(t *testing.T) {
		t.Parallel()

		a := schema.NewTableCreator("alpha").PrimaryKey("id").Table()
		b := schema.NewTableCreator("beta").PrimaryKey("id").Table()
		ordered, err := schema.SortTables([]*schema.Table{b, a})
		require.NoError(t, err)
		require.Equal(t, []string{"beta", "alpha"}, names(ordered))
	})

	t.Run("references outside the set are ignored", func(t *testing.T) {
		t.Parallel()

		ordered, err := schema.SortTables([]*schema.Table{pet})
		require.NoError(t, err)
		require.Equal(t, []string{"pet"}, names(ordered))
	})

	t.Run("self reference does not count as a cycle", func(t *testing.T) {
		t.Parallel()

		node := schema.NewTableCreator("node").
			PrimaryKey("id").
			ForeignKey("parent_id", "node.id").
			Table()
		ordered, err := schema.SortTables([]*schema.Table{node})
		require.NoError(t, err)
		require.Equal(t, []string{"node"}, names(ordered))
	})

	t.Run("cycle is an error naming the stuck tables", func(t *testing.T) {
		t.Parallel()

		a := schema.NewTableCreator("a").PrimaryKey("id").ForeignKey("b_id", "b.id").Table()
		b := schema.NewTableCreator("b").PrimaryKey("id").ForeignKey("a_id", "a.id").Table()
		_, err := schema.SortTables([]*schema.Table{a, b})
		require.Error(t, err)
		require.Contains(t, err.Error(), "a, b")
	})
}
