package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"schema_migrator/internal/schema"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"integer":      schema.TypeInteger,
		"int":          schema.TypeInteger,
		"string":       schema.TypeChar,
		"binary":       schema.TypeBlob,
		"smallinteger": schema.TypeSmallInt,
		"  DateTime  ": schema.TypeDateTime,
		"made_up":      schema.TypeChar,
	}
	for input, want := range cases {
		require.Equal(t, want, schema.Normalize(input), "input %q", input)
	}
}

func TestTagForPhysical(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"integer":                     schema.TypeInteger,
		"bigint":                      schema.TypeBigInteger,
		"varchar(255)":                schema.TypeChar,
		"character varying":           schema.TypeChar,
		"timestamp with time zone":    schema.TypeDateTime,
		"timestamp without time zone": schema.TypeDateTime,
		"time without time zone":      schema.TypeTime,
		"numeric":                     schema.TypeDecimal,
		"double precision":            schema.TypeDouble,
		"tinyint(1)":                  schema.TypeSmallInt,
		"some_exotic_type":            schema.TypeChar,
	}
	for input, want := range cases {
		require.Equal(t, want, schema.TagForPhysical(input), "input %q", input)
	}
}
