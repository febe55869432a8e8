package schema

import "strings"

// Canonical abstract column type tags. Builder methods, codegen and the
// dialect type mappers all speak in these.
const (
	TypeBare       = "bare"
	TypeBigInteger = "biginteger"
	TypeBlob       = "blob"
	TypeBool       = "bool"
	TypeChar       = "char"
	TypeDate       = "date"
	TypeDateTime   = "datetime"
	TypeDecimal    = "decimal"
	TypeDouble     = "double"
	TypeFixed      = "fixed"
	TypeFloat      = "float"
	TypeInteger    = "integer"
	TypeSmallInt   = "smallint"
	TypeText       = "text"
	TypeTime       = "time"
	TypeUUID       = "uuid"

	TypePrimaryKey = "primary_key"
	TypeForeignKey = "foreign_key"
)

// aliases maps accepted spellings onto canonical tags.
var aliases = map[string]string{
	"binary":       TypeBlob,
	"int":          TypeInteger,
	"smallinteger": TypeSmallInt,
	"string":       TypeChar,
}

var canonical = map[string]struct{}{
	TypeBare:       {},
	TypeBigInteger: {},
	TypeBlob:       {},
	TypeBool:       {},
	TypeChar:       {},
	TypeDate:       {},
	TypeDateTime:   {},
	TypeDecimal:    {},
	TypeDouble:     {},
	TypeFixed:      {},
	TypeFloat:      {},
	TypeInteger:    {},
	TypeSmallInt:   {},
	TypeText:       {},
	TypeTime:       {},
	TypeUUID:       {},
	TypePrimaryKey: {},
	TypeForeignKey: {},
}

// Normalize resolves a type tag to its canonical form. Unknown tags fall back
// to char, a generic variable-length string column; the registry never errors.
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if mapped, ok := aliases[tag]; ok {
		return mapped
	}
	if _, ok := canonical[tag]; ok {
		return tag
	}
	return TypeChar
}

// physicalTags maps database-reported type names (information_schema data
// types, PRAGMA declarations) back to abstract tags. Consulted only when
// generating migrations from an introspected table.
var physicalTags = map[string]string{
	"bigint":            TypeBigInteger,
	"int8":              TypeBigInteger,
	"blob":              TypeBlob,
	"bytea":             TypeBlob,
	"varbinary":         TypeBlob,
	"bool":              TypeBool,
	"boolean":           TypeBool,
	"character varying": TypeChar,
	"varchar":           TypeChar,
	"date":              TypeDate,
	"datetime":          TypeDateTime,
	"timestamp":         TypeDateTime,
	"timestamptz":       TypeDateTime,
	"decimal":           TypeDecimal,
	"numeric":           TypeDecimal,
	"double":            TypeDouble,
	"double precision":  TypeDouble,
	"char":              TypeFixed,
	"character":         TypeFixed,
	"float":             TypeFloat,
	"real":              TypeFloat,
	"int":               TypeInteger,
	"int4":              TypeInteger,
	"integer":           TypeInteger,
	"mediumint":         TypeInteger,
	"int2":              TypeSmallInt,
	"smallint":          TypeSmallInt,
	"tinyint":           TypeSmallInt,
	"text":              TypeText,
	"time":              TypeTime,
	"uuid":              TypeUUID,
}

// TagForPhysical maps a database type name to an abstract tag. Size suffixes
// and qualifiers are stripped first ("varchar(255)", "timestamp with time
// zone"). Unmapped types fall back to char.
func TagForPhysical(dataType string) string {
	name := strings.ToLower(strings.TrimSpace(dataType))
	if idx := strings.IndexByte(name, '('); idx >= 0 {
		name = strings.TrimSpace(name[:idx])
	}
	if tag, ok := physicalTags[name]; ok {
		return tag
	}
	switch {
	case strings.HasPrefix(name, "timestamp"):
		return TypeDateTime
	case strings.HasPrefix(name, "time"):
		return TypeTime
	}
	return TypeChar
}
