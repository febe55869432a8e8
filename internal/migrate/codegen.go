package migrate

import (
	"fmt"
	"strings"
	"time"

	"schema_migrator/internal/schema"
)

// Import paths written into generated migration files.
const (
	migrateImport = "schema_migrator/internal/migrate"
	schemaImport  = "schema_migrator/internal/schema"
)

var methodForTag = map[string]string{
	schema.TypeBare:       "Bare",
	schema.TypeBigInteger: "BigInteger",
	schema.TypeBlob:       "Blob",
	schema.TypeBool:       "Bool",
	schema.TypeChar:       "Char",
	schema.TypeDate:       "Date",
	schema.TypeDateTime:   "DateTime",
	schema.TypeDecimal:    "Decimal",
	schema.TypeDouble:     "Double",
	schema.TypeFixed:      "Fixed",
	schema.TypeFloat:      "Float",
	schema.TypeInteger:    "Integer",
	schema.TypeSmallInt:   "SmallInteger",
	schema.TypeText:       "Text",
	schema.TypeTime:       "Time",
	schema.TypeUUID:       "UUID",
}

// BuildUpgrade renders the upgrade operation lines for a table descriptor:
// the create-table scope, primary key first, remaining columns in declared
// order with options sorted by option name, then table constraints, then
// composite indexes.
func BuildUpgrade(t *schema.Table) []string {
	lines := []string{fmt.Sprintf("return m.CreateTable(ctx, %q, false, func(t *schema.TableCreator) {", t.Name)}

	if pk := t.PrimaryKeyColumn(); pk != nil {
		lines = append(lines, fmt.Sprintf("\tt.PrimaryKey(%q)", pk.Name))
	}
	for _, col := range t.Columns {
		if col.PrimaryKey {
			continue
		}
		if col.Type == schema.TypeForeignKey {
			lines = append(lines, renderForeignKey(col))
			continue
		}
		lines = append(lines, renderColumn(col))
	}
	for _, c := range t.Constraints {
		lines = append(lines, fmt.Sprintf("\tt.AddConstraint(%q)", c))
	}
	for _, idx := range t.Indexes {
		quoted := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		lines = append(lines, fmt.Sprintf("\tt.AddIndex([]string{%s}, %t)", strings.Join(quoted, ", "), idx.Unique))
	}

	return append(lines, "})")
}

// BuildDowngrade is always exactly one operation: drop the table.
func BuildDowngrade(t *schema.Table) []string {
	return []string{fmt.Sprintf("return m.DropTable(ctx, %q, false, false)", t.Name)}
}

func renderColumn(col schema.Column) string {
	method, ok := methodForTag[col.Type]
	if !ok {
		method = "Char"
	}
	args := append([]string{fmt.Sprintf("%q", col.Name)}, renderOptions(col)...)
	return fmt.Sprintf("\tt.%s(%s)", method, strings.Join(args, ", "))
}

// Foreign keys render with the trailing _id stripped from the column name and
// the reference as "table.column"; only the referential actions carry over as
// options. This name asymmetry exists only on the codegen path.
func renderForeignKey(col schema.Column) string {
	name := strings.TrimSuffix(col.Name, "_id")
	args := []string{
		fmt.Sprintf("%q", name),
		fmt.Sprintf("%q", col.RefTable+"."+col.RefColumn),
	}
	if col.OnDelete != "" {
		args = append(args, fmt.Sprintf("schema.OnDelete(%q)", col.OnDelete))
	}
	if col.OnUpdate != "" {
		args = append(args, fmt.Sprintf("schema.OnUpdate(%q)", col.OnUpdate))
	}
	return fmt.Sprintf("\tt.ForeignKey(%s)", strings.Join(args, ", "))
}

// renderOptions emits the set options in alphabetical order of the option
// name so generated code is deterministic.
func renderOptions(col schema.Column) []string {
	var opts []string
	if len(col.Constraints) > 0 {
		quoted := make([]string, len(col.Constraints))
		for i, c := range col.Constraints {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		opts = append(opts, fmt.Sprintf("schema.Constraints(%s)", strings.Join(quoted, ", ")))
	}
	if col.DecimalPlaces > 0 {
		opts = append(opts, fmt.Sprintf("schema.DecimalPlaces(%d)", col.DecimalPlaces))
	}
	if col.Index {
		opts = append(opts, "schema.Indexed()")
	}
	if col.MaxDigits > 0 {
		opts = append(opts, fmt.Sprintf("schema.MaxDigits(%d)", col.MaxDigits))
	}
	if col.MaxLength > 0 {
		opts = append(opts, fmt.Sprintf("schema.MaxLength(%d)", col.MaxLength))
	}
	if col.Null {
		opts = append(opts, "schema.Nullable()")
	}
	if col.Sequence != "" {
		opts = append(opts, fmt.Sprintf("schema.Sequence(%q)", col.Sequence))
	}
	if col.Unique {
		opts = append(opts, "schema.Unique()")
	}
	return opts
}

// MigrationSource renders a complete migration file: header comment, package
// clause, imports, and the init registration with both direction handlers.
// Empty operation slices become no-op handlers.
func MigrationSource(migration, title string, created time.Time, upgrade, downgrade []string) string {
	if len(upgrade) == 0 {
		upgrade = []string{"return nil"}
	}
	if len(downgrade) == 0 {
		downgrade = []string{"return nil"}
	}

	needsSchema := false
	for _, line := range append(append([]string{}, upgrade...), downgrade...) {
		if strings.Contains(line, "schema.") {
			needsSchema = true
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n", title)
	fmt.Fprintf(&b, "// date created: %s\n\n", created.UTC().Format("2006-01-02 15:04:05"))
	b.WriteString("package migrations\n\n")
	b.WriteString("import (\n\t\"context\"\n\n")
	fmt.Fprintf(&b, "\t%q\n", migrateImport)
	if needsSchema {
		fmt.Fprintf(&b, "\t%q\n", schemaImport)
	}
	b.WriteString(")\n\n")
	b.WriteString("func init() {\n")
	fmt.Fprintf(&b, "\tmigrate.Register(%q,\n", migration)
	writeHandler(&b, upgrade)
	writeHandler(&b, downgrade)
	b.WriteString("\t)\n}\n")
	return b.String()
}

func writeHandler(b *strings.Builder, lines []string) {
	b.WriteString("\t\tfunc(ctx context.Context, m *migrate.Migrator) error {\n")
	for _, line := range lines {
		b.WriteString("\t\t\t")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\t\t},\n")
}
