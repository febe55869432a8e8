// Package migrate is the migration engine: it reconciles the migration files
// on disk against the applied-history table, applies pending migrations in
// ascending name order and reverts applied ones in descending order, one
// transaction per migration, and generates migration file boilerplate from
// table descriptors.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"schema_migrator/internal/db"
	"schema_migrator/internal/schema"
)

// Migration directions.
const (
	DirectionUpgrade   = "upgrade"
	DirectionDowngrade = "downgrade"
)

// ErrNotFound reports a token matching no migration file.
var ErrNotFound = errors.New("could not find migration")

// Reporter is the sink all operator-facing messages go to. *slog.Logger
// satisfies it.
type Reporter interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// StatusEntry is one migration file and its applied/pending state.
type StatusEntry struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Options configure a Repository. Zero values get the engine defaults.
type Options struct {
	HistoryTable string    // default "migration_history"
	Directory    string    // default "migrations"
	Registry     *Registry // default the package registry fed by Register
	Reporter     Reporter  // default slog.Default()
}

// Repository drives one database connection and one migrations directory.
// Single-operator, single-connection: concurrent invocations against the same
// database are not coordinated.
type Repository struct {
	conn      *db.Conn
	registry  *Registry
	history   *HistoryStore
	reporter  Reporter
	directory string
}

// NewRepository resolves the database source, creates the migrations
// directory if missing and ensures the history table exists. An invalid
// source is a hard failure.
func NewRepository(ctx context.Context, src db.Source, opts Options) (*Repository, error) {
	if opts.HistoryTable == "" {
		opts.HistoryTable = "migration_history"
	}
	if opts.Directory == "" {
		opts.Directory = "migrations"
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Reporter == nil {
		opts.Reporter = slog.Default()
	}

	conn, err := db.Open(src)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	r := &Repository{
		conn:      conn,
		registry:  opts.Registry,
		history:   NewHistoryStore(conn.Dialect, opts.HistoryTable),
		reporter:  opts.Reporter,
		directory: opts.Directory,
	}
	if err := r.history.Ensure(ctx, conn.SQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure history table: %w", err)
	}
	return r, nil
}

func (r *Repository) Close() error { return r.conn.Close() }

// Ping checks the database connection; used by the diagnostics API.
func (r *Repository) Ping(ctx context.Context) error {
	return r.conn.SQL.PingContext(ctx)
}

// MigrationFiles lists the migrations on disk in ascending name order. Only
// .go files whose name starts with a numeric prefix count; _test files and
// package scaffolding are not migrations.
func (r *Repository) MigrationFiles() ([]string, error) {
	entries, err := os.ReadDir(r.directory)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		name = strings.TrimSuffix(name, ".go")
		if name == "" || !unicode.IsDigit(rune(name[0])) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Applied lists the recorded migration names in ascending order.
func (r *Repository) Applied(ctx context.Context) ([]string, error) {
	return r.history.List(ctx, r.conn.SQL)
}

// Pending is the set difference Files − Applied, ascending.
func (r *Repository) Pending(ctx context.Context) ([]string, error) {
	files, err := r.MigrationFiles()
	if err != nil {
		return nil, err
	}
	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	appliedSet := make(map[string]struct{}, len(applied))
	for _, name := range applied {
		appliedSet[name] = struct{}{}
	}
	var pending []string
	for _, name := range files {
		if _, ok := appliedSet[name]; !ok {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

// FindMigration resolves a token to a migration name: exact match first, then
// the first file in ascending order whose name has the token as a prefix
// followed by an underscore.
func (r *Repository) FindMigration(token string) (string, error) {
	files, err := r.MigrationFiles()
	if err != nil {
		return "", err
	}
	for _, name := range files {
		if name == token || strings.HasPrefix(name, token+"_") {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, token)
}

// NextIdentifier computes the next sequence value: max numeric prefix plus
// one, zero-padded to at least four digits (wider identifiers keep their
// width). Prefixes must be numeric; anything else is an explicit error.
func (r *Repository) NextIdentifier() (string, error) {
	files, err := r.MigrationFiles()
	if err != nil {
		return "", err
	}
	max := 0
	for _, name := range files {
		prefix, _, _ := strings.Cut(name, "_")
		n, err := strconv.Atoi(prefix)
		if err != nil {
			return "", fmt.Errorf("migration %s has a non-numeric prefix", name)
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%04d", max+1), nil
}

// Revision writes a blank migration file with the given name (default "auto
// migration"): both direction handlers are no-ops.
func (r *Repository) Revision(name string) bool {
	if strings.TrimSpace(name) == "" {
		name = "auto migration"
	}
	title := strings.ToLower(strings.TrimSpace(name))
	migration, err := r.nextMigrationName(title)
	if err != nil {
		r.reporter.Error("revision failed", "error", err)
		return false
	}
	if err := r.writeMigration(migration, title, nil, nil); err != nil {
		r.reporter.Error("revision failed", "migration", migration, "error", err)
		return false
	}
	r.reporter.Info("created", "migration", migration)
	return true
}

// Create generates one migration per table descriptor, ordered so tables are
// created after the tables their foreign keys reference.
func (r *Repository) Create(tables ...*schema.Table) bool {
	ordered, err := schema.SortTables(tables)
	if err != nil {
		r.reporter.Error("create failed", "error", err)
		return false
	}
	for _, t := range ordered {
		title := "create table " + strings.ToLower(t.Name)
		migration, err := r.nextMigrationName(title)
		if err != nil {
			r.reporter.Error("create failed", "table", t.Name, "error", err)
			return false
		}
		if err := r.writeMigration(migration, title, BuildUpgrade(t), BuildDowngrade(t)); err != nil {
			r.reporter.Error("create failed", "migration", migration, "error", err)
			return false
		}
		r.reporter.Info("created", "migration", migration)
	}
	return true
}

// CreateFromDatabase introspects a live table and generates a migration for
// it.
func (r *Repository) CreateFromDatabase(ctx context.Context, tableName string) bool {
	t, err := r.conn.Dialect.DescribeTable(ctx, r.conn.SQL, tableName)
	if err != nil {
		r.reporter.Error("create failed", "table", tableName, "error", err)
		return false
	}
	return r.Create(t)
}

// Upgrade applies pending migrations in ascending order, stopping at the
// first failure or after the resolved target. An empty target applies
// everything pending. A database with nothing to do, or a target that is
// already applied, is reported and counts as success: upgrading is
// idempotent.
func (r *Repository) Upgrade(ctx context.Context, target string) bool {
	if target != "" {
		resolved, err := r.FindMigration(target)
		if err != nil {
			r.reporter.Error("upgrade failed", "error", err)
			return false
		}
		applied, err := r.Applied(ctx)
		if err != nil {
			r.reporter.Error("upgrade failed", "error", err)
			return false
		}
		if contains(applied, resolved) {
			r.reporter.Info("already applied", "migration", resolved)
			return true
		}
		target = resolved
	}

	pending, err := r.Pending(ctx)
	if err != nil {
		r.reporter.Error("upgrade failed", "error", err)
		return false
	}
	if len(pending) == 0 {
		r.reporter.Info("all migrations applied")
		return true
	}

	for _, name := range pending {
		if !r.RunMigration(ctx, name, DirectionUpgrade) {
			return false
		}
		if target != "" && target == name {
			break
		}
	}
	return true
}

// Downgrade reverts applied migrations in descending order. With no target
// exactly one step is reverted; with a target the walk stops after reverting
// it. Stops at the first failure. Nothing applied, or a target that was
// never applied, is reported and counts as success.
func (r *Repository) Downgrade(ctx context.Context, target string) bool {
	if target != "" {
		resolved, err := r.FindMigration(target)
		if err != nil {
			r.reporter.Error("downgrade failed", "error", err)
			return false
		}
		applied, err := r.Applied(ctx)
		if err != nil {
			r.reporter.Error("downgrade failed", "error", err)
			return false
		}
		if !contains(applied, resolved) {
			r.reporter.Info("not yet applied", "migration", resolved)
			return true
		}
		target = resolved
	}

	applied, err := r.Applied(ctx)
	if err != nil {
		r.reporter.Error("downgrade failed", "error", err)
		return false
	}
	if len(applied) == 0 {
		r.reporter.Info("migrations not yet applied")
		return true
	}

	for i := len(applied) - 1; i >= 0; i-- {
		name := applied[i]
		if !r.RunMigration(ctx, name, DirectionDowngrade) {
			return false
		}
		if target == "" || target == name {
			break
		}
	}
	return true
}

// RunMigration executes a single migration in one transaction: resolve the
// name, invoke the registered handler for the direction, update history, and
// commit. Any failure rolls the transaction back, leaving both the schema and
// the history untouched.
func (r *Repository) RunMigration(ctx context.Context, token, direction string) bool {
	name, err := r.FindMigration(token)
	if err != nil {
		r.reporter.Error("run failed", "error", err)
		return false
	}
	r.reporter.Info("running migration", "migration", name, "direction", direction)

	entry, ok := r.registry.Find(name)
	if !ok {
		r.reporter.Error("migration failed", "migration", name, "direction", direction,
			"error", "migration is not registered; was the binary rebuilt after generating it?")
		return false
	}
	fn := entry.Up
	if direction == DirectionDowngrade {
		fn = entry.Down
	}

	tx, err := r.conn.SQL.BeginTx(ctx, nil)
	if err != nil {
		r.reporter.Error("migration failed", "migration", name, "direction", direction, "error", err)
		return false
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if fn != nil {
		if err := fn(ctx, NewMigrator(tx, r.conn.Dialect)); err != nil {
			r.reporter.Error("migration failed", "migration", name, "direction", direction, "error", err)
			return false
		}
	}

	if direction == DirectionUpgrade {
		err = r.history.Record(ctx, tx, name)
	} else {
		err = r.history.Remove(ctx, tx, name)
	}
	if err != nil {
		r.reporter.Error("migration failed", "migration", name, "direction", direction, "error", err)
		return false
	}

	if err := tx.Commit(); err != nil {
		r.reporter.Error("migration failed", "migration", name, "direction", direction, "error", err)
		return false
	}
	return true
}

// Delete removes a migration from the filesystem and the history, as if it
// never happened. Both a missing file and a missing history record are
// tolerated.
func (r *Repository) Delete(ctx context.Context, token string) bool {
	name, err := r.FindMigration(token)
	if err != nil {
		r.reporter.Error("delete failed", "error", err)
		return false
	}
	if err := os.Remove(r.Filename(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.reporter.Error("delete failed", "migration", name, "error", err)
		return false
	}

	tx, err := r.conn.SQL.BeginTx(ctx, nil)
	if err != nil {
		r.reporter.Error("delete failed", "migration", name, "error", err)
		return false
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := r.history.Remove(ctx, tx, name); err != nil {
		r.reporter.Error("delete failed", "migration", name, "error", err)
		return false
	}
	if err := tx.Commit(); err != nil {
		r.reporter.Error("delete failed", "migration", name, "error", err)
		return false
	}

	r.reporter.Info("deleted", "migration", name)
	return true
}

// Status reports every migration file and whether it is applied or pending.
func (r *Repository) Status(ctx context.Context) bool {
	entries, err := r.StatusEntries(ctx)
	if err != nil {
		r.reporter.Error("status failed", "error", err)
		return false
	}
	if len(entries) == 0 {
		r.reporter.Info("no migrations found")
		return true
	}
	for _, e := range entries {
		r.reporter.Info("status", "migration", e.Name, "state", e.State)
	}
	return true
}

// StatusEntries returns the per-file applied/pending states, ascending.
func (r *Repository) StatusEntries(ctx context.Context) ([]StatusEntry, error) {
	files, err := r.MigrationFiles()
	if err != nil {
		return nil, err
	}
	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	appliedSet := make(map[string]struct{}, len(applied))
	for _, name := range applied {
		appliedSet[name] = struct{}{}
	}
	entries := make([]StatusEntry, 0, len(files))
	for _, name := range files {
		state := "pending"
		if _, ok := appliedSet[name]; ok {
			state = "applied"
		}
		entries = append(entries, StatusEntry{Name: name, State: state})
	}
	return entries, nil
}

// HistoryEntries returns the applied migrations with timestamps, newest
// first.
func (r *Repository) HistoryEntries(ctx context.Context) ([]HistoryEntry, error) {
	return r.history.Entries(ctx, r.conn.SQL)
}

// Info reports the driver and database identity, never credentials.
func (r *Repository) Info() {
	r.reporter.Info("database info", "driver", r.conn.Dialect.Name(), "database", r.conn.Database)
}

// Filename returns the full path of a migration's file.
func (r *Repository) Filename(migration string) string {
	return filepath.Join(r.directory, migration+".go")
}

func (r *Repository) nextMigrationName(title string) (string, error) {
	ident, err := r.NextIdentifier()
	if err != nil {
		return "", err
	}
	return ident + "_" + strings.ReplaceAll(title, " ", "_"), nil
}

func (r *Repository) writeMigration(migration, title string, upgrade, downgrade []string) error {
	source := MigrationSource(migration, title, time.Now(), upgrade, downgrade)
	if err := os.WriteFile(r.Filename(migration), []byte(source), 0o644); err != nil {
		return fmt.Errorf("write migration %s: %w", migration, err)
	}
	return nil
}

func contains(names []string, target string) bool {
	for _, name := range names {
		if name == target {
			return true
		}
	}
	return false
}
