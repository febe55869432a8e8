// Package db supplies the driver capability the migration engine runs on: a
// tagged database source, connection opening, and a Dialect interface issuing
// physical DDL for postgres, mysql and sqlite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Execer is the statement surface the dialects run on. Both *sql.DB and
// *sql.Tx satisfy it; the engine hands a transaction in during migration runs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ConfigMap is the structured database descriptor: engine + name plus
// engine-specific parameters (host, port, user, password, sslmode).
type ConfigMap struct {
	Engine string
	Name   string
	Params map[string]string
}

// Source is the discriminated connection descriptor, resolved exactly once by
// Open. Set exactly one of Handle (with HandleDialect), Config, or URL.
type Source struct {
	Handle        *sql.DB
	HandleDialect string

	Config *ConfigMap

	URL string
}

// Conn is an open connection paired with its dialect and a displayable
// database identity (never contains credentials).
type Conn struct {
	SQL      *sql.DB
	Dialect  Dialect
	Database string
}

func (c *Conn) Close() error { return c.SQL.Close() }

// Open resolves a Source into a live connection. An invalid descriptor is a
// hard failure; there are no retries.
func Open(src Source) (*Conn, error) {
	switch {
	case src.Handle != nil:
		dialect, err := dialectByName(src.HandleDialect)
		if err != nil {
			return nil, err
		}
		return &Conn{SQL: src.Handle, Dialect: dialect, Database: "(external handle)"}, nil
	case src.Config != nil:
		return openConfig(*src.Config)
	case src.URL != "":
		return openURL(src.URL)
	default:
		return nil, fmt.Errorf("database source is empty: provide a handle, a config map, or a url")
	}
}

func dialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return PostgresDialect{}, nil
	case "mysql":
		return MySQLDialect{}, nil
	case "sqlite", "sqlite3":
		return SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported engine %q", name)
	}
}

func openConfig(cfg ConfigMap) (*Conn, error) {
	if cfg.Engine == "" || cfg.Name == "" {
		return nil, fmt.Errorf("database config must specify engine and name")
	}
	param := func(key, fallback string) string {
		if v, ok := cfg.Params[key]; ok && v != "" {
			return v
		}
		return fallback
	}
	switch strings.ToLower(cfg.Engine) {
	case "postgres", "postgresql":
		u := url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%s", param("host", "localhost"), param("port", "5432")),
			Path:   "/" + cfg.Name,
		}
		if user := param("user", ""); user != "" {
			u.User = url.UserPassword(user, param("password", ""))
		}
		q := url.Values{}
		if ssl := param("sslmode", ""); ssl != "" {
			q.Set("sslmode", ssl)
		}
		u.RawQuery = q.Encode()
		return openDriver("pgx", u.String(), PostgresDialect{}, cfg.Name)
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			param("user", "root"), param("password", ""),
			param("host", "localhost"), param("port", "3306"), cfg.Name)
		return openMySQL(dsn, cfg.Name)
	case "sqlite", "sqlite3":
		return openSQLite(cfg.Name)
	default:
		return nil, fmt.Errorf("unsupported engine %q", cfg.Engine)
	}
}

func openURL(raw string) (*Conn, error) {
	// sqlite urls carry a bare path (or :memory:), which url.Parse rejects in
	// forms like sqlite://:memory:; strip the scheme by hand instead.
	if path, ok := sqlitePath(raw); ok {
		return openSQLite(path)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return openDriver("pgx", raw, PostgresDialect{}, strings.TrimPrefix(u.Path, "/"))
	case "mysql":
		name := strings.TrimPrefix(u.Path, "/")
		host := u.Hostname()
		port := u.Port()
		if port == "" {
			port = "3306"
		}
		user := u.User.Username()
		password, _ := u.User.Password()
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, password, host, port, name)
		if q := u.RawQuery; q != "" {
			dsn += "?" + strings.ReplaceAll(q, "&amp;", "&")
		} else {
			dsn += "?parseTime=true"
		}
		return openMySQL(dsn, name)
	default:
		return nil, fmt.Errorf("unsupported database url scheme %q", u.Scheme)
	}
}

// sqlitePath accepts sqlite:path, sqlite://path and the sqlite3 spellings of
// both, returning the database path.
func sqlitePath(raw string) (string, bool) {
	for _, scheme := range []string{"sqlite3", "sqlite"} {
		for _, prefix := range []string{scheme + "://", scheme + ":"} {
			if strings.HasPrefix(raw, prefix) {
				return strings.TrimPrefix(raw, prefix), true
			}
		}
	}
	return "", false
}

func openMySQL(dsn, name string) (*Conn, error) {
	// Validate DSN early to provide actionable errors.
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	return openDriver("mysql", dsn, MySQLDialect{}, name)
}

func openSQLite(path string) (*Conn, error) {
	conn, err := openDriver("sqlite", path, SQLiteDialect{}, path)
	if err != nil {
		return nil, err
	}
	// One connection only: in-memory databases are per-connection, and the
	// engine is single-operator by design anyway.
	conn.SQL.SetMaxOpenConns(1)
	return conn, nil
}

func openDriver(driver, dsn string, dialect Dialect, name string) (*Conn, error) {
	handle, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	handle.SetConnMaxIdleTime(5 * time.Minute)
	handle.SetMaxOpenConns(5)
	return &Conn{SQL: handle, Dialect: dialect, Database: name}, nil
}
