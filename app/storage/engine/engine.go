// Package engine provides sql database access for sqlite and postgres with the same api.
// Queries differing between engines are kept in QueryMap and picked by the engine type.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"   // postgres driver loaded here
	_ "modernc.org/sqlite" // sqlite driver loaded here
)

// Type is a type of database engine
type Type string

// enum of supported database engines
const (
	Unknown  Type = ""
	Sqlite   Type = "sqlite"
	Postgres Type = "postgres"
)

// SQL is a wrapper for sqlx.DB with type.
// Type allows distinguishing between different database engines.
type SQL struct {
	sqlx.DB
	dbType Type // type of the database engine
}

// sqlitePragmas applied to every sqlite connection. WAL lets readers work while a write is in progress,
// synchronous=FULL makes committed transaction durable, busy_timeout waits for the writer lock instead of failing.
var sqlitePragmas = []string{"journal_mode(WAL)", "synchronous(FULL)", "busy_timeout(5000)"}

// New creates a new database engine from connection string.
// Postgres is selected for postgres:// urls, sqlite for file paths, :memory:, file: and sqlite:// urls.
func New(ctx context.Context, connURL string) (*SQL, error) {
	if connURL == "" {
		return nil, fmt.Errorf("connection URL is empty")
	}

	switch {
	case strings.HasPrefix(connURL, "postgres://"), strings.HasPrefix(connURL, "postgresql://"):
		return NewPostgres(ctx, connURL)
	case connURL == ":memory:":
		return NewSqlite(connURL)
	case strings.HasPrefix(connURL, "sqlite://"):
		return NewSqlite(strings.TrimPrefix(connURL, "sqlite://"))
	case strings.HasPrefix(connURL, "file://"):
		return NewSqlite(strings.TrimPrefix(connURL, "file://"))
	case strings.HasPrefix(connURL, "file:"):
		return NewSqlite(strings.TrimPrefix(connURL, "file:"))
	case strings.HasSuffix(connURL, ".sqlite"), strings.HasSuffix(connURL, ".db"):
		return NewSqlite(connURL)
	}
	return nil, fmt.Errorf("unsupported database type in connection string %q", connURL)
}

// NewSqlite creates a new sqlite database. Directory of the file is created if missing.
func NewSqlite(file string) (*SQL, error) {
	dsn := file
	if file != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(file), 0o750); err != nil {
			return &SQL{}, fmt.Errorf("failed to create directory for %s: %w", file, err)
		}
		dsn = file + "?_pragma=" + strings.Join(sqlitePragmas, "&_pragma=")
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return &SQL{}, err
	}
	if file == ":memory:" {
		db.SetMaxOpenConns(1) // each connection to :memory: is a separate database
	}
	log.Printf("[DEBUG] sqlite database %s opened", file)
	return &SQL{DB: *db, dbType: Sqlite}, nil
}

// NewPostgres creates a new postgres database connection
func NewPostgres(ctx context.Context, connURL string) (*SQL, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connURL)
	if err != nil {
		return &SQL{}, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	log.Printf("[DEBUG] postgres database connected")
	return &SQL{DB: *db, dbType: Postgres}, nil
}

// Type returns the database engine type
func (e *SQL) Type() Type {
	return e.dbType
}

// Adopt converts "?" placeholders to the engine's dialect, i.e. $1, $2... for postgres.
// Question marks inside single-quoted literals are kept.
func (e *SQL) Adopt(q string) string {
	if e.dbType != Postgres {
		return q
	}

	var sb strings.Builder
	sb.Grow(len(q) + 8)
	n, inLiteral := 0, false
	for _, r := range q {
		switch {
		case r == '\'':
			inLiteral = !inLiteral
			sb.WriteRune(r)
		case r == '?' && !inLiteral:
			n++
			sb.WriteString(fmt.Sprintf("$%d", n))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// RWLocker is a read-write locker interface
type RWLocker interface {
	sync.Locker
	RLock()
	RUnlock()
}

// MakeLock creates a new lock for the database engine.
// Sqlite allows a single writer, so writes are serialized in process, postgres handles it itself.
func (e *SQL) MakeLock() RWLocker {
	if e.dbType == Sqlite {
		return new(sync.RWMutex)
	}
	return noopLocker{}
}

type noopLocker struct{}

func (noopLocker) Lock()    {}
func (noopLocker) Unlock()  {}
func (noopLocker) RLock()   {}
func (noopLocker) RUnlock() {}

// DBCmd represents a database command type
type DBCmd int

// Query represents a SQL query with dialect-specific variants
type Query struct {
	Sqlite   string
	Postgres string
}

// QueryMap represents mapping between commands and their SQL queries
type QueryMap struct {
	queries map[DBCmd]Query
}

// NewQueryMap creates a new QueryMap
func NewQueryMap() *QueryMap {
	return &QueryMap{queries: make(map[DBCmd]Query)}
}

// Add adds queries for a command with dialect-specific versions
func (q *QueryMap) Add(cmd DBCmd, query Query) *QueryMap {
	q.queries[cmd] = query
	return q
}

// AddSame adds the same query for all dialects
func (q *QueryMap) AddSame(cmd DBCmd, query string) *QueryMap {
	return q.Add(cmd, Query{Sqlite: query, Postgres: query})
}

// Pick returns a query for given db type and command
func (q *QueryMap) Pick(dbType Type, cmd DBCmd) (string, error) {
	query, ok := q.queries[cmd]
	if !ok {
		return "", fmt.Errorf("unsupported command type %d", cmd)
	}

	switch dbType {
	case Sqlite:
		return query.Sqlite, nil
	case Postgres:
		return query.Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

// TableConfig defines table creation and migration parameters for InitTable
type TableConfig struct {
	Name          string
	CreateTable   DBCmd
	CreateIndexes DBCmd
	MigrateFunc   func(ctx context.Context, tx *sqlx.Tx) error // optional, called after the table is created
	QueriesMap    *QueryMap
}

// InitTable creates table and indexes if missing and runs migration, all in a single transaction
func InitTable(ctx context.Context, db *SQL, cfg TableConfig) error {
	if db == nil {
		return fmt.Errorf("db connection is nil")
	}

	createQuery, err := cfg.QueriesMap.Pick(db.Type(), cfg.CreateTable)
	if err != nil {
		return fmt.Errorf("failed to get create table query: %w", err)
	}
	indexesQuery, err := cfg.QueriesMap.Pick(db.Type(), cfg.CreateIndexes)
	if err != nil {
		return fmt.Errorf("failed to get create indexes query: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err = tx.ExecContext(ctx, createQuery); err != nil {
		return fmt.Errorf("failed to create %s table: %w", cfg.Name, err)
	}
	if _, err = tx.ExecContext(ctx, indexesQuery); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", cfg.Name, err)
	}
	if cfg.MigrateFunc != nil {
		if err = cfg.MigrateFunc(ctx, tx); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", cfg.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
