package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// OpenSQLite opens a SQLite catalog file with WAL and busy_timeout set on
// every pooled connection.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, (5 * time.Second).Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite open: %v", ErrUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: sqlite ping: %v", ErrUnavailable, err)
	}

	return &SQLStore{db: db, dialect: sqliteDialect}, nil
}
