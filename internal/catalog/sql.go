package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tendant/simple-content-regen/pkg/media"
)

// dialect captures the few differences between the supported SQL drivers.
type dialect struct {
	name        string
	placeholder func(n int) string
}

var (
	sqliteDialect = dialect{
		name:        "sqlite",
		placeholder: func(int) string { return "?" },
	}
	postgresDialect = dialect{
		name:        "postgres",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

// SQLStore reads media records from a SQL database
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the media table if it doesn't exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS media (
			id BIGINT PRIMARY KEY,
			collection_name TEXT NOT NULL,
			file_name TEXT NOT NULL,
			disk TEXT NOT NULL DEFAULT 'local',
			mime_type TEXT NOT NULL DEFAULT '',
			size BIGINT NOT NULL DEFAULT 0
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create media table: %w", err)
	}
	return nil
}

// Insert adds or replaces a media record
func (s *SQLStore) Insert(ctx context.Context, rec media.Record) error {
	p := s.dialect.placeholder
	query := fmt.Sprintf(`
		INSERT INTO media (id, collection_name, file_name, disk, mime_type, size)
		VALUES (%s, %s, %s, %s, %s, %s)
		ON CONFLICT (id) DO UPDATE
		SET collection_name = excluded.collection_name,
		    file_name = excluded.file_name,
		    disk = excluded.disk,
		    mime_type = excluded.mime_type,
		    size = excluded.size
	`, p(1), p(2), p(3), p(4), p(5), p(6))

	_, err := s.db.ExecContext(ctx, query, rec.ID, rec.Collection, rec.FileName, rec.DiskName(), rec.MimeType, rec.Size)
	if err != nil {
		return fmt.Errorf("failed to insert media %d: %w", rec.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, collection_name, file_name, disk, mime_type, size FROM media`

// ListRecords returns every record ordered by id
func (s *SQLStore) ListRecords(ctx context.Context) ([]media.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list media: %v", ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var records []media.Record
	for rows.Next() {
		var rec media.Record
		if err := rows.Scan(&rec.ID, &rec.Collection, &rec.FileName, &rec.Disk, &rec.MimeType, &rec.Size); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media: %w", err)
	}
	return records, nil
}

// FindByID retrieves one record
func (s *SQLStore) FindByID(ctx context.Context, id int64) (media.Record, bool, error) {
	query := selectColumns + ` WHERE id = ` + s.dialect.placeholder(1)

	var rec media.Record
	err := s.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Collection, &rec.FileName, &rec.Disk, &rec.MimeType, &rec.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return media.Record{}, false, nil
	}
	if err != nil {
		return media.Record{}, false, fmt.Errorf("%w: find media %d: %v", ErrUnavailable, id, err)
	}
	return rec, true, nil
}

// Catalog driver names
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var driverAliases = map[string]string{
	"":           DriverSQLite,
	"sqlite":     DriverSQLite,
	"sqlite3":    DriverSQLite,
	"postgres":   DriverPostgres,
	"postgresql": DriverPostgres,
	"pq":         DriverPostgres,
}

// NormalizeDriver maps a driver name or alias to DriverSQLite or
// DriverPostgres.
func NormalizeDriver(driver string) (string, error) {
	name, ok := driverAliases[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return "", fmt.Errorf("unsupported catalog driver %q", driver)
	}
	return name, nil
}

// Open opens a catalog by driver name; see NormalizeDriver for the accepted names.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	name, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	if name == DriverPostgres {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(ctx, dsn)
}
