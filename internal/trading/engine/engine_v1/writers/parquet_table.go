package writers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/candle-trader/internal/logger"
	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"go.uber.org/zap"
)

// parquetTable is an in-memory DuckDB table mirrored to a Parquet file after
// every insert. Callers hold their own lock.
type parquetTable struct {
	db         *sql.DB
	name       string
	schema     string
	orderBy    string
	outputPath string
	log        *logger.Logger
}

func newParquetTable(name, schema, orderBy, outputPath string, log *logger.Logger) *parquetTable {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &parquetTable{
		db:         nil,
		name:       name,
		schema:     schema,
		orderBy:    orderBy,
		outputPath: outputPath,
		log:        log,
	}
}

func (t *parquetTable) open() error {
	if err := os.MkdirAll(filepath.Dir(t.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create data directory", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.name, t.schema)); err != nil {
		db.Close()

		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create %s table", t.name)
	}

	t.db = db

	if _, statErr := os.Stat(t.outputPath); statErr == nil {
		_, err = t.db.Exec(fmt.Sprintf("INSERT INTO %s SELECT * FROM read_parquet('%s')", t.name, t.outputPath))
		if err != nil {
			// An unreadable file is replaced on the next export.
			t.log.Warn("Failed to load existing rows", zap.String("table", t.name), zap.String("path", t.outputPath), zap.Error(err))
		}
	}

	return nil
}

func (t *parquetTable) insert(insert squirrel.InsertBuilder) error {
	if t.db == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	if _, err := insert.RunWith(t.db).Exec(); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to insert into %s", t.name)
	}

	return t.export()
}

func (t *parquetTable) export() error {
	if t.db == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	_, err := t.db.Exec(fmt.Sprintf("COPY (SELECT * FROM %s ORDER BY %s) TO '%s' (FORMAT PARQUET)", t.name, t.orderBy, t.outputPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export to parquet", err)
	}

	return nil
}

func (t *parquetTable) count() (int, error) {
	if t.db == nil {
		return 0, errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	var count int
	if err := t.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t.name)).Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count rows of %s", t.name)
	}

	return count, nil
}

func (t *parquetTable) close() error {
	if t.db == nil {
		return nil
	}

	err := t.db.Close()
	t.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close database", err)
	}

	return nil
}
