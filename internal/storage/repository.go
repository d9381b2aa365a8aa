package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tradeflow/internal/core"
	"tradeflow/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores trade records in a local SQLite database.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SourceID implements source.Identifier.
func (r *SQLiteRepository) SourceID() string {
	return "sqlite:" + r.path
}

// LoadRecords implements source.RecordReader. Rows are read in insertion
// order up to limit; rows that no longer match the expected shape are
// skipped with a warning so one bad row cannot take the dashboard down.
func (r *SQLiteRepository) LoadRecords(ctx context.Context, limit int) ([]core.TradeRecord, error) {
	query := `
		SELECT country, hs_section, hs_code, commodity, year, trade_type, value_usd
		FROM trade_records
		ORDER BY id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trade records: %w", err)
	}
	defer rows.Close()

	var records []core.TradeRecord
	skipped := 0
	for rows.Next() {
		var rec core.TradeRecord
		var tradeType string
		if err := rows.Scan(&rec.Country, &rec.HSSection, &rec.HSCode, &rec.Commodity, &rec.Year, &tradeType, &rec.ValueUSD); err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		rec.TradeType = core.TradeType(tradeType)
		if err := rec.Validate(); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped invalid rows while loading trade records",
			log.FieldOperation, log.OpValidate, "skipped", skipped, "loaded", len(records))
	}
	return records, nil
}

// AppendRecords implements source.RecordWriter. The batch is inserted in a
// single transaction; any invalid record aborts the whole batch.
func (r *SQLiteRepository) AppendRecords(ctx context.Context, records []core.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade_records (country, hs_section, hs_code, commodity, year, trade_type, value_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx,
			rec.Country, rec.HSSection, rec.HSCode, rec.Commodity,
			rec.Year, string(rec.TradeType), rec.ValueUSD,
		); err != nil {
			return fmt.Errorf("insert trade record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Trade records saved to SQLite",
		log.FieldOperation, log.OpAppend, log.FieldRecordCount, len(records), "db_path", r.path)
	return nil
}

// CountRecords returns the number of stored trade records.
func (r *SQLiteRepository) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trade_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trade records: %w", err)
	}
	return count, nil
}

// RecordsAfter returns records with an id greater than afterID, bounded to
// limit, together with the highest id seen. The mirror worker uses it to
// push only new rows to the spreadsheet.
func (r *SQLiteRepository) RecordsAfter(ctx context.Context, afterID int64, limit int) ([]core.TradeRecord, int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, country, hs_section, hs_code, commodity, year, trade_type, value_usd
		FROM trade_records
		WHERE id > ?
		ORDER BY id
		LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, afterID, fmt.Errorf("query records after %d: %w", afterID, err)
	}
	defer rows.Close()

	var records []core.TradeRecord
	lastID := afterID
	for rows.Next() {
		var rec core.TradeRecord
		var id int64
		var tradeType string
		if err := rows.Scan(&id, &rec.Country, &rec.HSSection, &rec.HSCode, &rec.Commodity, &rec.Year, &tradeType, &rec.ValueUSD); err != nil {
			return nil, afterID, fmt.Errorf("scan trade record: %w", err)
		}
		rec.TradeType = core.TradeType(tradeType)
		lastID = id
		if err := rec.Validate(); err != nil {
			slog.WarnContext(ctx, "Skipping invalid row in mirror batch", "id", id, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, afterID, fmt.Errorf("iterate records after %d: %w", afterID, err)
	}
	return records, lastID, nil
}
