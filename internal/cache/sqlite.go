package cache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"NiftyImbalance/internal/model"
)

// SQLiteCache keeps fetched bars in a SQLite database.
type SQLiteCache struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteCache opens (or creates) the SQLite database and runs migrations.
func NewSQLiteCache(dbPath string, logger zerolog.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets page requests read while the warm job writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db, logger: logger.With().Str("component", "sqlite_cache").Logger()}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	c.logger.Info().Str("path", dbPath).Msg("sqlite cache opened")
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_bars (
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume REAL,
			PRIMARY KEY (symbol, ts)
		)`,

		`CREATE TABLE IF NOT EXISTS fetch_windows (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT    NOT NULL,
			start_ts   INTEGER NOT NULL,
			end_ts     INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_windows_symbol ON fetch_windows(symbol, fetched_at)`,
	}

	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (c *SQLiteCache) Get(symbol string, start, end, freshAfter time.Time) ([]model.OHLCV, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var one int
	err := c.db.QueryRow(`SELECT 1 FROM fetch_windows
		WHERE symbol = ? AND start_ts <= ? AND end_ts >= ? AND fetched_at >= ?
		LIMIT 1`,
		symbol, start.Unix(), end.Unix(), freshAfter.Unix(),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup window: %w", err)
	}

	rows, err := c.db.Query(`SELECT ts, open, high, low, close, volume FROM daily_bars
		WHERE symbol = ? AND ts >= ? AND ts < ?
		ORDER BY ts`,
		symbol, start.Unix(), end.Unix(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	bars := []model.OHLCV{}
	for rows.Next() {
		var ts int64
		var b model.OHLCV
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, false, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = time.Unix(ts, 0).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate bars: %w", err)
	}
	return bars, true, nil
}

func (c *SQLiteCache) Put(symbol string, start, end time.Time, bars []model.OHLCV) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO daily_bars (symbol, ts, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(symbol, ts) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(symbol, b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("upsert bar: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO fetch_windows (symbol, start_ts, end_ts, fetched_at)
		VALUES (?,?,?,?)`,
		symbol, start.Unix(), end.Unix(), time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("record window: %w", err)
	}
	return tx.Commit()
}

// Windows lists recorded fetch windows for a symbol, newest first.
func (c *SQLiteCache) Windows(symbol string) ([]Window, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`SELECT start_ts, end_ts, fetched_at FROM fetch_windows
		WHERE symbol = ? ORDER BY fetched_at DESC, id DESC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query windows: %w", err)
	}
	defer rows.Close()

	var out []Window
	for rows.Next() {
		var s, e, f int64
		if err := rows.Scan(&s, &e, &f); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		out = append(out, Window{
			Symbol:    symbol,
			Start:     time.Unix(s, 0).UTC(),
			End:       time.Unix(e, 0).UTC(),
			FetchedAt: time.Unix(f, 0).UTC(),
		})
	}
	return out, rows.Err()
}

// LogRecentWindows logs up to n of the newest windows recorded for symbol and
// returns how many were logged.
func (c *SQLiteCache) LogRecentWindows(symbol string, n int) (int, error) {
	windows, err := c.Windows(symbol)
	if err != nil {
		return 0, err
	}
	if len(windows) > n {
		windows = windows[:n]
	}
	for _, w := range windows {
		c.logger.Info().
			Str("symbol", w.Symbol).
			Str("start", w.Start.Format("2006-01-02")).
			Str("end", w.End.Format("2006-01-02")).
			Time("fetched_at", w.FetchedAt).
			Msg("cached window")
	}
	return len(windows), nil
}

func (c *SQLiteCache) Close() error {
	c.logger.Info().Msg("closing sqlite cache")
	return c.db.Close()
}
