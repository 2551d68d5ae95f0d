package sinks

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"tradepulse/internal/clock"
	"tradepulse/internal/models"
)

func sqlNow() int64 { return clock.NowMs() }

// -----------------------------------------------------------------------------

// SQLSink persists every record stream into relational tables instead
// of flat files, so a dashboard or ad hoc query can reach the same data
// with SQL. It backs onto either modernc.org/sqlite or lib/pq depending
// on how it's opened.
type SQLSink struct {
	db       *sql.DB
	postgres bool
}

// exec runs query, rewriting "?" placeholders to lib/pq's "$1", "$2", ...
// style when the sink is backed by Postgres. modernc.org/sqlite accepts
// "?" natively.
func (s *SQLSink) exec(query string, args ...interface{}) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *SQLSink) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// NewSQLite opens (creating if absent) a SQLite-backed sink at path.
func NewSQLite(path string) (*SQLSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	s := &SQLSink{db: db}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewPostgres opens a Postgres-backed sink using connStr.
func NewPostgres(connStr string) (*SQLSink, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	s := &SQLSink{db: db, postgres: true}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLSink) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS trades_raw (
			symbol TEXT,
			raw_json TEXT,
			ingested_at INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS latency (
			symbol_id INTEGER,
			exchange_ts_ms INTEGER,
			receive_ts_ms INTEGER,
			process_ts_ms INTEGER,
			network_latency_ms INTEGER,
			processing_latency_ms INTEGER,
			total_latency_ms INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS vwap (
			symbol TEXT,
			minute_ts_ms INTEGER,
			vwap REAL,
			PRIMARY KEY (symbol, minute_ts_ms)
		)`,
		`CREATE TABLE IF NOT EXISTS correlations (
			symbol TEXT,
			minute_ts_ms INTEGER,
			peer_symbol TEXT,
			r REAL,
			peer_end_minute_ts_ms INTEGER,
			PRIMARY KEY (symbol, minute_ts_ms)
		)`,
		`CREATE TABLE IF NOT EXISTS scheduler_ticks (
			scheduled_ms INTEGER PRIMARY KEY,
			actual_ms INTEGER,
			drift_ms INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS system_samples (
			ts_ms INTEGER PRIMARY KEY,
			cpu_pct REAL,
			memory_mb REAL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// LogTradeRaw inserts one raw trade row.
func (s *SQLSink) LogTradeRaw(symbolName, rawJSON string) error {
	_, err := s.exec(`INSERT INTO trades_raw (symbol, raw_json, ingested_at) VALUES (?, ?, ?)`,
		symbolName, rawJSON, sqlNow())
	return err
}

// LogLatency inserts one latency row.
func (s *SQLSink) LogLatency(_ string, rec models.LatencyRecord) error {
	_, err := s.exec(`INSERT INTO latency (symbol_id, exchange_ts_ms, receive_ts_ms, process_ts_ms, network_latency_ms, processing_latency_ms, total_latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SymbolID, rec.ExchangeTsMs, rec.ReceiveTsMs, rec.ProcessTsMs,
		rec.NetworkLatencyMs(), rec.ProcessingLatencyMs(), rec.TotalLatencyMs())
	return err
}

// LogVwap upserts a symbol's VWAP for a minute.
func (s *SQLSink) LogVwap(symbolName string, rec models.VwapRecord) error {
	_, err := s.exec(`INSERT INTO vwap (symbol, minute_ts_ms, vwap) VALUES (?, ?, ?)
		ON CONFLICT (symbol, minute_ts_ms) DO UPDATE SET vwap = excluded.vwap`,
		symbolName, rec.MinuteTsMs, rec.Vwap)
	return err
}

// LogCorrelation upserts a symbol's best-correlated peer for a minute.
func (s *SQLSink) LogCorrelation(symbolName string, rec models.CorrelationRecord) error {
	_, err := s.exec(`INSERT INTO correlations (symbol, minute_ts_ms, peer_symbol, r, peer_end_minute_ts_ms) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (symbol, minute_ts_ms) DO UPDATE SET
			peer_symbol = excluded.peer_symbol,
			r = excluded.r,
			peer_end_minute_ts_ms = excluded.peer_end_minute_ts_ms`,
		symbolName, rec.MinuteTsMs, rec.PeerSymbol, rec.R, rec.PeerEndMinuteTsMs)
	return err
}

// LogScheduler inserts one scheduler drift row.
func (s *SQLSink) LogScheduler(rec models.SchedulerRecord) error {
	_, err := s.exec(`INSERT INTO scheduler_ticks (scheduled_ms, actual_ms, drift_ms) VALUES (?, ?, ?)
		ON CONFLICT (scheduled_ms) DO UPDATE SET actual_ms = excluded.actual_ms, drift_ms = excluded.drift_ms`,
		rec.ScheduledMs, rec.ActualMs, rec.DriftMs)
	return err
}

// LogSystem inserts one system telemetry row.
func (s *SQLSink) LogSystem(rec models.SystemRecord) error {
	_, err := s.exec(`INSERT INTO system_samples (ts_ms, cpu_pct, memory_mb) VALUES (?, ?, ?)
		ON CONFLICT (ts_ms) DO UPDATE SET cpu_pct = excluded.cpu_pct, memory_mb = excluded.memory_mb`,
		rec.TsMs, rec.CPUPct, rec.MemoryMB)
	return err
}

// Close closes the underlying database handle.
func (s *SQLSink) Close() error {
	return s.db.Close()
}
