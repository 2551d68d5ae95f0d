// Package sinks defines the durable-record contract every log
// destination implements, plus a file-based sink that reproduces the
// original CSV/JSONL layout byte-for-byte.
package sinks

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tradepulse/internal/clock"
	"tradepulse/internal/models"
)

// Sink receives every derived record the pipeline produces. All methods
// must be safe for concurrent use; the processor, VWAP worker,
// correlation worker and scheduler each call in from their own
// goroutine.
type Sink interface {
	LogTradeRaw(symbolName, rawJSON string) error
	LogLatency(symbolName string, rec models.LatencyRecord) error
	LogVwap(symbolName string, rec models.VwapRecord) error
	// LogCorrelation is only called when a candidate was found; a
	// symbol with no valid candidate for a given minute emits nothing.
	LogCorrelation(symbolName string, rec models.CorrelationRecord) error
	LogScheduler(rec models.SchedulerRecord) error
	LogSystem(rec models.SystemRecord) error
	Close() error
}

// -----------------------------------------------------------------------------

// FileSink writes each record stream to its own append-only file,
// mirroring the original data/ directory layout: one JSONL file per
// symbol for raw trades, one CSV per symbol for VWAP and correlation
// history, and shared CSVs for latency, scheduler and system metrics.
type FileSink struct {
	mu sync.Mutex

	baseDir          string
	tradeFiles       map[string]*bufio.Writer
	tradeHandles     map[string]*os.File
	vwapFiles        map[string]*bufio.Writer
	vwapHandles      map[string]*os.File
	correlationFiles map[string]*bufio.Writer
	correlationHdls  map[string]*os.File

	latencyFile   *bufio.Writer
	latencyHandle *os.File

	schedulerFile   *bufio.Writer
	schedulerHandle *os.File

	systemFile   *bufio.Writer
	systemHandle *os.File
}

// NewFileSink creates the data directory layout rooted at baseDir and
// opens the shared CSV files, writing headers if they don't already
// exist. Per-symbol files are opened lazily on first write.
func NewFileSink(baseDir string) (*FileSink, error) {
	dirs := []string{
		baseDir,
		filepath.Join(baseDir, "trades"),
		filepath.Join(baseDir, "metrics"),
		filepath.Join(baseDir, "metrics", "vwap"),
		filepath.Join(baseDir, "metrics", "correlations"),
		filepath.Join(baseDir, "performance"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", d, err)
		}
	}

	fs := &FileSink{
		baseDir:          baseDir,
		tradeFiles:       make(map[string]*bufio.Writer),
		tradeHandles:     make(map[string]*os.File),
		vwapFiles:        make(map[string]*bufio.Writer),
		vwapHandles:      make(map[string]*os.File),
		correlationFiles: make(map[string]*bufio.Writer),
		correlationHdls:  make(map[string]*os.File),
	}

	latencyPath := filepath.Join(baseDir, "performance", "latency.csv")
	latencyHandle, latencyWriter, err := openWithHeader(latencyPath, "symbol_index,exchange_ts_ms,recv_ts_ms,process_ts_ms,network_latency_ms,processing_latency_ms,total_latency_ms")
	if err != nil {
		return nil, err
	}
	fs.latencyHandle, fs.latencyFile = latencyHandle, latencyWriter

	schedulerPath := filepath.Join(baseDir, "performance", "scheduler.csv")
	schedulerHandle, schedulerWriter, err := openWithHeader(schedulerPath, "scheduled_ms,actual_ms,drift_ms")
	if err != nil {
		return nil, err
	}
	fs.schedulerHandle, fs.schedulerFile = schedulerHandle, schedulerWriter

	systemPath := filepath.Join(baseDir, "performance", "system.csv")
	systemHandle, systemWriter, err := openWithHeader(systemPath, "timestamp_ms,cpu_percent,memory_mb")
	if err != nil {
		return nil, err
	}
	fs.systemHandle, fs.systemFile = systemHandle, systemWriter

	return fs, nil
}

func openWithHeader(path, header string) (*os.File, *bufio.Writer, error) {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if isNew {
		if _, err := w.WriteString(header + "\n"); err != nil {
			f.Close()
			return nil, nil, err
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return nil, nil, err
		}
	}
	return f, w, nil
}

func (fs *FileSink) tradeWriter(symbolName string) (*bufio.Writer, error) {
	if w, ok := fs.tradeFiles[symbolName]; ok {
		return w, nil
	}
	path := filepath.Join(fs.baseDir, "trades", symbolName+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade log for %s: %w", symbolName, err)
	}
	w := bufio.NewWriter(f)
	fs.tradeFiles[symbolName] = w
	fs.tradeHandles[symbolName] = f
	return w, nil
}

func (fs *FileSink) vwapWriter(symbolName string) (*bufio.Writer, error) {
	if w, ok := fs.vwapFiles[symbolName]; ok {
		return w, nil
	}
	path := filepath.Join(fs.baseDir, "metrics", "vwap", symbolName+".csv")
	f, w, err := openWithHeader(path, "timestamp_iso,vwap")
	if err != nil {
		return nil, err
	}
	fs.vwapFiles[symbolName] = w
	fs.vwapHandles[symbolName] = f
	return w, nil
}

func (fs *FileSink) correlationWriter(symbolName string) (*bufio.Writer, error) {
	if w, ok := fs.correlationFiles[symbolName]; ok {
		return w, nil
	}
	path := filepath.Join(fs.baseDir, "metrics", "correlations", symbolName+".csv")
	f, w, err := openWithHeader(path, "timestamp_iso,correlated_with,correlation,lag_timestamp_iso")
	if err != nil {
		return nil, err
	}
	fs.correlationFiles[symbolName] = w
	fs.correlationHdls[symbolName] = f
	return w, nil
}

// LogTradeRaw appends the raw exchange JSON for symbolName as one line.
func (fs *FileSink) LogTradeRaw(symbolName, rawJSON string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	w, err := fs.tradeWriter(symbolName)
	if err != nil {
		return err
	}
	if _, err := w.WriteString(rawJSON + "\n"); err != nil {
		return err
	}
	return w.Flush()
}

// LogLatency appends one row to the shared latency CSV.
func (fs *FileSink) LogLatency(symbolName string, rec models.LatencyRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	line := fmt.Sprintf("%d,%d,%d,%d,%d,%d,%d\n",
		rec.SymbolID, rec.ExchangeTsMs, rec.ReceiveTsMs, rec.ProcessTsMs,
		rec.NetworkLatencyMs(), rec.ProcessingLatencyMs(), rec.TotalLatencyMs())
	if _, err := fs.latencyFile.WriteString(line); err != nil {
		return err
	}
	return fs.latencyFile.Flush()
}

// LogVwap appends one row to symbolName's VWAP CSV. A NaN VWAP is
// written as the literal string "NaN".
func (fs *FileSink) LogVwap(symbolName string, rec models.VwapRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	w, err := fs.vwapWriter(symbolName)
	if err != nil {
		return err
	}
	iso := clock.FormatMinuteISO(rec.MinuteTsMs)
	line := fmt.Sprintf("%s,%s\n", iso, formatG(rec.Vwap, 12))
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.Flush()
}

// LogCorrelation appends one row to symbolName's correlation CSV. Only
// called when a candidate was found for the minute.
func (fs *FileSink) LogCorrelation(symbolName string, rec models.CorrelationRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	w, err := fs.correlationWriter(symbolName)
	if err != nil {
		return err
	}
	iso := clock.FormatMinuteISO(rec.MinuteTsMs)
	lagISO := ""
	if rec.PeerEndMinuteTsMs != 0 {
		lagISO = clock.FormatMinuteISO(rec.PeerEndMinuteTsMs)
	}
	line := fmt.Sprintf("%s,%s,%s,%s\n", iso, rec.PeerSymbol, formatG(rec.R, 6), lagISO)
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.Flush()
}

// LogScheduler appends one row to the shared scheduler CSV.
func (fs *FileSink) LogScheduler(rec models.SchedulerRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	line := fmt.Sprintf("%d,%d,%d\n", rec.ScheduledMs, rec.ActualMs, rec.DriftMs)
	if _, err := fs.schedulerFile.WriteString(line); err != nil {
		return err
	}
	return fs.schedulerFile.Flush()
}

// LogSystem appends one row to the shared system telemetry CSV.
func (fs *FileSink) LogSystem(rec models.SystemRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	line := fmt.Sprintf("%d,%.2f,%.2f\n", rec.TsMs, rec.CPUPct, rec.MemoryMB)
	if _, err := fs.systemFile.WriteString(line); err != nil {
		return err
	}
	return fs.systemFile.Flush()
}

// Close flushes and closes every open file handle.
func (fs *FileSink) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for name, w := range fs.tradeFiles {
		w.Flush()
		record(fs.tradeHandles[name].Close())
	}
	for name, w := range fs.vwapFiles {
		w.Flush()
		record(fs.vwapHandles[name].Close())
	}
	for name, w := range fs.correlationFiles {
		w.Flush()
		record(fs.correlationHdls[name].Close())
	}

	fs.latencyFile.Flush()
	record(fs.latencyHandle.Close())
	fs.schedulerFile.Flush()
	record(fs.schedulerHandle.Close())
	fs.systemFile.Flush()
	record(fs.systemHandle.Close())

	return firstErr
}

// formatG renders v with sig significant digits, matching C's %g family;
// Go's fmt already renders NaN as the literal "NaN".
func formatG(v float64, sig int) string {
	return fmt.Sprintf("%.*g", sig, v)
}

// -----------------------------------------------------------------------------

// MultiSink fans every call out to all of its member sinks, so a
// process can write the original file layout and a queryable SQL store
// at the same time.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink builds a sink that dispatches to every sink in order.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) LogTradeRaw(symbolName, rawJSON string) error {
	return m.each(func(s Sink) error { return s.LogTradeRaw(symbolName, rawJSON) })
}

func (m *MultiSink) LogLatency(symbolName string, rec models.LatencyRecord) error {
	return m.each(func(s Sink) error { return s.LogLatency(symbolName, rec) })
}

func (m *MultiSink) LogVwap(symbolName string, rec models.VwapRecord) error {
	return m.each(func(s Sink) error { return s.LogVwap(symbolName, rec) })
}

func (m *MultiSink) LogCorrelation(symbolName string, rec models.CorrelationRecord) error {
	return m.each(func(s Sink) error { return s.LogCorrelation(symbolName, rec) })
}

func (m *MultiSink) LogScheduler(rec models.SchedulerRecord) error {
	return m.each(func(s Sink) error { return s.LogScheduler(rec) })
}

func (m *MultiSink) LogSystem(rec models.SystemRecord) error {
	return m.each(func(s Sink) error { return s.LogSystem(rec) })
}

func (m *MultiSink) Close() error {
	return m.each(func(s Sink) error { return s.Close() })
}

func (m *MultiSink) each(fn func(Sink) error) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := fn(s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
