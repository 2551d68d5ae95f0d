package models

//go:generate easyjson -all records.go

// LatencyRecord is the derived-latency row handed to the latency sink for
// every successfully parsed trade.
type LatencyRecord struct {
	SymbolID     int   `json:"symbol_id"`
	ExchangeTsMs int64 `json:"exchange_ts_ms"`
	ReceiveTsMs  int64 `json:"receive_ts_ms"`
	ProcessTsMs  int64 `json:"process_ts_ms"`
}

// NetworkLatencyMs is the recv - exchange delta.
func (r LatencyRecord) NetworkLatencyMs() int64 { return r.ReceiveTsMs - r.ExchangeTsMs }

// ProcessingLatencyMs is the process - recv delta.
func (r LatencyRecord) ProcessingLatencyMs() int64 { return r.ProcessTsMs - r.ReceiveTsMs }

// TotalLatencyMs is the process - exchange delta.
func (r LatencyRecord) TotalLatencyMs() int64 { return r.ProcessTsMs - r.ExchangeTsMs }

// VwapRecord is emitted once per symbol per minute tick by the VWAP
// worker and broadcast over the observability hub.
type VwapRecord struct {
	Symbol     string  `json:"symbol"`
	MinuteTsMs int64   `json:"minute_ts_ms"`
	Vwap       float64 `json:"vwap"`
}

// CorrelationRecord is emitted at most once per symbol per minute tick by
// the correlation worker.
type CorrelationRecord struct {
	Symbol            string  `json:"symbol"`
	MinuteTsMs        int64   `json:"minute_ts_ms"`
	PeerSymbol        string  `json:"peer_symbol"`
	R                 float64 `json:"r"`
	PeerEndMinuteTsMs int64   `json:"peer_end_minute_ts_ms"`
}

// SchedulerRecord is one tick's drift measurement.
type SchedulerRecord struct {
	ScheduledMs int64 `json:"scheduled_ms"`
	ActualMs    int64 `json:"actual_ms"`
	DriftMs     int64 `json:"drift_ms"`
}

// SystemRecord is one tick's process telemetry sample.
type SystemRecord struct {
	TsMs     int64   `json:"ts_ms"`
	CPUPct   float64 `json:"cpu_pct"`
	MemoryMB float64 `json:"memory_mb"`
}

// HubMessage is the envelope pushed to every connected observability
// client; exactly one of the payload fields is non-nil.
type HubMessage struct {
	Kind        string             `json:"kind"`
	Vwap        *VwapRecord        `json:"vwap,omitempty"`
	Correlation *CorrelationRecord `json:"correlation,omitempty"`
	Scheduler   *SchedulerRecord   `json:"scheduler,omitempty"`
}
