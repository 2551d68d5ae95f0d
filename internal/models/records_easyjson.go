package models

// Hand-authored in the shape `easyjson -all` would generate for
// records.go's outbound broadcast types, so the hub's per-tick fan-out to
// every connected dashboard skips encoding/json's reflection.

import (
	"math"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// writeFloat64 writes f as a JSON number, or the literal null when f is
// NaN or infinite: strconv.AppendFloat (which jwriter.Float64 wraps)
// renders those as the bare tokens "NaN"/"+Inf"/"-Inf", which are not valid
// JSON and would corrupt the frame on the wire.
func writeFloat64(w *jwriter.Writer, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		w.RawString("null")
		return
	}
	w.Float64(f)
}

var (
	_ easyjson.Marshaler   = VwapRecord{}
	_ easyjson.Unmarshaler = (*VwapRecord)(nil)
	_ easyjson.Marshaler   = CorrelationRecord{}
	_ easyjson.Unmarshaler = (*CorrelationRecord)(nil)
	_ easyjson.Marshaler   = SchedulerRecord{}
	_ easyjson.Unmarshaler = (*SchedulerRecord)(nil)
	_ easyjson.Marshaler   = HubMessage{}
	_ easyjson.Unmarshaler = (*HubMessage)(nil)
)

// VwapRecord

func (v VwapRecord) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	w.RawString(`"symbol":`)
	w.String(v.Symbol)
	w.RawString(`,"minute_ts_ms":`)
	w.Int64(v.MinuteTsMs)
	w.RawString(`,"vwap":`)
	writeFloat64(w, v.Vwap)
	w.RawByte('}')
}

func (v VwapRecord) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	v.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

func (v *VwapRecord) UnmarshalEasyJSON(l *jlexer.Lexer) {
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		switch key {
		case "symbol":
			v.Symbol = l.String()
		case "minute_ts_ms":
			v.MinuteTsMs = l.Int64()
		case "vwap":
			v.Vwap = l.Float64()
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

func (v *VwapRecord) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	v.UnmarshalEasyJSON(&r)
	return r.Error()
}

// CorrelationRecord

func (c CorrelationRecord) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	w.RawString(`"symbol":`)
	w.String(c.Symbol)
	w.RawString(`,"minute_ts_ms":`)
	w.Int64(c.MinuteTsMs)
	w.RawString(`,"peer_symbol":`)
	w.String(c.PeerSymbol)
	w.RawString(`,"r":`)
	writeFloat64(w, c.R)
	w.RawString(`,"peer_end_minute_ts_ms":`)
	w.Int64(c.PeerEndMinuteTsMs)
	w.RawByte('}')
}

func (c CorrelationRecord) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	c.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

func (c *CorrelationRecord) UnmarshalEasyJSON(l *jlexer.Lexer) {
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		switch key {
		case "symbol":
			c.Symbol = l.String()
		case "minute_ts_ms":
			c.MinuteTsMs = l.Int64()
		case "peer_symbol":
			c.PeerSymbol = l.String()
		case "r":
			c.R = l.Float64()
		case "peer_end_minute_ts_ms":
			c.PeerEndMinuteTsMs = l.Int64()
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

func (c *CorrelationRecord) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	c.UnmarshalEasyJSON(&r)
	return r.Error()
}

// SchedulerRecord

func (s SchedulerRecord) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	w.RawString(`"scheduled_ms":`)
	w.Int64(s.ScheduledMs)
	w.RawString(`,"actual_ms":`)
	w.Int64(s.ActualMs)
	w.RawString(`,"drift_ms":`)
	w.Int64(s.DriftMs)
	w.RawByte('}')
}

func (s SchedulerRecord) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	s.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

func (s *SchedulerRecord) UnmarshalEasyJSON(l *jlexer.Lexer) {
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		switch key {
		case "scheduled_ms":
			s.ScheduledMs = l.Int64()
		case "actual_ms":
			s.ActualMs = l.Int64()
		case "drift_ms":
			s.DriftMs = l.Int64()
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

func (s *SchedulerRecord) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	s.UnmarshalEasyJSON(&r)
	return r.Error()
}

// HubMessage

func (h HubMessage) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	w.RawString(`"kind":`)
	w.String(h.Kind)
	if h.Vwap != nil {
		w.RawString(`,"vwap":`)
		h.Vwap.MarshalEasyJSON(w)
	}
	if h.Correlation != nil {
		w.RawString(`,"correlation":`)
		h.Correlation.MarshalEasyJSON(w)
	}
	if h.Scheduler != nil {
		w.RawString(`,"scheduler":`)
		h.Scheduler.MarshalEasyJSON(w)
	}
	w.RawByte('}')
}

func (h HubMessage) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	h.MarshalEasyJSON(&w)
	return w.BuildBytes()
}

func (h *HubMessage) UnmarshalEasyJSON(l *jlexer.Lexer) {
	l.Delim('{')
	for !l.IsDelim('}') {
		key := l.UnsafeFieldName(false)
		l.WantColon()
		switch key {
		case "kind":
			h.Kind = l.String()
		case "vwap":
			if l.IsNull() {
				l.Skip()
				h.Vwap = nil
			} else {
				h.Vwap = new(VwapRecord)
				h.Vwap.UnmarshalEasyJSON(l)
			}
		case "correlation":
			if l.IsNull() {
				l.Skip()
				h.Correlation = nil
			} else {
				h.Correlation = new(CorrelationRecord)
				h.Correlation.UnmarshalEasyJSON(l)
			}
		case "scheduler":
			if l.IsNull() {
				l.Skip()
				h.Scheduler = nil
			} else {
				h.Scheduler = new(SchedulerRecord)
				h.Scheduler.UnmarshalEasyJSON(l)
			}
		default:
			l.SkipRecursive()
		}
		l.WantComma()
	}
	l.Delim('}')
}

func (h *HubMessage) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	h.UnmarshalEasyJSON(&r)
	return r.Error()
}
