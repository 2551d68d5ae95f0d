// Package parser extracts trade fields out of an exchange trade frame
// without a general JSON decoder. Only four fields matter (instId, px,
// sz, ts) and they always appear inside a flat object in the "data"
// array, so a handful of substring scans is both simpler and cheaper
// than building a document tree just to throw most of it away.
package parser

import (
	"strconv"
	"strings"

	"tradepulse/internal/clock"
	"tradepulse/internal/models"
)

// SubscribePayload returns the OKX public-channel subscribe frame for a
// fixed symbol table, ready to send once the socket is dialed.
func SubscribePayload(symbols []string) string {
	var b strings.Builder
	b.WriteString(`{"op":"subscribe","args":[`)
	for i, s := range symbols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"channel":"trades","instId":"`)
		b.WriteString(s)
		b.WriteString(`"}`)
	}
	b.WriteString(`]}`)
	return b.String()
}

// extractString finds key in json and returns the quoted string value
// that follows its colon, plus the rest of json after the closing quote
// so callers can chain extractions left to right. ok is false if
// the key, colon, or a well-formed quoted value isn't found.
func extractString(json, key string) (value string, rest string, ok bool) {
	idx := strings.Index(json, key)
	if idx < 0 {
		return "", json, false
	}
	afterKey := json[idx+len(key):]

	colon := strings.IndexByte(afterKey, ':')
	if colon < 0 {
		return "", json, false
	}
	p := afterKey[colon+1:]
	p = strings.TrimLeft(p, " \t\r\n")
	if len(p) == 0 || p[0] != '"' {
		return "", json, false
	}
	p = p[1:]

	end := strings.IndexByte(p, '"')
	if end < 0 {
		return "", json, false
	}

	return p[:end], p[end+1:], true
}

// ParseTradeFrame extracts a single trade from a raw OKX "trades"
// channel push message. It reports ok=false when the frame isn't a
// trade push (e.g. a subscribe ack) or the symbol isn't one this
// process tracks.
func ParseTradeFrame(raw string, symbols *models.SymbolTable) (msg models.RawMessage, ok bool) {
	dataIdx := strings.Index(raw, `"data"`)
	if dataIdx < 0 {
		return models.RawMessage{}, false
	}
	arrStart := strings.IndexByte(raw[dataIdx:], '[')
	if arrStart < 0 {
		return models.RawMessage{}, false
	}
	body := raw[dataIdx+arrStart+1:]

	objStart := strings.IndexByte(body, '{')
	if objStart < 0 {
		return models.RawMessage{}, false
	}
	body = body[objStart:]

	instID, rest, ok := extractString(body, `"instId"`)
	if !ok {
		return models.RawMessage{}, false
	}
	symbolID, known := symbols.Lookup(instID)
	if !known {
		return models.RawMessage{}, false
	}

	priceStr, rest, ok := extractString(rest, `"px"`)
	if !ok {
		return models.RawMessage{}, false
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || price <= 0 {
		return models.RawMessage{}, false
	}

	sizeStr, rest, ok := extractString(rest, `"sz"`)
	if !ok {
		return models.RawMessage{}, false
	}
	size, err := strconv.ParseFloat(sizeStr, 64)
	if err != nil || size <= 0 {
		return models.RawMessage{}, false
	}

	tsMs := clock.NowMs()
	if tsStr, _, ok := extractString(rest, `"ts"`); ok {
		if parsed, err := strconv.ParseInt(tsStr, 10, 64); err == nil && parsed > 0 {
			tsMs = parsed
		}
	}

	return models.RawMessage{
		SymbolID:     symbolID,
		ExchangeTsMs: tsMs,
		Price:        price,
		Size:         size,
		RawText:      raw,
	}, true
}
