package positions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The normalizer deliberately never returns an error: broker exports are
// loosely structured, so malformed cells fall back to 0.0 and malformed
// option descriptors fall back to a plain stock ticker.

// sidePrefixRe matches an option-side letter artifact some exports prepend
// to numeric cells, e.g. "C5.16" or "P0.26".
var sidePrefixRe = regexp.MustCompile(`(?i)^[CP](\d|\.)`)

// instrumentRe matches the IB TWS option descriptor format:
// "IREN Jan30'26 40 CALL", "MU Dec26'25 272.5 CALL".
var instrumentRe = regexp.MustCompile(`(?i)^([A-Z0-9.-]+)\s+([A-Za-z]{3})(\d{1,2})'(\d{2})\s+(\d+(?:\.\d+)?)\s+(CALL|PUT)$`)

var monthNumbers = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04",
	"May": "05", "Jun": "06", "Jul": "07", "Aug": "08",
	"Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

// CleanNumber parses a broker-export cell value into a float64.
// Handles parenthesized negatives, thousands separators, quotes, a leading
// currency symbol and the C/P side prefix. Empty or unparseable input is 0.0.
func CleanNumber(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}

	// Negatives exported as "(123.45)"
	parenNegative := strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")")
	if parenNegative {
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}

	cleaned = strings.NewReplacer(",", "", "'", "", `"`, "").Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	if sidePrefixRe.MatchString(cleaned) {
		cleaned = cleaned[1:]
	}
	cleaned = strings.TrimPrefix(cleaned, "$")

	if parenNegative && !strings.HasPrefix(cleaned, "-") {
		cleaned = "-" + cleaned
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// Instrument is the classified form of a raw instrument description
type Instrument struct {
	Ticker string
	Type   PositionType
	Strike float64
	Expiry string // YYYY-MM-DD, empty for stock
}

// ParseInstrument classifies an IB TWS financial instrument description.
// Plain tickers ("NVDA") are stocks; option descriptors follow the
// "TICKER MonDD'YY STRIKE CALL|PUT" pattern. Anything that does not match
// is treated as a stock ticker, not an error.
func ParseInstrument(text string) Instrument {
	text = strings.TrimSpace(text)

	upper := strings.ToUpper(text)
	if !strings.Contains(upper, " CALL") && !strings.Contains(upper, " PUT") {
		return Instrument{Ticker: strings.ToUpper(text), Type: Stock}
	}

	m := instrumentRe.FindStringSubmatch(text)
	if m == nil {
		// Lenient fallback for malformed option text
		return Instrument{Ticker: strings.ToUpper(text), Type: Stock}
	}

	// Unrecognized month abbreviations map to "01". That quirk is inherited
	// from the TWS export handling and kept as-is rather than silently fixed.
	monthKey := strings.ToUpper(m[2][:1]) + strings.ToLower(m[2][1:])
	month, ok := monthNumbers[monthKey]
	if !ok {
		month = "01"
	}

	day := m[3]
	if len(day) == 1 {
		day = "0" + day
	}

	strike, _ := strconv.ParseFloat(m[5], 64)

	return Instrument{
		Ticker: strings.ToUpper(m[1]),
		Type:   PositionType(strings.ToLower(m[6])),
		Strike: strike,
		Expiry: fmt.Sprintf("20%s-%s-%s", m[4], month, day),
	}
}

// Row is one broker-export row as an ordered column mapping. Keys preserves
// the CSV header order so fuzzy column lookups resolve deterministically:
// among several candidate columns the leftmost one wins.
type Row struct {
	Keys  []string
	Cells map[string]string
}

// NewRow pairs a CSV header with one record. Ragged records are tolerated:
// missing trailing cells stay absent, extra cells are dropped.
func NewRow(header, record []string) Row {
	row := Row{Keys: header, Cells: make(map[string]string, len(header))}
	for i, name := range header {
		if i < len(record) {
			row.Cells[name] = record[i]
		}
	}
	return row
}

// FindColumn resolves a column name against a row's keys using three tiers,
// in strict priority order: exact match, trimmed case-insensitive match,
// case-insensitive substring match. Within a tier the leftmost column wins.
// Returns the matched original key and whether a match was found.
func FindColumn(row Row, keyPart string) (string, bool) {
	if _, ok := row.Cells[keyPart]; ok {
		return keyPart, true
	}

	lowerPart := strings.ToLower(keyPart)
	for _, key := range row.Keys {
		if strings.ToLower(strings.TrimSpace(key)) == lowerPart {
			return key, true
		}
	}
	for _, key := range row.Keys {
		if strings.Contains(strings.ToLower(key), lowerPart) {
			return key, true
		}
	}
	return "", false
}

// columnValue returns the cell for a fuzzily-resolved column, or "" when the
// column is absent.
func columnValue(row Row, keyPart string) string {
	key, ok := FindColumn(row, keyPart)
	if !ok {
		return ""
	}
	return row.Cells[key]
}

// Normalize converts one raw broker-export row into a Position.
// Returns false when the row carries no meaningful leg (blank instrument or
// zero quantity).
//
// Cost basis columns are totals in the export: stock rows are converted to
// per-share basis, option rows to per-contract then per-share (/100).
func Normalize(row Row) (Position, bool) {
	instrumentText := strings.TrimSpace(columnValue(row, "Financial Instrument"))
	if instrumentText == "" {
		return Position{}, false
	}

	instrument := ParseInstrument(instrumentText)
	qty := CleanNumber(columnValue(row, "Position"))
	if qty == 0 {
		return Position{}, false
	}

	costBasisTotal := CleanNumber(columnValue(row, "Cost Basis"))
	costBasis := abs(costBasisTotal) / abs(qty)

	pos := Position{
		Ticker:     instrument.Ticker,
		Type:       instrument.Type,
		Qty:        qty,
		CostBasis:  costBasis,
		Unrealized: CleanNumber(columnValue(row, "Unrealized P&L")),
	}

	if instrument.Type.IsOption() {
		pos.Strike = instrument.Strike
		pos.Expiry = instrument.Expiry
		// Option cost basis: per contract -> per share
		pos.CostBasis = costBasis / 100
	}

	return pos, true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
