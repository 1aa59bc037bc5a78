package positions

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/askourtis/payoff/internal/events"
)

// Service imports broker CSV exports and maintains the active position set
type Service struct {
	repo     *Repository
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewService creates a new positions service
func NewService(repo *Repository, eventBus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		log:      log.With().Str("service", "positions").Logger(),
	}
}

// ImportResult is the outcome of one CSV import
type ImportResult struct {
	SessionID string                 `json:"session_id"`
	Positions []Position             `json:"positions"`
	Prices    map[string]TickerPrice `json:"prices"`
	Skipped   int                    `json:"skipped"`
}

// ImportCSV reads a broker CSV export, normalizes every row into positions,
// resolves per-ticker underlying prices and persists the result as a new
// immutable import session.
//
// Rows with a blank instrument or zero quantity are skipped, never errors.
func (s *Service) ImportCSV(reader io.Reader) (*ImportResult, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1 // Broker exports are ragged more often than not
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var (
		posList []Position
		rows    []Row
		skipped int
	)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		row := NewRow(header, record)

		pos, ok := Normalize(row)
		if !ok {
			skipped++
			continue
		}
		posList = append(posList, pos)
		rows = append(rows, row)
	}

	prices := resolvePrices(posList, rows)

	sessionID, err := s.repo.SaveSession("csv", posList, prices)
	if err != nil {
		return nil, fmt.Errorf("failed to save import session: %w", err)
	}

	priceMap := make(map[string]TickerPrice, len(prices))
	for _, tp := range prices {
		priceMap[tp.Ticker] = tp
	}

	s.eventBus.Publish(&events.PositionsImportedData{
		SessionID: sessionID,
		Positions: len(posList),
		Tickers:   len(priceMap),
	})

	s.log.Info().
		Str("session_id", sessionID).
		Int("positions", len(posList)).
		Int("skipped", skipped).
		Msg("CSV import completed")

	return &ImportResult{
		SessionID: sessionID,
		Positions: posList,
		Prices:    priceMap,
		Skipped:   skipped,
	}, nil
}

// Active returns the positions and prices of the latest import session
func (s *Service) Active() ([]Position, map[string]TickerPrice, *ImportSession, error) {
	session, err := s.repo.LatestSession()
	if err != nil {
		return nil, nil, nil, err
	}
	posList, err := s.repo.GetPositions(session.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	prices, err := s.repo.GetTickerPrices(session.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return posList, prices, session, nil
}

// resolvePrices derives one underlying price per ticker.
//
// Stock rows provide a real price through the Last column; option rows may
// provide one through an Underlying Price column. Tickers holding only
// options without an underlying price get a rough estimate from the option
// quotes themselves: a call trading at L with strike K suggests the stock is
// near K+L, a put near K-L. Falls back to the strike range midpoint.
func resolvePrices(posList []Position, rows []Row) []TickerPrice {
	prices := make(map[string]TickerPrice)

	for i, pos := range posList {
		switch {
		case pos.Type == Stock:
			last := CleanNumber(columnValue(rows[i], "Last"))
			prices[pos.Ticker] = TickerPrice{Ticker: pos.Ticker, Price: last}
		default:
			if _, seen := prices[pos.Ticker]; seen {
				continue
			}
			underlying := CleanNumber(columnValue(rows[i], "Underlying Price"))
			if underlying > 0 {
				prices[pos.Ticker] = TickerPrice{Ticker: pos.Ticker, Price: underlying}
			}
		}
	}

	// Estimate for option-only tickers without an underlying price column
	estimates := make(map[string][]float64)
	strikes := make(map[string][]float64)
	for i, pos := range posList {
		if !pos.Type.IsOption() {
			continue
		}
		if tp, seen := prices[pos.Ticker]; seen && !tp.Estimated {
			continue
		}
		strikes[pos.Ticker] = append(strikes[pos.Ticker], pos.Strike)

		last := CleanNumber(columnValue(rows[i], "Last"))
		if last <= 0 {
			continue
		}
		if pos.Type == Call {
			estimates[pos.Ticker] = append(estimates[pos.Ticker], pos.Strike+last)
		} else {
			estimates[pos.Ticker] = append(estimates[pos.Ticker], pos.Strike-last)
		}
	}

	for ticker, ks := range strikes {
		if _, seen := prices[ticker]; seen {
			continue
		}
		if est := estimates[ticker]; len(est) > 0 {
			var sum float64
			for _, e := range est {
				sum += e
			}
			prices[ticker] = TickerPrice{Ticker: ticker, Price: sum / float64(len(est)), Estimated: true}
		} else {
			lo, hi := ks[0], ks[0]
			for _, k := range ks {
				if k < lo {
					lo = k
				}
				if k > hi {
					hi = k
				}
			}
			prices[ticker] = TickerPrice{Ticker: ticker, Price: (lo + hi) / 2, Estimated: true}
		}
	}

	result := make([]TickerPrice, 0, len(prices))
	for _, tp := range prices {
		result = append(result, tp)
	}
	return result
}

// UnrealizedByTicker sums the export's unrealized P&L per ticker
func UnrealizedByTicker(posList []Position) map[string]float64 {
	result := make(map[string]float64)
	for _, pos := range posList {
		result[pos.Ticker] += pos.Unrealized
	}
	return result
}

// Tickers returns the sorted-unique set of tickers in a position list
func Tickers(posList []Position) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, pos := range posList {
		if _, ok := seen[pos.Ticker]; ok {
			continue
		}
		seen[pos.Ticker] = struct{}{}
		result = append(result, pos.Ticker)
	}
	sort.Strings(result)
	return result
}

// ByTicker filters a position list down to one ticker
func ByTicker(posList []Position, ticker string) []Position {
	ticker = strings.ToUpper(ticker)
	var result []Position
	for _, pos := range posList {
		if pos.Ticker == ticker {
			result = append(result, pos)
		}
	}
	return result
}
