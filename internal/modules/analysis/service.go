package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/askourtis/payoff/internal/events"
	"github.com/askourtis/payoff/internal/modules/payoff"
	"github.com/askourtis/payoff/internal/modules/positions"
	"github.com/askourtis/payoff/internal/modules/risk"
)

const cacheTTL = time.Hour

// ExpiryCurve is one P&L series restricted to option legs of a single
// expiry (stock legs and unknown-expiry legs are always included).
type ExpiryCurve struct {
	Expiry string    `json:"expiry"` // YYYY-MM-DD, empty for the unknown-expiry bucket
	PnL    []float64 `json:"pnl"`
}

// TickerAnalysis is the complete derived analysis for one ticker
type TickerAnalysis struct {
	Ticker        string               `json:"ticker"`
	CurrentPrice  float64              `json:"current_price"`
	Estimated     bool                 `json:"estimated"`
	Positions     []positions.Position `json:"positions"`
	Curve         payoff.Curve         `json:"curve"`
	ExpiryCurves  []ExpiryCurve        `json:"expiry_curves,omitempty"`
	Breakevens    []float64            `json:"breakevens"`
	Bounds        risk.Bounds          `json:"bounds"`
	SampledBounds risk.Bounds          `json:"sampled_bounds"`
	CurrentPnL    float64              `json:"current_pnl"`
	Unrealized    float64              `json:"unrealized"`
}

// Service computes per-ticker payoff and risk analysis
type Service struct {
	positionsSvc *positions.Service
	cache        *Cache
	log          zerolog.Logger
}

// NewService creates a new analysis service. The cache is optional; pass nil
// to recompute on every request.
func NewService(positionsSvc *positions.Service, cache *Cache, eventBus *events.Bus, log zerolog.Logger) *Service {
	s := &Service{
		positionsSvc: positionsSvc,
		cache:        cache,
		log:          log.With().Str("service", "analysis").Logger(),
	}

	// New imports and DTE rollovers make cached results stale
	if eventBus != nil && cache != nil {
		ch, _ := eventBus.Subscribe()
		go func() {
			for range ch {
				if err := cache.DeleteByPrefix("analysis:"); err != nil {
					s.log.Warn().Err(err).Msg("Failed to invalidate analysis cache")
				}
			}
		}()
	}

	return s
}

// Tickers returns the tickers of the active import session in sorted order
func (s *Service) Tickers() ([]string, error) {
	posList, _, _, err := s.positionsSvc.Active()
	if err != nil {
		return nil, err
	}
	return positions.Tickers(posList), nil
}

// Analyze computes the full analysis for one ticker of the active session
func (s *Service) Analyze(ticker string) (*TickerAnalysis, error) {
	posList, prices, session, err := s.positionsSvc.Active()
	if err != nil {
		return nil, fmt.Errorf("no active import session: %w", err)
	}

	tickerPositions := positions.ByTicker(posList, ticker)
	if len(tickerPositions) == 0 {
		return nil, fmt.Errorf("no positions for ticker %s", ticker)
	}

	cacheKey := fmt.Sprintf("analysis:%s:%s", session.ID, ticker)
	if s.cache != nil {
		var cached TickerAnalysis
		hit, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache read failed, recomputing")
		} else if hit {
			return &cached, nil
		}
	}

	tp := prices[tickerPositions[0].Ticker]
	result := compute(tickerPositions, tp)

	if s.cache != nil {
		if err := s.cache.Set(cacheKey, result, cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache write failed")
		}
	}

	return result, nil
}

// AnalyzeAll computes the analysis for every ticker of the active session
func (s *Service) AnalyzeAll() ([]*TickerAnalysis, error) {
	tickers, err := s.Tickers()
	if err != nil {
		return nil, err
	}

	result := make([]*TickerAnalysis, 0, len(tickers))
	for _, ticker := range tickers {
		a, err := s.Analyze(ticker)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

// compute is the pure recomputation of one ticker's analysis
func compute(tickerPositions []positions.Position, tp positions.TickerPrice) *TickerAnalysis {
	grid := payoff.PriceRange(tickerPositions, tp.Price)
	curve := payoff.Evaluate(tickerPositions, grid)

	result := &TickerAnalysis{
		Ticker:        tickerPositions[0].Ticker,
		CurrentPrice:  tp.Price,
		Estimated:     tp.Estimated,
		Positions:     tickerPositions,
		Curve:         curve,
		ExpiryCurves:  expiryCurves(tickerPositions, grid),
		Breakevens:    risk.Breakevens(curve.Prices, curve.Combined),
		Bounds:        risk.Compute(tickerPositions),
		SampledBounds: risk.SampledBounds(curve.Combined),
		CurrentPnL:    payoff.Total(tickerPositions, tp.Price),
		Unrealized:    positions.UnrealizedByTicker(tickerPositions)[tickerPositions[0].Ticker],
	}
	return result
}

// expiryCurves splits the option legs by expiry and evaluates one curve per
// expiry date. Stock legs and options without a parseable expiry contribute
// to every curve. Returns nil when at most one expiry is present, since the
// combined curve already covers that case.
func expiryCurves(posList []positions.Position, grid []float64) []ExpiryCurve {
	expirySet := make(map[string]struct{})
	for _, pos := range posList {
		if pos.Type.IsOption() && pos.Expiry != "" {
			expirySet[pos.Expiry] = struct{}{}
		}
	}
	if len(expirySet) <= 1 {
		return nil
	}

	expiries := make([]string, 0, len(expirySet))
	for e := range expirySet {
		expiries = append(expiries, e)
	}
	sort.Strings(expiries)

	result := make([]ExpiryCurve, 0, len(expiries))
	for _, expiry := range expiries {
		var subset []positions.Position
		for _, pos := range posList {
			if !pos.Type.IsOption() || pos.Expiry == "" || pos.Expiry == expiry {
				subset = append(subset, pos)
			}
		}
		c := payoff.Evaluate(subset, grid)
		result = append(result, ExpiryCurve{Expiry: expiry, PnL: c.Combined})
	}
	return result
}
