package screener

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"ossy/internal/adapters/config"
	"ossy/internal/domain/token"
	"ossy/internal/metrics"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

// MarketData is the candidate and detail source the pipeline reads from
type MarketData interface {
	ListBoosted(ctx context.Context) ([]token.BoostedCandidate, error)
	GetPairDetail(ctx context.Context, tokenAddress string) (*token.TokenPair, error)
}

// Report is the outcome of one screening run
type Report struct {
	Tokens     []token.FilteredToken
	Listed     int // Boosted tokens returned by the source
	Candidates int // Candidates whose detail was fetched
	Dropped    int // Candidates lost to fetch failures, timeouts or missing pairs
	SortKey    token.SortKey
}

// Service runs the fetch, filter, rank and shape pipeline. It keeps no state
// between runs and is safe for concurrent use.
type Service struct {
	source MarketData
	cfg    config.ScreenerConfig
	now    func() time.Time
	jitter func(limit time.Duration) time.Duration
	log    *logger.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithClock overrides the time source used for the age predicate and age display
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithJitter overrides the pre-fetch delay function
func WithJitter(fn func(limit time.Duration) time.Duration) Option {
	return func(s *Service) { s.jitter = fn }
}

// WithLogger sets the service logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a screening pipeline over source
func NewService(source MarketData, cfg config.ScreenerConfig, opts ...Option) *Service {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = cfg.MaxCandidates
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}

	s := &Service{
		source: source,
		cfg:    cfg,
		now:    time.Now,
		jitter: randomJitter,
		log:    logger.Get().With("component", "screener"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FilterTokens returns the ranked, display-ready tokens matching criteria.
// Fails only when the criteria are invalid or the candidate list cannot be fetched.
func (s *Service) FilterTokens(ctx context.Context, criteria token.FilterCriteria) ([]token.FilteredToken, error) {
	report, err := s.Screen(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return report.Tokens, nil
}

// Screen runs the pipeline and reports the counts alongside the tokens
func (s *Service) Screen(ctx context.Context, criteria token.FilterCriteria) (report *Report, err error) {
	start := time.Now()
	defer func() {
		candidates, kept, sortKey := 0, 0, ""
		if report != nil {
			candidates, kept, sortKey = report.Candidates, len(report.Tokens), string(report.SortKey)
		}
		metrics.RecordScreenerRun(sortKey, candidates, kept, time.Since(start), err)
	}()

	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	listed, err := s.source.ListBoosted(ctx)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrDataSourceUnavailable)
	}

	candidates := selectCandidates(listed, criteria, s.cfg.MaxCandidates)

	pairs, err := s.fetchDetails(ctx, candidates)
	if err != nil {
		return nil, err
	}

	now := s.now()
	report = &Report{
		Tokens:     make([]token.FilteredToken, 0, len(candidates)),
		Listed:     len(listed),
		Candidates: len(candidates),
	}

	for i, pair := range pairs {
		if pair == nil {
			report.Dropped++
			continue
		}
		if !criteria.Matches(pair, now) {
			continue
		}

		shaped := token.Shape(pair, now)
		if shaped.Address == "" {
			shaped.Address = candidates[i].TokenAddress
		}
		report.Tokens = append(report.Tokens, shaped)
	}

	report.SortKey = token.Rank(report.Tokens, criteria)

	s.log.Infow("Screening complete",
		"criteria", criteria.String(),
		"listed", report.Listed,
		"candidates", report.Candidates,
		"dropped", report.Dropped,
		"kept", len(report.Tokens),
		"sort", report.SortKey,
		"duration", time.Since(start),
	)

	return report, nil
}

// selectCandidates applies the chain constraint and the candidate cap,
// preserving the source order
func selectCandidates(listed []token.BoostedCandidate, criteria token.FilterCriteria, limit int) []token.BoostedCandidate {
	out := make([]token.BoostedCandidate, 0, min(len(listed), limit))
	for _, c := range listed {
		if len(out) == limit {
			break
		}
		if criteria.MatchesChain(c.ChainID) {
			out = append(out, c)
		}
	}
	return out
}

// fetchDetails fetches every candidate's pair in parallel. Results are stored
// by candidate index so completion order never affects the output. A failed,
// timed out or empty fetch leaves a nil entry.
func (s *Service) fetchDetails(ctx context.Context, candidates []token.BoostedCandidate) ([]*token.TokenPair, error) {
	pairs := make([]*token.TokenPair, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, candidate := range candidates {
		g.Go(func() error {
			pairs[i] = s.fetchOne(gctx, candidate)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "screening cancelled")
	}
	return pairs, nil
}

func (s *Service) fetchOne(ctx context.Context, candidate token.BoostedCandidate) *token.TokenPair {
	if d := s.jitter(s.cfg.JitterMax); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	pair, err := s.source.GetPairDetail(fetchCtx, candidate.TokenAddress)
	switch {
	case err != nil:
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.RecordDetailDrop(reason)
		s.log.Warnw("Pair detail unavailable, skipping candidate",
			"token", candidate.TokenAddress,
			"chain", candidate.ChainID,
			"reason", reason,
			"error", errors.Mark(err, errors.ErrDetailUnavailable),
		)
		return nil
	case pair == nil:
		metrics.RecordDetailDrop("no_pair")
		s.log.Debugw("No pair listed for candidate", "token", candidate.TokenAddress)
		return nil
	}

	return pair
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
