package disambiguation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/teemow/calresolve/internal/calendar"
	"github.com/teemow/calresolve/internal/generation"
	"github.com/teemow/calresolve/internal/instrumentation"
	"github.com/teemow/calresolve/internal/logging"
	"github.com/teemow/calresolve/internal/similarity"
)

// Default thresholds and limits.
const (
	DefaultAutoResolveThreshold = 0.9
	DefaultCandidateThreshold   = 0.8
	DefaultUpcomingLimit        = 50

	purposeRanking = "ranking"
)

var (
	// ErrEventLookup wraps failures of the calendar while fetching candidates.
	ErrEventLookup = errors.New("failed to fetch upcoming events")

	// ErrRanking means the ranking call produced no usable ranking.
	ErrRanking = errors.New("failed to rank candidate events")

	// ErrRankingUnavailable wraps ranking calls that failed before the model
	// answered: transport errors, rate limits, server errors.
	ErrRankingUnavailable = errors.New("ranking model unavailable")
)

// EventLister is the calendar capability the resolver needs.
type EventLister interface {
	ListUpcomingEvents(ctx context.Context, calendarID string, maxResults int) ([]calendar.Event, error)
}

// Recorder receives one measurement per disambiguation.
type Recorder interface {
	RecordDisambiguation(ctx context.Context, outcome string)
}

// Config tunes the resolver.
type Config struct {
	AutoResolveThreshold float64
	CandidateThreshold   float64
	TopK                 int
	UpcomingLimit        int
}

// DefaultConfig returns the default thresholds and limits.
func DefaultConfig() Config {
	return Config{
		AutoResolveThreshold: DefaultAutoResolveThreshold,
		CandidateThreshold:   DefaultCandidateThreshold,
		TopK:                 similarity.DefaultTopK,
		UpcomingLimit:        DefaultUpcomingLimit,
	}
}

// Validate checks that the thresholds are ordered and within [0, 1].
func (c Config) Validate() error {
	if !inUnitRange(c.CandidateThreshold) || !inUnitRange(c.AutoResolveThreshold) {
		return fmt.Errorf("thresholds must be within [0, 1]")
	}
	if c.CandidateThreshold > c.AutoResolveThreshold {
		return fmt.Errorf("candidate threshold %.2f must not exceed auto-resolve threshold %.2f",
			c.CandidateThreshold, c.AutoResolveThreshold)
	}
	if c.UpcomingLimit <= 0 {
		return fmt.Errorf("upcoming limit must be positive")
	}
	return nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(r *Resolver) { r.recorder = recorder }
}

// Resolver maps user text to match candidates. It holds no per-call state and
// is safe for concurrent use.
type Resolver struct {
	generator generation.Generator
	prefilter *similarity.Prefilter
	cfg       Config
	logger    *slog.Logger
	recorder  Recorder
}

// New creates a Resolver. Zero limits in cfg fall back to the defaults.
func New(generator generation.Generator, cfg Config, opts ...Option) *Resolver {
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = DefaultUpcomingLimit
	}
	r := &Resolver{
		generator: generator,
		prefilter: similarity.NewPrefilter(cfg.TopK),
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.WithService(r.logger, "disambiguation")
	return r
}

// Resolve proposes events of calendarID that match text. hint is the summary
// extracted by the action model and is weighted into the lexical query.
func (r *Resolver) Resolve(ctx context.Context, lister EventLister, calendarID, text, hint string) (result Result, err error) {
	ctx, span := instrumentation.StartSpan(ctx, "disambiguation.Resolve",
		instrumentation.NewSpanAttributeBuilder().WithCalendar(calendarID, "").Build()...)
	defer func() {
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithOutcome(string(result.Outcome), "").Build()...)
			instrumentation.SetSpanSuccess(span)
			if r.recorder != nil {
				r.recorder.RecordDisambiguation(ctx, string(result.Outcome))
			}
		}
		span.End()
	}()

	events, err := lister.ListUpcomingEvents(ctx, calendarID, r.cfg.UpcomingLimit)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrEventLookup, err)
	}
	if len(events) == 0 {
		r.logger.Debug("no upcoming events", logging.Calendar(calendarID))
		return Result{Outcome: OutcomeNoMatch}, nil
	}

	byID := make(map[string]calendar.Event, len(events))
	docs := make([]similarity.Document, 0, len(events))
	for _, e := range events {
		if e.ID == "" {
			continue
		}
		if _, dup := byID[e.ID]; dup {
			continue
		}
		byID[e.ID] = e
		docs = append(docs, similarity.Document{
			ID:          e.ID,
			Summary:     e.Summary,
			Description: e.Description,
			Start:       e.Start,
		})
	}

	query := strings.TrimSpace(hint + " " + text)
	shortlist := r.prefilter.Rank(query, docs)
	r.logger.Debug("prefilter shortlist",
		slog.Int("events", len(docs)),
		slog.Int("shortlist", len(shortlist)))

	prompt, err := rankingPrompt(text, hint, shortlist)
	if err != nil {
		return Result{}, err
	}

	raw, err := r.generator.Generate(ctx, generation.Request{
		Purpose:      purposeRanking,
		SystemPrompt: rankingSystemPrompt,
		Messages:     []generation.Message{generation.UserMessage(prompt)},
		Schema:       RankingSchema(),
	})
	if err != nil {
		if errors.Is(err, generation.ErrNoStructuredOutput) {
			return Result{}, fmt.Errorf("%w: %w", ErrRanking, err)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrRankingUnavailable, err)
	}

	matches, err := decodeMatches(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRanking, err)
	}

	shortlisted := make(map[string]bool, len(shortlist))
	for _, s := range shortlist {
		shortlisted[s.ID] = true
	}
	candidates := sanitize(matches, byID, shortlisted)

	result = r.apply(candidates)
	r.logger.Debug("disambiguation finished",
		logging.Outcome(string(result.Outcome)),
		slog.Int("candidates", len(result.Candidates)))
	return result, nil
}

// apply maps sanitized candidates to an outcome. A candidate list only
// carries candidates at or above CandidateThreshold.
func (r *Resolver) apply(candidates []MatchCandidate) Result {
	if len(candidates) == 0 {
		return Result{Outcome: OutcomeNoMatch}
	}
	best := candidates[0].Score
	switch {
	case best >= r.cfg.AutoResolveThreshold:
		return Result{Outcome: OutcomeAutoResolved, Candidates: candidates[:1]}
	case best >= r.cfg.CandidateThreshold:
		plausible := slices.IndexFunc(candidates, func(c MatchCandidate) bool {
			return c.Score < r.cfg.CandidateThreshold
		})
		if plausible >= 0 {
			candidates = candidates[:plausible]
		}
		return Result{Outcome: OutcomeCandidateList, Candidates: candidates}
	default:
		return Result{Outcome: OutcomeNoMatch}
	}
}

type rankedMatch struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type rankingResponse struct {
	Matches []rankedMatch `json:"matches"`
}

func decodeMatches(raw []byte) ([]rankedMatch, error) {
	var resp rankingResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(string(raw))
		if rerr != nil {
			return nil, fmt.Errorf("failed to parse ranking output: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse ranking output: %w", err)
		}
	}
	return resp.Matches, nil
}

// sanitize drops IDs that were not offered to the model and duplicates,
// clamps scores to [0, 1], orders by score and keeps at most MaxCandidates.
func sanitize(matches []rankedMatch, events map[string]calendar.Event, offered map[string]bool) []MatchCandidate {
	seen := make(map[string]bool, len(matches))
	out := make([]MatchCandidate, 0, len(matches))
	for _, m := range matches {
		if !offered[m.ID] || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		e := events[m.ID]
		out = append(out, MatchCandidate{
			ID:      e.ID,
			Summary: e.Summary,
			Start:   e.Start,
			Score:   clamp(m.Score),
			Link:    e.Link,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > MaxCandidates {
		out = out[:MaxCandidates]
	}
	return out
}

func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

const rankingSystemPrompt = `You match a user's description of a calendar event against a list of candidate events.
Return the 1 to 3 candidates most likely meant by the user, most likely first.
Use only IDs from the candidate list. Each score is your confidence in [0, 1]
that the candidate is the event the user means. The lexicalScore field is a rough
keyword overlap hint and must not be copied as your score. If nothing fits,
return the closest candidate with a low score.`

type promptCandidate struct {
	ID           string  `json:"id"`
	Summary      string  `json:"summary"`
	Description  string  `json:"description,omitempty"`
	Start        string  `json:"start"`
	LexicalScore float64 `json:"lexicalScore"`
}

type promptPayload struct {
	Request    string            `json:"request"`
	Hint       string            `json:"hint,omitempty"`
	Candidates []promptCandidate `json:"candidates"`
}

func rankingPrompt(text, hint string, shortlist []similarity.Scored) (string, error) {
	payload := promptPayload{
		Request:    text,
		Hint:       hint,
		Candidates: make([]promptCandidate, 0, len(shortlist)),
	}
	for _, s := range shortlist {
		payload.Candidates = append(payload.Candidates, promptCandidate{
			ID:           s.ID,
			Summary:      s.Summary,
			Description:  s.Description,
			Start:        s.Start.Format(time.RFC3339),
			LexicalScore: math.Round(s.Score*1000) / 1000,
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode ranking prompt: %w", err)
	}
	return string(data), nil
}
