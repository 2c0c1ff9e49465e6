package disambiguation

import "time"

// Outcome classifies a disambiguation result.
type Outcome string

// Disambiguation outcomes.
const (
	OutcomeAutoResolved  Outcome = "auto_resolved"
	OutcomeCandidateList Outcome = "candidate_list"
	OutcomeNoMatch       Outcome = "no_match"
)

// MaxCandidates is the largest number of candidates a result carries.
const MaxCandidates = 3

// MatchCandidate is one scored event proposed to the user.
type MatchCandidate struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	Score   float64   `json:"score"`
	Link    string    `json:"link,omitempty"`
}

// Result is the outcome of one disambiguation call. Candidates are ordered by
// non-increasing score.
type Result struct {
	Outcome    Outcome          `json:"outcome"`
	Candidates []MatchCandidate `json:"candidates,omitempty"`
}

// Best returns the highest scored candidate.
func (r Result) Best() (MatchCandidate, bool) {
	if len(r.Candidates) == 0 {
		return MatchCandidate{}, false
	}
	return r.Candidates[0], true
}
