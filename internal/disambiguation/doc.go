// Package disambiguation turns a loosely described event ("the budget
// meeting") into confidence-scored match candidates.
//
// Resolution runs in two stages. The live upcoming events are first reduced
// with the lexical prefilter from package similarity, then a ranking
// generation call scores the survivors. Only the model scores feed the
// threshold policy:
//
//   - best score >= AutoResolveThreshold: auto-resolved, one candidate
//   - best score >= CandidateThreshold: candidate list, up to three candidates
//   - otherwise: no match
//
// Nothing in this package deletes or modifies events.
package disambiguation
