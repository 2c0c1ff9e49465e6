package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calresolve/internal/disambiguation"
	"github.com/teemow/calresolve/internal/resolver"
)

func TestPrintOutcome_Confirmation(t *testing.T) {
	var buf bytes.Buffer
	out := &resolver.Outcome{Kind: resolver.KindConfirmation, Message: "Event created: Dentist"}

	require.NoError(t, printOutcome(&buf, out, false))
	assert.Equal(t, "Event created: Dentist\n", buf.String())
}

func TestPrintOutcome_Candidates(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	out := &resolver.Outcome{
		Kind:    resolver.KindDisambiguation,
		Message: "Which meeting do you mean?",
		Disambiguation: &disambiguation.Result{
			Outcome: disambiguation.OutcomeCandidateList,
			Candidates: []disambiguation.MatchCandidate{
				{ID: "ev1", Summary: "Budget meeting", Start: start, Score: 0.85},
				{ID: "ev2", Summary: "Team meeting", Start: start.Add(24 * time.Hour), Score: 0.82},
			},
		},
	}

	require.NoError(t, printOutcome(&buf, out, false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Which meeting do you mean?", lines[0])
	assert.Equal(t, "  1. Budget meeting  Tue Mar 11 10:00  (id: ev1, score 0.85)", lines[1])
	assert.Contains(t, lines[2], "id: ev2")
}

func TestPrintOutcome_JSON(t *testing.T) {
	var buf bytes.Buffer
	out := &resolver.Outcome{Kind: resolver.KindFailure, Message: "Calendar is read-only.", Category: resolver.CategoryReadOnly}

	require.NoError(t, printOutcome(&buf, out, true))
	assert.Contains(t, buf.String(), `"kind": "failure"`)
	assert.Contains(t, buf.String(), `"category": "read_only"`)
}
