package similarity

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(summaries ...string) []Document {
	base := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	out := make([]Document, len(summaries))
	for i, s := range summaries {
		out[i] = Document{
			ID:      fmt.Sprintf("evt-%d", i),
			Summary: s,
			Start:   base.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Team Sync", want: "team sync"},
		{in: "  1:1   with\tAlex!! ", want: "1 1 with alex"},
		{in: "Sync w/ team", want: "sync w team"},
		{in: "Café–Meeting", want: "café meeting"},
		{in: "ＦＵＬＬ width", want: "full width"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestRank_KeywordMatchRankedFirst(t *testing.T) {
	p := NewPrefilter(DefaultTopK)
	ranked := p.Rank("meeting", docs("Team sync", "1:1 with Alex", "Budget meeting"))

	require.Len(t, ranked, 3)
	assert.Equal(t, "Budget meeting", ranked[0].Summary)
	assert.Greater(t, ranked[0].Score, 0.0)
	assert.Zero(t, ranked[1].Score)
	assert.Zero(t, ranked[2].Score)
	// ties keep start order
	assert.Equal(t, "Team sync", ranked[1].Summary)
	assert.Equal(t, "1:1 with Alex", ranked[2].Summary)
}

func TestRank_ExactTitleScoresHighest(t *testing.T) {
	p := NewPrefilter(DefaultTopK)
	ranked := p.Rank("Team sync", docs("Budget review", "Team lunch", "Team sync", "Sync with vendor"))

	require.NotEmpty(t, ranked)
	assert.Equal(t, "Team sync", ranked[0].Summary)
	assert.InDelta(t, 1.0, ranked[0].Score, 1e-9)
	for _, r := range ranked {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestRank_UsesDescription(t *testing.T) {
	p := NewPrefilter(DefaultTopK)
	in := docs("Weekly", "Planning")
	in[0].Description = "quarterly budget discussion"

	ranked := p.Rank("budget", in)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Weekly", ranked[0].Summary)
	assert.Greater(t, ranked[0].Score, 0.0)
}

func TestRank_TruncatesToTopK(t *testing.T) {
	var summaries []string
	for i := 0; i < 25; i++ {
		summaries = append(summaries, fmt.Sprintf("meeting %d", i))
	}

	ranked := NewPrefilter(10).Rank("meeting", docs(summaries...))
	assert.Len(t, ranked, 10)

	ranked = NewPrefilter(0).Rank("meeting", docs(summaries...))
	assert.Len(t, ranked, DefaultTopK)
}

func TestRank_Deterministic(t *testing.T) {
	p := NewPrefilter(5)
	in := docs("Team sync", "Sync w/ team", "Team offsite planning", "1:1 with Alex", "Budget meeting", "Sync budget with Alex's team")

	first := p.Rank("sync with the team about budget", in)
	for i := 0; i < 20; i++ {
		again := p.Rank("sync with the team about budget", in)
		require.Equal(t, first, again)
	}
}

func TestRank_Empty(t *testing.T) {
	p := NewPrefilter(DefaultTopK)
	assert.Nil(t, p.Rank("anything", nil))

	ranked := p.Rank("", docs("a", "b"))
	require.Len(t, ranked, 2)
	assert.Zero(t, ranked[0].Score)
	assert.Equal(t, "a", ranked[0].Summary)
}
