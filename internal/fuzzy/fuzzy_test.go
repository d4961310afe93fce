package fuzzy

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/opengloss/internal/config"
)

type fakeProvider struct {
	entries []EntryFields
}

func (p *fakeProvider) Count() int { return len(p.entries) }
func (p *fakeProvider) Fields(id uint32) EntryFields {
	for _, e := range p.entries {
		if e.LexemeID == id {
			return e
		}
	}
	return EntryFields{}
}

func sampleProvider() *fakeProvider {
	return &fakeProvider{entries: []EntryFields{
		{LexemeID: 0, Word: "algorithm", Definitions: []string{"a step by step procedure"}, Synonyms: []string{"procedure"}},
		{LexemeID: 1, Word: "logarithm", Definitions: []string{"the power to which a base must be raised"}},
		{LexemeID: 2, Word: "rhythm", Definitions: []string{"a strong regular pattern"}},
		{LexemeID: 3, Word: "gorilla", Definitions: []string{"a large ape"}},
	}}
}

func TestIndelRatioIdentity(t *testing.T) {
	require.Equal(t, 100.0, IndelRatio("algorithm", "algorithm"))
	require.Equal(t, 0.0, IndelRatio("algorithm", ""))
}

func TestSearchFuzzyRanksExactMatchFirst(t *testing.T) {
	r := New(sampleProvider(), 32)
	cfg := config.FuzzyWeights{Word: 3, Definitions: 2, Synonyms: 1, Text: 1.5, Encyclopedia: 1.5, MinScore: 0}

	results, hit := r.SearchFuzzy("algorithm", cfg, 10)
	require.False(t, hit)
	require.NotEmpty(t, results)
	require.Equal(t, "algorithm", results[0].Word)
	require.True(t, sort.SliceIsSorted(results, func(i, j int) bool { return results[i].Score > results[j].Score }))
}

func TestSearchFuzzyCacheHit(t *testing.T) {
	r := New(sampleProvider(), 32)
	cfg := config.FuzzyWeights{Word: 3, MinScore: 0}

	first, hit := r.SearchFuzzy("algorithm", cfg, 5)
	require.False(t, hit)
	second, hit := r.SearchFuzzy("algorithm", cfg, 5)
	require.True(t, hit)
	require.Equal(t, first, second)
}

func TestSearchFuzzyZeroWeightReturnsEmpty(t *testing.T) {
	r := New(sampleProvider(), 32)
	cfg := config.FuzzyWeights{MinScore: 0}

	results, hit := r.SearchFuzzy("algorithm", cfg, 10)
	require.Empty(t, results)
	require.False(t, hit)
}

func TestExplainAgreesWithSearchScore(t *testing.T) {
	r := New(sampleProvider(), 32)
	cfg := config.FuzzyWeights{Word: 3, Definitions: 2, Synonyms: 1, MinScore: 0}

	results, _ := r.SearchFuzzy("algorithm", cfg, 10)
	ids := make([]uint32, len(results))
	for i, res := range results {
		ids[i] = res.LexemeID
	}
	explained := r.ExplainSearch("algorithm", cfg, ids)

	byID := map[uint32]float64{}
	for _, e := range explained {
		byID[e.LexemeID] = e.Total
	}
	for _, res := range results {
		require.InDelta(t, res.Score, byID[res.LexemeID], 1e-9)
	}
}

func TestSearchFuzzyNoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := New(sampleProvider(), 32)
	cfg := config.FuzzyWeights{Word: 3, Definitions: 2, MinScore: 0}
	_, _ = r.SearchFuzzy("algorithm", cfg, 10)
}
