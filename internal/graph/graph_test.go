package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/opengloss/internal/model"
)

// fakeGraph is a tiny in-memory fixture: dog <-synonym-> hound, canine;
// dog -hypernym-> animal; hound <-synonym-> canine.
type fakeGraph struct {
	synonym  map[uint32][]uint32
	hypernym map[uint32][]uint32
	exists   map[uint32]bool
}

func sampleGraph() *fakeGraph {
	const (
		dog = iota
		hound
		canine
		animal
	)
	return &fakeGraph{
		exists: map[uint32]bool{dog: true, hound: true, canine: true, animal: true},
		synonym: map[uint32][]uint32{
			dog:    {hound, canine},
			hound:  {dog, canine},
			canine: {dog, hound},
		},
		hypernym: map[uint32][]uint32{
			dog: {animal},
		},
	}
}

func (g *fakeGraph) Exists(id uint32) bool { return g.exists[id] }
func (g *fakeGraph) Neighbors(id uint32, rel model.RelationKind) []uint32 {
	switch rel {
	case model.RelationSynonym:
		return g.synonym[id]
	case model.RelationHypernym:
		return g.hypernym[id]
	default:
		return nil
	}
}

func TestTraverseMissingRootNotFound(t *testing.T) {
	_, ok := Traverse(99, sampleGraph(), Options{MaxDepth: 1})
	require.False(t, ok)
}

func TestTraverseSynonymOnlyDepthOne(t *testing.T) {
	const dog = 0
	tr, ok := Traverse(dog, sampleGraph(), Options{
		MaxDepth:  1,
		Relations: []model.RelationKind{model.RelationSynonym},
	})
	require.True(t, ok)
	require.Equal(t, uint32(dog), tr.Root)
	require.Equal(t, uint32(dog), tr.Nodes[0].LexemeID)
	require.Equal(t, 0, tr.Nodes[0].Depth)

	for _, n := range tr.Nodes[1:] {
		require.Equal(t, 1, n.Depth)
		require.NotNil(t, n.Via)
		require.Equal(t, model.RelationSynonym, *n.Via)
	}
	require.Equal(t, 1, tr.MaxDepthReached)
}

func TestTraverseSoundness(t *testing.T) {
	const dog = 0
	tr, ok := Traverse(dog, sampleGraph(), Options{MaxDepth: 2})
	require.True(t, ok)

	seen := map[uint32]bool{}
	for _, n := range tr.Nodes {
		require.False(t, seen[n.LexemeID], "node visited twice: %d", n.LexemeID)
		seen[n.LexemeID] = true
		require.LessOrEqual(t, n.Depth, 2)
	}
	require.True(t, seen[dog])
	for _, e := range tr.Edges {
		require.True(t, seen[e.From])
		require.True(t, seen[e.To])
	}
}

func TestTraverseRespectsMaxNodes(t *testing.T) {
	const dog = 0
	tr, ok := Traverse(dog, sampleGraph(), Options{MaxDepth: 2, MaxNodes: 2})
	require.True(t, ok)
	require.LessOrEqual(t, len(tr.Nodes), 2)
}

func TestTraverseRespectsMaxEdges(t *testing.T) {
	const dog = 0
	tr, ok := Traverse(dog, sampleGraph(), Options{MaxDepth: 2, MaxEdges: 1})
	require.True(t, ok)
	require.LessOrEqual(t, len(tr.Edges), 1)
}

func TestTraverseDefaultRelationsCoversHypernym(t *testing.T) {
	const dog = 0
	tr, ok := Traverse(dog, sampleGraph(), Options{MaxDepth: 1})
	require.True(t, ok)

	var sawHypernym bool
	for _, n := range tr.Nodes {
		if n.Via != nil && *n.Via == model.RelationHypernym {
			sawHypernym = true
		}
	}
	require.True(t, sawHypernym)
}
