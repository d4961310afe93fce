// Package graph implements the bounded breadth-first traversal from
// spec.md §4.7 over an entry's four typed neighbor relations.
package graph

import "github.com/standardbeagle/opengloss/internal/model"

// Options bounds a traversal. Zero MaxNodes/MaxEdges means unlimited; a nil
// or empty Relations means all four, in the default order.
type Options struct {
	MaxDepth  int
	MaxNodes  int
	MaxEdges  int
	Relations []model.RelationKind
}

// Node is one discovered lexeme, in BFS discovery order.
type Node struct {
	LexemeID uint32
	Depth    int
	Parent   *uint32
	Via      *model.RelationKind
}

// Edge is one traversed relation.
type Edge struct {
	From, To uint32
	Relation model.RelationKind
}

// Traversal is the result of a bounded BFS from Root.
type Traversal struct {
	Root            uint32
	Nodes           []Node
	Edges           []Edge
	MaxDepthReached int
}

// NeighborSource resolves the four relation types for any lexeme id.
type NeighborSource interface {
	Exists(lexemeID uint32) bool
	Neighbors(lexemeID uint32, rel model.RelationKind) []uint32
}

// StoreSource adapts a model.DataStore directly into a NeighborSource,
// treating an entry's index in ds.Entries as its lexeme id.
type StoreSource struct {
	Store *model.DataStore
}

func (s StoreSource) Exists(lexemeID uint32) bool {
	return int(lexemeID) < len(s.Store.Entries)
}

func (s StoreSource) Neighbors(lexemeID uint32, rel model.RelationKind) []uint32 {
	if !s.Exists(lexemeID) {
		return nil
	}
	return s.Store.NeighborIDs(&s.Store.Entries[lexemeID], rel)
}

type queued struct {
	id     uint32
	depth  int
	parent *uint32
	via    *model.RelationKind
}

// Traverse runs a bounded BFS from root. Returns (nil, false) if root is
// absent. The algorithm, bound-checking order, and discovery-order output
// match spec.md §4.7 exactly.
func Traverse(root uint32, src NeighborSource, opts Options) (*Traversal, bool) {
	if !src.Exists(root) {
		return nil, false
	}

	relations := opts.Relations
	if len(relations) == 0 {
		relations = model.DefaultRelationOrder
	}

	visited := map[uint32]bool{root: true}
	queue := []queued{{id: root, depth: 0}}

	var nodes []Node
	var edges []Edge
	maxDepthReached := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if opts.MaxNodes != 0 && len(nodes) >= opts.MaxNodes {
			break
		}
		nodes = append(nodes, Node{LexemeID: cur.id, Depth: cur.depth, Parent: cur.parent, Via: cur.via})
		if cur.depth > maxDepthReached {
			maxDepthReached = cur.depth
		}

		if cur.depth == opts.MaxDepth {
			continue
		}

		for _, rel := range relations {
			rel := rel
			for _, nb := range src.Neighbors(cur.id, rel) {
				if visited[nb] {
					continue
				}
				if opts.MaxEdges != 0 && len(edges) >= opts.MaxEdges {
					break
				}
				if opts.MaxNodes != 0 && len(nodes)+len(queue) >= opts.MaxNodes {
					continue
				}
				parentID := cur.id
				edges = append(edges, Edge{From: cur.id, To: nb, Relation: rel})
				visited[nb] = true
				queue = append(queue, queued{id: nb, depth: cur.depth + 1, parent: &parentID, via: &rel})
			}
		}
	}

	return &Traversal{Root: root, Nodes: nodes, Edges: edges, MaxDepthReached: maxDepthReached}, true
}
