package brackets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

var ErrMalformedBracket = errors.New("malformed elimination bracket")

// EliminationGraph has the matches of an elimination bracket as nodes; an
// edge source -> target means the result of source decides an entrant of
// target. It is used to check a generated bracket, to order matches for the
// scheduler and to find what a result change affects.
type EliminationGraph struct {
	g graph.Graph[string, string]
}

// Link is one edge of an elimination graph.
type Link struct {
	From string
	To   string
}

// NewEliminationGraph builds the graph from generated pairings.
func NewEliminationGraph(pairings []Pairing) (*EliminationGraph, error) {
	nodes := make([]string, 0, len(pairings))
	var links []Link
	for _, p := range pairings {
		if p.UID == "" {
			return nil, errors.New("pairing without uid cannot be part of a bracket graph")
		}
		nodes = append(nodes, p.UID)
		for _, src := range []string{p.SourceA, p.SourceB} {
			if src != "" {
				links = append(links, Link{From: src, To: p.UID})
			}
		}
	}
	return NewLinkGraph(nodes, links)
}

// NewLinkGraph builds the graph from explicit nodes and links. A link naming
// an unknown node or closing a cycle is rejected.
func NewLinkGraph(nodes []string, links []Link) (*EliminationGraph, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles())
	for _, n := range nodes {
		if err := g.AddVertex(n); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("add vertex %s: %w", n, err)
		}
	}
	for _, l := range links {
		if err := g.AddEdge(l.From, l.To); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("%w: link %s -> %s: %v", ErrMalformedBracket, l.From, l.To, err)
		}
	}
	return &EliminationGraph{g: g}, nil
}

// Validate checks that the bracket narrows to one final. In an acyclic graph
// with a single terminal match every match reaches that final, so the
// bracket is connected.
func (e *EliminationGraph) Validate() error {
	if _, err := e.Order(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBracket, err)
	}
	if _, err := e.Final(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBracket, err)
	}
	return nil
}

// Order returns the match UIDs in an order where every match comes after
// the matches feeding it.
func (e *EliminationGraph) Order() ([]string, error) {
	return graph.StableTopologicalSort(e.g, func(a, b string) bool { return a < b })
}

// Downstream lists every match reachable from uid, nearest first.
func (e *EliminationGraph) Downstream(uid string) ([]string, error) {
	var out []string
	err := graph.BFS(e.g, uid, func(v string) bool {
		if v != uid {
			out = append(out, v)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Next returns the matches uid feeds directly, sorted.
func (e *EliminationGraph) Next(uid string) ([]string, error) {
	adj, err := e.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(adj[uid]))
	for target := range adj[uid] {
		out = append(out, target)
	}
	sort.Strings(out)
	return out, nil
}

// Feeders returns the direct predecessors of uid, sorted.
func (e *EliminationGraph) Feeders(uid string) ([]string, error) {
	pred, err := e.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(pred[uid]))
	for src := range pred[uid] {
		out = append(out, src)
	}
	sort.Strings(out)
	return out, nil
}

// Roots are matches with no feeding match, i.e. playable from the start.
func (e *EliminationGraph) Roots() ([]string, error) {
	pred, err := e.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	var out []string
	for v, in := range pred {
		if len(in) == 0 {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Final returns the single match with no outgoing edge.
func (e *EliminationGraph) Final() (string, error) {
	adj, err := e.g.AdjacencyMap()
	if err != nil {
		return "", err
	}
	final := ""
	for v, out := range adj {
		if len(out) == 0 {
			if final != "" {
				return "", fmt.Errorf("bracket has more than one terminal match (%s, %s)", final, v)
			}
			final = v
		}
	}
	if final == "" {
		return "", errors.New("bracket has no terminal match")
	}
	return final, nil
}
