package similarity

import (
	"sort"

	"github.com/arthur-debert/ndetect/pkg/errors"
	"github.com/arthur-debert/ndetect/pkg/logging"
	"github.com/arthur-debert/ndetect/pkg/minhash"
	"github.com/arthur-debert/ndetect/pkg/types"
)

// Group is a duplicate group: a maximal connected component of the
// similarity graph with at least two members. Files are kept in strictly
// increasing lexical order; Similarity is the mean weight of the internal
// edges.
type Group struct {
	ID         int
	Files      []string
	Similarity float64
}

// Pair identifies an undirected edge between two files
type Pair struct {
	A string
	B string
}

// Graph is an incremental weighted graph of file-to-file similarity.
// Edges exist only where estimated similarity meets the threshold
// (inclusive). The graph owns an explicit signature cache keyed by path,
// purged when nodes are removed. Mutating operations assume a single
// writer.
type Graph struct {
	threshold   float64
	adj         map[string]map[string]float64
	signatures  map[string]minhash.Signature
	nextGroupID int
}

// NewGraph creates an empty graph with the given inclusive threshold
func NewGraph(threshold float64) (*Graph, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, errors.Newf(errors.ErrInvalidInput, "threshold must be in (0, 1], got %v", threshold)
	}
	return &Graph{
		threshold:   threshold,
		adj:         make(map[string]map[string]float64),
		signatures:  make(map[string]minhash.Signature),
		nextGroupID: 1,
	}, nil
}

// Add inserts nodes for the given files (no-op for paths already present)
// and computes edges for the genuinely new ones. New files are compared
// pairwise within the batch; against the existing graph each new file is
// compared once per existing connected component, to that component's
// representative, and the resulting edge carries that single computed
// weight. This is a deliberate O(new x components) approximation of full
// pairwise comparison.
func (g *Graph) Add(files []*types.TextFile) {
	logger := logging.GetLogger("similarity")

	var fresh []*types.TextFile
	for _, f := range files {
		if f == nil {
			continue
		}
		if _, exists := g.adj[f.Path]; exists {
			continue
		}
		if !f.HasSignature() {
			// Unsigned files become isolated nodes and never gain edges
			g.adj[f.Path] = make(map[string]float64)
			continue
		}
		fresh = append(fresh, f)
	}
	if len(fresh) == 0 {
		return
	}

	// Representatives of existing components, snapshotted before the new
	// nodes join the graph. Isolated nodes represent themselves.
	reps := g.representatives()

	for _, f := range fresh {
		g.adj[f.Path] = make(map[string]float64)
		g.signatures[f.Path] = f.Signature
	}

	for i, f := range fresh {
		for _, rep := range reps {
			repSig, ok := g.signatures[rep]
			if !ok {
				continue
			}
			sim, err := minhash.Similarity(f.Signature, repSig)
			if err != nil {
				logger.Debug().Err(err).Str("path", f.Path).Str("other", rep).Msg("Skipping incomparable pair")
				continue
			}
			if sim >= g.threshold {
				g.addEdge(f.Path, rep, sim)
			}
		}
		for _, other := range fresh[i+1:] {
			sim, err := minhash.Similarity(f.Signature, other.Signature)
			if err != nil {
				logger.Debug().Err(err).Str("path", f.Path).Str("other", other.Path).Msg("Skipping incomparable pair")
				continue
			}
			if sim >= g.threshold {
				g.addEdge(f.Path, other.Path, sim)
			}
		}
	}
}

// Groups returns all duplicate groups, sorted by mean similarity
// descending with ties broken by ascending group id
func (g *Graph) Groups() []Group {
	var groups []Group
	for _, component := range g.components() {
		if len(component) < 2 {
			continue
		}

		var sum float64
		edges := 0
		for i, a := range component {
			for _, b := range component[i+1:] {
				if w, ok := g.adj[a][b]; ok {
					sum += w
					edges++
				}
			}
		}
		mean := 0.0
		if edges > 0 {
			mean = sum / float64(edges)
		}

		groups = append(groups, Group{
			ID:         g.nextGroupID,
			Files:      component,
			Similarity: mean,
		})
		g.nextGroupID++
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Similarity != groups[j].Similarity {
			return groups[i].Similarity > groups[j].Similarity
		}
		return groups[i].ID < groups[j].ID
	})
	return groups
}

// Remove deletes nodes and all incident edges, purging cached signatures
func (g *Graph) Remove(paths []string) {
	for _, path := range paths {
		neighbors, exists := g.adj[path]
		if !exists {
			continue
		}
		for other := range neighbors {
			delete(g.adj[other], path)
		}
		delete(g.adj, path)
		delete(g.signatures, path)
	}
}

// Dissolve removes only the edges among the given set of paths, keeping
// the nodes. Used once a group has been fully resolved by the operator.
func (g *Graph) Dissolve(paths []string) {
	for i, a := range paths {
		if _, exists := g.adj[a]; !exists {
			continue
		}
		for _, b := range paths[i+1:] {
			delete(g.adj[a], b)
			if _, exists := g.adj[b]; exists {
				delete(g.adj[b], a)
			}
		}
	}
}

// GroupSimilarities returns the pairwise edge weights among the given
// paths, for detailed display
func (g *Graph) GroupSimilarities(paths []string) map[Pair]float64 {
	out := make(map[Pair]float64)
	for i, a := range paths {
		for _, b := range paths[i+1:] {
			if w, ok := g.adj[a][b]; ok {
				out[Pair{A: a, B: b}] = w
			}
		}
	}
	return out
}

// Contains reports whether path is a node in the graph
func (g *Graph) Contains(path string) bool {
	_, ok := g.adj[path]
	return ok
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.adj)
}

func (g *Graph) addEdge(a, b string, weight float64) {
	if a == b {
		return
	}
	g.adj[a][b] = weight
	g.adj[b][a] = weight
}

// components returns the connected components, each sorted lexically,
// ordered by their smallest member for deterministic enumeration
func (g *Graph) components() [][]string {
	nodes := make([]string, 0, len(g.adj))
	for node := range g.adj {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	visited := make(map[string]bool, len(nodes))
	var components [][]string
	for _, start := range nodes {
		if visited[start] {
			continue
		}
		var component []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, node)
			for neighbor := range g.adj[node] {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue = append(queue, neighbor)
				}
			}
		}
		sort.Strings(component)
		components = append(components, component)
	}
	return components
}

// representatives returns the lexically smallest member of every current
// component, including isolated nodes
func (g *Graph) representatives() []string {
	components := g.components()
	reps := make([]string, 0, len(components))
	for _, component := range components {
		reps = append(reps, component[0])
	}
	return reps
}
