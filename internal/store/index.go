package store

import (
	"sync"

	"github.com/coder/hnsw"
)

// HNSW parameters for roster signature search. Rosters are small compared
// to a photo library, but the index keeps the identify endpoint and
// best-match lookups sublinear as cohorts accumulate over the years.
const (
	indexMaxNeighbors   = 16
	indexEfSearch       = 100
	indexEfConstruction = 200
)

// Neighbor is one result from a signature index search.
type Neighbor struct {
	EnrollmentNo string
	FullName     string
	Distance     float64 // cosine distance, 0 = identical direction
}

// SignatureIndex is an in-memory HNSW index over roster reference
// signatures, keyed by enrollment number. It is rebuilt from the store on
// startup and kept in sync on enrollment.
type SignatureIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	names map[string]string // enrollment no -> full name
}

// NewSignatureIndex creates an empty signature index.
func NewSignatureIndex() *SignatureIndex {
	return &SignatureIndex{names: make(map[string]string)}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.EfSearch = indexEfSearch
	g.Distance = hnsw.CosineDistance
	return g
}

// Rebuild replaces the index contents with the given roster entries.
func (idx *SignatureIndex) Rebuild(entries []RosterEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(entries) == 0 {
		idx.graph = nil
		idx.names = make(map[string]string)
		return
	}

	g := newGraph()
	names := make(map[string]string, len(entries))
	for i := range entries {
		e := &entries[i]
		if len(e.Signature) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(e.EnrollmentNo, e.Signature))
		names[e.EnrollmentNo] = e.FullName
	}

	idx.graph = g
	idx.names = names
}

// Add inserts or replaces a single entry's signature.
func (idx *SignatureIndex) Add(entry *RosterEntry) {
	if len(entry.Signature) == 0 {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.graph == nil {
		idx.graph = newGraph()
	}
	idx.graph.Add(hnsw.MakeNode(entry.EnrollmentNo, entry.Signature))
	idx.names[entry.EnrollmentNo] = entry.FullName
}

// Search returns the k nearest roster entries to the query signature,
// nearest first.
func (idx *SignatureIndex) Search(query []float32, k int) []Neighbor {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph == nil {
		return nil
	}

	nodes := idx.graph.Search(query, k)
	neighbors := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		neighbors = append(neighbors, Neighbor{
			EnrollmentNo: n.Key,
			FullName:     idx.names[n.Key],
			Distance:     CosineDistance(query, n.Value),
		})
	}
	return neighbors
}

// Len returns the number of indexed signatures.
func (idx *SignatureIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.names)
}
