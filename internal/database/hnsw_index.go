package database

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// HNSWMaxNeighbors is the M parameter for the centroid HNSW graph.
const HNSWMaxNeighbors = 16

// CentroidIndex wraps an in-memory HNSW graph over enrolled identity
// centroids. It backs the similar-identities enrollment QA endpoint; the
// attendance matcher itself uses an exact scan so tie-breaking stays
// deterministic.
type CentroidIndex struct {
	graph        *hnsw.Graph[string]
	idToIdentity map[string]*StoredIdentity
	mu           sync.RWMutex
}

// NewCentroidIndex creates a new empty centroid index.
func NewCentroidIndex() *CentroidIndex {
	return &CentroidIndex{
		idToIdentity: make(map[string]*StoredIdentity),
	}
}

// newGraph creates an HNSW graph configured for cosine distance.
func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// Build rebuilds the index from the full identity set.
func (c *CentroidIndex) Build(identities []StoredIdentity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(identities) == 0 {
		c.graph = nil
		c.idToIdentity = make(map[string]*StoredIdentity)
		return nil
	}

	g := newGraph()
	c.idToIdentity = make(map[string]*StoredIdentity, len(identities))

	for i := range identities {
		identity := &identities[i]
		if len(identity.Centroid) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(identity.ID, identity.Centroid))
		c.idToIdentity[identity.ID] = identity
	}

	c.graph = g
	return nil
}

// Add inserts or replaces a single identity in the index.
func (c *CentroidIndex) Add(identity *StoredIdentity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(identity.Centroid) == 0 {
		return
	}
	if c.graph == nil {
		c.graph = newGraph()
	}
	c.graph.Add(hnsw.MakeNode(identity.ID, identity.Centroid))
	c.idToIdentity[identity.ID] = identity
}

// Remove deletes an identity from the index.
func (c *CentroidIndex) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.graph != nil {
		c.graph.Delete(id)
	}
	delete(c.idToIdentity, id)
}

// Search finds the k identities whose centroids are nearest to the query
// embedding. Returns identity IDs and exact cosine distances.
func (c *CentroidIndex) Search(query []float32, k int) ([]string, []float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.graph == nil {
		return nil, nil, errors.New("index not initialized")
	}

	neighbors := c.graph.Search(query, k)

	ids := make([]string, len(neighbors))
	distances := make([]float64, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.Key
		// Recompute the exact cosine distance from the node's embedding;
		// the graph's internal distances are approximate ordering hints.
		distances[i] = matcher.CosineDistance(query, n.Value)
	}

	return ids, distances, nil
}

// GetIdentity returns the indexed identity for a given ID, or nil.
func (c *CentroidIndex) GetIdentity(id string) *StoredIdentity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idToIdentity[id]
}

// Count returns the number of identities in the index.
func (c *CentroidIndex) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.idToIdentity)
}
