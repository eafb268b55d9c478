package memstore

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cloo-solutions/docpilot/internal/domain"
)

type record struct {
	seq      uint64
	sourceID string
	sequence int
	text     string
	vector   []float32
	norm     float64
}

type shard struct {
	mu      sync.RWMutex
	records []record
}

// VectorIndex is a brute-force cosine index sharded by scope. Writes to one
// scope do not block reads of another.
type VectorIndex struct {
	dimensions int
	sources    *SourceRepository
	seq        atomic.Uint64

	mu     sync.RWMutex
	shards map[string]*shard

	// comparisons counts similarity evaluations.
	comparisons atomic.Int64
}

// NewVectorIndex creates an index for vectors of the given dimension. Search
// only considers records of sources registered in sources.
func NewVectorIndex(dimensions int, sources *SourceRepository) *VectorIndex {
	if dimensions <= 0 {
		dimensions = domain.DefaultEmbeddingDimensions
	}
	return &VectorIndex{
		dimensions: dimensions,
		sources:    sources,
		shards:     make(map[string]*shard),
	}
}

// Index appends one record per chunk. Either every record becomes visible or
// none does.
func (v *VectorIndex) Index(ctx context.Context, scopeID string, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return domain.ErrChunkVectorCountMismatch
	}
	for i, vec := range vectors {
		if len(vec) != v.dimensions {
			return domain.ErrDimensionMismatch.Wrap(
				fmt.Errorf("chunk %d: expected %d, got %d", i, v.dimensions, len(vec)))
		}
	}

	records := make([]record, len(chunks))
	for i, c := range chunks {
		vec := slices.Clone(vectors[i])
		records[i] = record{
			sourceID: c.SourceID,
			sequence: c.Sequence,
			text:     c.Text,
			vector:   vec,
			norm:     norm(vec),
		}
	}

	s := v.shard(scopeID, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		records[i].seq = v.seq.Add(1)
	}
	s.records = append(s.records, records...)
	return nil
}

// Search ranks the scope's records by cosine similarity, keeping those
// strictly above minSimilarity. Ties keep insertion order.
func (v *VectorIndex) Search(ctx context.Context, scopeID string, query []float32, k int, minSimilarity float64) ([]domain.ScoredChunk, error) {
	if len(query) != v.dimensions {
		return nil, domain.ErrDimensionMismatch.Wrap(
			fmt.Errorf("query: expected %d, got %d", v.dimensions, len(query)))
	}

	registered := v.sources.sourcesIn(scopeID)
	if len(registered) == 0 || k <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	s := v.shard(scopeID, false)
	if s == nil {
		return []domain.ScoredChunk{}, nil
	}

	type hit struct {
		rec *record
		sim float64
	}

	qnorm := norm(query)

	s.mu.RLock()
	hits := make([]hit, 0, len(s.records))
	for i := range s.records {
		rec := &s.records[i]
		if _, ok := registered[rec.sourceID]; !ok {
			continue
		}
		v.comparisons.Add(1)
		sim := cosine(query, qnorm, rec.vector, rec.norm)
		if sim > minSimilarity {
			hits = append(hits, hit{rec: rec, sim: sim})
		}
	}

	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.sim, a.sim); c != 0 {
			return c
		}
		return cmp.Compare(a.rec.seq, b.rec.seq)
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	results := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		results[i] = domain.ScoredChunk{Content: h.rec.text, SourceID: h.rec.sourceID, Similarity: h.sim}
	}
	s.mu.RUnlock()

	return results, nil
}

func (v *VectorIndex) DeleteBySource(ctx context.Context, sourceID string) error {
	v.mu.RLock()
	shards := make([]*shard, 0, len(v.shards))
	for _, s := range v.shards {
		shards = append(shards, s)
	}
	v.mu.RUnlock()

	for _, s := range shards {
		s.mu.Lock()
		s.records = slices.DeleteFunc(s.records, func(r record) bool { return r.sourceID == sourceID })
		s.mu.Unlock()
	}
	return nil
}

func (v *VectorIndex) DeleteByScope(ctx context.Context, scopeID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.shards, scopeID)
	return nil
}

// Len returns the number of records stored under scopeID.
func (v *VectorIndex) Len(scopeID string) int {
	s := v.shard(scopeID, false)
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (v *VectorIndex) shard(scopeID string, create bool) *shard {
	v.mu.RLock()
	s, ok := v.shards[scopeID]
	v.mu.RUnlock()
	if ok || !create {
		return s
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok = v.shards[scopeID]; !ok {
		s = &shard{}
		v.shards[scopeID] = s
	}
	return s
}

// cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	sim := dot / (anorm * bnorm)
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
