package prepare

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// CatalogKey identifies a reproducible prepare run. Two runs with the same
// CatalogKey and identical raw inputs must produce bit-for-bit identical
// subsample catalogs.
type CatalogKey int64

// NewCatalogKey creates a CatalogKey from a seed value.
func NewCatalogKey(seed int64) CatalogKey {
	return CatalogKey(seed)
}

// StreamChunk names the random stream for one raw catalog chunk.
func StreamChunk(chunk int) string {
	return fmt.Sprintf("chunk_%d", chunk)
}

// PartitionedRNG provides deterministic, isolated RNG instances per stream.
//
// Derivation formula:
//   - chunk streams use masterSeed + chunkIndex directly, so a single
//     regenerated chunk reproduces the values it was first written with
//   - all other streams use masterSeed XOR fnv1a64(streamName)
//
// Thread-safety: NOT thread-safe. Each worker goroutine derives its own
// streams from a shared key instead of sharing one PartitionedRNG.
type PartitionedRNG struct {
	key     CatalogKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a CatalogKey.
func NewPartitionedRNG(key CatalogKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForStream returns a deterministically-seeded RNG for the named stream.
// The same name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForStream(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}

	var derivedSeed int64
	if chunk, ok := parseChunkStream(name); ok {
		// Additive derivation keeps chunk catalogs stable under
		// partial regeneration.
		derivedSeed = int64(p.key) + int64(chunk)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.streams[name] = rng
	return rng
}

// ForChunk is shorthand for ForStream(StreamChunk(chunk)).
func (p *PartitionedRNG) ForChunk(chunk int) *rand.Rand {
	return p.ForStream(StreamChunk(chunk))
}

// Key returns the CatalogKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() CatalogKey {
	return p.key
}

func parseChunkStream(name string) (int, bool) {
	var chunk int
	if _, err := fmt.Sscanf(name, "chunk_%d", &chunk); err != nil {
		return 0, false
	}
	return chunk, true
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
