package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
)

// HashDims is the dimensionality of hash-derived vectors.
const HashDims = 384

// HashEmbedder derives a deterministic unit vector from text alone, with no
// model server. Each of 12 seeded sha256 digests contributes 32 components.
// Similarity is only meaningful in the exact-text sense, which makes it a
// cheap baseline and a stable fixture for tests.
type HashEmbedder struct{}

// NewHashEmbedder returns the hashing-based provider.
func NewHashEmbedder() *HashEmbedder { return &HashEmbedder{} }

func (e *HashEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	vec := make(Vector, HashDims)
	if text == "" {
		// zero vector: matches nothing, but never breaks ranking
		return vec, nil
	}

	for seed := 0; seed < HashDims/32; seed++ {
		sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", seed, text)))
		for i := 0; i < 32; i++ {
			vec[seed*32+i] = float32(sum[i])/255*2 - 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec, nil
}

func (e *HashEmbedder) Dims() int { return HashDims }
