//go:build !arm64

package vectorindex

import "github.com/viant/vec/search"

// cosineDistance uses the portable kernel with precomputed magnitudes.
// vec exports it under the Neon name on non-arm64 builds.
func cosineDistance(a, b []float32, magA, magB float32) float32 {
	return search.Float32s(a).CosineDistanceWithMagnitudesNeon(b, magA, magB)
}
