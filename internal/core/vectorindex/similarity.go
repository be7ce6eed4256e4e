package vectorindex

import (
	"math"

	"github.com/viant/vec/search"
)

// magnitude returns the Euclidean norm of v.
func magnitude(v []float32) float32 {
	return search.Float32s(v).Magnitude()
}

// cosine returns the cosine similarity of a and b given their magnitudes.
// A zero vector has no direction and scores 0 against everything.
func cosine(a, b []float32, magA, magB float32) float64 {
	if magA == 0 || magB == 0 {
		return 0
	}
	return 1 - float64(cosineDistance(a, b, magA, magB))
}

// finite reports whether every component of v is a finite number.
func finite(v []float32) bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
