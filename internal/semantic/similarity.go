// Package semantic scores relatedness between concept labels.
package semantic

import (
	"context"
	"math"
)

// CosineSimilarity computes the cosine similarity between two vectors, in
// [-1, 1]. Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}
	return dot / denominator
}

// Clamp01 maps a similarity into a relatedness score in [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Scorer scores every ordered pair of distinct labels in one call.
type Scorer interface {
	Score(ctx context.Context, labels []string) (*Matrix, error)
}

// Pair is a directed relatedness score between two labels.
type Pair struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Score float64 `json:"score"`
}

// Matrix holds relatedness scores for ordered label pairs. The diagonal is
// never scored and reads as 0.
type Matrix struct {
	labels []string
	scores [][]float64
}

// NewMatrix creates a zeroed matrix over labels.
func NewMatrix(labels []string) *Matrix {
	scores := make([][]float64, len(labels))
	for i := range scores {
		scores[i] = make([]float64, len(labels))
	}
	return &Matrix{labels: labels, scores: scores}
}

// Labels returns the labels in row order.
func (m *Matrix) Labels() []string {
	return m.labels
}

// Len returns the number of labels.
func (m *Matrix) Len() int {
	return len(m.labels)
}

// At returns the score for labels[i] -> labels[j].
func (m *Matrix) At(i, j int) float64 {
	return m.scores[i][j]
}

// Set stores the score for labels[i] -> labels[j]. Diagonal writes are ignored.
func (m *Matrix) Set(i, j int, score float64) {
	if i == j {
		return
	}
	m.scores[i][j] = score
}

// Above returns every off-diagonal pair scoring strictly greater than
// threshold, in row-major order.
func (m *Matrix) Above(threshold float64) []Pair {
	var out []Pair
	for i, from := range m.labels {
		for j, to := range m.labels {
			if i == j {
				continue
			}
			if s := m.scores[i][j]; s > threshold {
				out = append(out, Pair{From: from, To: to, Score: s})
			}
		}
	}
	return out
}

// PairFunc scores one ordered pair at a time. As a Scorer it makes n*(n-1)
// calls, so it suits small label sets and tests.
type PairFunc func(ctx context.Context, a, b string) (float64, error)

// Score implements Scorer.
func (f PairFunc) Score(ctx context.Context, labels []string) (*Matrix, error) {
	m := NewMatrix(labels)
	for i, a := range labels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, b := range labels {
			if i == j {
				continue
			}
			s, err := f(ctx, a, b)
			if err != nil {
				return nil, err
			}
			m.Set(i, j, Clamp01(s))
		}
	}
	return m, nil
}
