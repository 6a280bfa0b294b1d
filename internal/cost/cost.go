// Package cost maps one edge traversal to a weighted learning cost.
package cost

import "github.com/matsen/learnpath/internal/edge"

// DefaultWeight is used for any weight a request leaves unset.
const DefaultWeight = 0.25

// Neutral is the sub-cost assumed when an estimate is unknown.
const Neutral = 1.0

// Weights scales each sub-cost. Values are expected in [0,1] but are not
// required to sum to one; out-of-range weights scale the result unchecked.
type Weights struct {
	Time      float64 `json:"time" yaml:"time"`
	Cognitive float64 `json:"cognitive" yaml:"cognitive"`
	Prereq    float64 `json:"prereq" yaml:"prereq"`
	Interest  float64 `json:"interest" yaml:"interest"`
}

// DefaultWeights returns equal weights of DefaultWeight.
func DefaultWeights() Weights {
	return Weights{
		Time:      DefaultWeight,
		Cognitive: DefaultWeight,
		Prereq:    DefaultWeight,
		Interest:  DefaultWeight,
	}
}

// NonNegative reports whether every weight is >= 0, the condition under
// which the first path to reach the goal is the cheapest.
func (w Weights) NonNegative() bool {
	return w.Time >= 0 && w.Cognitive >= 0 && w.Prereq >= 0 && w.Interest >= 0
}

// Context carries the per-concept estimates and the learner snapshot a search
// is personalized with. Any nil map makes every lookup in it fall back to the
// neutral value.
type Context struct {
	Durations    map[string]float64 // Estimated time per concept, nominally [0,1]
	Difficulties map[string]float64 // Estimated difficulty per concept, nominally [0,1]
	Interests    map[string]float64 // Learner interest strength per concept, [0,1]
	Knowledge    map[string]float64 // Learner mastery per concept, [0,1]; not part of the sum
}

// SubCosts are the four unweighted components of one traversal.
type SubCosts struct {
	Time      float64 `json:"time"`
	Cognitive float64 `json:"cognitive"`
	Prereq    float64 `json:"prereq"`
	Interest  float64 `json:"interest"`
}

// Breakdown computes the sub-costs of traversing e into successor.
func Breakdown(e edge.Edge, successor string, c Context) SubCosts {
	s := SubCosts{
		Time:      lookup(c.Durations, successor, Neutral),
		Cognitive: lookup(c.Difficulties, successor, Neutral),
		Interest:  1 - lookup(c.Interests, successor, 0),
	}
	if p, ok := e.(edge.HasPrerequisite); ok {
		s.Prereq = 1 - p.Weight
	}
	return s
}

// Total returns the weighted sum of the sub-costs. No clamping is applied.
func (s SubCosts) Total(w Weights) float64 {
	return w.Time*s.Time +
		w.Cognitive*s.Cognitive +
		w.Prereq*s.Prereq +
		w.Interest*s.Interest
}

// EdgeCost is the aggregate cost of traversing e into successor.
func EdgeCost(e edge.Edge, successor string, w Weights, c Context) float64 {
	return Breakdown(e, successor, c).Total(w)
}

func lookup(m map[string]float64, key string, fallback float64) float64 {
	if m == nil {
		return fallback
	}
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
