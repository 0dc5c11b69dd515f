// Package result holds search hit value types.
package result

import "github.com/halong-cloud/tourvex/internal/domain/place"

// Scored is a single-modality search hit. Score is the normalized similarity
// 1/(1+distance): monotone in distance, metric-agnostic, and exactly 1 for
// identical vectors. Distance is kept alongside for diagnostics.
type Scored struct {
	Place    place.Place
	Distance float64
	Score    float64
}

// NewScored builds a hit from a raw store distance.
func NewScored(p place.Place, distance float64) Scored {
	return Scored{Place: p, Distance: distance, Score: 1 / (1 + distance)}
}

// Fused is a hybrid-search hit. CombinedScore is always
// TextScore*textWeight + ImageScore*imageWeight; a modality that did not
// return the record contributes zero, it does not disqualify.
type Fused struct {
	Place         place.Place
	TextScore     float64
	ImageScore    float64
	CombinedScore float64
}
