package search

import (
	"fmt"
	"sort"

	"github.com/halong-cloud/tourvex/internal/domain"
	"github.com/halong-cloud/tourvex/internal/domain/search/result"
)

// Fuse merges two independently ranked single-modality result sets into one
// ranking of size k, keyed by record ID.
//
// The combined score of a record is textScore*textWeight + imageScore*imageWeight,
// with a missing modality contributing zero. Ties sort stably in first-insertion
// order: text hits before image-only hits, each in their source rank order. A
// duplicate ID within one pass overwrites the earlier entry but keeps its
// position, matching a single-pass map build.
//
// Weights must be non-negative; zero means "ignore that modality's score but
// still admit IDs it found". Pure function, no I/O.
func Fuse(
	text, image []result.Scored,
	textWeight, imageWeight float64,
	k int,
) ([]result.Fused, error) {
	if textWeight < 0 || imageWeight < 0 {
		return nil, fmt.Errorf("weights (%g, %g): %w", textWeight, imageWeight, domain.ErrInvalidWeight)
	}
	if k <= 0 {
		return nil, nil
	}

	pos := make(map[int64]int, len(text)+len(image))
	fused := make([]result.Fused, 0, len(text)+len(image))

	for _, r := range text {
		entry := result.Fused{Place: r.Place, TextScore: r.Score}
		if i, ok := pos[r.Place.ID]; ok {
			fused[i] = entry
		} else {
			pos[r.Place.ID] = len(fused)
			fused = append(fused, entry)
		}
	}

	for _, r := range image {
		if i, ok := pos[r.Place.ID]; ok {
			// Found in the text pass: attach the image score, keep the
			// text pass's display attributes.
			fused[i].ImageScore = r.Score
		} else {
			pos[r.Place.ID] = len(fused)
			fused = append(fused, result.Fused{Place: r.Place, ImageScore: r.Score})
		}
	}

	for i := range fused {
		fused[i].CombinedScore = fused[i].TextScore*textWeight + fused[i].ImageScore*imageWeight
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].CombinedScore > fused[j].CombinedScore
	})

	if len(fused) > k {
		fused = fused[:k]
	}

	return fused, nil
}
