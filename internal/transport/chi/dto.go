package chi

import (
	domplace "github.com/halong-cloud/tourvex/internal/domain/place"
	"github.com/halong-cloud/tourvex/internal/domain/search/result"
)

// placeRequest is the wire form of a record on the insert path. Vectors come
// precomputed from the crawler pipeline.
type placeRequest struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	SubType           string    `json:"sub_type,omitempty"`
	Location          string    `json:"location,omitempty"`
	Address           string    `json:"address,omitempty"`
	Description       string    `json:"description"`
	PriceRange        string    `json:"price_range,omitempty"`
	PriceMin          float64   `json:"price_min,omitempty"`
	PriceMax          float64   `json:"price_max,omitempty"`
	OpeningHours      string    `json:"opening_hours,omitempty"`
	ImageURLs         []string  `json:"image_urls,omitempty"`
	Rating            float64   `json:"rating,omitempty"`
	ViewCount         int64     `json:"view_count,omitempty"`
	URL               string    `json:"url,omitempty"`
	DescriptionVector []float32 `json:"description_vector,omitempty"`
	ImageVector       []float32 `json:"image_vector,omitempty"`
}

func (r *placeRequest) toDomain() domplace.Place {
	return domplace.Place{
		ID:                r.ID,
		Name:              r.Name,
		Type:              r.Type,
		SubType:           r.SubType,
		Location:          r.Location,
		Address:           r.Address,
		Description:       r.Description,
		PriceRange:        r.PriceRange,
		PriceMin:          r.PriceMin,
		PriceMax:          r.PriceMax,
		OpeningHours:      r.OpeningHours,
		ImageURLs:         r.ImageURLs,
		Rating:            r.Rating,
		ViewCount:         r.ViewCount,
		URL:               r.URL,
		DescriptionVector: r.DescriptionVector,
		ImageVector:       r.ImageVector,
	}
}

// placeResponse is the wire form of a record on read paths. Vectors are
// omitted: they are bulky and meaningless to API consumers. PrimaryImage is
// the first crawled image, for list views that render one thumbnail.
type placeResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name,omitempty"`
	Type         string   `json:"type"`
	SubType      string   `json:"sub_type,omitempty"`
	Location     string   `json:"location,omitempty"`
	Address      string   `json:"address,omitempty"`
	Description  string   `json:"description"`
	PriceRange   string   `json:"price_range,omitempty"`
	PriceMin     float64  `json:"price_min"`
	PriceMax     float64  `json:"price_max"`
	OpeningHours string   `json:"opening_hours,omitempty"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	PrimaryImage string   `json:"primary_image,omitempty"`
	Rating       float64  `json:"rating"`
	ViewCount    int64    `json:"view_count"`
	URL          string   `json:"url,omitempty"`
}

func placeToResponse(p domplace.Place) placeResponse {
	return placeResponse{
		ID:           p.ID,
		Name:         p.Name,
		Type:         p.Type,
		SubType:      p.SubType,
		Location:     p.Location,
		Address:      p.Address,
		Description:  p.Description,
		PriceRange:   p.PriceRange,
		PriceMin:     p.PriceMin,
		PriceMax:     p.PriceMax,
		OpeningHours: p.OpeningHours,
		ImageURLs:    p.ImageURLs,
		PrimaryImage: p.FirstImageURL(),
		Rating:       p.Rating,
		ViewCount:    p.ViewCount,
		URL:          p.URL,
	}
}

// scoredResponse is a single-modality search hit.
type scoredResponse struct {
	placeResponse
	Distance float64 `json:"distance"`
	Score    float64 `json:"score"`
}

func scoredToResponse(hits []result.Scored) []scoredResponse {
	out := make([]scoredResponse, 0, len(hits))
	for _, h := range hits {
		out = append(out, scoredResponse{
			placeResponse: placeToResponse(h.Place),
			Distance:      h.Distance,
			Score:         h.Score,
		})
	}
	return out
}

// fusedResponse is a hybrid search hit.
type fusedResponse struct {
	placeResponse
	TextScore     float64 `json:"text_score"`
	ImageScore    float64 `json:"image_score"`
	CombinedScore float64 `json:"combined_score"`
}

func fusedToResponse(hits []result.Fused) []fusedResponse {
	out := make([]fusedResponse, 0, len(hits))
	for _, h := range hits {
		out = append(out, fusedResponse{
			placeResponse: placeToResponse(h.Place),
			TextScore:     h.TextScore,
			ImageScore:    h.ImageScore,
			CombinedScore: h.CombinedScore,
		})
	}
	return out
}
