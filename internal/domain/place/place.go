// Package place holds the tourism record entity shared by ingestion and search.
package place

// Tourism categories as they appear in the crawler output.
const (
	TypeDestination   = "diem-den"
	TypeAccommodation = "luu-tru"
	TypeTour          = "tour"
	TypeRestaurant    = "nha-hang"
	TypeCuisine       = "am-thuc"
	TypeCruise        = "du-thuyen"
)

// MaxDescriptionLen bounds the description field (store VARCHAR limit).
const MaxDescriptionLen = 65000

// Place is a tourism record: destination, accommodation, tour, restaurant,
// cuisine item, or cruise. IDs are caller-assigned and immutable; re-insert
// with the same ID is the only update path.
type Place struct {
	ID           int64
	Name         string
	Type         string
	SubType      string
	Location     string
	Address      string
	Description  string
	PriceRange   string
	PriceMin     float64
	PriceMax     float64
	OpeningHours string
	ImageURLs    []string
	Rating       float64
	ViewCount    int64
	URL          string

	// DescriptionVector is the text embedding (dim 768).
	DescriptionVector []float32
	// ImageVector is the image embedding (dim 512, multimodal collections only).
	ImageVector []float32
}

// FirstImageURL returns the primary image URL, or "" when none.
func (p *Place) FirstImageURL() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}
