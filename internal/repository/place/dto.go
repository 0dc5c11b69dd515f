package place

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/halong-cloud/tourvex/internal/domain/collection"
	domplace "github.com/halong-cloud/tourvex/internal/domain/place"
)

// defaultLocation fills the location field on the unified variant when the
// crawler record left it empty.
const defaultLocation = "Bãi Cháy, Quảng Ninh"

// buildHashFields converts a Place into the flat map stored per record. Only
// vector fields declared by the schema are written.
func buildHashFields(p *domplace.Place, schema collection.Schema) map[string]string {
	location := p.Location
	if location == "" && !schema.IsRequired(collection.FieldLocation) {
		location = defaultLocation
	}

	m := map[string]string{
		collection.FieldID:           strconv.FormatInt(p.ID, 10),
		collection.FieldName:         p.Name,
		collection.FieldType:         p.Type,
		collection.FieldSubType:      p.SubType,
		collection.FieldLocation:     location,
		collection.FieldAddress:      p.Address,
		collection.FieldDescription:  p.Description,
		collection.FieldPriceRange:   p.PriceRange,
		collection.FieldPriceMin:     formatFloat(p.PriceMin),
		collection.FieldPriceMax:     formatFloat(p.PriceMax),
		collection.FieldOpeningHours: p.OpeningHours,
		collection.FieldImageURLs:    encodeImageURLs(p.ImageURLs),
		collection.FieldRating:       formatFloat(p.Rating),
		collection.FieldViewCount:    strconv.FormatInt(p.ViewCount, 10),
		collection.FieldURL:          p.URL,
	}

	if _, ok := schema.VectorByName(collection.FieldDescriptionVector); ok {
		m[collection.FieldDescriptionVector] = vectorToBytes(p.DescriptionVector)
	}
	if _, ok := schema.VectorByName(collection.FieldImageVector); ok {
		m[collection.FieldImageVector] = vectorToBytes(p.ImageVector)
	}

	return m
}

// parseHashFields converts a flat field map back into a Place.
func parseHashFields(m map[string]string) domplace.Place {
	id, _ := strconv.ParseInt(m[collection.FieldID], 10, 64)
	viewCount, _ := strconv.ParseInt(m[collection.FieldViewCount], 10, 64)

	return domplace.Place{
		ID:                id,
		Name:              m[collection.FieldName],
		Type:              m[collection.FieldType],
		SubType:           m[collection.FieldSubType],
		Location:          m[collection.FieldLocation],
		Address:           m[collection.FieldAddress],
		Description:       m[collection.FieldDescription],
		PriceRange:        m[collection.FieldPriceRange],
		PriceMin:          parseFloat(m[collection.FieldPriceMin]),
		PriceMax:          parseFloat(m[collection.FieldPriceMax]),
		OpeningHours:      m[collection.FieldOpeningHours],
		ImageURLs:         decodeImageURLs(m[collection.FieldImageURLs]),
		Rating:            parseFloat(m[collection.FieldRating]),
		ViewCount:         viewCount,
		URL:               m[collection.FieldURL],
		DescriptionVector: bytesToVector(m[collection.FieldDescriptionVector]),
		ImageVector:       bytesToVector(m[collection.FieldImageVector]),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// encodeImageURLs stores the ordered URL list as a JSON array string, the
// format the crawler already produces.
func encodeImageURLs(urls []string) string {
	if len(urls) == 0 {
		return "[]"
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeImageURLs tolerates both a JSON array and a bare URL string.
func decodeImageURLs(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(s), &urls); err == nil {
		return urls
	}
	return []string{s}
}

// vectorToBytes serializes float32 values little-endian, the layout the store
// index expects.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// escapeTag escapes punctuation so a value can appear inside a TAG filter.
var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}
