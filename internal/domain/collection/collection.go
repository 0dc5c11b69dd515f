// Package collection defines the two collection variants a deployment can
// serve and the schema constraints the repository enforces on every write.
package collection

// Metric is the distance metric configured for a vector field. The metric is
// fixed per field: changing it changes distance semantics, so search must use
// the metric declared here.
type Metric string

const (
	// MetricCosine is cosine distance (text embeddings).
	MetricCosine Metric = "COSINE"
	// MetricL2 is Euclidean distance (image embeddings).
	MetricL2 Metric = "L2"
)

// Vector dimensions of the embedding models feeding this corpus.
const (
	DescriptionVectorDim = 768
	ImageVectorDim       = 512
)

// Canonical field names in the flat store representation.
const (
	FieldID                = "id"
	FieldName              = "name"
	FieldType              = "type"
	FieldSubType           = "sub_type"
	FieldLocation          = "location"
	FieldAddress           = "address"
	FieldDescription       = "description"
	FieldPriceRange        = "price_range"
	FieldPriceMin          = "price_min"
	FieldPriceMax          = "price_max"
	FieldOpeningHours      = "opening_hours"
	FieldImageURLs         = "image_urls"
	FieldRating            = "rating"
	FieldViewCount         = "view_count"
	FieldURL               = "url"
	FieldDescriptionVector = "description_vector"
	FieldImageVector       = "image_vector"
)

// VectorField describes one indexed embedding field.
type VectorField struct {
	Name   string
	Dim    int
	Metric Metric
}

// Schema is an immutable collection variant definition.
type Schema struct {
	database string
	name     string
	required []string
	vectors  []VectorField
}

// Unified is the single-collection variant: one description embedding per
// record, the remaining attributes optional with defaults.
func Unified() Schema {
	return Schema{
		database: "bai_chay_tourism_db",
		name:     "bai_chay_places",
		required: []string{FieldID, FieldName, FieldType, FieldDescription, FieldDescriptionVector},
		vectors: []VectorField{
			{Name: FieldDescriptionVector, Dim: DescriptionVectorDim, Metric: MetricCosine},
		},
	}
}

// Multimodal is the two-embedding variant: every record carries both a
// description vector and an image vector, indexed under distinct metrics.
// The record ID joins the two modalities at search time.
func Multimodal() Schema {
	return Schema{
		database: "du_lich_db",
		name:     "tourism_places",
		required: []string{
			FieldID, FieldLocation, FieldType, FieldDescription,
			FieldImageURLs, FieldPriceMin, FieldImageVector, FieldDescriptionVector,
		},
		vectors: []VectorField{
			{Name: FieldDescriptionVector, Dim: DescriptionVectorDim, Metric: MetricCosine},
			{Name: FieldImageVector, Dim: ImageVectorDim, Metric: MetricL2},
		},
	}
}

// ByVariant resolves a schema by config name ("unified" or "multimodal").
func ByVariant(variant string) (Schema, bool) {
	switch variant {
	case "unified":
		return Unified(), true
	case "multimodal":
		return Multimodal(), true
	}
	return Schema{}, false
}

// Database returns the logical database name.
func (s Schema) Database() string { return s.database }

// Name returns the collection name.
func (s Schema) Name() string { return s.name }

// Required returns the fields every record must carry.
func (s Schema) Required() []string { return s.required }

// IsRequired reports whether field is mandatory in this variant.
func (s Schema) IsRequired(field string) bool {
	for _, f := range s.required {
		if f == field {
			return true
		}
	}
	return false
}

// Vectors returns the indexed vector fields.
func (s Schema) Vectors() []VectorField { return s.vectors }

// VectorByName returns the vector field definition for name.
func (s Schema) VectorByName(name string) (VectorField, bool) {
	for _, v := range s.vectors {
		if v.Name == name {
			return v, true
		}
	}
	return VectorField{}, false
}

// HasImageVector reports whether the variant indexes image embeddings.
func (s Schema) HasImageVector() bool {
	_, ok := s.VectorByName(FieldImageVector)
	return ok
}
