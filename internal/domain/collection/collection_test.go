package collection

import "testing"

func TestByVariant(t *testing.T) {
	unified, ok := ByVariant("unified")
	if !ok {
		t.Fatal("ByVariant(unified) not found")
	}
	if unified.Name() != "bai_chay_places" {
		t.Errorf("unified name = %q, want bai_chay_places", unified.Name())
	}
	if unified.Database() != "bai_chay_tourism_db" {
		t.Errorf("unified database = %q", unified.Database())
	}

	multimodal, ok := ByVariant("multimodal")
	if !ok {
		t.Fatal("ByVariant(multimodal) not found")
	}
	if multimodal.Name() != "tourism_places" {
		t.Errorf("multimodal name = %q, want tourism_places", multimodal.Name())
	}

	if _, ok := ByVariant("flat"); ok {
		t.Error("ByVariant(flat) = ok, want not found")
	}
	if _, ok := ByVariant(""); ok {
		t.Error("ByVariant(\"\") = ok, want not found")
	}
}

func TestUnifiedSchema(t *testing.T) {
	s := Unified()

	if s.HasImageVector() {
		t.Error("unified variant should not index image vectors")
	}
	if len(s.Vectors()) != 1 {
		t.Fatalf("unified vectors = %d, want 1", len(s.Vectors()))
	}

	v, ok := s.VectorByName(FieldDescriptionVector)
	if !ok {
		t.Fatal("description_vector not in unified schema")
	}
	if v.Dim != DescriptionVectorDim || v.Metric != MetricCosine {
		t.Errorf("description_vector = {Dim: %d, Metric: %s}, want {768, COSINE}", v.Dim, v.Metric)
	}

	if s.IsRequired(FieldLocation) {
		t.Error("location should be optional in the unified variant")
	}
	if !s.IsRequired(FieldDescription) {
		t.Error("description should be required in the unified variant")
	}
}

func TestMultimodalSchema(t *testing.T) {
	s := Multimodal()

	if !s.HasImageVector() {
		t.Error("multimodal variant should index image vectors")
	}
	if len(s.Vectors()) != 2 {
		t.Fatalf("multimodal vectors = %d, want 2", len(s.Vectors()))
	}

	v, ok := s.VectorByName(FieldImageVector)
	if !ok {
		t.Fatal("image_vector not in multimodal schema")
	}
	if v.Dim != ImageVectorDim || v.Metric != MetricL2 {
		t.Errorf("image_vector = {Dim: %d, Metric: %s}, want {512, L2}", v.Dim, v.Metric)
	}

	for _, field := range []string{
		FieldID, FieldLocation, FieldType, FieldDescription,
		FieldImageURLs, FieldPriceMin, FieldImageVector, FieldDescriptionVector,
	} {
		if !s.IsRequired(field) {
			t.Errorf("%s should be required in the multimodal variant", field)
		}
	}
	if s.IsRequired(FieldRating) {
		t.Error("rating should be optional in the multimodal variant")
	}
}

func TestVectorByNameUnknownField(t *testing.T) {
	if _, ok := Multimodal().VectorByName("thumbnail_vector"); ok {
		t.Error("VectorByName(thumbnail_vector) = ok, want not found")
	}
}
