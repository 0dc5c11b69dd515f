package place

import (
	"math"
	"reflect"
	"testing"
)

func TestVectorBytesRoundtrip(t *testing.T) {
	in := []float32{0.1, -2.5, 3.14159, 0, float32(math.MaxFloat32)}

	out := bytesToVector(vectorToBytes(in))
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("roundtrip mismatch: %v vs %v", in, out)
	}
}

func TestBytesToVector_Malformed(t *testing.T) {
	if v := bytesToVector(""); v != nil {
		t.Errorf("empty input: expected nil, got %v", v)
	}
	// Length not a multiple of 4 cannot be a float32 sequence.
	if v := bytesToVector("abcde"); v != nil {
		t.Errorf("truncated input: expected nil, got %v", v)
	}
}

func TestImageURLCodec(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		urls := []string{"https://a.example/1.jpg", "https://a.example/2.jpg"}
		got := decodeImageURLs(encodeImageURLs(urls))
		if !reflect.DeepEqual(urls, got) {
			t.Fatalf("roundtrip mismatch: %v vs %v", urls, got)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		if s := encodeImageURLs(nil); s != "[]" {
			t.Errorf("encoded empty list as %q", s)
		}
		if got := decodeImageURLs("[]"); got != nil {
			t.Errorf("decoded empty list as %v", got)
		}
	})

	t.Run("bare url tolerated", func(t *testing.T) {
		got := decodeImageURLs("https://a.example/1.jpg")
		if len(got) != 1 || got[0] != "https://a.example/1.jpg" {
			t.Errorf("bare url decoded as %v", got)
		}
	})
}

func TestEscapeTag(t *testing.T) {
	cases := map[string]string{
		"nha-hang":       `nha\-hang`,
		"Bãi Cháy":       `Bãi\ Cháy`,
		"a,b":            `a\,b`,
		"plain":          "plain",
		"{tour}":         `\{tour\}`,
		"beach (north)":  `beach\ \(north\)`,
		"rating:5 stars": `rating\:5\ stars`,
	}
	for in, want := range cases {
		if got := escapeTag(in); got != want {
			t.Errorf("escapeTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFloatFieldFormat(t *testing.T) {
	// Store fields must parse back to the exact value.
	for _, f := range []float64{0, 0.5, 350000, 4.5, 123456.789} {
		if got := parseFloat(formatFloat(f)); got != f {
			t.Errorf("roundtrip %g -> %g", f, got)
		}
	}
	if parseFloat("not-a-number") != 0 {
		t.Error("malformed float should parse as 0")
	}
}
