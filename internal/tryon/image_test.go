package tryon

import (
	"context"
	"testing"
)

func TestParseInline(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType MediaType
		wantData string
	}{
		{name: "png", input: "data:image/png;base64,iVBORw0K", wantType: MediaTypePNG, wantData: "iVBORw0K"},
		{name: "jpeg", input: "data:image/jpeg;base64,/9j/4AAQ", wantType: MediaTypeJPEG, wantData: "/9j/4AAQ"},
		{name: "jpg alias", input: "data:image/jpg;base64,/9j/", wantType: MediaTypeJPEG, wantData: "/9j/"},
		{name: "webp", input: "data:image/webp;base64,UklGR", wantType: MediaTypeWEBP, wantData: "UklGR"},
		{name: "empty payload", input: "data:image/png;base64,", wantType: MediaTypePNG, wantData: ""},
		{name: "bare base64 falls back", input: "Zm9vYmFy", wantType: MediaTypeJPEG, wantData: "Zm9vYmFy"},
		{name: "unknown subtype falls back", input: "data:image/gif;base64,R0lGOD", wantType: MediaTypeJPEG, wantData: "data:image/gif;base64,R0lGOD"},
		{name: "missing base64 marker falls back", input: "data:image/png,rawbytes", wantType: MediaTypeJPEG, wantData: "data:image/png,rawbytes"},
		{name: "header not at start falls back", input: " data:image/png;base64,AAAA", wantType: MediaTypeJPEG, wantData: " data:image/png;base64,AAAA"},
		{name: "case sensitive header", input: "data:image/PNG;base64,AAAA", wantType: MediaTypeJPEG, wantData: "data:image/PNG;base64,AAAA"},
		{name: "empty string", input: "", wantType: MediaTypeJPEG, wantData: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseInline(tc.input)
			if got.MediaType != tc.wantType {
				t.Fatalf("MediaType = %q, want %q", got.MediaType, tc.wantType)
			}
			if got.Data != tc.wantData {
				t.Fatalf("Data = %q, want %q", got.Data, tc.wantData)
			}
		})
	}
}

func TestNormalizeInlineDoesNoIO(t *testing.T) {
	n := NewNormalizer(NormalizerOptions{})
	img, err := n.Normalize(context.Background(), Inline("data:image/webp;base64,UklGR"))
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if img.MediaType != MediaTypeWEBP || img.Data != "UklGR" {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		input string
		want  ReferenceKind
	}{
		{"https://images.example.com/a.jpg", ReferenceRemote},
		{"http://localhost/a.png", ReferenceRemote},
		{"HTTPS://EXAMPLE.COM/A.PNG", ReferenceRemote},
		{"data:image/png;base64,AAAA", ReferenceInline},
		{"Zm9v", ReferenceInline},
		{"ftp://example.com/a.png", ReferenceInline},
	}
	for _, tc := range tests {
		if got := ParseReference(tc.input).Kind; got != tc.want {
			t.Fatalf("ParseReference(%q).Kind = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestEncodedImageDataURIRoundTrip(t *testing.T) {
	img := EncodedImage{MediaType: MediaTypePNG, Data: "Zm9v"}
	if got := img.DataURI(); got != "data:image/png;base64,Zm9v" {
		t.Fatalf("DataURI = %q", got)
	}
	if back := parseInline(img.DataURI()); back != img {
		t.Fatalf("parseInline(DataURI) = %+v, want %+v", back, img)
	}
	b, err := img.Bytes()
	if err != nil || string(b) != "foo" {
		t.Fatalf("Bytes = %q, %v", b, err)
	}
}
