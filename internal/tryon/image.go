package tryon

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// MediaType is one of the raster formats the normalizer recognizes.
type MediaType string

const (
	MediaTypePNG  MediaType = "image/png"
	MediaTypeJPEG MediaType = "image/jpeg"
	MediaTypeWEBP MediaType = "image/webp"
)

const (
	dataURIPrefix = "data:image/"
	base64Marker  = ";base64,"
)

// subtypes maps the subtype of a data URI header to its media type. "jpg" is
// accepted as an alias and canonicalized to image/jpeg.
var subtypes = map[string]MediaType{
	"png":  MediaTypePNG,
	"jpeg": MediaTypeJPEG,
	"jpg":  MediaTypeJPEG,
	"webp": MediaTypeWEBP,
}

// EncodedImage is an image as (media type, base64 payload). Data never carries
// the data URI header.
type EncodedImage struct {
	MediaType MediaType
	Data      string
}

// DataURI renders the image as an inline data URI ready for display.
func (e EncodedImage) DataURI() string {
	return "data:" + string(e.MediaType) + base64Marker + e.Data
}

// Bytes decodes the base64 payload.
func (e EncodedImage) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return b, nil
}

// ReferenceKind tags an ImageReference.
type ReferenceKind int

const (
	ReferenceInline ReferenceKind = iota
	ReferenceRemote
)

func (k ReferenceKind) String() string {
	if k == ReferenceRemote {
		return "remote"
	}
	return "inline"
}

// ImageReference is either inline encoded text or a remote address.
type ImageReference struct {
	Kind  ReferenceKind
	Value string
}

// Inline wraps an inline encoded image (normally a data URI).
func Inline(value string) ImageReference {
	return ImageReference{Kind: ReferenceInline, Value: value}
}

// Remote wraps an http(s) address.
func Remote(address string) ImageReference {
	return ImageReference{Kind: ReferenceRemote, Value: address}
}

// ParseReference classifies a raw image string: anything starting with an
// http or https scheme is remote, everything else is inline.
func ParseReference(raw string) ImageReference {
	if isRemoteAddress(raw) {
		return Remote(raw)
	}
	return Inline(raw)
}

// IsZero reports whether the reference carries no value.
func (r ImageReference) IsZero() bool {
	return strings.TrimSpace(r.Value) == ""
}

func isRemoteAddress(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// parseInline splits "data:image/<subtype>;base64,<payload>" into an
// EncodedImage. Input without a recognized header is passed through whole as
// JPEG data. That fallback hides malformed callers rather than rejecting them;
// it is kept because existing clients send bare base64.
func parseInline(value string) EncodedImage {
	fallback := EncodedImage{MediaType: MediaTypeJPEG, Data: value}

	rest, ok := strings.CutPrefix(value, dataURIPrefix)
	if !ok {
		return fallback
	}
	subtype, data, ok := strings.Cut(rest, base64Marker)
	if !ok {
		return fallback
	}
	mediaType, ok := subtypes[subtype]
	if !ok {
		return fallback
	}
	return EncodedImage{MediaType: mediaType, Data: data}
}

func encodeDataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + base64Marker + base64.StdEncoding.EncodeToString(data)
}
