package tryon

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"modaflow/internal/infra"
)

// DefaultMaxImageBytes bounds a single remote image download.
const DefaultMaxImageBytes int64 = 10 << 20

// NormalizerOptions configures remote fetching.
type NormalizerOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64
	Logger     *infra.Logger
}

// Normalizer turns an ImageReference into an EncodedImage. It holds no
// per-call state and is safe for concurrent use.
type Normalizer struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *infra.Logger
}

func NewNormalizer(opts NormalizerOptions) *Normalizer {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Normalizer{httpClient: client, maxBytes: maxBytes, logger: logger}
}

// Normalize resolves ref. Inline references are pure string work; remote
// references are fetched once, re-encoded as a data URI and then parsed like
// inline input. Fetch failures return KindFetch, unusable bodies KindDecode.
func (n *Normalizer) Normalize(ctx context.Context, ref ImageReference) (EncodedImage, error) {
	if ref.Kind != ReferenceRemote {
		return parseInline(ref.Value), nil
	}

	inline, err := n.fetch(ctx, ref.Value)
	if err != nil {
		return EncodedImage{}, err
	}
	return parseInline(inline), nil
}

func (n *Normalizer) fetch(ctx context.Context, address string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return "", newError(KindFetch, 0, err, "invalid image address")
	}
	req.Header.Set("Accept", "image/*")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", newError(KindFetch, 0, err, "fetch remote image")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", newError(KindFetch, resp.StatusCode, nil, "fetch remote image: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, n.maxBytes+1))
	if err != nil {
		return "", newError(KindDecode, resp.StatusCode, err, "read remote image")
	}
	if len(body) == 0 {
		return "", newError(KindDecode, resp.StatusCode, nil, "remote image is empty")
	}
	if int64(len(body)) > n.maxBytes {
		return "", newError(KindDecode, resp.StatusCode, nil, "remote image exceeds %d bytes", n.maxBytes)
	}

	mediaType := detectMediaType(resp.Header.Get("Content-Type"), body)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", newError(KindDecode, resp.StatusCode, nil, "remote resource is %s, not an image", mediaType)
	}

	w, h, err := checkDecodable(mediaType, body)
	if err != nil {
		return "", newError(KindDecode, resp.StatusCode, err, "remote %s image is corrupt", mediaType)
	}
	n.logger.Debug().
		Str("media_type", mediaType).
		Int("bytes", len(body)).
		Int("width", w).
		Int("height", h).
		Msg("tryon: fetched remote image")

	return encodeDataURI(mediaType, body), nil
}

// detectMediaType prefers the declared Content-Type and sniffs the bytes when
// the server sent nothing useful.
func detectMediaType(header string, body []byte) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mt, "image/") {
			return mt
		}
	}
	mt, _, err := mime.ParseMediaType(mimetype.Detect(body).String())
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

// checkDecodable verifies that PNG, JPEG and WEBP bodies carry a readable
// header and reports their size. Other image subtypes are not inspected and
// keep the JPEG fallback of parseInline.
func checkDecodable(mediaType string, data []byte) (int, int, error) {
	if _, ok := subtypes[strings.TrimPrefix(mediaType, "image/")]; !ok {
		return 0, 0, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
