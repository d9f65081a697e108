package tryon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"modaflow/internal/providers/genai"
)

type fakeCapability struct {
	mu    sync.Mutex
	calls int
	model string
	req   genai.GenerateContentRequest
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeCapability) GenerateContent(ctx context.Context, model string, req genai.GenerateContentRequest) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.model = model
	f.req = req
	return f.resp, f.err
}

type countingNormalizer struct {
	calls atomic.Int32
	inner ImageNormalizer
}

func (c *countingNormalizer) Normalize(ctx context.Context, ref ImageReference) (EncodedImage, error) {
	c.calls.Add(1)
	return c.inner.Normalize(ctx, ref)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveTryOn(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func imageResponse(data string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []genai.Candidate{{
		Content: genai.Content{Parts: []genai.Part{
			{Text: "Here is the result"},
			{InlineData: &genai.InlineData{MimeType: "image/jpeg", Data: data}},
		}},
	}}}
}

func validRequest() Request {
	return Request{
		UserImage:    Inline("data:image/jpeg;base64,dXNlcg=="),
		ProductImage: Inline("data:image/png;base64,cHJvZHVjdA=="),
		Instructions: "",
	}
}

func newTestRequester(capability Capability, normalizer ImageNormalizer, key string) *Requester {
	return NewRequester(Options{
		APIKey:     key,
		Model:      "gemini-2.5-flash-image",
		Normalizer: normalizer,
		Capability: capability,
		Now:        func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) },
	})
}

func TestRequestTryOnMissingKeyShortCircuits(t *testing.T) {
	capability := &fakeCapability{resp: imageResponse("Zm9v")}
	normalizer := &countingNormalizer{inner: NewNormalizer(NormalizerOptions{})}
	r := newTestRequester(capability, normalizer, "  ")

	_, err := r.RequestTryOn(context.Background(), validRequest())
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if n := normalizer.calls.Load(); n != 0 {
		t.Fatalf("normalizer invoked %d times before credential check", n)
	}
	if capability.calls != 0 {
		t.Fatalf("capability invoked without credential")
	}
}

func TestRequestTryOnSuccessWrapsFirstImageAsPNG(t *testing.T) {
	capability := &fakeCapability{resp: imageResponse("Zm9v")}
	r := newTestRequester(capability, nil, "key")

	res, err := r.RequestTryOn(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("RequestTryOn error: %v", err)
	}
	if res.Image.MediaType != MediaTypePNG || res.Image.Data != "Zm9v" {
		t.Fatalf("unexpected image: %+v", res.Image)
	}
	if res.Image.DataURI() != "data:image/png;base64,Zm9v" {
		t.Fatalf("unexpected data uri: %s", res.Image.DataURI())
	}
	if res.Model != "gemini-2.5-flash-image" || capability.model != "gemini-2.5-flash-image" {
		t.Fatalf("model not propagated: result %q, call %q", res.Model, capability.model)
	}
	if !res.GeneratedAt.Equal(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected GeneratedAt: %s", res.GeneratedAt)
	}
}

func TestRequestTryOnBuildsWellFormedRequestWithDefaultInstructions(t *testing.T) {
	capability := &fakeCapability{resp: imageResponse("Zm9v")}
	r := newTestRequester(capability, nil, "key")

	if _, err := r.RequestTryOn(context.Background(), validRequest()); err != nil {
		t.Fatalf("RequestTryOn error: %v", err)
	}
	if capability.calls != 1 {
		t.Fatalf("capability called %d times, want 1", capability.calls)
	}
	if len(capability.req.Contents) != 1 {
		t.Fatalf("unexpected contents: %+v", capability.req.Contents)
	}
	parts := capability.req.Contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if !strings.Contains(parts[0].Text, "Adhere to these specific adjustments: "+DefaultInstructions) {
		t.Fatalf("default instructions missing from prompt: %q", parts[0].Text)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/jpeg" || parts[1].InlineData.Data != "dXNlcg==" {
		t.Fatalf("user image part mismatch: %+v", parts[1].InlineData)
	}
	if parts[2].InlineData == nil || parts[2].InlineData.MimeType != "image/png" || parts[2].InlineData.Data != "cHJvZHVjdA==" {
		t.Fatalf("product image part mismatch: %+v", parts[2].InlineData)
	}
}

func TestRequestTryOnKeepsInstructionsVerbatim(t *testing.T) {
	capability := &fakeCapability{resp: imageResponse("Zm9v")}
	r := newTestRequester(capability, nil, "key")
	req := validRequest()
	req.Instructions = "  Mangas remangadas, talla M  "

	if _, err := r.RequestTryOn(context.Background(), req); err != nil {
		t.Fatalf("RequestTryOn error: %v", err)
	}
	prompt := capability.req.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "adjustments:   Mangas remangadas, talla M  \n") {
		t.Fatalf("instructions not inserted verbatim: %q", prompt)
	}
	if strings.Contains(prompt, DefaultInstructions) {
		t.Fatalf("default phrase must not replace non-empty instructions")
	}
}

func TestRequestTryOnOnlyInspectsFirstCandidate(t *testing.T) {
	capability := &fakeCapability{resp: &genai.GenerateContentResponse{Candidates: []genai.Candidate{
		{Content: genai.Content{Parts: []genai.Part{{Text: "I can't help with that."}}}},
		{Content: genai.Content{Parts: []genai.Part{{InlineData: &genai.InlineData{MimeType: "image/png", Data: "Zm9v"}}}}},
	}}}
	r := newTestRequester(capability, nil, "key")

	_, err := r.RequestTryOn(context.Background(), validRequest())
	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected no-image error, got %v", err)
	}
}

func TestRequestTryOnNoCandidates(t *testing.T) {
	capability := &fakeCapability{resp: &genai.GenerateContentResponse{PromptFeedback: &genai.PromptFeedback{BlockReason: "SAFETY"}}}
	r := newTestRequester(capability, nil, "key")

	_, err := r.RequestTryOn(context.Background(), validRequest())
	if KindOf(err) != KindNoImage {
		t.Fatalf("expected no-image error, got %v", err)
	}
	if !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("block reason should be kept for diagnostics: %v", err)
	}
}

func TestRequestTryOnSkipsEmptyInlineParts(t *testing.T) {
	capability := &fakeCapability{resp: &genai.GenerateContentResponse{Candidates: []genai.Candidate{{
		Content: genai.Content{Parts: []genai.Part{
			{InlineData: &genai.InlineData{MimeType: "image/png"}},
			{InlineData: &genai.InlineData{MimeType: "image/png", Data: "YmFy"}},
			{InlineData: &genai.InlineData{MimeType: "image/png", Data: "Zm9v"}},
		}},
	}}}}
	r := newTestRequester(capability, nil, "key")

	res, err := r.RequestTryOn(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("RequestTryOn error: %v", err)
	}
	if res.Image.Data != "YmFy" {
		t.Fatalf("expected first non-empty image part, got %q", res.Image.Data)
	}
}

func TestRequestTryOnClassifiesCapabilityErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   error
		status int
	}{
		{name: "bad request", err: &genai.APIError{StatusCode: http.StatusBadRequest, Message: "Unable to process input image"}, want: ErrBadRequest, status: http.StatusBadRequest},
		{name: "server error", err: &genai.APIError{StatusCode: http.StatusInternalServerError, Message: "internal"}, want: ErrCapability, status: http.StatusInternalServerError},
		{name: "forbidden", err: &genai.APIError{StatusCode: http.StatusForbidden, Message: "API key not valid"}, want: ErrCapability, status: http.StatusForbidden},
		{name: "transport", err: errors.New("connection refused"), want: ErrCapability},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRequester(&fakeCapability{err: tc.err}, nil, "key")
			_, err := r.RequestTryOn(context.Background(), validRequest())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if errors.Is(tc.want, ErrBadRequest) && errors.Is(err, ErrCapability) {
				t.Fatalf("bad request must not also classify as capability error")
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("original error not preserved: %v", err)
			}
			var e *Error
			if errors.As(err, &e) && e.Status != tc.status {
				t.Fatalf("status = %d, want %d", e.Status, tc.status)
			}
		})
	}
}

func TestRequestTryOnFetchErrorSkipsCapability(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	capability := &fakeCapability{resp: imageResponse("Zm9v")}
	r := newTestRequester(capability, nil, "key")
	req := validRequest()
	req.ProductImage = ParseReference(ts.URL + "/jacket.jpg")

	_, err := r.RequestTryOn(context.Background(), req)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if capability.calls != 0 {
		t.Fatalf("capability must not be invoked after a fetch failure")
	}
}

func TestRequestTryOnRequiresBothImages(t *testing.T) {
	capability := &fakeCapability{resp: imageResponse("Zm9v")}
	r := newTestRequester(capability, nil, "key")

	req := validRequest()
	req.UserImage = Inline("")
	if _, err := r.RequestTryOn(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request for missing user image, got %v", err)
	}

	req = validRequest()
	req.ProductImage = Remote(" ")
	if _, err := r.RequestTryOn(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request for missing product image, got %v", err)
	}
	if capability.calls != 0 {
		t.Fatalf("capability must not be invoked for invalid requests")
	}
}

func TestRequestTryOnWrapsForeignNormalizerErrors(t *testing.T) {
	boom := errors.New("disk unavailable")
	normalizer := normalizerFunc(func(ctx context.Context, ref ImageReference) (EncodedImage, error) {
		return EncodedImage{}, boom
	})
	r := newTestRequester(&fakeCapability{resp: imageResponse("Zm9v")}, normalizer, "key")

	_, err := r.RequestTryOn(context.Background(), validRequest())
	if !errors.Is(err, ErrDecode) || !errors.Is(err, boom) {
		t.Fatalf("expected decode error wrapping cause, got %v", err)
	}
}

func TestRequestTryOnReportsOutcomes(t *testing.T) {
	observer := &recordingObserver{}
	capability := &fakeCapability{resp: imageResponse("Zm9v")}
	r := NewRequester(Options{APIKey: "key", Capability: capability, Observer: observer})

	if _, err := r.RequestTryOn(context.Background(), validRequest()); err != nil {
		t.Fatalf("RequestTryOn error: %v", err)
	}
	capability.resp = &genai.GenerateContentResponse{}
	_, _ = r.RequestTryOn(context.Background(), validRequest())

	if len(observer.outcomes) != 2 || observer.outcomes[0] != "success" || observer.outcomes[1] != string(KindNoImage) {
		t.Fatalf("unexpected outcomes: %v", observer.outcomes)
	}
	if r.Model() == "" {
		t.Fatalf("default model should be set")
	}
}

type normalizerFunc func(ctx context.Context, ref ImageReference) (EncodedImage, error)

func (f normalizerFunc) Normalize(ctx context.Context, ref ImageReference) (EncodedImage, error) {
	return f(ctx, ref)
}

func TestTruncateKeepsRunes(t *testing.T) {
	got := truncate("Lo siento, no puedo añadir la prenda", 23)
	if got != "Lo siento, no puedo aña…" {
		t.Fatalf("truncate = %q", got)
	}
	if !utf8.ValidString(truncate("ññññ", 3)) {
		t.Fatalf("truncate produced invalid UTF-8")
	}
	if got := truncate("corto", 10); got != "corto" {
		t.Fatalf("short input changed: %q", got)
	}
}
