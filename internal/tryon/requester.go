package tryon

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"modaflow/internal/infra"
	"modaflow/internal/providers/genai"
)

// Capability is the external image-synthesis call. Implementations perform a
// single round trip and report rejected requests as *genai.APIError.
type Capability interface {
	GenerateContent(ctx context.Context, model string, req genai.GenerateContentRequest) (*genai.GenerateContentResponse, error)
}

// ImageNormalizer resolves image references; *Normalizer is the production one.
type ImageNormalizer interface {
	Normalize(ctx context.Context, ref ImageReference) (EncodedImage, error)
}

// Observer receives one call per finished try-on. Outcome is "success" or the
// failure Kind.
type Observer interface {
	ObserveTryOn(outcome string, elapsed time.Duration)
}

// Request is a single try-on attempt.
type Request struct {
	UserImage    ImageReference
	ProductImage ImageReference
	Instructions string
}

// Result is a successful try-on. Image is always PNG-typed.
type Result struct {
	Image       EncodedImage
	Model       string
	GeneratedAt time.Time
}

// Options wires a Requester. APIKey is checked on every call so an instance
// built without a credential still answers with KindConfiguration.
type Options struct {
	APIKey     string
	Model      string
	Normalizer ImageNormalizer
	Capability Capability
	Logger     *infra.Logger
	Observer   Observer
	Now        func() time.Time
}

// Requester assembles the generation request, invokes the capability once and
// extracts the first image. It keeps no state between calls.
type Requester struct {
	apiKey     string
	model      string
	normalizer ImageNormalizer
	capability Capability
	logger     *infra.Logger
	observer   Observer
	now        func() time.Time
	tracer     trace.Tracer
}

func NewRequester(opts Options) *Requester {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = infra.DefaultImageModel
	}
	normalizer := opts.Normalizer
	if normalizer == nil {
		normalizer = NewNormalizer(NormalizerOptions{Logger: opts.Logger})
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Requester{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		normalizer: normalizer,
		capability: opts.Capability,
		logger:     logger,
		observer:   opts.Observer,
		now:        now,
		tracer:     otel.Tracer("modaflow/internal/tryon"),
	}
}

// Model returns the fixed model identifier sent to the capability.
func (r *Requester) Model() string {
	return r.model
}

// RequestTryOn runs the pipeline. Every failure is a *Error; nothing is retried.
func (r *Requester) RequestTryOn(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "tryon.RequestTryOn", trace.WithAttributes(
		attribute.String("tryon.model", r.model),
		attribute.String("tryon.product_ref", req.ProductImage.Kind.String()),
		attribute.Int("tryon.instructions_len", len(req.Instructions)),
	))
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(KindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("tryon.outcome", outcome))
		span.End()
		if r.observer != nil {
			r.observer.ObserveTryOn(outcome, time.Since(start))
		}
	}()

	if r.apiKey == "" || r.capability == nil {
		return Result{}, r.fail(newError(KindConfiguration, 0, nil, "gemini api key is not configured"))
	}
	if req.UserImage.IsZero() {
		return Result{}, r.fail(newError(KindInvalidRequest, 0, nil, "user image is required"))
	}
	if req.ProductImage.IsZero() {
		return Result{}, r.fail(newError(KindInvalidRequest, 0, nil, "product image is required"))
	}

	userImg, productImg, err := r.normalizeBoth(ctx, req)
	if err != nil {
		return Result{}, r.fail(err)
	}

	payload := genai.GenerateContentRequest{
		Contents: []genai.Content{{
			Role: "user",
			Parts: []genai.Part{
				{Text: BuildPrompt(req.Instructions)},
				{InlineData: &genai.InlineData{MimeType: string(userImg.MediaType), Data: userImg.Data}},
				{InlineData: &genai.InlineData{MimeType: string(productImg.MediaType), Data: productImg.Data}},
			},
		}},
	}

	r.logger.Debug().
		Str("model", r.model).
		Str("user_media_type", string(userImg.MediaType)).
		Str("product_media_type", string(productImg.MediaType)).
		Msg("tryon: dispatching generation request")

	genCtx, genSpan := r.tracer.Start(ctx, "tryon.GenerateContent")
	resp, err := r.capability.GenerateContent(genCtx, r.model, payload)
	genSpan.End()
	if err != nil {
		return Result{}, r.fail(classifyCapabilityError(err))
	}

	img, ok := firstImage(resp)
	if !ok {
		return Result{}, r.fail(newError(KindNoImage, 0, nil, "model returned no image (%s)", describeResponse(resp)))
	}

	r.logger.Info().
		Str("model", r.model).
		Int("payload_len", len(img.Data)).
		Dur("elapsed", time.Since(start)).
		Msg("tryon: image generated")

	return Result{Image: img, Model: r.model, GeneratedAt: r.now().UTC()}, nil
}

func (r *Requester) normalizeBoth(ctx context.Context, req Request) (EncodedImage, EncodedImage, error) {
	var userImg, productImg EncodedImage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := r.normalizeOne(gctx, "user", req.UserImage)
		userImg = img
		return err
	})
	g.Go(func() error {
		img, err := r.normalizeOne(gctx, "product", req.ProductImage)
		productImg = img
		return err
	})
	if err := g.Wait(); err != nil {
		return EncodedImage{}, EncodedImage{}, err
	}
	return userImg, productImg, nil
}

func (r *Requester) normalizeOne(ctx context.Context, role string, ref ImageReference) (EncodedImage, error) {
	ctx, span := r.tracer.Start(ctx, "tryon.Normalize", trace.WithAttributes(
		attribute.String("tryon.image_role", role),
		attribute.String("tryon.ref_kind", ref.Kind.String()),
	))
	defer span.End()

	img, err := r.normalizer.Normalize(ctx, ref)
	if err != nil {
		if KindOf(err) == "" {
			err = newError(KindDecode, 0, err, "normalize %s image", role)
		}
		span.RecordError(err)
		return EncodedImage{}, err
	}
	return img, nil
}

func (r *Requester) fail(err error) error {
	var e *Error
	if errors.As(err, &e) {
		r.logger.Warn().
			Err(err).
			Str("kind", string(e.Kind)).
			Int("status", e.Status).
			Str("model", r.model).
			Msg("tryon: request failed")
	}
	return err
}

// classifyCapabilityError maps a 400 from the capability to KindBadRequest
// and passes everything else through as KindCapability with the cause kept.
func classifyCapabilityError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusBadRequest {
			return newError(KindBadRequest, apiErr.StatusCode, err, "capability rejected the input images")
		}
		return newError(KindCapability, apiErr.StatusCode, err, "capability call failed")
	}
	return newError(KindCapability, 0, err, "capability call failed")
}

// firstImage inspects only the first candidate and returns its first part that
// carries inline data, re-typed as PNG.
func firstImage(resp *genai.GenerateContentResponse) (EncodedImage, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return EncodedImage{}, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return EncodedImage{MediaType: MediaTypePNG, Data: part.InlineData.Data}, true
		}
	}
	return EncodedImage{}, false
}

func describeResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "blocked: " + resp.PromptFeedback.BlockReason
		}
		return "no candidates"
	}
	first := resp.Candidates[0]
	var text []string
	for _, part := range first.Content.Parts {
		if t := strings.TrimSpace(part.Text); t != "" {
			text = append(text, t)
		}
	}
	desc := "finish reason " + first.FinishReason
	if first.FinishReason == "" {
		desc = "no image part"
	}
	if len(text) > 0 {
		desc += ": " + truncate(strings.Join(text, " "), 200)
	}
	return desc
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
