package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/joho/godotenv"

	"modaflow/internal/i18n"
	"modaflow/internal/infra"
	"modaflow/internal/providers/genai"
	"modaflow/internal/storage"
	"modaflow/internal/tryon"
)

func main() {
	_ = godotenv.Load(".env.local", ".env")

	var (
		userFlag         string
		productFlag      string
		instructionsFlag string
		outFlag          string
		keyFlag          string
		modelFlag        string
		localeFlag       string
	)
	flag.StringVar(&userFlag, "user", "", "Photo of the shopper: local file, URL or data URI")
	flag.StringVar(&productFlag, "product", "", "Garment image: local file, URL or data URI")
	flag.StringVar(&instructionsFlag, "instructions", "", "Optional styling instructions")
	flag.StringVar(&outFlag, "out", ".", "Directory the generated image is written to")
	flag.StringVar(&keyFlag, "key", "", "Gemini API key (fallbacks to GEMINI_API_KEY)")
	flag.StringVar(&modelFlag, "model", "", "Image model (fallbacks to GEMINI_IMAGE_MODEL)")
	flag.StringVar(&localeFlag, "locale", "es", "Language for error messages (es or en)")
	flag.Parse()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	model := strings.TrimSpace(modelFlag)
	if model == "" {
		model = strings.TrimSpace(os.Getenv("GEMINI_IMAGE_MODEL"))
	}

	userRef, err := reference(userFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "user image: %v\n", err)
		os.Exit(1)
	}
	productRef, err := reference(productFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "product image: %v\n", err)
		os.Exit(1)
	}

	logger := infra.NewLogger("cli").Output(os.Stderr).With().Str("cmd", "tryon").Logger()
	requester := tryon.NewRequester(tryon.Options{
		APIKey: key,
		Model:  model,
		Capability: genai.NewClient(genai.Options{
			APIKey:     key,
			BaseURL:    os.Getenv("GEMINI_BASE_URL"),
			HTTPClient: &http.Client{Timeout: 2 * time.Minute},
			Logger:     &logger,
		}),
		Logger: &logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	result, err := requester.RequestTryOn(ctx, tryon.Request{
		UserImage:    userRef,
		ProductImage: productRef,
		Instructions: instructionsFlag,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, i18n.Text(localeFlag, messageKey(tryon.KindOf(err))))
		logger.Debug().Err(err).Msg("try-on failed")
		os.Exit(1)
	}

	store, err := storage.NewFileStore(outFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	path, err := store.SaveImage(ctx, result.Image, result.GeneratedAt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Println(path)
}

// reference turns a CLI argument into an image reference. URLs and data URIs
// are passed through; anything else must name a readable image file, which is
// wrapped in a data URI.
func reference(arg string) (tryon.ImageReference, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return tryon.ImageReference{}, nil
	}
	if isAddressOrDataURI(arg) {
		return tryon.ParseReference(arg), nil
	}
	info, err := os.Stat(arg)
	if err != nil {
		return tryon.ImageReference{}, fmt.Errorf("open %s: %w", arg, err)
	}
	if info.IsDir() {
		return tryon.ImageReference{}, fmt.Errorf("%s is a directory", arg)
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return tryon.ImageReference{}, fmt.Errorf("read %s: %w", arg, err)
	}
	mediaType := mimetype.Detect(data).String()
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return tryon.ImageReference{}, fmt.Errorf("%s is not an image (%s)", arg, mediaType)
	}
	return tryon.Inline("data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

func isAddressOrDataURI(arg string) bool {
	lower := strings.ToLower(arg)
	for _, prefix := range []string{"http://", "https://", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func messageKey(kind tryon.Kind) string {
	switch kind {
	case tryon.KindConfiguration:
		return i18n.KeyMissingCredential
	case tryon.KindInvalidRequest:
		return i18n.KeyMissingInput
	case tryon.KindFetch, tryon.KindDecode:
		return i18n.KeyRemoteImage
	case tryon.KindBadRequest:
		return i18n.KeyBadRequest
	case tryon.KindNoImage:
		return i18n.KeyNoImage
	default:
		return i18n.KeyGeneric
	}
}
