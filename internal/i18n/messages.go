// Package i18n holds the user-facing messages of the storefront. Spanish is
// the default language; English is the only other supported locale.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyMissingCredential = "tryon.missing_credential"
	KeyMissingInput      = "tryon.missing_input"
	KeyRemoteImage       = "tryon.remote_image"
	KeyRemoteNotAllowed  = "tryon.remote_not_allowed"
	KeyBadRequest        = "tryon.bad_request"
	KeyNoImage           = "tryon.no_image"
	KeyGeneric           = "tryon.generic"
	KeyShareText         = "tryon.share_text"
	KeyProductNotFound   = "catalog.product_not_found"
	KeyCategoryNotFound  = "catalog.category_not_found"
	KeyInvalidProduct    = "catalog.invalid_product"
	KeyInvalidCategory   = "catalog.invalid_category"
	KeyDuplicateCategory = "catalog.duplicate_category"
	KeyRoleRequired      = "role.required"
	KeyInvalidPayload    = "request.invalid_payload"
	KeyRateLimited       = "request.rate_limited"
	KeyProductAdded      = "catalog.product_added"
	KeyCategoryAdded     = "catalog.category_added"
)

var (
	Spanish = language.Spanish
	English = language.English

	supported = []language.Tag{Spanish, English}
	matcher   = language.NewMatcher(supported)
	cat       = catalog.NewBuilder(catalog.Fallback(Spanish))
)

var entries = map[string][2]string{
	KeyMissingCredential: {
		"Falta la clave API. Por favor verifica tu configuración de entorno.",
		"The API key is missing. Please check your environment configuration.",
	},
	KeyMissingInput: {
		"Por favor, asegúrate de subir tu foto y seleccionar una prenda.",
		"Please make sure you upload your photo and select a garment.",
	},
	KeyRemoteImage: {
		"No se pudo procesar la imagen del producto (URL remota). Intenta descargar la imagen y subirla manualmente.",
		"The product image (remote URL) could not be processed. Try downloading the image and uploading it manually.",
	},
	KeyRemoteNotAllowed: {
		"Sube las imágenes directamente; no se aceptan direcciones remotas.",
		"Upload the images directly; remote addresses are not accepted.",
	},
	KeyBadRequest: {
		"Error en la solicitud (400). Verifica que las imágenes sean válidas y no estén corruptas.",
		"Request error (400). Make sure the images are valid and not corrupted.",
	},
	KeyNoImage: {
		"No se pudo generar la imagen. Por favor intenta con una foto o instrucción diferente.",
		"The image could not be generated. Please try a different photo or instruction.",
	},
	KeyGeneric: {
		"Error al generar la imagen. Inténtalo de nuevo.",
		"Failed to generate the image. Please try again.",
	},
	KeyShareText: {
		"¡Mira cómo me queda este/a %s! Creado con ModaFlow Probador Virtual.",
		"Look how this %s fits me! Created with ModaFlow Virtual Fitting Room.",
	},
	KeyProductNotFound: {
		"Producto no encontrado.",
		"Product not found.",
	},
	KeyCategoryNotFound: {
		"Categoría no encontrada.",
		"Category not found.",
	},
	KeyInvalidProduct: {
		"Completa nombre, SKU, precio, categoría e imagen del artículo.",
		"Fill in the item's name, SKU, price, category and image.",
	},
	KeyInvalidCategory: {
		"Indica el nombre y la imagen de la categoría.",
		"Provide the category name and image.",
	},
	KeyDuplicateCategory: {
		"Ya existe una categoría con ese nombre.",
		"A category with that name already exists.",
	},
	KeyRoleRequired: {
		"Esta acción no está disponible para tu perfil.",
		"This action is not available for your role.",
	},
	KeyInvalidPayload: {
		"La solicitud no es válida.",
		"The request is not valid.",
	},
	KeyRateLimited: {
		"Demasiadas solicitudes. Espera un momento e inténtalo de nuevo.",
		"Too many requests. Wait a moment and try again.",
	},
	KeyProductAdded: {
		"¡Artículo añadido al catálogo correctamente!",
		"Item added to the catalog successfully!",
	},
	KeyCategoryAdded: {
		"¡Categoría creada correctamente!",
		"Category created successfully!",
	},
}

func init() {
	for key, texts := range entries {
		if err := cat.SetString(Spanish, key, texts[0]); err != nil {
			panic(err)
		}
		if err := cat.SetString(English, key, texts[1]); err != nil {
			panic(err)
		}
	}
}

// Match picks the best supported language for the given preferences. Each
// argument may be a bare tag ("en") or an Accept-Language header value.
func Match(preferences ...string) language.Tag {
	var tags []language.Tag
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return Spanish
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Spanish
	}
	return supported[idx]
}

// Locale returns the short code ("es" or "en") for a tag.
func Locale(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Printer returns a printer for a locale code such as "es" or "en".
func Printer(locale string) *message.Printer {
	return message.NewPrinter(Match(locale), message.Catalog(cat))
}

// Text renders key in the given locale.
func Text(locale, key string, args ...any) string {
	return Printer(locale).Sprintf(key, args...)
}
