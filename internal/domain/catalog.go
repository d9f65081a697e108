package domain

import (
	"context"
	"time"
)

// Product is a catalog item. ImageURL holds either a data URI uploaded by the
// merchant or a remote address.
type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category groups products by name.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// ProductFilter narrows ListProducts. Empty fields match everything.
type ProductFilter struct {
	Category string
	Tag      string
}

// GeneratedResult is a finished try-on image.
type GeneratedResult struct {
	ImageURL  string    `json:"image_url"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductRepository defines access methods for products.
type ProductRepository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	AddProduct(ctx context.Context, product Product) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CategoryRepository defines access methods for categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	AddCategory(ctx context.Context, category Category) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
}
