// Package catalog keeps the storefront's products and categories in memory.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"modaflow/internal/domain"
)

// Store is a concurrency-safe in-memory catalog. Products are held newest
// first and categories in creation order.
type Store struct {
	mu         sync.RWMutex
	products   []domain.Product
	categories []domain.Category
	now        func() time.Time
	newID      func() string
}

var (
	_ domain.ProductRepository  = (*Store)(nil)
	_ domain.CategoryRepository = (*Store)(nil)
)

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// ListProducts returns products matching filter, newest first.
func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(filter.Category)
	tag := strings.TrimSpace(filter.Tag)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if tag != "" && !hasTag(p.Tags, tag) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

// GetProduct looks up a product by id.
func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			cp := cloneProduct(p)
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
}

// AddProduct validates and prepends a product. ID and CreatedAt are assigned
// by the store when empty.
func (s *Store) AddProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	product.Name = strings.TrimSpace(product.Name)
	product.SKU = strings.TrimSpace(product.SKU)
	product.Category = strings.TrimSpace(product.Category)
	product.ImageURL = strings.TrimSpace(product.ImageURL)
	product.Description = strings.TrimSpace(product.Description)
	if product.Name == "" || product.SKU == "" || product.Price <= 0 || product.ImageURL == "" || product.Category == "" {
		return nil, domain.ErrInvalidProduct
	}
	product.Tags = normalizeTags(product.Tags)

	s.mu.Lock()
	defer s.mu.Unlock()
	if product.ID == "" {
		product.ID = s.newID()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = s.now().UTC()
	}
	s.products = append([]domain.Product{product}, s.products...)
	cp := cloneProduct(product)
	return &cp, nil
}

// DeleteProduct removes a product by id.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
}

// ListCategories returns categories in creation order.
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

// AddCategory validates and appends a category. Names are unique ignoring case.
func (s *Store) AddCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	category.Name = strings.TrimSpace(category.Name)
	category.ImageURL = strings.TrimSpace(category.ImageURL)
	if category.Name == "" || category.ImageURL == "" {
		return nil, domain.ErrInvalidCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return nil, fmt.Errorf("category %q: %w", category.Name, domain.ErrDuplicate)
		}
	}
	if category.ID == "" {
		category.ID = s.newID()
	}
	s.categories = append(s.categories, category)
	cp := category
	return &cp, nil
}

// DeleteCategory removes a category by id. Products filed under it are kept.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("category %q: %w", id, domain.ErrNotFound)
}

// Counts reports the number of products and categories held.
func (s *Store) Counts() (products, categories int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), len(s.categories)
}

// lowerTag folds a tag to lower case. cases.Caser keeps state between calls,
// so each call gets its own.
func lowerTag(s string) string {
	return cases.Lower(language.Und).String(s)
}

// ParseTags splits a comma separated list into normalized tags.
func ParseTags(csv string) []string {
	return normalizeTags(strings.Split(csv, ","))
}

func normalizeTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = lowerTag(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func hasTag(tags []string, want string) bool {
	want = lowerTag(want)
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func cloneProduct(p domain.Product) domain.Product {
	p.Tags = append([]string(nil), p.Tags...)
	return p
}

// sortNewestFirst orders products by CreatedAt descending, keeping the
// relative order of equal timestamps.
func sortNewestFirst(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}
