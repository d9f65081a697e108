package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"modaflow/internal/domain"
)

func newTestStore() *Store {
	s := NewStore()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s
}

func validProduct(name string) domain.Product {
	return domain.Product{
		Name:     name,
		SKU:      "SKU-" + name,
		Price:    10,
		Category: "Chaquetas",
		ImageURL: "data:image/png;base64,AAAA",
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"vintage, denim ,casual", []string{"vintage", "denim", "casual"}},
		{"  ,, ", []string{}},
		{"Verano,verano,VERANO,playa", []string{"verano", "playa"}},
		{"", []string{}},
	}
	for _, tc := range tests {
		got := ParseTags(tc.input)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParseTags(%q) = %#v, want %#v", tc.input, got, tc.want)
		}
	}
}

func TestParseTagsConcurrent(t *testing.T) {
	inputs := []string{"Otoño, LANA", "ÉTÉ,Été", "Straße,DENIM", "İstanbul, Vintage"}
	want := make([][]string, len(inputs))
	for i, in := range inputs {
		want[i] = ParseTags(in)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				i := (g + n) % len(inputs)
				if got := ParseTags(inputs[i]); !reflect.DeepEqual(got, want[i]) {
					errs <- fmt.Sprintf("ParseTags(%q) = %#v, want %#v", inputs[i], got, want[i])
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatal(msg)
	}
}

func TestAddProductPrependsAndAssignsID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	first, err := s.AddProduct(ctx, validProduct("a"))
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if first.ID != "id-1" || first.CreatedAt.IsZero() {
		t.Fatalf("unexpected product: %+v", first)
	}
	if _, err := s.AddProduct(ctx, validProduct("b")); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}

	list, err := s.ListProducts(ctx, domain.ProductFilter{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(list) != 2 || list[0].Name != "b" || list[1].Name != "a" {
		t.Fatalf("expected newest first, got %+v", list)
	}
}

func TestAddProductValidation(t *testing.T) {
	tests := map[string]func(p *domain.Product){
		"missing name":     func(p *domain.Product) { p.Name = " " },
		"missing sku":      func(p *domain.Product) { p.SKU = "" },
		"zero price":       func(p *domain.Product) { p.Price = 0 },
		"negative price":   func(p *domain.Product) { p.Price = -5 },
		"missing image":    func(p *domain.Product) { p.ImageURL = "" },
		"missing category": func(p *domain.Product) { p.Category = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := validProduct("x")
			mutate(&p)
			if _, err := newTestStore().AddProduct(context.Background(), p); !errors.Is(err, domain.ErrInvalidProduct) {
				t.Fatalf("expected ErrInvalidProduct, got %v", err)
			}
		})
	}
}

func TestListProductsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.Seed()

	byCategory, _ := s.ListProducts(ctx, domain.ProductFilter{Category: "vestidos"})
	if len(byCategory) != 1 || byCategory[0].SKU != "SMMR-DRS-02" {
		t.Fatalf("category filter: %+v", byCategory)
	}
	byTag, _ := s.ListProducts(ctx, domain.ProductFilter{Tag: "DENIM"})
	if len(byTag) != 1 || byTag[0].SKU != "VINT-001" {
		t.Fatalf("tag filter: %+v", byTag)
	}
	none, _ := s.ListProducts(ctx, domain.ProductFilter{Category: "Chaquetas", Tag: "playa"})
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %+v", none)
	}
}

func TestSeedOrder(t *testing.T) {
	s := newTestStore()
	s.Seed()
	list, _ := s.ListProducts(context.Background(), domain.ProductFilter{})
	if len(list) != 3 || list[0].ID != "1" || list[2].ID != "3" {
		t.Fatalf("unexpected seed order: %+v", list)
	}
	products, categories := s.Counts()
	if products != 3 || categories != 3 {
		t.Fatalf("Counts = %d, %d", products, categories)
	}
}

func TestGetAndDeleteProduct(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.Seed()

	p, err := s.GetProduct(ctx, "2")
	if err != nil || p.Name != "Vestido Floral de Verano" {
		t.Fatalf("GetProduct = %+v, %v", p, err)
	}
	p.Tags[0] = "mutated"
	again, _ := s.GetProduct(ctx, "2")
	if again.Tags[0] != "verano" {
		t.Fatalf("store state leaked through returned product")
	}

	if err := s.DeleteProduct(ctx, "2"); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := s.GetProduct(ctx, "2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteProduct(ctx, "2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	s.Seed()

	c, err := s.AddCategory(ctx, domain.Category{Name: "Camisetas", ImageURL: "https://example.com/c.png"})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	list, _ := s.ListCategories(ctx)
	if len(list) != 4 || list[3].ID != c.ID {
		t.Fatalf("expected appended category, got %+v", list)
	}

	if _, err := s.AddCategory(ctx, domain.Category{Name: "chaquetas", ImageURL: "x"}); !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := s.AddCategory(ctx, domain.Category{Name: "Bolsos"}); !errors.Is(err, domain.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}

	if err := s.DeleteCategory(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	jackets, _ := s.ListProducts(ctx, domain.ProductFilter{Category: "Chaquetas"})
	if len(jackets) != 1 {
		t.Fatalf("deleting a category must not remove its products, got %+v", jackets)
	}
	if err := s.DeleteCategory(ctx, "c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStore().ListProducts(ctx, domain.ProductFilter{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = s.AddProduct(ctx, validProduct(fmt.Sprintf("p%d", i)))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.ListProducts(ctx, domain.ProductFilter{})
		}()
	}
	wg.Wait()
	if n, _ := s.Counts(); n != 20 {
		t.Fatalf("expected 20 products, got %d", n)
	}
}
