package catalog

import (
	"time"

	"modaflow/internal/domain"
)

var seedCategories = []domain.Category{
	{ID: "c1", Name: "Chaquetas", ImageURL: "https://images.unsplash.com/photo-1551028919-ac7eed881093?ixlib=rb-4.0.3&auto=format&fit=crop&w=500&q=80"},
	{ID: "c2", Name: "Vestidos", ImageURL: "https://images.unsplash.com/photo-1595777457583-95e059d581b8?ixlib=rb-4.0.3&auto=format&fit=crop&w=500&q=80"},
	{ID: "c3", Name: "Sudaderas", ImageURL: "https://images.unsplash.com/photo-1556905055-8f358a7a47b2?ixlib=rb-4.0.3&auto=format&fit=crop&w=500&q=80"},
}

var seedProducts = []domain.Product{
	{
		ID:          "1",
		SKU:         "VINT-001",
		Name:        "Cazadora Vaquera Vintage",
		Price:       89.99,
		Category:    "Chaquetas",
		Tags:        []string{"vintage", "denim", "casual", "invierno"},
		Description: "Cazadora vaquera clásica lavada con estilo retro y corte relajado.",
		ImageURL:    "https://images.unsplash.com/photo-1523205565295-f8e91625443b?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          "2",
		SKU:         "SMMR-DRS-02",
		Name:        "Vestido Floral de Verano",
		Price:       45.50,
		Category:    "Vestidos",
		Tags:        []string{"verano", "floral", "ligero", "playa"},
		Description: "Vestido ligero de algodón con estampado floral, perfecto para días soleados.",
		ImageURL:    "https://images.unsplash.com/photo-1572804013309-59a88b7e92f1?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          "3",
		SKU:         "URBN-HD-99",
		Name:        "Sudadera Urbana Street",
		Price:       65.00,
		Category:    "Sudaderas",
		Tags:        []string{"streetwear", "negro", "oversize", "algodón"},
		Description: "Sudadera negra oversize de estilo urbano con diseño minimalista.",
		ImageURL:    "https://images.unsplash.com/photo-1556905055-8f358a7a47b2?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
}

// Seed loads the demo categories and products. Products keep their listed
// order; each is stamped a second apart so newest-first ordering holds.
func (s *Store) Seed() {
	base := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = append(s.categories, seedCategories...)
	products := make([]domain.Product, 0, len(seedProducts))
	for i, p := range seedProducts {
		p = cloneProduct(p)
		p.CreatedAt = base.Add(-time.Duration(i) * time.Second)
		products = append(products, p)
	}
	s.products = append(s.products, products...)
	sortNewestFirst(s.products)
}
