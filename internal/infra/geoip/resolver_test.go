package geoip

import (
	"errors"
	"testing"
)

func TestOpenEmptyPath(t *testing.T) {
	r, err := Open("  ")
	if err != nil || r != nil {
		t.Fatalf("Open(empty) = %v, %v", r, err)
	}
	if _, err := r.CountryCode("8.8.8.8"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if r.Lookup() != nil {
		t.Fatalf("nil resolver should not provide a lookup")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close on nil resolver: %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatalf("expected error for missing database")
	}
}
