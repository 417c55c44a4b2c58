package product

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
)

// Upstream metadata keys.
const (
	MetaVersion   = "product-version"
	MetaDemoLink  = "demo-link"
	MetaFree      = "is-free"
	MetaBrand     = "brand"
	MetaPopular   = "popular"
	MetaDeveloper = "developer"
	MetaDemoURL   = "demo-url"
	MetaDevURL    = "dev-url"
)

// Normalize maps one upstream record to a Product with Type unset.
// Records without an identifier or a name are rejected with domain.ErrInvalidProduct.
func Normalize(raw *RawProduct) (Product, error) {
	if raw == nil {
		return Product{}, fmt.Errorf("%w: nil record", domain.ErrInvalidProduct)
	}
	if raw.ID <= 0 {
		return Product{}, fmt.Errorf("%w: missing id (name %q)", domain.ErrInvalidProduct, raw.Name)
	}
	if strings.TrimSpace(raw.Name) == "" {
		return Product{}, fmt.Errorf("%w: product %d: missing name", domain.ErrInvalidProduct, raw.ID)
	}

	image := ""
	if len(raw.Images) > 0 {
		image = raw.Images[0].Src
	}

	categories := make([]Category, 0, len(raw.Categories))
	for _, c := range raw.Categories {
		categories = append(categories, Category{Name: c.Name, Slug: c.Slug})
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, t := range raw.Tags {
		tags = append(tags, t.Name)
	}

	return Product{
		ID:           raw.ID,
		Name:         raw.Name,
		Version:      meta(raw, MetaVersion),
		Image:        image,
		Description:  raw.Description,
		Permalink:    raw.Permalink,
		DemoLink:     meta(raw, MetaDemoLink),
		LastUpdate:   raw.DateModifiedGMT,
		Free:         meta(raw, MetaFree),
		Brand:        meta(raw, MetaBrand),
		Developer:    meta(raw, MetaDeveloper),
		DemoURL:      meta(raw, MetaDemoURL),
		DevURL:       meta(raw, MetaDevURL),
		Popular:      meta(raw, MetaPopular),
		Price:        raw.Price,
		RegularPrice: raw.RegularPrice,
		SalePrice:    raw.SalePrice,
		Categories:   categories,
		Tags:         tags,
	}, nil
}

func meta(raw *RawProduct, key string) json.RawMessage {
	v, ok := raw.Meta(key)
	if !ok || len(v) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), v...)
}
