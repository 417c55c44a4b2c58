// Package product holds the canonical catalog record and the rules that derive it
// from upstream records: field extraction and theme/plugin classification.
package product

import "encoding/json"

// Type is the derived product kind.
type Type string

const (
	// TypeUnset marks a product that matched no marker category.
	TypeUnset Type = ""
	// TypeTheme marks a theme.
	TypeTheme Type = "theme"
	// TypePlugin marks a plugin.
	TypePlugin Type = "plugin"
)

// Category is a {name, slug} pair projected from the upstream category list.
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Product is the canonical catalog entry.
// Metadata-derived fields hold the upstream value verbatim and are omitted when the key is absent.
type Product struct {
	ID           int64           `json:"productID"`
	Name         string          `json:"name"`
	Version      json.RawMessage `json:"version,omitempty"`
	Image        string          `json:"image"`
	Description  string          `json:"description"`
	Permalink    string          `json:"permalink"`
	DemoLink     json.RawMessage `json:"demoLink,omitempty"`
	LastUpdate   string          `json:"lastUpdate"`
	Free         json.RawMessage `json:"free,omitempty"`
	Brand        json.RawMessage `json:"brand,omitempty"`
	Developer    json.RawMessage `json:"developer,omitempty"`
	DemoURL      json.RawMessage `json:"demo-url,omitempty"`
	DevURL       json.RawMessage `json:"dev-url,omitempty"`
	Popular      json.RawMessage `json:"popular,omitempty"`
	Price        string          `json:"price"`
	RegularPrice string          `json:"regular_price"`
	SalePrice    string          `json:"sale_price"`
	Categories   []Category      `json:"categories"`
	Tags         []string        `json:"tags"`
	Type         Type            `json:"type,omitempty"`
}

// SearchRecord is the lightweight listing shape of a product.
// Category carries the description, matching the legacy listing format.
type SearchRecord struct {
	ID       int64  `json:"productID"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Type     Type   `json:"type,omitempty"`
	Image    string `json:"image"`
}

// SearchRecord projects the product into its listing shape.
func (p *Product) SearchRecord() SearchRecord {
	return SearchRecord{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Description,
		Type:     p.Type,
		Image:    p.Image,
	}
}
