package product

import "encoding/json"

// RawProduct is a product record as returned by the upstream catalog API.
type RawProduct struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Permalink       string        `json:"permalink"`
	DateModifiedGMT string        `json:"date_modified_gmt"`
	Price           string        `json:"price"`
	RegularPrice    string        `json:"regular_price"`
	SalePrice       string        `json:"sale_price"`
	MetaData        []RawMeta     `json:"meta_data"`
	Images          []RawImage    `json:"images"`
	Categories      []RawCategory `json:"categories"`
	Tags            []RawTag      `json:"tags"`
	Downloads       []RawDownload `json:"downloads,omitempty"`
}

// RawMeta is one free-text metadata entry. Keys are not unique upstream.
type RawMeta struct {
	ID    int64           `json:"id,omitempty"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// RawImage is an upstream product image.
type RawImage struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src"`
}

// RawCategory is an upstream product category.
type RawCategory struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// RawTag is an upstream product tag.
type RawTag struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// RawDownload is a downloadable file attached to a product.
type RawDownload struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	File string `json:"file"`
}

// Meta returns the value of the first metadata entry with the given key.
func (r *RawProduct) Meta(key string) (json.RawMessage, bool) {
	for _, m := range r.MetaData {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}
