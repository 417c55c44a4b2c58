package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/char/html"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

const (
	// DefaultLimit caps the number of results returned per query.
	DefaultLimit = 20
	// DefaultFuzziness is the maximum edit distance for term matches.
	DefaultFuzziness = 1

	analyzerName = "catalog_text"
	fieldName    = "name"
	fieldDesc    = "description"
)

// Config holds search tuning.
type Config struct {
	Limit     int
	Fuzziness *int // nil selects DefaultFuzziness; 0 means exact terms
}

// Index builds a throwaway in-memory bleve index per query over a snapshot.
// Catalog snapshots are small; rebuilding per query bounds scale, not correctness.
type Index struct {
	limit     int
	fuzziness int
	mapping   mapping.IndexMapping
}

// indexedDoc is the searchable projection of a product.
type indexedDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type hit struct {
	pos   int
	score float64
}

// New creates an Index.
func New(cfg Config) (*Index, error) {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	fuzziness := DefaultFuzziness
	if cfg.Fuzziness != nil {
		fuzziness = *cfg.Fuzziness
	}
	if fuzziness < 0 || fuzziness > 2 {
		return nil, fmt.Errorf("fuzziness must be between 0 and 2, got %d", fuzziness)
	}

	m, err := newMapping()
	if err != nil {
		return nil, err
	}
	return &Index{limit: cfg.Limit, fuzziness: fuzziness, mapping: m}, nil
}

// Limit returns the maximum number of results per query.
func (ix *Index) Limit() int { return ix.limit }

// newMapping indexes name and description with HTML stripped and lowercased terms.
func newMapping() (*mapping.IndexMappingImpl, error) {
	m := bleve.NewIndexMapping()
	err := m.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":          custom.Name,
		"char_filters":  []string{html.Name},
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("add analyzer: %w", err)
	}
	m.DefaultAnalyzer = analyzerName

	doc := bleve.NewDocumentMapping()
	for _, f := range []string{fieldName, fieldDesc} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzerName
		fm.Store = false
		fm.IncludeInAll = false
		doc.AddFieldMappingsAt(f, fm)
	}
	m.DefaultMapping = doc
	return m, nil
}

// Search returns up to Limit products matching q, highest relevance first.
// Equal scores keep snapshot order. A blank query matches nothing.
func (ix *Index) Search(ctx context.Context, products []product.Product, q string) ([]product.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" || len(products) == 0 {
		return []product.Product{}, nil
	}

	idx, err := bleve.NewMemOnly(ix.mapping)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = idx.Close() }()

	batch := idx.NewBatch()
	for i := range products {
		doc := indexedDoc{Name: products[i].Name, Description: products[i].Description}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			return nil, fmt.Errorf("index product %d: %w", products[i].ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("index batch: %w", err)
	}

	req := bleve.NewSearchRequestOptions(ix.buildQuery(q), len(products), 0, false)
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		pos, err := strconv.Atoi(h.ID)
		if err != nil || pos < 0 || pos >= len(products) {
			continue
		}
		hits = append(hits, hit{pos: pos, score: h.Score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})
	if len(hits) > ix.limit {
		hits = hits[:ix.limit]
	}

	out := make([]product.Product, len(hits))
	for i, h := range hits {
		out[i] = products[h.pos]
	}
	return out, nil
}

// buildQuery matches q fuzzily against name and description, plus a prefix of the
// last term against name so partially typed words still hit.
func (ix *Index) buildQuery(q string) query.Query {
	var disjuncts []query.Query
	for _, f := range []string{fieldName, fieldDesc} {
		mq := bleve.NewMatchQuery(q)
		mq.SetField(f)
		mq.SetFuzziness(ix.fuzziness)
		disjuncts = append(disjuncts, mq)
	}

	terms := strings.Fields(strings.ToLower(q))
	if last := terms[len(terms)-1]; len(last) >= 2 {
		pq := bleve.NewPrefixQuery(last)
		pq.SetField(fieldName)
		disjuncts = append(disjuncts, pq)
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}
